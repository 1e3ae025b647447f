package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-scan/internal/application/dto"
	"github.com/jhoicas/inventario-scan/internal/application/ledger"
)

// ProductLooker lo implementa *ledger.ProductLookupUseCase.
type ProductLooker interface {
	Lookup(ctx context.Context, ref string) (*ledger.ProductLookup, error)
}

// ProductHandler consulta de producto por EAN o SKU (protegido).
type ProductHandler struct {
	uc  ProductLooker
	log zerolog.Logger
}

// NewProductHandler construye el handler.
func NewProductHandler(uc ProductLooker, log zerolog.Logger) *ProductHandler {
	return &ProductHandler{uc: uc, log: log}
}

// Lookup godoc
// @Summary      Buscar producto por EAN o SKU con stock por bodega
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        ref  query  string  true  "EAN o SKU"
// @Success      200  {object}  dto.ProductLookupResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/lookup [get]
func (h *ProductHandler) Lookup(c *fiber.Ctx) error {
	ref := strings.TrimSpace(c.Query("ref"))
	if ref == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: dto.CodeValidation, Message: "ref requerido"})
	}
	res, err := h.uc.Lookup(c.UserContext(), ref)
	if err != nil {
		return writeError(c, h.log, err)
	}

	out := dto.ProductLookupResponse{
		Product: dto.ProductDTO{
			ID:        res.Product.ID,
			SKU:       res.Product.SKU,
			Name:      res.Product.Name,
			Brand:     res.Product.Brand,
			SalePrice: res.Product.SalePrice,
			Status:    res.Product.Status,
		},
		Barcodes:         make([]dto.BarcodeDTO, 0, len(res.Barcodes)),
		StockByWarehouse: make([]dto.WarehouseStockDTO, 0, len(res.StockByWarehouse)),
		TotalStock:       res.TotalStock,
	}
	for _, b := range res.Barcodes {
		out.Barcodes = append(out.Barcodes, dto.BarcodeDTO{EAN: b.EAN, Level: b.Level, PackQty: b.PackQty})
	}
	for _, s := range res.StockByWarehouse {
		out.StockByWarehouse = append(out.StockByWarehouse, dto.WarehouseStockDTO{
			WarehouseID:   s.Warehouse.ID,
			WarehouseCode: s.Warehouse.Code,
			WarehouseName: s.Warehouse.Name,
			Quantity:      s.Quantity,
			Reserved:      s.Reserved,
			UpdatedAt:     s.UpdatedAt,
		})
	}
	return c.JSON(out)
}
