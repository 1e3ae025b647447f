package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-scan/internal/domain/entity"
	"github.com/jhoicas/inventario-scan/internal/domain/repository"
)

// ProductLookup producto con sus códigos de barras y stock por bodega.
type ProductLookup struct {
	Product          *entity.Product
	Barcodes         []entity.Barcode
	StockByWarehouse []entity.WarehouseStock
	TotalStock       decimal.Decimal
}

// ProductLookupUseCase consulta de solo lectura para el escáner.
type ProductLookupUseCase struct {
	productRepo repository.ProductRepository
	stockRepo   repository.StockRepository
}

// NewProductLookupUseCase construye el caso de uso.
func NewProductLookupUseCase(productRepo repository.ProductRepository, stockRepo repository.StockRepository) *ProductLookupUseCase {
	return &ProductLookupUseCase{productRepo: productRepo, stockRepo: stockRepo}
}

// Lookup resuelve ref (EAN o SKU) y suma el stock de todas las bodegas.
func (uc *ProductLookupUseCase) Lookup(ctx context.Context, ref string) (*ProductLookup, error) {
	product, err := resolveProduct(ctx, uc.productRepo, ref)
	if err != nil {
		return nil, err
	}
	barcodes, err := uc.productRepo.ListBarcodes(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	stocks, err := uc.stockRepo.ListByProduct(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, s := range stocks {
		total = total.Add(s.Quantity)
	}
	return &ProductLookup{
		Product:          product,
		Barcodes:         barcodes,
		StockByWarehouse: stocks,
		TotalStock:       total,
	}, nil
}
