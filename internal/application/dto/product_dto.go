package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductDTO datos del producto para el escáner.
type ProductDTO struct {
	ID        int64           `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Brand     string          `json:"brand,omitempty"`
	SalePrice decimal.Decimal `json:"sale_price"`
	Status    string          `json:"status"`
}

// BarcodeDTO código EAN asociado.
type BarcodeDTO struct {
	EAN     string `json:"ean"`
	Level   string `json:"level"`
	PackQty int    `json:"pack_qty"`
}

// WarehouseStockDTO stock en una bodega.
type WarehouseStockDTO struct {
	WarehouseID   int64           `json:"warehouse_id"`
	WarehouseCode string          `json:"warehouse_code"`
	WarehouseName string          `json:"warehouse_name"`
	Quantity      decimal.Decimal `json:"quantity"`
	Reserved      decimal.Decimal `json:"reserved"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductLookupResponse GET /api/products/lookup?ref=.
type ProductLookupResponse struct {
	Product          ProductDTO          `json:"product"`
	Barcodes         []BarcodeDTO        `json:"barcodes"`
	StockByWarehouse []WarehouseStockDTO `json:"stock_by_warehouse"`
	TotalStock       decimal.Decimal     `json:"total_stock"`
}
