package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product producto del catálogo. El SKU es interno; los EAN viven en Barcode.
type Product struct {
	ID          int64
	SKU         string
	Name        string
	Description string
	Brand       string
	CostPrice   decimal.Decimal
	SalePrice   decimal.Decimal
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Barcode código EAN/GTIN asociado a un producto (unidad, caja, pallet).
type Barcode struct {
	ProductID int64
	EAN       string
	Level     string // unit, box, pallet
	PackQty   int
}
