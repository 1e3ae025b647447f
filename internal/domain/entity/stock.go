package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock representa el stock actual de un producto en una bodega.
type Stock struct {
	ProductID   int64
	WarehouseID int64
	Quantity    decimal.Decimal
	Reserved    decimal.Decimal
	UpdatedAt   time.Time
}

// WarehouseStock stock de un producto en una bodega, con datos de la bodega para consulta.
type WarehouseStock struct {
	Warehouse Warehouse
	Quantity  decimal.Decimal
	Reserved  decimal.Decimal
	UpdatedAt time.Time
}
