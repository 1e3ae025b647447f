package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerMovement fila inmutable del ledger: un movimiento aplicado a las bodegas.
// IdempotencyKey es único; un reenvío con la misma llave devuelve esta fila.
type LedgerMovement struct {
	ID                string
	ProductID         int64
	ProductRef        string
	Type              MovementType
	Quantity          decimal.Decimal
	SourceWarehouseID *int64
	DestWarehouseID   *int64
	Actor             string
	Notes             string
	OccurredAt        time.Time
	IdempotencyKey    string
	CreatedAt         time.Time
}
