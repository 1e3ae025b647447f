package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApplyMovementRequest cuerpo de POST /api/movements.
// Actor es informativo: el servidor usa el operador del token.
type ApplyMovementRequest struct {
	ProductRef        string          `json:"product_ref"`
	MovementType      string          `json:"movement_type"`
	Quantity          decimal.Decimal `json:"quantity"`
	SourceWarehouseID *int64          `json:"source_warehouse_id,omitempty"`
	DestWarehouseID   *int64          `json:"dest_warehouse_id,omitempty"`
	Actor             string          `json:"actor,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	OccurredAt        time.Time       `json:"occurred_at"`
	IdempotencyKey    string          `json:"idempotency_key,omitempty"`
}

// ApplyMovementResponse 201 (nuevo) o 200 (reenvío).
type ApplyMovementResponse struct {
	OK         bool   `json:"ok"`
	MovementID string `json:"movement_id"`
	Replayed   bool   `json:"replayed"`
}

// LedgerMovementResponse fila del historial.
type LedgerMovementResponse struct {
	ID                string          `json:"id"`
	ProductID         int64           `json:"product_id"`
	ProductRef        string          `json:"product_ref"`
	MovementType      string          `json:"movement_type"`
	Quantity          decimal.Decimal `json:"quantity"`
	SourceWarehouseID *int64          `json:"source_warehouse_id,omitempty"`
	DestWarehouseID   *int64          `json:"dest_warehouse_id,omitempty"`
	Actor             string          `json:"actor"`
	Notes             string          `json:"notes,omitempty"`
	OccurredAt        time.Time       `json:"occurred_at"`
	IdempotencyKey    string          `json:"idempotency_key"`
	CreatedAt         time.Time       `json:"created_at"`
}

// MovementListResponse GET /api/movements.
type MovementListResponse struct {
	Movements []LedgerMovementResponse `json:"movements"`
	Page      PageResponse             `json:"page"`
}
