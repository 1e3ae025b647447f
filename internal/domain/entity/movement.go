package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-scan/internal/domain"
)

// MovementType tipo de movimiento de stock.
type MovementType string

// Tipos de movimiento de stock.
const (
	MovementInbound  MovementType = "inbound"  // entrada: solo bodega destino
	MovementOutbound MovementType = "outbound" // salida: solo bodega origen
	MovementTransfer MovementType = "transfer" // traslado entre bodegas distintas
)

// ParseMovementType acepta el valor en minúsculas o mayúsculas.
func ParseMovementType(s string) (MovementType, error) {
	t := MovementType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case MovementInbound, MovementOutbound, MovementTransfer:
		return t, nil
	}
	return "", fmt.Errorf("%w: tipo de movimiento desconocido %q", domain.ErrInvalidMovement, s)
}

// QueueStatus estado de un movimiento en la cola local.
type QueueStatus string

const (
	StatusPending   QueueStatus = "pending"
	StatusConfirmed QueueStatus = "confirmed" // terminal
	StatusFailed    QueueStatus = "failed"
)

// MovementCandidate datos capturados por el operador antes de entrar a la cola.
type MovementCandidate struct {
	ProductRef        string
	MovementType      MovementType
	Quantity          decimal.Decimal
	SourceWarehouseID *int64
	DestWarehouseID   *int64
	Actor             string
	Notes             string
	OccurredAt        time.Time
	IdempotencyKey    string
}

// Validate verifica cantidad > 0 y la combinación tipo/bodegas.
func (c MovementCandidate) Validate() error {
	if strings.TrimSpace(c.ProductRef) == "" {
		return fmt.Errorf("%w: product_ref requerido", domain.ErrInvalidMovement)
	}
	if strings.TrimSpace(c.Actor) == "" {
		return fmt.Errorf("%w: actor requerido", domain.ErrInvalidMovement)
	}
	if !c.Quantity.IsPositive() {
		return fmt.Errorf("%w: la cantidad debe ser mayor que cero", domain.ErrInvalidMovement)
	}
	return ValidateWarehouses(c.MovementType, c.SourceWarehouseID, c.DestWarehouseID, domain.ErrInvalidMovement)
}

// ValidateWarehouses aplica las reglas requerido/prohibido por tipo de movimiento.
// sentinel permite reutilizar la regla en el cliente (ErrInvalidMovement) y en el ledger (ErrInvalidWarehouse).
func ValidateWarehouses(t MovementType, source, dest *int64, sentinel error) error {
	switch t {
	case MovementInbound:
		if dest == nil || source != nil {
			return fmt.Errorf("%w: inbound requiere solo bodega destino", sentinel)
		}
	case MovementOutbound:
		if source == nil || dest != nil {
			return fmt.Errorf("%w: outbound requiere solo bodega origen", sentinel)
		}
	case MovementTransfer:
		if source == nil || dest == nil {
			return fmt.Errorf("%w: transfer requiere bodega origen y destino", sentinel)
		}
		if *source == *dest {
			return fmt.Errorf("%w: origen y destino deben ser distintos", sentinel)
		}
	default:
		return fmt.Errorf("%w: tipo de movimiento desconocido %q", sentinel, t)
	}
	return nil
}

// QueuedMovement intento de cambio de stock aún no confirmado en el ledger.
// Las etiquetas JSON son el esquema persistido de la cola; campos nuevos deben ser opcionales.
type QueuedMovement struct {
	ID                string          `json:"id"`
	ProductRef        string          `json:"productRef"`
	MovementType      MovementType    `json:"movementType"`
	Quantity          decimal.Decimal `json:"quantity"`
	SourceWarehouseID *int64          `json:"sourceWarehouseId,omitempty"`
	DestWarehouseID   *int64          `json:"destWarehouseId,omitempty"`
	Actor             string          `json:"actor"`
	Notes             string          `json:"notes,omitempty"`
	OccurredAt        time.Time       `json:"occurredAt"`
	IdempotencyKey    string          `json:"idempotencyKey"`
	AttemptCount      int             `json:"attemptCount"`
	Status            QueueStatus     `json:"status"`
	LastError         string          `json:"lastError,omitempty"`
}

// Exhausted indica si el registro alcanzó el techo de reintentos.
func (m QueuedMovement) Exhausted(retryCeiling int) bool {
	return m.Status == StatusFailed && m.AttemptCount >= retryCeiling
}

// SyncCandidate indica si el registro debe enviarse en el próximo ciclo.
func (m QueuedMovement) SyncCandidate(retryCeiling int) bool {
	switch m.Status {
	case StatusPending:
		return true
	case StatusFailed:
		return m.AttemptCount < retryCeiling
	}
	return false
}

// QueueStats agregación pura del contenido de la cola.
type QueueStats struct {
	Total          int `json:"total"`
	Pending        int `json:"pending"`
	Confirmed      int `json:"confirmed"`
	Failed         int `json:"failed"`
	RetryExhausted int `json:"retry_exhausted"`
}
