package repository

import (
	"context"

	"github.com/jhoicas/inventario-scan/internal/domain/entity"
)

// MovementFilter filtros para el historial del ledger. Cero = sin filtro.
type MovementFilter struct {
	ProductID   int64
	WarehouseID int64
	Actor       string
	Limit       int
	Offset      int
}

// LedgerMovementRepository define el puerto de persistencia de las filas inmutables del ledger.
type LedgerMovementRepository interface {
	// Create inserta la fila. Devuelve domain.ErrConflict si la llave de idempotencia ya existe.
	Create(ctx context.Context, movement *entity.LedgerMovement) error
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.LedgerMovement, error)
	List(ctx context.Context, filter MovementFilter) ([]*entity.LedgerMovement, error)
}
