package ledger

import (
	"context"

	"github.com/jhoicas/inventario-scan/internal/domain/entity"
	"github.com/jhoicas/inventario-scan/internal/domain/repository"
)

// Límites de paginación del historial.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// HistoryUseCase lista los movimientos recientes del ledger.
type HistoryUseCase struct {
	movementRepo repository.LedgerMovementRepository
}

// NewHistoryUseCase construye el caso de uso.
func NewHistoryUseCase(movementRepo repository.LedgerMovementRepository) *HistoryUseCase {
	return &HistoryUseCase{movementRepo: movementRepo}
}

// List devuelve los movimientos más recientes primero, acotando limit y offset.
func (uc *HistoryUseCase) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.LedgerMovement, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultHistoryLimit
	}
	if filter.Limit > MaxHistoryLimit {
		filter.Limit = MaxHistoryLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.movementRepo.List(ctx, filter)
}
