package ledger

import (
	"context"

	"github.com/jhoicas/inventario-scan/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; si no, Commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.LedgerMovementRepository,
		stockRepo repository.StockRepository,
		warehouseRepo repository.WarehouseRepository,
	) error) error
}

// ReplayCache atajo opcional llave de idempotencia -> id del movimiento ya aplicado.
// La tabla del ledger sigue siendo la fuente de verdad; un fallo del caché no bloquea la operación.
type ReplayCache interface {
	Get(ctx context.Context, key string) (movementID string, ok bool, err error)
	Put(ctx context.Context, key, movementID string) error
}
