package offline

import (
	"context"

	"github.com/jhoicas/inventario-scan/internal/domain/entity"
)

// Store cola local durable de movimientos. Todas las mutaciones son mutuamente excluyentes
// por instancia; Enqueue no retorna hasta que el registro está persistido.
type Store interface {
	Enqueue(ctx context.Context, candidate entity.MovementCandidate) (string, error)
	Get(ctx context.Context, id string) (*entity.QueuedMovement, error)
	// List devuelve todos los registros en orden de inserción.
	List(ctx context.Context) ([]entity.QueuedMovement, error)
	// ListPending devuelve todos los pending y los failed con attemptCount < retryCeiling,
	// en orden de inserción.
	ListPending(ctx context.Context, retryCeiling int) ([]entity.QueuedMovement, error)
	MarkConfirmed(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, errorMessage string) error
	// ResetFailed devuelve un registro failed a pending y limpia lastError (reintento manual).
	// attemptCount se conserva: nunca decrece.
	ResetFailed(ctx context.Context, id string) error
	// Remove descarta un registro no confirmado (decisión manual del operador).
	// Un registro confirmado devuelve domain.ErrConflict; esos los elimina Prune.
	Remove(ctx context.Context, id string) error
	// Prune elimina los confirmed; pending y failed se conservan.
	Prune(ctx context.Context) (int, error)
	// ClearAll es destructivo e irreversible; el llamador debe exigir confirmación explícita.
	ClearAll(ctx context.Context) error
	Stats(ctx context.Context, retryCeiling int) (entity.QueueStats, error)
}
