// Package queuestore implementa offline.Store: un adaptador durable sobre archivo JSON y uno
// en memoria para pruebas. Ambos comparten el mismo núcleo read-modify-write bajo un mutex;
// el adaptador de archivo suma un flock sobre un archivo vecino para excluir a otros procesos.
package queuestore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jhoicas/inventario-scan/internal/application/offline"
	"github.com/jhoicas/inventario-scan/internal/domain"
	"github.com/jhoicas/inventario-scan/internal/domain/entity"
)

// backend lee y escribe el conjunto completo de registros.
// lock excluye a otros procesos sobre el mismo almacenamiento; exclusive=false es lectura compartida.
type backend interface {
	lock(exclusive bool) (unlock func(), err error)
	load() ([]entity.QueuedMovement, error)
	save([]entity.QueuedMovement) error
}

// core serializa todas las operaciones de una cola (un escritor a la vez).
type core struct {
	mu    sync.Mutex
	b     backend
	newID func() string
}

var _ offline.Store = (*core)(nil)

func newCore(b backend) *core {
	return &core{b: b, newID: uuid.NewString}
}

// mutate carga, aplica fn y persiste si fn reporta cambios.
// El bloqueo exclusivo cubre todo el tramo load→fn→save.
func (c *core) mutate(ctx context.Context, fn func([]entity.QueuedMovement) ([]entity.QueuedMovement, bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	unlock, err := c.b.lock(true)
	if err != nil {
		return err
	}
	defer unlock()
	records, err := c.b.load()
	if err != nil {
		return err
	}
	updated, changed, err := fn(records)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return c.b.save(updated)
}

func (c *core) read(ctx context.Context) ([]entity.QueuedMovement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	unlock, err := c.b.lock(false)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return c.b.load()
}

func indexOf(records []entity.QueuedMovement, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *core) Enqueue(ctx context.Context, candidate entity.MovementCandidate) (string, error) {
	if err := candidate.Validate(); err != nil {
		return "", err
	}
	id := c.newID()
	rec := entity.QueuedMovement{
		ID:                id,
		ProductRef:        candidate.ProductRef,
		MovementType:      candidate.MovementType,
		Quantity:          candidate.Quantity,
		SourceWarehouseID: candidate.SourceWarehouseID,
		DestWarehouseID:   candidate.DestWarehouseID,
		Actor:             candidate.Actor,
		Notes:             candidate.Notes,
		OccurredAt:        candidate.OccurredAt,
		IdempotencyKey:    candidate.IdempotencyKey,
		AttemptCount:      0,
		Status:            entity.StatusPending,
	}
	err := c.mutate(ctx, func(records []entity.QueuedMovement) ([]entity.QueuedMovement, bool, error) {
		return append(records, rec), true, nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (c *core) Get(ctx context.Context, id string) (*entity.QueuedMovement, error) {
	records, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(records, id)
	if i < 0 {
		return nil, fmt.Errorf("movimiento %s: %w", id, domain.ErrNotFound)
	}
	rec := records[i]
	return &rec, nil
}

func (c *core) List(ctx context.Context) ([]entity.QueuedMovement, error) {
	return c.read(ctx)
}

func (c *core) ListPending(ctx context.Context, retryCeiling int) ([]entity.QueuedMovement, error) {
	records, err := c.read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entity.QueuedMovement, 0, len(records))
	for _, r := range records {
		if r.SyncCandidate(retryCeiling) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *core) MarkConfirmed(ctx context.Context, id string) error {
	return c.mutate(ctx, func(records []entity.QueuedMovement) ([]entity.QueuedMovement, bool, error) {
		i := indexOf(records, id)
		if i < 0 {
			return nil, false, fmt.Errorf("movimiento %s: %w", id, domain.ErrNotFound)
		}
		if records[i].Status == entity.StatusConfirmed {
			return records, false, nil
		}
		records[i].Status = entity.StatusConfirmed
		records[i].LastError = ""
		return records, true, nil
	})
}

func (c *core) MarkFailed(ctx context.Context, id, errorMessage string) error {
	return c.mutate(ctx, func(records []entity.QueuedMovement) ([]entity.QueuedMovement, bool, error) {
		i := indexOf(records, id)
		if i < 0 {
			return nil, false, fmt.Errorf("movimiento %s: %w", id, domain.ErrNotFound)
		}
		if records[i].Status == entity.StatusConfirmed {
			return nil, false, fmt.Errorf("movimiento %s ya confirmado: %w", id, domain.ErrConflict)
		}
		records[i].Status = entity.StatusFailed
		records[i].AttemptCount++
		records[i].LastError = errorMessage
		return records, true, nil
	})
}

func (c *core) ResetFailed(ctx context.Context, id string) error {
	return c.mutate(ctx, func(records []entity.QueuedMovement) ([]entity.QueuedMovement, bool, error) {
		i := indexOf(records, id)
		if i < 0 {
			return nil, false, fmt.Errorf("movimiento %s: %w", id, domain.ErrNotFound)
		}
		if records[i].Status != entity.StatusFailed {
			return nil, false, fmt.Errorf("movimiento %s en estado %s: %w", id, records[i].Status, domain.ErrConflict)
		}
		records[i].Status = entity.StatusPending
		records[i].LastError = ""
		return records, true, nil
	})
}

func (c *core) Remove(ctx context.Context, id string) error {
	return c.mutate(ctx, func(records []entity.QueuedMovement) ([]entity.QueuedMovement, bool, error) {
		i := indexOf(records, id)
		if i < 0 {
			return nil, false, fmt.Errorf("movimiento %s: %w", id, domain.ErrNotFound)
		}
		if records[i].Status == entity.StatusConfirmed {
			return nil, false, fmt.Errorf("movimiento %s ya confirmado, se elimina con Prune: %w", id, domain.ErrConflict)
		}
		return append(records[:i], records[i+1:]...), true, nil
	})
}

func (c *core) Prune(ctx context.Context) (int, error) {
	var removed int
	err := c.mutate(ctx, func(records []entity.QueuedMovement) ([]entity.QueuedMovement, bool, error) {
		kept := records[:0]
		for _, r := range records {
			if r.Status == entity.StatusConfirmed {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		return kept, removed > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (c *core) ClearAll(ctx context.Context) error {
	return c.mutate(ctx, func(records []entity.QueuedMovement) ([]entity.QueuedMovement, bool, error) {
		return []entity.QueuedMovement{}, true, nil
	})
}

func (c *core) Stats(ctx context.Context, retryCeiling int) (entity.QueueStats, error) {
	records, err := c.read(ctx)
	if err != nil {
		return entity.QueueStats{}, err
	}
	var s entity.QueueStats
	s.Total = len(records)
	for _, r := range records {
		switch r.Status {
		case entity.StatusPending:
			s.Pending++
		case entity.StatusConfirmed:
			s.Confirmed++
		case entity.StatusFailed:
			s.Failed++
			if r.Exhausted(retryCeiling) {
				s.RetryExhausted++
			}
		}
	}
	return s, nil
}
