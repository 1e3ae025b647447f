package status_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-scan/internal/application/status"
	"github.com/jhoicas/inventario-scan/internal/application/syncer"
	"github.com/jhoicas/inventario-scan/internal/domain/entity"
	"github.com/jhoicas/inventario-scan/internal/infrastructure/queuestore"
)

type refLedger struct{ failRef string }

func (l refLedger) Apply(_ context.Context, sub syncer.Submission) (syncer.Receipt, error) {
	if sub.ProductRef == l.failRef {
		return syncer.Receipt{}, &syncer.Failure{Kind: syncer.FailureProductNotFound, Message: "producto no encontrado para SKU: " + sub.ProductRef}
	}
	return syncer.Receipt{MovementID: "m-" + sub.ProductRef}, nil
}

func seed(t *testing.T, s *queuestore.MemoryStore, refs ...string) []string {
	t.Helper()
	var ids []string
	for _, ref := range refs {
		src := int64(2)
		id, err := s.Enqueue(context.Background(), entity.MovementCandidate{
			ProductRef:        ref,
			MovementType:      entity.MovementOutbound,
			Quantity:          decimal.NewFromInt(1),
			SourceWarehouseID: &src,
			Actor:             "luis",
			OccurredAt:        time.Now(),
			IdempotencyKey:    "luis|" + ref,
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestSnapshot_AgregaLaCola(t *testing.T) {
	ctx := context.Background()
	s := queuestore.NewMemoryStore()
	ids := seed(t, s, "A", "B", "C", "D")
	require.NoError(t, s.MarkConfirmed(ctx, ids[0]))
	require.NoError(t, s.MarkFailed(ctx, ids[1], "fallo de red"))
	require.NoError(t, s.MarkFailed(ctx, ids[2], "stock insuficiente"))
	require.NoError(t, s.MarkFailed(ctx, ids[2], "stock insuficiente"))

	r := status.NewReporter(s, 2)
	snap, err := r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Total)
	assert.Equal(t, 1, snap.Pending)
	assert.Equal(t, 1, snap.Synced)
	assert.Equal(t, 2, snap.Error)
	assert.Equal(t, 1, snap.RetryExhausted)
	assert.False(t, snap.Syncing)
	assert.Nil(t, snap.LastCycle)

	failed, err := r.Failed(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 2)
	assert.Equal(t, "fallo de red", failed[0].LastError)
	assert.False(t, failed[0].Exhausted)
	assert.True(t, failed[1].Exhausted)
}

func TestReporter_ObservaCiclosDelMotor(t *testing.T) {
	ctx := context.Background()
	s := queuestore.NewMemoryStore()
	seed(t, s, "A", "B", "C")

	r := status.NewReporter(s, 5)
	ch, cancel := r.Subscribe()
	defer cancel()

	e := syncer.NewEngine(s, refLedger{failRef: "B"}, nil, nil, syncer.Config{}, zerolog.Nop())
	e.Observe(r)
	_, err := e.RunCycle(ctx)
	require.NoError(t, err)

	// El suscriptor recibe el snapshot más reciente (fin de ciclo).
	var last status.Snapshot
	select {
	case last = <-ch:
	case <-time.After(time.Second):
		t.Fatal("sin snapshot publicado")
	}
	assert.False(t, last.Syncing)
	require.NotNil(t, last.LastCycle)
	assert.Equal(t, 2, last.LastCycle.SuccessCount)
	assert.Equal(t, 1, last.LastCycle.ErrorCount)
	assert.Equal(t, 1, last.Total)
	assert.Equal(t, 1, last.Error)
}

func TestReporter_CicloAbortadoGuardaError(t *testing.T) {
	s := queuestore.NewMemoryStore()
	r := status.NewReporter(s, 5)
	r.CycleStarted()
	snap, err := r.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Syncing)

	r.CycleFinished(syncer.CycleReport{}, errors.New("cola ilegible"))
	snap, err = r.Snapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.Syncing)
	require.NotNil(t, snap.LastCycle)
	assert.Equal(t, "cola ilegible", snap.LastCycle.Error)
}

func TestSubscribe_CancelarCierraElCanal(t *testing.T) {
	r := status.NewReporter(queuestore.NewMemoryStore(), 5)
	ch, cancel := r.Subscribe()
	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	require.NoError(t, r.Notify(context.Background()), "publicar sin suscriptores no falla")
}
