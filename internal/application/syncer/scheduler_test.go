package syncer_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jhoicas/inventario-scan/internal/application/syncer"
)

type countingRunner struct {
	calls   atomic.Int32
	running atomic.Int32
	overlap atomic.Bool
	hold    time.Duration
}

func (r *countingRunner) RunCycle(context.Context) (syncer.CycleReport, error) {
	if r.running.Add(1) > 1 {
		r.overlap.Store(true)
	}
	defer r.running.Add(-1)
	r.calls.Add(1)
	time.Sleep(r.hold)
	return syncer.CycleReport{}, nil
}

func TestScheduler_DisparoManualEjecutaCiclo(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := &countingRunner{}
	s := syncer.NewScheduler(r, 0, zerolog.Nop())

	var mu sync.Mutex
	var reasons []string
	s.OnCycle(func(reason string, _ syncer.CycleReport, _ error) {
		mu.Lock()
		reasons = append(reasons, reason)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.True(t, s.Trigger(syncer.TriggerReconnect))
	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{syncer.TriggerReconnect}, reasons)
}

func TestScheduler_DisparosSeCoalescen(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := &countingRunner{hold: 50 * time.Millisecond}
	s := syncer.NewScheduler(r, 0, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	s.Trigger(syncer.TriggerManual)
	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, time.Millisecond)

	// Durante el ciclo llegan varios disparos: queda uno pendiente, el resto se descarta.
	accepted := 0
	for i := 0; i < 5; i++ {
		if s.Trigger(syncer.TriggerReconnect) {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)

	require.Eventually(t, func() bool { return r.calls.Load() == 2 }, time.Second, time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(2), r.calls.Load())
	assert.False(t, r.overlap.Load(), "nunca hay ciclos en paralelo")

	cancel()
	<-done
}

func TestScheduler_Intervalo(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := &countingRunner{}
	s := syncer.NewScheduler(r, 10*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return r.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
