package connectivity_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jhoicas/inventario-scan/internal/infrastructure/connectivity"
)

type switchable struct{ up atomic.Bool }

func (s *switchable) Health(context.Context) error {
	if s.up.Load() {
		return nil
	}
	return errors.New("sin red")
}

func TestProbe_Online(t *testing.T) {
	s := &switchable{}
	p := connectivity.NewProbe(s, time.Second, zerolog.Nop())

	assert.False(t, p.Online(context.Background()))
	s.up.Store(true)
	assert.True(t, p.Online(context.Background()))
	assert.True(t, p.LastKnown())
}

func TestProbe_WatchDisparaEnReconexion(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := &switchable{}
	p := connectivity.NewProbe(s, 5*time.Millisecond, zerolog.Nop())
	var reconnects atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Watch(ctx, func() { reconnects.Add(1) }) }()

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, reconnects.Load(), "sin red no hay evento")

	s.up.Store(true)
	require.Eventually(t, func() bool { return reconnects.Load() == 1 }, time.Second, 5*time.Millisecond)

	// Estable en línea: no se repite.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), reconnects.Load())

	// Cae y vuelve: segundo evento.
	s.up.Store(false)
	require.Eventually(t, func() bool { return !p.LastKnown() }, time.Second, 5*time.Millisecond)
	s.up.Store(true)
	require.Eventually(t, func() bool { return reconnects.Load() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestProbe_ArranqueEnLineaCuentaComoReconexion(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := &switchable{}
	s.up.Store(true)
	p := connectivity.NewProbe(s, time.Hour, zerolog.Nop())
	fired := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Watch(ctx, func() { fired <- struct{}{} }) }()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("el primer éxito debe disparar")
	}
	cancel()
	<-done
}
