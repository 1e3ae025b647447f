// Package connectivity sondea el ledger y emite eventos de reconexión.
package connectivity

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-scan/internal/application/syncer"
)

var _ syncer.Connectivity = (*Probe)(nil)

// HealthChecker lo implementa *ledgerclient.Client.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Probe sonda periódica de /health del ledger.
type Probe struct {
	checker  HealthChecker
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger
	online   atomic.Bool
}

// NewProbe construye la sonda. interval <= 0 usa 5s.
func NewProbe(checker HealthChecker, interval time.Duration, log zerolog.Logger) *Probe {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	timeout := interval
	if timeout > 3*time.Second {
		timeout = 3 * time.Second
	}
	return &Probe{
		checker:  checker,
		interval: interval,
		timeout:  timeout,
		log:      log.With().Str("component", "connectivity").Logger(),
	}
}

// Online hace una verificación inmediata.
func (p *Probe) Online(ctx context.Context) bool {
	ok := p.check(ctx)
	p.online.Store(ok)
	return ok
}

// LastKnown último estado observado, sin hacer red.
func (p *Probe) LastKnown() bool {
	return p.online.Load()
}

// Watch sondea cada interval e invoca onReconnect en cada transición sin red -> con red.
// El arranque cuenta como sin red, así el primer éxito dispara un ciclo. Bloquea hasta que ctx se cancela.
func (p *Probe) Watch(ctx context.Context, onReconnect func()) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	prev := false
	for {
		ok := p.check(ctx)
		p.online.Store(ok)
		if ok != prev {
			p.log.Info().Bool("online", ok).Msg("cambio de conectividad")
			if ok && onReconnect != nil {
				onReconnect()
			}
			prev = ok
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Probe) check(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.checker.Health(cctx); err != nil {
		p.log.Debug().Err(err).Msg("ledger no alcanzable")
		return false
	}
	return true
}
