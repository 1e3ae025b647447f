package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Motivos de disparo.
const (
	TriggerInterval  = "interval"
	TriggerReconnect = "reconnect"
	TriggerManual    = "manual"
)

// CycleRunner ejecuta un ciclo si el motor está ocioso.
type CycleRunner interface {
	RunCycle(ctx context.Context) (CycleReport, error)
}

// Scheduler dispara ciclos por intervalo fijo y por eventos (reconexión, pedido manual).
// Los disparos se coalescen: mientras corre un ciclo queda a lo sumo uno pendiente.
type Scheduler struct {
	runner   CycleRunner
	interval time.Duration
	trigger  chan string
	log      zerolog.Logger
	onCycle  func(reason string, report CycleReport, err error)
}

// NewScheduler construye el scheduler. interval <= 0 desactiva el temporizador.
func NewScheduler(runner CycleRunner, interval time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
		trigger:  make(chan string, 1),
		log:      log.With().Str("component", "sync_scheduler").Logger(),
	}
}

// OnCycle registra un callback tras cada ciclo ejecutado u omitido. Llamar antes de Run.
func (s *Scheduler) OnCycle(fn func(reason string, report CycleReport, err error)) {
	s.onCycle = fn
}

// Trigger pide un ciclo sin bloquear. Si ya hay uno pendiente, este se descarta.
func (s *Scheduler) Trigger(reason string) bool {
	select {
	case s.trigger <- reason:
		return true
	default:
		s.log.Debug().Str("reason", reason).Msg("disparo coalescido")
		return false
	}
}

// Run atiende temporizador y disparos hasta que ctx se cancela.
func (s *Scheduler) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			s.runOnce(ctx, TriggerInterval)
		case reason := <-s.trigger:
			s.runOnce(ctx, reason)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, reason string) {
	report, err := s.runner.RunCycle(ctx)
	switch {
	case err == nil:
		if report.SuccessCount+report.ErrorCount > 0 {
			s.log.Info().Str("reason", reason).Int("success", report.SuccessCount).Int("errors", report.ErrorCount).Msg("ciclo completado")
		}
	case errors.Is(err, ErrCycleInProgress), errors.Is(err, ErrPreconditionUnmet):
		s.log.Debug().Str("reason", reason).Err(err).Msg("ciclo omitido")
	default:
		s.log.Error().Str("reason", reason).Err(err).Msg("ciclo abortado")
	}
	if s.onCycle != nil {
		s.onCycle(reason, report, err)
	}
}
