// Package syncer drena la cola local contra el ledger remoto.
//
// Un ciclo toma una instantánea de los candidatos y los envía uno por uno en orden de encolado.
// Nunca hay dos ciclos activos por instancia; los disparos concurrentes se descartan.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-scan/internal/application/offline"
	"github.com/jhoicas/inventario-scan/internal/domain"
	"github.com/jhoicas/inventario-scan/internal/domain/entity"
)

var (
	// ErrCycleInProgress otro ciclo está drenando la cola; el disparo se descarta.
	ErrCycleInProgress = errors.New("ciclo de sincronización en curso")
	// ErrPreconditionUnmet sin red o sin credenciales; el ciclo no inicia.
	ErrPreconditionUnmet = errors.New("precondiciones de sincronización no cumplidas")
)

// Defaults del motor.
const (
	DefaultRetryCeiling  = 5
	DefaultSubmitTimeout = 15 * time.Second
)

// Config parámetros del motor.
type Config struct {
	RetryCeiling  int
	SubmitTimeout time.Duration // por registro, no por ciclo
}

// CycleObserver recibe el inicio y el fin de cada ciclo (p. ej. el reporter de estado).
type CycleObserver interface {
	CycleStarted()
	CycleFinished(report CycleReport, err error)
}

// RecordFailure detalle de un registro que falló en el ciclo.
type RecordFailure struct {
	MovementID string
	Kind       FailureKind
	Message    string
	Attempts   int
	Exhausted  bool
}

// CycleReport observación del ciclo para el operador; no es un mecanismo de reintento.
type CycleReport struct {
	SuccessCount int
	ErrorCount   int
	Replayed     int
	Pruned       int
	StartedAt    time.Time
	FinishedAt   time.Time
	Failures     []RecordFailure
}

// Engine motor de sincronización.
type Engine struct {
	store     offline.Store
	ledger    Ledger
	conn      Connectivity
	creds     Credentials
	cfg       Config
	log       zerolog.Logger
	now       func() time.Time
	running   sync.Mutex
	observers []CycleObserver
}

// NewEngine construye el motor. conn y creds pueden ser nil (se asumen cumplidas).
func NewEngine(store offline.Store, ledger Ledger, conn Connectivity, creds Credentials, cfg Config, log zerolog.Logger) *Engine {
	if cfg.RetryCeiling <= 0 {
		cfg.RetryCeiling = DefaultRetryCeiling
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = DefaultSubmitTimeout
	}
	return &Engine{
		store:  store,
		ledger: ledger,
		conn:   conn,
		creds:  creds,
		cfg:    cfg,
		log:    log.With().Str("component", "sync_engine").Logger(),
		now:    time.Now,
	}
}

// Observe registra un observador. Debe llamarse antes de iniciar ciclos.
func (e *Engine) Observe(o CycleObserver) {
	e.observers = append(e.observers, o)
}

// RetryCeiling techo de intentos efectivo.
func (e *Engine) RetryCeiling() int { return e.cfg.RetryCeiling }

// RunCycle ejecuta un ciclo si el motor está ocioso y se cumplen las precondiciones.
// Una vez iniciado corre hasta terminar su instantánea: la cancelación de ctx no lo interrumpe,
// cada envío queda acotado por SubmitTimeout. Solo una cola ilegible aborta el ciclo.
func (e *Engine) RunCycle(ctx context.Context) (CycleReport, error) {
	if !e.running.TryLock() {
		return CycleReport{}, ErrCycleInProgress
	}
	defer e.running.Unlock()

	if e.conn != nil && !e.conn.Online(ctx) {
		return CycleReport{}, fmt.Errorf("%w: sin conectividad", ErrPreconditionUnmet)
	}
	if e.creds != nil && !e.creds.Authenticated() {
		return CycleReport{}, fmt.Errorf("%w: sin credenciales vigentes", ErrPreconditionUnmet)
	}

	for _, o := range e.observers {
		o.CycleStarted()
	}
	report, err := e.drain(context.WithoutCancel(ctx))
	for _, o := range e.observers {
		o.CycleFinished(report, err)
	}
	return report, err
}

func (e *Engine) drain(ctx context.Context) (CycleReport, error) {
	report := CycleReport{StartedAt: e.now()}

	snapshot, err := e.store.ListPending(ctx, e.cfg.RetryCeiling)
	if err != nil {
		report.FinishedAt = e.now()
		e.log.Error().Err(err).Msg("cola ilegible, ciclo abortado")
		return report, fmt.Errorf("instantánea de la cola: %w", err)
	}
	if len(snapshot) == 0 {
		report.FinishedAt = e.now()
		return report, nil
	}
	e.log.Info().Int("candidates", len(snapshot)).Msg("iniciando ciclo de sincronización")

	for _, rec := range snapshot {
		if err := e.submit(ctx, rec, &report); err != nil {
			report.FinishedAt = e.now()
			return report, err
		}
	}

	pruned, err := e.store.Prune(ctx)
	if err != nil {
		report.FinishedAt = e.now()
		return report, fmt.Errorf("prune: %w", err)
	}
	report.Pruned = pruned
	report.FinishedAt = e.now()

	e.log.Info().
		Int("success", report.SuccessCount).
		Int("errors", report.ErrorCount).
		Int("replayed", report.Replayed).
		Int("pruned", report.Pruned).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("ciclo de sincronización terminado")
	return report, nil
}

// submit envía un registro y marca el resultado. Solo devuelve error si la cola quedó ilegible.
func (e *Engine) submit(ctx context.Context, rec entity.QueuedMovement, report *CycleReport) error {
	log := e.log.With().
		Str("movement_id", rec.ID).
		Str("idempotency_key", rec.IdempotencyKey).
		Int("attempt", rec.AttemptCount+1).
		Logger()

	subCtx, cancel := context.WithTimeout(ctx, e.cfg.SubmitTimeout)
	receipt, applyErr := e.ledger.Apply(subCtx, SubmissionFrom(rec))
	cancel()

	if applyErr == nil {
		err := e.store.MarkConfirmed(ctx, rec.ID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			// Descartado por el operador durante el ciclo; el ledger ya lo aplicó.
			log.Info().Str("ledger_movement_id", receipt.MovementID).Msg("movimiento aplicado pero ya no está en la cola")
		case err != nil:
			return e.markError(log, err, report, rec, "marcar confirmado")
		}
		report.SuccessCount++
		if receipt.Replayed {
			report.Replayed++
		}
		log.Debug().Str("ledger_movement_id", receipt.MovementID).Bool("replayed", receipt.Replayed).Msg("movimiento confirmado")
		return nil
	}

	failure := AsFailure(applyErr)
	if err := e.store.MarkFailed(ctx, rec.ID, failure.Error()); err != nil {
		return e.markError(log, err, report, rec, "marcar fallido")
	}
	attempts := rec.AttemptCount + 1
	exhausted := attempts >= e.cfg.RetryCeiling
	report.ErrorCount++
	report.Failures = append(report.Failures, RecordFailure{
		MovementID: rec.ID,
		Kind:       failure.Kind,
		Message:    failure.Error(),
		Attempts:   attempts,
		Exhausted:  exhausted,
	})
	ev := log.Warn()
	if exhausted {
		ev = log.Error().AnErr("state", domain.ErrRetryExhausted)
	}
	ev.Str("kind", string(failure.Kind)).Str("error", failure.Error()).Msg("envío al ledger fallido")
	return nil
}

// markError decide si un fallo al actualizar la cola aborta el ciclo.
// Cola ilegible: aborta. Otro error: el registro queda como estaba y se reintenta el próximo ciclo.
func (e *Engine) markError(log zerolog.Logger, err error, report *CycleReport, rec entity.QueuedMovement, op string) error {
	if errors.Is(err, domain.ErrQueueCorrupt) {
		log.Error().Err(err).Msg("cola ilegible, ciclo abortado")
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Error().Err(err).Str("op", op).Msg("no se pudo actualizar la cola")
	report.ErrorCount++
	report.Failures = append(report.Failures, RecordFailure{
		MovementID: rec.ID,
		Message:    err.Error(),
		Attempts:   rec.AttemptCount,
	})
	return nil
}
