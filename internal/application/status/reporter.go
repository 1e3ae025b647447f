// Package status agrega el estado de la cola para observabilidad y para la interfaz del operador.
package status

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/inventario-scan/internal/application/offline"
	"github.com/jhoicas/inventario-scan/internal/application/syncer"
	"github.com/jhoicas/inventario-scan/internal/domain/entity"
)

// CycleSummary resumen del último ciclo terminado.
type CycleSummary struct {
	SuccessCount int       `json:"success_count"`
	ErrorCount   int       `json:"error_count"`
	FinishedAt   time.Time `json:"finished_at"`
	Error        string    `json:"error,omitempty"`
}

// Snapshot estado agregado. Synced cuenta confirmados aún no podados.
type Snapshot struct {
	Total          int           `json:"total"`
	Pending        int           `json:"pending"`
	Synced         int           `json:"synced"`
	Error          int           `json:"error"`
	RetryExhausted int           `json:"retry_exhausted"`
	Syncing        bool          `json:"syncing"`
	LastCycle      *CycleSummary `json:"last_cycle,omitempty"`
}

// FailedRecord detalle inspeccionable de un registro fallido.
type FailedRecord struct {
	ID           string `json:"id"`
	ProductRef   string `json:"product_ref"`
	MovementType string `json:"movement_type"`
	Attempts     int    `json:"attempts"`
	LastError    string `json:"last_error"`
	Exhausted    bool   `json:"exhausted"`
}

// Reporter recalcula el estado desde la cola y publica a suscriptores.
// Implementa syncer.CycleObserver.
type Reporter struct {
	store        offline.Store
	retryCeiling int

	mu        sync.Mutex
	syncing   bool
	lastCycle *CycleSummary
	subs      map[chan Snapshot]struct{}
}

var _ syncer.CycleObserver = (*Reporter)(nil)

// NewReporter construye el reporter.
func NewReporter(store offline.Store, retryCeiling int) *Reporter {
	return &Reporter{store: store, retryCeiling: retryCeiling, subs: map[chan Snapshot]struct{}{}}
}

// Snapshot agrega el contenido actual de la cola.
func (r *Reporter) Snapshot(ctx context.Context) (Snapshot, error) {
	st, err := r.store.Stats(ctx, r.retryCeiling)
	if err != nil {
		return Snapshot{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := Snapshot{
		Total:          st.Total,
		Pending:        st.Pending,
		Synced:         st.Confirmed,
		Error:          st.Failed,
		RetryExhausted: st.RetryExhausted,
		Syncing:        r.syncing,
	}
	if r.lastCycle != nil {
		lc := *r.lastCycle
		snap.LastCycle = &lc
	}
	return snap, nil
}

// Failed lista los registros fallidos con su último error, en orden de encolado.
func (r *Reporter) Failed(ctx context.Context) ([]FailedRecord, error) {
	records, err := r.store.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []FailedRecord
	for _, m := range records {
		if m.Status != entity.StatusFailed {
			continue
		}
		out = append(out, FailedRecord{
			ID:           m.ID,
			ProductRef:   m.ProductRef,
			MovementType: string(m.MovementType),
			Attempts:     m.AttemptCount,
			LastError:    m.LastError,
			Exhausted:    m.Exhausted(r.retryCeiling),
		})
	}
	return out, nil
}

// Subscribe devuelve un canal con el último snapshot publicado y una función para cancelar.
// Un suscriptor lento solo pierde valores intermedios, nunca el más reciente.
func (r *Reporter) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	r.mu.Lock()
	r.subs[ch] = struct{}{}
	r.mu.Unlock()
	return ch, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.subs[ch]; ok {
			delete(r.subs, ch)
			close(ch)
		}
	}
}

// Notify recalcula y publica el snapshot. Llamar tras cada mutación de la cola.
func (r *Reporter) Notify(ctx context.Context) error {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return err
	}
	r.publish(snap)
	return nil
}

func (r *Reporter) publish(snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ch := range r.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// CycleStarted marca el inicio de un ciclo.
func (r *Reporter) CycleStarted() {
	r.mu.Lock()
	r.syncing = true
	r.mu.Unlock()
	_ = r.Notify(context.Background())
}

// CycleFinished guarda el resumen y publica el nuevo estado.
func (r *Reporter) CycleFinished(report syncer.CycleReport, err error) {
	summary := &CycleSummary{
		SuccessCount: report.SuccessCount,
		ErrorCount:   report.ErrorCount,
		FinishedAt:   report.FinishedAt,
	}
	if err != nil {
		summary.Error = err.Error()
	}
	r.mu.Lock()
	r.syncing = false
	r.lastCycle = summary
	r.mu.Unlock()
	_ = r.Notify(context.Background())
}
