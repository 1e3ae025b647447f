package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-scan/internal/domain"
	"github.com/jhoicas/inventario-scan/internal/domain/entity"
)

// Ledger contrato del ledger remoto de movimientos, visto desde el cliente.
// Apply devuelve Receipt en éxito o un *Failure con el motivo tipado.
type Ledger interface {
	Apply(ctx context.Context, sub Submission) (Receipt, error)
}

// Connectivity indica si hay red hacia el ledger.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// Credentials indica si el operador tiene credenciales vigentes.
type Credentials interface {
	Authenticated() bool
}

// Submission payload enviado al ledger para un registro de la cola.
type Submission struct {
	ProductRef        string
	MovementType      entity.MovementType
	Quantity          decimal.Decimal
	SourceWarehouseID *int64
	DestWarehouseID   *int64
	Actor             string
	Notes             string
	OccurredAt        time.Time
	IdempotencyKey    string
}

// SubmissionFrom arma el envío a partir del registro encolado.
func SubmissionFrom(m entity.QueuedMovement) Submission {
	return Submission{
		ProductRef:        m.ProductRef,
		MovementType:      m.MovementType,
		Quantity:          m.Quantity,
		SourceWarehouseID: m.SourceWarehouseID,
		DestWarehouseID:   m.DestWarehouseID,
		Actor:             m.Actor,
		Notes:             m.Notes,
		OccurredAt:        m.OccurredAt,
		IdempotencyKey:    m.IdempotencyKey,
	}
}

// Receipt resultado exitoso. Replayed indica que la llave ya existía y el ledger devolvió el original.
type Receipt struct {
	MovementID string
	Replayed   bool
}

// FailureKind variantes cerradas de fallo del ledger.
type FailureKind string

const (
	FailureProductNotFound   FailureKind = "PRODUCT_NOT_FOUND"
	FailureInvalidWarehouse  FailureKind = "INVALID_WAREHOUSE"
	FailureInsufficientStock FailureKind = "INSUFFICIENT_STOCK"
	FailureValidation        FailureKind = "VALIDATION"
	FailureInvalidEAN        FailureKind = "INVALID_EAN"
	FailureUnauthorized      FailureKind = "UNAUTHORIZED"
	FailureNetwork           FailureKind = "NETWORK"
	FailureTimeout           FailureKind = "TIMEOUT"
)

var kindSentinels = map[FailureKind]error{
	FailureProductNotFound:   domain.ErrProductNotFound,
	FailureInvalidWarehouse:  domain.ErrInvalidWarehouse,
	FailureInsufficientStock: domain.ErrInsufficientStock,
	FailureValidation:        domain.ErrValidation,
	FailureInvalidEAN:        domain.ErrInvalidEAN,
	FailureUnauthorized:      domain.ErrUnauthorized,
	FailureNetwork:           domain.ErrNetworkFailure,
	FailureTimeout:           domain.ErrTimeout,
}

// Failure fallo tipado del ledger. Message es el texto del ledger, que se guarda tal cual.
type Failure struct {
	Kind    FailureKind
	Message string
}

func (f *Failure) Error() string {
	if f.Message != "" {
		return f.Message
	}
	if s, ok := kindSentinels[f.Kind]; ok {
		return s.Error()
	}
	return string(f.Kind)
}

// Unwrap permite errors.Is contra los sentinels de dominio.
func (f *Failure) Unwrap() error {
	return kindSentinels[f.Kind]
}

// Transient indica fallos de transporte, reintentables sin intervención.
func (f *Failure) Transient() bool {
	return f.Kind == FailureNetwork || f.Kind == FailureTimeout
}

// AsFailure clasifica cualquier error de Apply. Errores sin tipo se tratan como fallo de red,
// y un contexto vencido como timeout.
func AsFailure(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domain.ErrTimeout) {
		return &Failure{Kind: FailureTimeout, Message: domain.ErrTimeout.Error() + ": " + err.Error()}
	}
	return &Failure{Kind: FailureNetwork, Message: domain.ErrNetworkFailure.Error() + ": " + err.Error()}
}
