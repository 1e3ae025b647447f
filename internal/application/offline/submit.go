package offline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-scan/internal/domain/ean"
	"github.com/jhoicas/inventario-scan/internal/domain/entity"
	"github.com/jhoicas/inventario-scan/internal/domain/idempotency"
)

// ScanInput entrada del operador: código decodificado (escáner o manual) y datos del movimiento.
type ScanInput struct {
	Code              string
	MovementType      entity.MovementType
	Quantity          decimal.Decimal
	SourceWarehouseID *int64
	DestWarehouseID   *int64
	Actor             string
	Notes             string
}

// SubmitUseCase valida el código, deriva la llave de idempotencia y encola el movimiento.
type SubmitUseCase struct {
	store   Store
	deriver idempotency.Deriver
	now     func() time.Time
	log     zerolog.Logger
}

// NewSubmitUseCase construye el caso de uso. now nil usa time.Now.
func NewSubmitUseCase(store Store, deriver idempotency.Deriver, now func() time.Time, log zerolog.Logger) *SubmitUseCase {
	if now == nil {
		now = time.Now
	}
	return &SubmitUseCase{store: store, deriver: deriver, now: now, log: log}
}

// Submit encola el movimiento y devuelve su id. Los errores de validación (ErrInvalidEAN,
// ErrInvalidMovement) se devuelven de inmediato y el movimiento nunca entra a la cola.
func (uc *SubmitUseCase) Submit(ctx context.Context, in ScanInput) (string, error) {
	kind, err := ean.Check(in.Code)
	if err != nil {
		return "", err
	}
	ref := in.Code
	if kind == ean.KindEAN {
		ref = ean.Normalize(in.Code)
	}
	occurredAt := uc.now().UTC()
	candidate := entity.MovementCandidate{
		ProductRef:        ref,
		MovementType:      in.MovementType,
		Quantity:          in.Quantity,
		SourceWarehouseID: in.SourceWarehouseID,
		DestWarehouseID:   in.DestWarehouseID,
		Actor:             in.Actor,
		Notes:             in.Notes,
		OccurredAt:        occurredAt,
		IdempotencyKey:    uc.deriver.Derive(in.Actor, ref, string(in.MovementType), occurredAt),
	}
	id, err := uc.store.Enqueue(ctx, candidate)
	if err != nil {
		return "", fmt.Errorf("encolar movimiento: %w", err)
	}
	uc.log.Info().
		Str("movement_id", id).
		Str("product_ref", ref).
		Str("kind", kind.String()).
		Str("type", string(in.MovementType)).
		Str("quantity", in.Quantity.String()).
		Msg("movimiento encolado")
	return id, nil
}
