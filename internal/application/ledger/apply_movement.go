// Package ledger aplica movimientos de stock de forma idempotente y transaccional.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-scan/internal/domain"
	"github.com/jhoicas/inventario-scan/internal/domain/entity"
	"github.com/jhoicas/inventario-scan/internal/domain/idempotency"
	"github.com/jhoicas/inventario-scan/internal/domain/repository"
)

// ApplyInput entrada del contrato apply. IdempotencyKey vacío: se deriva en el servidor.
type ApplyInput struct {
	ProductRef        string
	MovementType      string
	Quantity          decimal.Decimal
	SourceWarehouseID *int64
	DestWarehouseID   *int64
	Actor             string
	Notes             string
	OccurredAt        time.Time
	IdempotencyKey    string
}

// Result resultado de un apply. Replayed indica que la llave ya existía y no se tocó el stock.
type Result struct {
	MovementID     string
	ProductID      int64
	IdempotencyKey string
	Replayed       bool
}

// ApplyMovementUseCase registra movimientos en el ledger: una llave, un efecto sobre el stock.
type ApplyMovementUseCase struct {
	txRunner     TxRunner
	productRepo  repository.ProductRepository
	movementRepo repository.LedgerMovementRepository
	cache        ReplayCache
	deriver      idempotency.Deriver
	now          func() time.Time
	log          zerolog.Logger
}

// NewApplyMovementUseCase construye el caso de uso. cache puede ser nil.
func NewApplyMovementUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	movementRepo repository.LedgerMovementRepository,
	cache ReplayCache,
	deriver idempotency.Deriver,
	log zerolog.Logger,
) *ApplyMovementUseCase {
	return &ApplyMovementUseCase{
		txRunner:     txRunner,
		productRepo:  productRepo,
		movementRepo: movementRepo,
		cache:        cache,
		deriver:      deriver,
		now:          time.Now,
		log:          log.With().Str("component", "ledger_apply").Logger(),
	}
}

// Apply valida, resuelve el producto, detecta reenvíos y aplica el movimiento en una transacción.
func (uc *ApplyMovementUseCase) Apply(ctx context.Context, in ApplyInput) (Result, error) {
	t, err := entity.ParseMovementType(in.MovementType)
	if err != nil {
		return Result{}, fmt.Errorf("%w: tipo de movimiento desconocido %q", domain.ErrValidation, in.MovementType)
	}
	if !in.Quantity.IsPositive() {
		return Result{}, fmt.Errorf("%w: la cantidad debe ser mayor que cero", domain.ErrValidation)
	}
	actor := strings.TrimSpace(in.Actor)
	if actor == "" {
		return Result{}, fmt.Errorf("%w: actor requerido", domain.ErrValidation)
	}

	product, err := resolveProduct(ctx, uc.productRepo, in.ProductRef)
	if err != nil {
		return Result{}, err
	}

	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = uc.now()
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" {
		key = uc.deriver.Derive(actor, strconv.FormatInt(product.ID, 10), string(t), occurredAt)
	}

	if res, ok, err := uc.lookupReplay(ctx, key, product.ID); err != nil || ok {
		return res, err
	}

	if err := entity.ValidateWarehouses(t, in.SourceWarehouseID, in.DestWarehouseID, domain.ErrInvalidWarehouse); err != nil {
		return Result{}, err
	}

	now := uc.now()
	mov := &entity.LedgerMovement{
		ID:                uuid.New().String(),
		ProductID:         product.ID,
		ProductRef:        strings.TrimSpace(in.ProductRef),
		Type:              t,
		Quantity:          in.Quantity,
		SourceWarehouseID: in.SourceWarehouseID,
		DestWarehouseID:   in.DestWarehouseID,
		Actor:             actor,
		Notes:             in.Notes,
		OccurredAt:        occurredAt.UTC(),
		IdempotencyKey:    key,
		CreatedAt:         now,
	}

	err = uc.txRunner.Run(ctx, func(
		movRepo repository.LedgerMovementRepository,
		stockRepo repository.StockRepository,
		warehouseRepo repository.WarehouseRepository,
	) error {
		if err := checkWarehouses(ctx, warehouseRepo, mov); err != nil {
			return err
		}
		if err := applyStock(ctx, stockRepo, mov, now); err != nil {
			return err
		}
		return movRepo.Create(ctx, mov)
	})
	if errors.Is(err, domain.ErrConflict) {
		// Otro envío con la misma llave ganó la carrera: se devuelve el original.
		res, ok, lerr := uc.lookupReplay(ctx, key, product.ID)
		if lerr != nil {
			return Result{}, lerr
		}
		if ok {
			return res, nil
		}
		return Result{}, err
	}
	if err != nil {
		return Result{}, err
	}

	uc.remember(ctx, key, mov.ID)
	uc.log.Info().
		Str("movement_id", mov.ID).
		Str("idempotency_key", key).
		Int64("product_id", product.ID).
		Str("type", string(t)).
		Str("quantity", in.Quantity.String()).
		Str("actor", actor).
		Msg("movimiento aplicado")
	return Result{MovementID: mov.ID, ProductID: product.ID, IdempotencyKey: key}, nil
}

// lookupReplay consulta el caché y luego la tabla del ledger.
func (uc *ApplyMovementUseCase) lookupReplay(ctx context.Context, key string, productID int64) (Result, bool, error) {
	if uc.cache != nil {
		id, ok, err := uc.cache.Get(ctx, key)
		if err != nil {
			uc.log.Warn().Err(err).Str("idempotency_key", key).Msg("caché de reenvíos no disponible")
		} else if ok {
			return Result{MovementID: id, ProductID: productID, IdempotencyKey: key, Replayed: true}, true, nil
		}
	}
	existing, err := uc.movementRepo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return Result{}, false, err
	}
	if existing == nil {
		return Result{}, false, nil
	}
	uc.remember(ctx, key, existing.ID)
	uc.log.Info().Str("movement_id", existing.ID).Str("idempotency_key", key).Msg("reenvío detectado")
	return Result{MovementID: existing.ID, ProductID: existing.ProductID, IdempotencyKey: key, Replayed: true}, true, nil
}

func (uc *ApplyMovementUseCase) remember(ctx context.Context, key, movementID string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Put(ctx, key, movementID); err != nil {
		uc.log.Warn().Err(err).Str("idempotency_key", key).Msg("no se pudo guardar en caché de reenvíos")
	}
}

func checkWarehouses(ctx context.Context, repo repository.WarehouseRepository, mov *entity.LedgerMovement) error {
	for _, id := range []*int64{mov.SourceWarehouseID, mov.DestWarehouseID} {
		if id == nil {
			continue
		}
		wh, err := repo.GetByID(ctx, *id)
		if err != nil {
			return err
		}
		if wh == nil {
			return fmt.Errorf("%w: bodega %d no existe", domain.ErrInvalidWarehouse, *id)
		}
	}
	return nil
}

// applyStock bloquea las filas de stock en orden ascendente de bodega (evita deadlocks entre
// traslados cruzados), descuenta el origen y suma al destino.
func applyStock(ctx context.Context, repo repository.StockRepository, mov *entity.LedgerMovement, now time.Time) error {
	type leg struct {
		warehouseID int64
		delta       decimal.Decimal
	}
	var legs []leg
	if mov.SourceWarehouseID != nil {
		legs = append(legs, leg{*mov.SourceWarehouseID, mov.Quantity.Neg()})
	}
	if mov.DestWarehouseID != nil {
		legs = append(legs, leg{*mov.DestWarehouseID, mov.Quantity})
	}
	if len(legs) == 2 && legs[1].warehouseID < legs[0].warehouseID {
		legs[0], legs[1] = legs[1], legs[0]
	}

	locked := make([]*entity.Stock, len(legs))
	for i, l := range legs {
		stock, err := repo.GetForUpdate(ctx, mov.ProductID, l.warehouseID)
		if err != nil {
			return err
		}
		if l.delta.IsNegative() && stock.Quantity.LessThan(l.delta.Neg()) {
			return fmt.Errorf("%w: bodega %d tiene %s, se requieren %s",
				domain.ErrInsufficientStock, l.warehouseID, stock.Quantity.String(), l.delta.Neg().String())
		}
		locked[i] = stock
	}
	for i, l := range legs {
		stock := locked[i]
		stock.Quantity = stock.Quantity.Add(l.delta)
		stock.UpdatedAt = now
		if err := repo.Upsert(ctx, stock); err != nil {
			return err
		}
	}
	return nil
}
