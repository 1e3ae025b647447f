package http

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-scan/internal/application/dto"
	"github.com/jhoicas/inventario-scan/internal/application/ledger"
	"github.com/jhoicas/inventario-scan/internal/domain/entity"
	"github.com/jhoicas/inventario-scan/internal/domain/repository"
)

// MovementApplier lo implementa *ledger.ApplyMovementUseCase.
type MovementApplier interface {
	Apply(ctx context.Context, in ledger.ApplyInput) (ledger.Result, error)
}

// MovementLister lo implementa *ledger.HistoryUseCase.
type MovementLister interface {
	List(ctx context.Context, filter repository.MovementFilter) ([]*entity.LedgerMovement, error)
}

// MovementHandler contrato apply del ledger e historial (protegido).
type MovementHandler struct {
	apply   MovementApplier
	history MovementLister
	log     zerolog.Logger
}

// NewMovementHandler construye el handler.
func NewMovementHandler(apply MovementApplier, history MovementLister, log zerolog.Logger) *MovementHandler {
	return &MovementHandler{apply: apply, history: history, log: log}
}

// Apply godoc
// @Summary      Aplicar movimiento de stock (idempotente)
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ApplyMovementRequest  true  "movimiento"
// @Success      201   {object}  dto.ApplyMovementResponse
// @Success      200   {object}  dto.ApplyMovementResponse  "reenvío de una llave ya aplicada"
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/movements [post]
func (h *MovementHandler) Apply(c *fiber.Ctx) error {
	actor := GetActor(c)
	if actor == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: dto.CodeUnauthorized, Message: "token inválido"})
	}
	var in dto.ApplyMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: dto.CodeInvalidBody, Message: "cuerpo inválido"})
	}
	if in.Actor != "" && in.Actor != actor {
		h.log.Warn().Str("token_actor", actor).Str("body_actor", in.Actor).Msg("actor del cuerpo ignorado")
	}

	res, err := h.apply.Apply(c.UserContext(), ledger.ApplyInput{
		ProductRef:        in.ProductRef,
		MovementType:      in.MovementType,
		Quantity:          in.Quantity,
		SourceWarehouseID: in.SourceWarehouseID,
		DestWarehouseID:   in.DestWarehouseID,
		Actor:             actor,
		Notes:             in.Notes,
		OccurredAt:        in.OccurredAt,
		IdempotencyKey:    in.IdempotencyKey,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	status := fiber.StatusCreated
	if res.Replayed {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(dto.ApplyMovementResponse{OK: true, MovementID: res.MovementID, Replayed: res.Replayed})
}

// List godoc
// @Summary      Historial de movimientos
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  int     false  "producto"
// @Param        warehouse_id  query  int     false  "bodega (origen o destino)"
// @Param        actor         query  string  false  "operador"
// @Param        limit         query  int     false  "máx. 200"
// @Param        offset        query  int     false  "desplazamiento"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/movements [get]
func (h *MovementHandler) List(c *fiber.Ctx) error {
	filter := repository.MovementFilter{Actor: c.Query("actor")}
	var err error
	if filter.ProductID, err = queryInt64(c, "product_id"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: dto.CodeValidation, Message: "product_id inválido"})
	}
	if filter.WarehouseID, err = queryInt64(c, "warehouse_id"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: dto.CodeValidation, Message: "warehouse_id inválido"})
	}
	filter.Limit = c.QueryInt("limit", 0)
	filter.Offset = c.QueryInt("offset", 0)

	list, err := h.history.List(c.UserContext(), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.MovementListResponse{
		Movements: make([]dto.LedgerMovementResponse, 0, len(list)),
		Page:      dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset, Count: len(list)},
	}
	for _, m := range list {
		out.Movements = append(out.Movements, dto.LedgerMovementResponse{
			ID:                m.ID,
			ProductID:         m.ProductID,
			ProductRef:        m.ProductRef,
			MovementType:      string(m.Type),
			Quantity:          m.Quantity,
			SourceWarehouseID: m.SourceWarehouseID,
			DestWarehouseID:   m.DestWarehouseID,
			Actor:             m.Actor,
			Notes:             m.Notes,
			OccurredAt:        m.OccurredAt,
			IdempotencyKey:    m.IdempotencyKey,
			CreatedAt:         m.CreatedAt,
		})
	}
	return c.JSON(out)
}

func queryInt64(c *fiber.Ctx, key string) (int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
