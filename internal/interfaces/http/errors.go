package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-scan/internal/application/dto"
	"github.com/jhoicas/inventario-scan/internal/domain"
)

// writeError traduce errores de dominio a status + código estable. Los 500 se registran y no exponen el detalle.
func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	status, code := fiber.StatusInternalServerError, dto.CodeInternal
	switch {
	case errors.Is(err, domain.ErrInvalidEAN):
		status, code = fiber.StatusBadRequest, dto.CodeInvalidEAN
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidMovement):
		status, code = fiber.StatusBadRequest, dto.CodeValidation
	case errors.Is(err, domain.ErrProductNotFound):
		status, code = fiber.StatusNotFound, dto.CodeProductNotFound
	case errors.Is(err, domain.ErrInvalidWarehouse):
		status, code = fiber.StatusUnprocessableEntity, dto.CodeInvalidWarehouse
	case errors.Is(err, domain.ErrInsufficientStock):
		status, code = fiber.StatusConflict, dto.CodeInsufficientStock
	}
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "error interno"
		log.Error().Err(err).Str("path", c.Path()).Msg("error no controlado")
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}
