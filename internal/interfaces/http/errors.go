package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/cfdi-api/internal/application/dto"
	"github.com/jhoicas/cfdi-api/internal/domain"
)

// writeError traduce errores de dominio a status y código HTTP.
// Los errores internos se registran y se responden sin detalle.
func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	status, code := statusFor(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
		msg = "error interno"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	}
	switch kind := domain.Classify(err); kind {
	case domain.KindMissingRequired, domain.KindStructural:
		return fiber.StatusUnprocessableEntity, string(kind)
	case domain.KindInvalidInput:
		return fiber.StatusBadRequest, string(kind)
	case domain.KindNotFound:
		return fiber.StatusNotFound, string(kind)
	case domain.KindUpstream:
		return fiber.StatusBadGateway, string(kind)
	default:
		return fiber.StatusInternalServerError, string(domain.KindInternal)
	}
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
