package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/cfdi-api/internal/application/billing"
	"github.com/jhoicas/cfdi-api/internal/application/dto"
)

// EmailFormatHandler lectura y cambio del formato de correo.
type EmailFormatHandler struct {
	docs *billing.DocumentUseCase
	log  zerolog.Logger
}

// NewEmailFormatHandler construye el handler.
func NewEmailFormatHandler(docs *billing.DocumentUseCase, log zerolog.Logger) *EmailFormatHandler {
	return &EmailFormatHandler{docs: docs, log: log}
}

// Get godoc
// @Summary      Formato de correo activo
// @Tags         email-format
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  entity.EmailFormat
// @Router       /api/email-format [get]
func (h *EmailFormatHandler) Get(c *fiber.Ctx) error {
	return c.JSON(h.docs.EmailFormat())
}

// Update godoc
// @Summary      Cambiar formato de correo
// @Description  Solo admin. Asunto y cuerpo son plantillas sobre entity.MailData ({{.Folio}}, {{.UUID}}, {{.IssuerName}}...).
// @Tags         email-format
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.EmailFormatRequest  true  "subject, body, attach_pdf, cc"
// @Success      200   {object}  entity.EmailFormat
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/email-format [put]
func (h *EmailFormatHandler) Update(c *fiber.Ctx) error {
	var in dto.EmailFormatRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, h.log, err)
	}
	f, err := h.docs.UpdateEmailFormat(in.ToEntity())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(f)
}
