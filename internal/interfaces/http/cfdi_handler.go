package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/cfdi-api/internal/application/billing"
	"github.com/jhoicas/cfdi-api/internal/application/dto"
)

// CFDIHandler emisión, cancelación y salida de comprobantes (protegido).
type CFDIHandler struct {
	issue  *billing.IssueUseCase
	cancel *billing.CancelUseCase
	docs   *billing.DocumentUseCase
	log    zerolog.Logger
}

// NewCFDIHandler construye el handler.
func NewCFDIHandler(issue *billing.IssueUseCase, cancel *billing.CancelUseCase, docs *billing.DocumentUseCase, log zerolog.Logger) *CFDIHandler {
	return &CFDIHandler{issue: issue, cancel: cancel, docs: docs, log: log}
}

// IssueCartaPorte godoc
// @Summary      Emitir CFDI con Carta Porte
// @Description  Construye, timbra y guarda. Si el PAC no timbra queda PENDIENTE_TIMBRADO (202).
// @Tags         cfdi
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IssueCartaPorteRequest  true  "encabezado, receptor, ubicaciones, mercancías, transporte y figuras"
// @Success      201   {object}  dto.IssueResponse
// @Success      202   {object}  dto.IssueResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/cfdi/carta-porte [post]
func (h *CFDIHandler) IssueCartaPorte(c *fiber.Ctx) error {
	var in dto.IssueCartaPorteRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, h.log, err)
	}
	res, err := h.issue.IssueCartaPorte(c.UserContext(), in.CartaPorteRequest, in.ReceiverEmail)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(issuedStatus(res)).JSON(dto.NewIssueResponse(res))
}

// PreviewCartaPorte godoc
// @Summary      Vista previa de CFDI con Carta Porte
// @Description  Devuelve el XML sin timbrar ni guardar.
// @Tags         cfdi
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IssueCartaPorteRequest  true  "mismo cuerpo que la emisión"
// @Success      200   {object}  dto.BuildResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/cfdi/carta-porte/preview [post]
func (h *CFDIHandler) PreviewCartaPorte(c *fiber.Ctx) error {
	var in dto.IssueCartaPorteRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, h.log, err)
	}
	res, err := h.issue.PreviewCartaPorte(c.UserContext(), in.CartaPorteRequest)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewBuildResponse(res))
}

// IssueCreditNote godoc
// @Summary      Emitir nota de crédito
// @Tags         cfdi
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IssueCreditNoteRequest  true  "receptor, conceptos y CFDI relacionados"
// @Success      201   {object}  dto.IssueResponse
// @Success      202   {object}  dto.IssueResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/cfdi/credit-notes [post]
func (h *CFDIHandler) IssueCreditNote(c *fiber.Ctx) error {
	var in dto.IssueCreditNoteRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, h.log, err)
	}
	res, err := h.issue.IssueCreditNote(c.UserContext(), in.CreditNoteRequest, in.ReceiverEmail)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(issuedStatus(res)).JSON(dto.NewIssueResponse(res))
}

// PreviewCreditNote godoc
// @Summary      Vista previa de nota de crédito
// @Tags         cfdi
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IssueCreditNoteRequest  true  "mismo cuerpo que la emisión"
// @Success      200   {object}  dto.BuildResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/cfdi/credit-notes/preview [post]
func (h *CFDIHandler) PreviewCreditNote(c *fiber.Ctx) error {
	var in dto.IssueCreditNoteRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, h.log, err)
	}
	res, err := h.issue.PreviewCreditNote(c.UserContext(), in.CreditNoteRequest)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewBuildResponse(res))
}

// Parse godoc
// @Summary      Leer CFDI timbrado
// @Description  Un XML ilegible responde 200 con valid=false.
// @Tags         cfdi
// @Security     Bearer
// @Accept       xml
// @Produce      json
// @Param        body  body  string  true  "XML del comprobante"
// @Success      200   {object}  cfdi.ParsedCfdi
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/cfdi/parse [post]
func (h *CFDIHandler) Parse(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return invalidBody(c)
	}
	return c.JSON(h.docs.Parse(body))
}

// Cancel godoc
// @Summary      Cancelar CFDI
// @Tags         cfdi
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        uuid  path  string             true  "UUID del timbre"
// @Param        body  body  dto.CancelRequest  true  "motivo 01-04; folio_sustitucion con motivo 01"
// @Success      200   {object}  dto.CancelResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/cfdi/{uuid}/cancel [post]
func (h *CFDIHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, h.log, err)
	}
	res, err := h.cancel.Cancel(c.UserContext(), c.Params("uuid"), in.Motivo, in.FolioSustitucion)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.CancelResponse{UUID: res.UUID, Status: res.Status, Acuse: res.Acuse})
}

// PDF godoc
// @Summary      Representación impresa
// @Tags         cfdi
// @Security     Bearer
// @Produce      application/pdf
// @Param        uuid  path  string  true  "UUID del timbre"
// @Success      200   {file}    binary
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/cfdi/{uuid}/pdf [get]
func (h *CFDIHandler) PDF(c *fiber.Ctx) error {
	out, name, err := h.docs.PDF(c.UserContext(), c.Params("uuid"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Attachment(name)
	return c.Send(out)
}

// Email godoc
// @Summary      Enviar CFDI por correo
// @Description  Sin destinatarios usa el correo registrado del receptor.
// @Tags         cfdi
// @Security     Bearer
// @Accept       json
// @Param        uuid  path  string            true   "UUID del timbre"
// @Param        body  body  dto.EmailRequest  false  "para"
// @Success      204
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/cfdi/{uuid}/email [post]
func (h *CFDIHandler) Email(c *fiber.Ctx) error {
	var in dto.EmailRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.docs.Email(c.UserContext(), c.Params("uuid"), in.To); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RetryPending godoc
// @Summary      Reintentar timbrado de pendientes
// @Tags         cfdi
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "máximo de comprobantes (1-500)"
// @Success      200    {object}  billing.RetrySummary
// @Failure      400    {object}  dto.ErrorResponse
// @Router       /api/cfdi/pending/retry [post]
func (h *CFDIHandler) RetryPending(c *fiber.Ctx) error {
	var in dto.RetryPendingRequest
	if err := c.QueryParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, h.log, err)
	}
	sum, err := h.issue.RetryPending(c.UserContext(), in.Limit)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(sum)
}

// Un comprobante pendiente de timbrar se guardó pero no está emitido: 202.
func issuedStatus(res *billing.IssueResult) int {
	if res.UUID == "" {
		return fiber.StatusAccepted
	}
	return fiber.StatusCreated
}
