package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-api/internal/application/billing"
	domcfdi "github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/cfdi"
)

// IssueCartaPorteRequest body para POST /api/cfdi/carta-porte(/preview).
type IssueCartaPorteRequest struct {
	cfdi.CartaPorteRequest
	ReceiverEmail string `json:"correo_receptor" validate:"omitempty,email"`
}

// IssueCreditNoteRequest body para POST /api/cfdi/credit-notes(/preview).
type IssueCreditNoteRequest struct {
	cfdi.CreditNoteRequest
	ReceiverEmail string `json:"correo_receptor" validate:"omitempty,email"`
}

// BuildResponse XML construido sin timbrar.
type BuildResponse struct {
	XML         string               `json:"xml"`
	IdCCP       string               `json:"id_ccp,omitempty"`
	Subtotal    decimal.Decimal      `json:"subtotal"`
	Discount    decimal.Decimal      `json:"descuento"`
	Tax         decimal.Decimal      `json:"impuestos"`
	Total       decimal.Decimal      `json:"total"`
	Outcome     string               `json:"resultado"`
	Corrections []domcfdi.Correction `json:"correcciones,omitempty"`
}

// NewBuildResponse mapea el resultado del builder.
func NewBuildResponse(r *cfdi.BuildResult) BuildResponse {
	return BuildResponse{
		XML:         r.XML,
		IdCCP:       r.IdCCP,
		Subtotal:    r.Subtotal,
		Discount:    r.Discount,
		Tax:         r.Tax,
		Total:       r.Total,
		Outcome:     string(r.Outcome),
		Corrections: r.Corrections,
	}
}

// IssueResponse comprobante emitido (timbrado o pendiente).
type IssueResponse struct {
	BuildResponse
	DocumentID string `json:"id"`
	Status     string `json:"estatus"`
	UUID       string `json:"uuid,omitempty"`
	PACMessage string `json:"mensaje_pac,omitempty"`
	Attempts   int    `json:"intentos"`
}

// NewIssueResponse mapea el resultado de la emisión.
func NewIssueResponse(r *billing.IssueResult) IssueResponse {
	return IssueResponse{
		BuildResponse: BuildResponse{
			XML:         r.XML,
			IdCCP:       r.IdCCP,
			Subtotal:    r.Subtotal,
			Discount:    r.Discount,
			Tax:         r.Tax,
			Total:       r.Total,
			Outcome:     string(r.Outcome),
			Corrections: r.Corrections,
		},
		DocumentID: r.DocumentID,
		Status:     r.Status,
		UUID:       r.UUID,
		PACMessage: r.PACMessage,
		Attempts:   r.Attempts,
	}
}

// CancelRequest body para POST /api/cfdi/:uuid/cancel.
type CancelRequest struct {
	Motivo           string `json:"motivo" validate:"required,oneof=01 02 03 04"`
	FolioSustitucion string `json:"folio_sustitucion" validate:"required_if=Motivo 01"`
}

// CancelResponse acuse de cancelación.
type CancelResponse struct {
	UUID   string `json:"uuid"`
	Status string `json:"estatus"`
	Acuse  string `json:"acuse,omitempty"`
}

// EmailRequest body para POST /api/cfdi/:uuid/email. Sin destinatarios se usa el correo registrado.
type EmailRequest struct {
	To []string `json:"para" validate:"omitempty,dive,email"`
}

// EmailFormatRequest body para PUT /api/email-format.
type EmailFormatRequest struct {
	Subject   string   `json:"subject" validate:"required,max=300"`
	Body      string   `json:"body" validate:"required"`
	AttachPDF bool     `json:"attach_pdf"`
	CC        []string `json:"cc" validate:"omitempty,dive,email"`
}

// ToEntity convierte al formato de dominio.
func (r EmailFormatRequest) ToEntity() entity.EmailFormat {
	return entity.EmailFormat{
		Subject:   r.Subject,
		Body:      r.Body,
		AttachPDF: r.AttachPDF,
		CC:        r.CC,
	}
}

// RetryPendingRequest query de POST /api/cfdi/pending/retry.
type RetryPendingRequest struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=500"`
}

// HealthResponse estado del servicio.
type HealthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}
