package entity

import "time"

// EmailFormat formato activo del correo que acompaña al CFDI.
// Subject y Body son plantillas text/template con los campos de MailData.
type EmailFormat struct {
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	AttachPDF bool      `json:"attach_pdf"`
	CC        []string  `json:"cc,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MailData valores disponibles para las plantillas del correo.
type MailData struct {
	ReceiverName string
	ReceiverRFC  string
	IssuerName   string
	Serie        string
	Folio        string
	UUID         string
	Total        string
	Tipo         string
}
