package entity

import "time"

// Receiver receptor frecuente guardado para completar solicitudes por RFC.
type Receiver struct {
	ID         string
	RFC        string
	Name       string
	Regime     string // RegimenFiscalReceptor
	PostalCode string // DomicilioFiscalReceptor
	UsoCFDI    string
	Email      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
