package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un comprobante frente al PAC.
const (
	StatusTimbrado          = "TIMBRADO"
	StatusPendienteTimbrado = "PENDIENTE_TIMBRADO" // el PAC falló; XML sin timbrar guardado para reintento
	StatusCancelado         = "CANCELADO"
	StatusCancelacionError  = "ERROR_CANCELACION"
)

// StampedDocument comprobante emitido (timbrado o pendiente de timbrar).
type StampedDocument struct {
	ID                string
	TipoDeComprobante string // I (Carta Porte) o E (nota de crédito)
	Serie             string
	Folio             string
	IssuerRFC         string
	ReceiverRFC       string
	ReceiverEmail     string
	UUID              string // vacío mientras esté pendiente
	IdCCP             string
	Subtotal          decimal.Decimal
	Discount          decimal.Decimal
	Tax               decimal.Decimal
	Total             decimal.Decimal
	Status            string
	XML               string // timbrado; sin timbrar si Status es PENDIENTE_TIMBRADO
	PACMessage        string // último mensaje del PAC
	StampAttempts     int
	Corrections       string // correcciones aplicadas, una por línea
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsStamped indica si el comprobante ya tiene folio fiscal.
func (d *StampedDocument) IsStamped() bool {
	return d.UUID != "" && (d.Status == StatusTimbrado || d.Status == StatusCancelado)
}
