// Package pac habla con el proveedor autorizado de certificación (PAC) que
// timbra y cancela los CFDI. Las fallas del PAC nunca se devuelven como error:
// viajan dentro de StampResult/CancelResult para que el orquestador decida el
// respaldo (p. ej. guardar el comprobante como pendiente de timbrado).
package pac

import "context"

// Estatus de cancelación por folio y motivos del SAT.
const (
	EstatusCancelado         = "201"
	EstatusCancelacionPrevia = "202"
	MotivoSustitucion        = "01"
	MotivoErroresSinRelacion = "02"
	MotivoNoSeLlevoACabo     = "03"
	MotivoOperacionGlobal    = "04"
)

// ── Puerto (interfaz) ──────────────────────────────────────────────────────────

// StampResult resultado de un timbrado.
type StampResult struct {
	Success    bool
	UUID       string // folio fiscal asignado por el SAT
	Status     string // CodEstatus del PAC
	StampedXML string // comprobante con el TimbreFiscalDigital
	Message    string // incidencias o error de transporte
	Attempts   int
}

// CancelRequest datos de una solicitud de cancelación.
type CancelRequest struct {
	UUID             string
	RFCEmisor        string
	Motivo           string
	FolioSustitucion string // obligatorio con motivo 01
}

// CancelResult resultado de una cancelación.
type CancelResult struct {
	Success bool
	Status  string // EstatusUUID del folio
	Acuse   string
	Message string
}

// Stamper define el puerto de salida hacia el PAC.
// La implementación concreta usa SOAP; para tests se puede inyectar un mock.
type Stamper interface {
	Stamp(ctx context.Context, xml string) StampResult
	Cancel(ctx context.Context, req CancelRequest) CancelResult
}
