// Package sat contiene catálogos y reglas del SAT (México) para CFDI 4.0 y el
// complemento Carta Porte. Son conjuntos pequeños y fijos; el catálogo grande de
// productos/servicios se carga al arranque (ver internal/infrastructure/catalog).
package sat

import "strings"

// =============================================================================
// c_TipoDeComprobante
// =============================================================================

const (
	TipoComprobanteIngreso  = "I"
	TipoComprobanteEgreso   = "E"
	TipoComprobanteTraslado = "T"
	TipoComprobantePago     = "P"
)

// =============================================================================
// c_CveTransporte (modos de transporte) y claves de servicio de flete
// (c_ClaveProdServ 7810xxxx) asociadas a cada modo.
// =============================================================================

const (
	CveTransporteAutotransporte = "01"
	CveTransporteMaritimo       = "02"
	CveTransporteAereo          = "03"
	CveTransporteFerroviario    = "04"
)

const (
	ClaveServicioAutotransporte = "78101800" // Transporte de carga por carretera
	ClaveServicioMaritimo       = "78101700" // Transporte de carga por mar
	ClaveServicioAereo          = "78101500" // Transporte de carga aérea
	ClaveServicioFerroviario    = "78101600" // Transporte de carga por ferrocarril
)

// ServiceKeyByTransport clave de producto/servicio del concepto según el modo de transporte.
var ServiceKeyByTransport = map[string]string{
	CveTransporteAutotransporte: ClaveServicioAutotransporte,
	CveTransporteMaritimo:       ClaveServicioMaritimo,
	CveTransporteAereo:          ClaveServicioAereo,
	CveTransporteFerroviario:    ClaveServicioFerroviario,
}

// ValidTransportServiceKeys las cuatro claves de servicio de transporte aceptadas en el concepto.
var ValidTransportServiceKeys = map[string]bool{
	ClaveServicioAutotransporte: true,
	ClaveServicioMaritimo:       true,
	ClaveServicioAereo:          true,
	ClaveServicioFerroviario:    true,
}

// transportAliases nombres aceptados en las peticiones además de la clave numérica.
var transportAliases = map[string]string{
	"01": CveTransporteAutotransporte, "road": CveTransporteAutotransporte, "autotransporte": CveTransporteAutotransporte, "carretera": CveTransporteAutotransporte,
	"02": CveTransporteMaritimo, "sea": CveTransporteMaritimo, "maritimo": CveTransporteMaritimo, "marítimo": CveTransporteMaritimo,
	"03": CveTransporteAereo, "air": CveTransporteAereo, "aereo": CveTransporteAereo, "aéreo": CveTransporteAereo,
	"04": CveTransporteFerroviario, "rail": CveTransporteFerroviario, "ferroviario": CveTransporteFerroviario, "tren": CveTransporteFerroviario,
}

// NormalizeTransport devuelve la clave c_CveTransporte para un alias; ok=false si no se reconoce.
func NormalizeTransport(mode string) (string, bool) {
	v, ok := transportAliases[strings.ToLower(strings.TrimSpace(mode))]
	return v, ok
}

// =============================================================================
// c_TipoEstacion
// =============================================================================

const (
	TipoEstacionOrigen     = "01"
	TipoEstacionIntermedia = "02"
	TipoEstacionFinal      = "03"
)

// =============================================================================
// Impuestos (c_Impuesto, c_TipoFactor) y objeto de impuesto
// =============================================================================

const (
	ImpuestoISR  = "001"
	ImpuestoIVA  = "002"
	ImpuestoIEPS = "003"

	TipoFactorTasa   = "Tasa"
	TipoFactorCuota  = "Cuota"
	TipoFactorExento = "Exento"

	ObjetoImpNo = "01"
	ObjetoImpSi = "02"
)

// Unidades y claves por defecto.
const (
	ClaveUnidadServicio  = "E48"      // Unidad de servicio
	ClaveUnidadActividad = "ACT"      // Actividad (notas de crédito)
	UnidadPesoKGM        = "KGM"      // Kilogramo
	ClaveNotaCredito     = "84111506" // Servicios de facturación
	ExportacionNoAplica  = "01"
	MonedaMXN            = "MXN"
	MonedaXXX            = "XXX"
	MetodoPagoPUE        = "PUE"
	MetodoPagoPPD        = "PPD"
	FormaPagoPorDefinir  = "99"
	TipoRelacionNotaCred = "01"
	TipoRelacionSustituc = "04"
)

// =============================================================================
// c_RegimenFiscal por tipo de persona
// =============================================================================

const (
	RegimenGeneralPM     = "601" // General de Ley Personas Morales
	RegimenSinObligacion = "616" // Sin obligaciones fiscales
	RegimenRESICO_PF     = "626" // Régimen Simplificado de Confianza
)

// RegimesIndividual regímenes válidos para personas físicas.
var RegimesIndividual = map[string]bool{
	"605": true, "606": true, "607": true, "608": true, "610": true, "611": true,
	"612": true, "614": true, "615": true, "616": true, "621": true, "625": true, "626": true,
}

// RegimesLegalEntity regímenes válidos para personas morales.
var RegimesLegalEntity = map[string]bool{
	"601": true, "603": true, "610": true, "620": true, "622": true, "623": true, "624": true, "626": true,
}

// =============================================================================
// c_UsoCFDI
// =============================================================================

const (
	UsoAdquisicionMercancias = "G01"
	UsoDevoluciones          = "G02"
	UsoGastosEnGeneral       = "G03"
	UsoSinEfectosFiscales    = "S01"
	UsoPagos                 = "CP01"
)

// UsosLegalEntity usos permitidos a personas morales (las claves D* son exclusivas de personas físicas).
var UsosLegalEntity = map[string]bool{
	"G01": true, "G02": true, "G03": true,
	"I01": true, "I02": true, "I03": true, "I04": true, "I05": true, "I06": true, "I07": true, "I08": true,
	"S01": true, "CP01": true,
}

// UsosIndividual usos permitidos a personas físicas.
var UsosIndividual = map[string]bool{
	"G01": true, "G02": true, "G03": true,
	"I01": true, "I02": true, "I03": true, "I04": true, "I05": true, "I06": true, "I07": true, "I08": true,
	"D01": true, "D02": true, "D03": true, "D04": true, "D05": true, "D06": true, "D07": true, "D08": true, "D09": true, "D10": true,
	"S01": true, "CP01": true, "CN01": true,
}

// UsosRestrictedRegimes usos cuyo uso está limitado a un subconjunto de regímenes.
// Los usos no listados aquí se aceptan con cualquier régimen compatible con el tipo de persona.
var UsosRestrictedRegimes = map[string]map[string]bool{
	"S01":  nil, // cualquiera
	"CP01": nil,
	"CN01": {"605": true},
	"D01":  {"605": true, "606": true, "608": true, "611": true, "612": true, "614": true, "607": true, "615": true, "625": true},
	"G01":  {"601": true, "603": true, "606": true, "612": true, "620": true, "621": true, "622": true, "623": true, "624": true, "625": true, "626": true},
	"G02":  {"601": true, "603": true, "606": true, "612": true, "620": true, "621": true, "622": true, "623": true, "624": true, "625": true, "626": true},
	"G03":  {"601": true, "603": true, "606": true, "612": true, "620": true, "621": true, "622": true, "623": true, "624": true, "625": true, "626": true},
}

// PostalCodePlaceholder código postal que el SAT rechaza siempre.
const PostalCodePlaceholder = "00000"
