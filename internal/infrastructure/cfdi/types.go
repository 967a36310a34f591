// Package cfdi construye los XML CFDI 4.0 (Carta Porte de ingreso y notas de
// crédito) y lee de vuelta los CFDI timbrados por el PAC.
package cfdi

import (
	"time"

	"github.com/shopspring/decimal"

	domcfdi "github.com/jhoicas/cfdi-api/internal/domain/cfdi"
)

// Issuer identidad fiscal del emisor (viene de configuración).
type Issuer struct {
	RFC        string
	Name       string
	Regime     string
	PostalCode string // LugarExpedicion
}

// Party receptor del comprobante.
type Party struct {
	RFC              string `json:"rfc" validate:"required,min=12,max=13"`
	Name             string `json:"nombre"`
	Regime           string `json:"regimen_fiscal"`
	PostalCode       string `json:"domicilio_fiscal"`
	UsoCFDI          string `json:"uso_cfdi"`
	ResidenciaFiscal string `json:"residencia_fiscal,omitempty"`
	NumRegIdTrib     string `json:"num_reg_id_trib,omitempty"`
}

// CartaPorteRequest CFDI de ingreso con complemento Carta Porte.
type CartaPorteRequest struct {
	Serie              string     `json:"serie"`
	Folio              string     `json:"folio"`
	Fecha              *time.Time `json:"fecha,omitempty"`
	Moneda             string     `json:"moneda"`
	FormaPago          string     `json:"forma_pago"`
	MetodoPago         string     `json:"metodo_pago"`
	TipoDeComprobante  string     `json:"tipo_comprobante,omitempty"` // solo informativo, siempre se emite "I"
	Price              string     `json:"precio" validate:"required"`
	TransportMode      string     `json:"modo_transporte"`
	ServiceKey         string     `json:"clave_servicio"`
	ConceptDescription string     `json:"descripcion"`
	Receiver           Party      `json:"receptor" validate:"required"`
	Complement         CartaPorte `json:"carta_porte" validate:"required"`
}

// CartaPorte datos del complemento.
type CartaPorte struct {
	Version            string         `json:"version"`
	IdCCP              string         `json:"id_ccp,omitempty"`
	TranspInternac     string         `json:"transp_internac"`
	EntradaSalidaMerc  string         `json:"entrada_salida_merc,omitempty"`
	PaisOrigenDestino  string         `json:"pais_origen_destino,omitempty"`
	ViaEntradaSalida   string         `json:"via_entrada_salida,omitempty"`
	TotalDistRec       string         `json:"total_dist_rec,omitempty"`
	RegimenesAduaneros []string       `json:"regimenes_aduaneros,omitempty"`
	Ubicaciones        []Location     `json:"ubicaciones"`
	Mercancias         Goods          `json:"mercancias"`
	Autotransporte     *RoadTransport `json:"autotransporte,omitempty"`
	Ferroviario        *RailTransport `json:"transporte_ferroviario,omitempty"`
	Figuras            []Figure       `json:"figura_transporte"`
}

// Address domicilio de ubicación o figura.
type Address struct {
	Calle          string `json:"calle"`
	NumeroExterior string `json:"numero_exterior"`
	NumeroInterior string `json:"numero_interior"`
	Colonia        string `json:"colonia"`
	Localidad      string `json:"localidad"`
	Referencia     string `json:"referencia"`
	Municipio      string `json:"municipio"`
	Estado         string `json:"estado"`
	Pais           string `json:"pais"`
	CodigoPostal   string `json:"codigo_postal"`
}

// Location ubicación de origen, destino o intermedia.
type Location struct {
	TipoUbicacion      string   `json:"tipo_ubicacion"`
	IDUbicacion        string   `json:"id_ubicacion"`
	RFC                string   `json:"rfc"`
	Nombre             string   `json:"nombre"`
	NumRegIdTrib       string   `json:"num_reg_id_trib"`
	ResidenciaFiscal   string   `json:"residencia_fiscal"`
	NumEstacion        string   `json:"num_estacion"`
	NombreEstacion     string   `json:"nombre_estacion"`
	NavegacionTrafico  string   `json:"navegacion_trafico"`
	FechaHora          string   `json:"fecha_hora"`
	TipoEstacion       string   `json:"tipo_estacion"`
	DistanciaRecorrida string   `json:"distancia_recorrida"`
	Domicilio          *Address `json:"domicilio,omitempty"`
}

// Goods bloque Mercancias.
type Goods struct {
	PesoBrutoTotal     string      `json:"peso_bruto_total"`
	UnidadPeso         string      `json:"unidad_peso"`
	PesoNetoTotal      string      `json:"peso_neto_total"`
	NumTotalMercancias int         `json:"num_total_mercancias"`
	LogisticaInversa   string      `json:"logistica_inversa,omitempty"`
	Items              []GoodsItem `json:"mercancia"`
}

// GoodsItem una mercancía transportada.
type GoodsItem struct {
	BienesTransp         string                `json:"bienes_transp"`
	ClaveSTCC            string                `json:"clave_stcc"`
	Descripcion          string                `json:"descripcion"`
	Cantidad             string                `json:"cantidad"`
	ClaveUnidad          string                `json:"clave_unidad"`
	Unidad               string                `json:"unidad"`
	Dimensiones          string                `json:"dimensiones"`
	MaterialPeligroso    string                `json:"material_peligroso"`
	CveMaterialPeligroso string                `json:"cve_material_peligroso"`
	Embalaje             string                `json:"embalaje"`
	DescripEmbalaje      string                `json:"descrip_embalaje"`
	PesoEnKg             string                `json:"peso_en_kg"`
	ValorMercancia       string                `json:"valor_mercancia"`
	Moneda               string                `json:"moneda"`
	FraccionArancelaria  string                `json:"fraccion_arancelaria"`
	UUIDComercioExt      string                `json:"uuid_comercio_ext"`
	Aduanera             []CustomsDocument     `json:"documentacion_aduanera,omitempty"`
	CantidadTransporta   []TransportedQuantity `json:"cantidad_transporta,omitempty"`
}

// CustomsDocument DocumentacionAduanera (3.x) o Pedimentos (2.0).
type CustomsDocument struct {
	TipoDocumento    string `json:"tipo_documento"`
	NumPedimento     string `json:"num_pedimento"`
	IdentDocAduanero string `json:"ident_doc_aduanero"`
	RFCImpo          string `json:"rfc_impo"`
}

// TransportedQuantity relación de cantidad entre ubicaciones.
type TransportedQuantity struct {
	Cantidad       string `json:"cantidad"`
	IDOrigen       string `json:"id_origen"`
	IDDestino      string `json:"id_destino"`
	CvesTransporte string `json:"cves_transporte"`
}

// RoadTransport Autotransporte.
type RoadTransport struct {
	PermSCT            string    `json:"perm_sct"`
	NumPermisoSCT      string    `json:"num_permiso_sct"`
	ConfigVehicular    string    `json:"config_vehicular"`
	PesoBrutoVehicular string    `json:"peso_bruto_vehicular"`
	PlacaVM            string    `json:"placa_vm"`
	AnioModeloVM       string    `json:"anio_modelo_vm"`
	AseguraRespCivil   string    `json:"asegura_resp_civil"`
	PolizaRespCivil    string    `json:"poliza_resp_civil"`
	AseguraMedAmbiente string    `json:"asegura_med_ambiente"`
	PolizaMedAmbiente  string    `json:"poliza_med_ambiente"`
	AseguraCarga       string    `json:"asegura_carga"`
	PolizaCarga        string    `json:"poliza_carga"`
	PrimaSeguro        string    `json:"prima_seguro"`
	Remolques          []Trailer `json:"remolques,omitempty"`
}

type Trailer struct {
	SubTipoRem string `json:"sub_tipo_rem"`
	Placa      string `json:"placa"`
}

// RailTransport TransporteFerroviario.
type RailTransport struct {
	TipoDeServicio  string       `json:"tipo_de_servicio"`
	TipoDeTrafico   string       `json:"tipo_de_trafico"`
	NombreAseg      string       `json:"nombre_aseg"`
	NumPolizaSeguro string       `json:"num_poliza_seguro"`
	DerechosDePaso  []RightOfWay `json:"derechos_de_paso,omitempty"`
	Carros          []RailCar    `json:"carros"`
}

type RightOfWay struct {
	TipoDerechoDePaso string `json:"tipo_derecho_de_paso"`
	KilometrajePagado string `json:"kilometraje_pagado"`
}

type RailCar struct {
	TipoCarro           string          `json:"tipo_carro"`
	MatriculaCarro      string          `json:"matricula_carro"`
	GuiaCarro           string          `json:"guia_carro"`
	ToneladasNetasCarro string          `json:"toneladas_netas_carro"`
	Contenedores        []RailContainer `json:"contenedores,omitempty"`
}

type RailContainer struct {
	TipoContenedor      string `json:"tipo_contenedor"`
	PesoContenedorVacio string `json:"peso_contenedor_vacio"`
	PesoNetoMercancia   string `json:"peso_neto_mercancia"`
}

// Figure TiposFigura (operador, propietario, arrendador, notificado).
type Figure struct {
	TipoFigura             string   `json:"tipo_figura"`
	RFCFigura              string   `json:"rfc_figura"`
	NumLicencia            string   `json:"num_licencia"`
	NombreFigura           string   `json:"nombre_figura"`
	NumRegIdTribFigura     string   `json:"num_reg_id_trib_figura"`
	ResidenciaFiscalFigura string   `json:"residencia_fiscal_figura"`
	PartesTransporte       []string `json:"partes_transporte,omitempty"`
	Domicilio              *Address `json:"domicilio,omitempty"`
}

// CreditNoteRequest CFDI de egreso relacionado con uno o más CFDI de origen.
type CreditNoteRequest struct {
	Serie        string           `json:"serie"`
	Folio        string           `json:"folio"`
	Fecha        *time.Time       `json:"fecha,omitempty"`
	Moneda       string           `json:"moneda"`
	TipoCambio   string           `json:"tipo_cambio"`
	FormaPago    string           `json:"forma_pago"`
	MetodoPago   string           `json:"metodo_pago"`
	TipoRelacion string           `json:"tipo_relacion"`
	RelatedUUIDs []string         `json:"uuids_relacionados" validate:"required,min=1,dive,uuid"`
	Receiver     Party            `json:"receptor" validate:"required"`
	Lines        []CreditNoteLine `json:"conceptos" validate:"required,min=1,dive"`
}

// CreditNoteLine concepto de la nota de crédito.
type CreditNoteLine struct {
	ClaveProdServ    string `json:"clave_prod_serv"`
	NoIdentificacion string `json:"no_identificacion"`
	Cantidad         string `json:"cantidad"`
	ClaveUnidad      string `json:"clave_unidad"`
	Unidad           string `json:"unidad"`
	Descripcion      string `json:"descripcion" validate:"required"`
	ValorUnitario    string `json:"valor_unitario" validate:"required"`
	Descuento        string `json:"descuento"`
	TaxRate          string `json:"tasa_iva"` // 0.16, 0.08 o 0; vacío ⇒ 0.16
	Exento           bool   `json:"exento"`
	NoObjeto         bool   `json:"no_objeto"`
}

// Outcome resultado etiquetado de una construcción exitosa.
type Outcome string

const (
	OutcomeOK        Outcome = "OK"
	OutcomeCorrected Outcome = "CORRECTED_WITH_WARNING"
)

// BuildResult documento construido. Los fallos de validación no llegan aquí:
// se devuelven como error tipado (ver domain.Classify).
type BuildResult struct {
	XML         string
	IdCCP       string
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
	Outcome     Outcome
	Corrections []domcfdi.Correction
}

func newResult(xml string, corrections domcfdi.Corrections) *BuildResult {
	r := &BuildResult{XML: xml, Outcome: OutcomeOK, Corrections: corrections}
	if len(corrections) > 0 {
		r.Outcome = OutcomeCorrected
	}
	return r
}
