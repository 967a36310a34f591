package cfdi

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	domcfdi "github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-api/pkg/sat"
)

// ParsedCfdi resumen de un CFDI timbrado. Con Valid=false el resto va en cero.
type ParsedCfdi struct {
	Valid bool `json:"valid"`

	Version           string          `json:"version"`
	Serie             string          `json:"serie"`
	Folio             string          `json:"folio"`
	Fecha             string          `json:"fecha"`
	TipoDeComprobante string          `json:"tipo_comprobante"`
	SubTotal          decimal.Decimal `json:"subtotal"`
	Descuento         decimal.Decimal `json:"descuento"`
	Total             decimal.Decimal `json:"total"`
	Moneda            string          `json:"moneda"`
	TipoCambio        string          `json:"tipo_cambio,omitempty"`
	FormaPago         string          `json:"forma_pago"`
	MetodoPago        string          `json:"metodo_pago"`
	LugarExpedicion   string          `json:"lugar_expedicion"`

	EmisorRFC       string `json:"emisor_rfc"`
	EmisorNombre    string `json:"emisor_nombre"`
	EmisorRegimen   string `json:"emisor_regimen"`
	ReceptorRFC     string `json:"receptor_rfc"`
	ReceptorNombre  string `json:"receptor_nombre"`
	ReceptorUsoCFDI string `json:"receptor_uso_cfdi"`

	// TimbreFiscalDigital
	UUID             string `json:"uuid"`
	FechaTimbrado    string `json:"fecha_timbrado"`
	SelloCFD         string `json:"sello_cfd"`
	SelloSAT         string `json:"sello_sat"`
	NoCertificadoSAT string `json:"no_certificado_sat"`
	RfcProvCertif    string `json:"rfc_prov_certif"`

	Concepts     []ParsedConcept `json:"conceptos"`
	Taxes        TaxBreakdown    `json:"impuestos"`
	Relations    []Relation      `json:"relaciones,omitempty"`
	RelatedUUIDs []string        `json:"uuids_relacionados,omitempty"`
	// OriginalUUID CFDI sustituido cuando existe una relación 04.
	OriginalUUID string `json:"uuid_original,omitempty"`

	Payments      []Payment      `json:"pagos,omitempty"`
	PaymentTotals *PaymentTotals `json:"totales_pagos,omitempty"`

	IdCCP string `json:"id_ccp,omitempty"`
}

// ParsedConcept resumen de un concepto.
type ParsedConcept struct {
	ClaveProdServ string          `json:"clave_prod_serv"`
	Cantidad      decimal.Decimal `json:"cantidad"`
	ClaveUnidad   string          `json:"clave_unidad"`
	Descripcion   string          `json:"descripcion"`
	ValorUnitario decimal.Decimal `json:"valor_unitario"`
	Importe       decimal.Decimal `json:"importe"`
	Descuento     decimal.Decimal `json:"descuento"`
	ObjetoImp     string          `json:"objeto_imp"`
}

// TaxBreakdown impuestos del comprobante agrupados por tasa conocida.
type TaxBreakdown struct {
	BaseIVA16  decimal.Decimal `json:"base_iva16"`
	IVA16      decimal.Decimal `json:"iva16"`
	BaseIVA8   decimal.Decimal `json:"base_iva8"`
	IVA8       decimal.Decimal `json:"iva8"`
	BaseIVA0   decimal.Decimal `json:"base_iva0"`
	BaseExento decimal.Decimal `json:"base_exento"`

	IEPS8    decimal.Decimal `json:"ieps8"`
	IEPS16   decimal.Decimal `json:"ieps16"`
	IEPS26_5 decimal.Decimal `json:"ieps26_5"`
	IEPS30   decimal.Decimal `json:"ieps30"`
	IEPS50   decimal.Decimal `json:"ieps50"`
	IEPS53   decimal.Decimal `json:"ieps53"`
	// OtherTransfers traslados con tasa o impuesto fuera de las cubetas anteriores.
	OtherTransfers decimal.Decimal `json:"otros_traslados"`

	RetencionISR decimal.Decimal `json:"retencion_isr"`
	RetencionIVA decimal.Decimal `json:"retencion_iva"`

	TotalTrasladados decimal.Decimal `json:"total_trasladados"`
	TotalRetenidos   decimal.Decimal `json:"total_retenidos"`
}

// Relation un nodo CfdiRelacionados.
type Relation struct {
	TipoRelacion string   `json:"tipo_relacion"`
	UUIDs        []string `json:"uuids"`
}

// Payment nodo Pago del complemento de pagos 2.0.
type Payment struct {
	FechaPago    string          `json:"fecha_pago"`
	FormaDePagoP string          `json:"forma_pago"`
	MonedaP      string          `json:"moneda"`
	TipoCambioP  string          `json:"tipo_cambio,omitempty"`
	Monto        decimal.Decimal `json:"monto"`
	NumOperacion string          `json:"num_operacion,omitempty"`
	Documents    []PaidDocument  `json:"documentos"`
}

// PaidDocument DoctoRelacionado.
type PaidDocument struct {
	IdDocumento      string          `json:"id_documento"`
	Serie            string          `json:"serie,omitempty"`
	Folio            string          `json:"folio,omitempty"`
	MonedaDR         string          `json:"moneda"`
	NumParcialidad   string          `json:"num_parcialidad"`
	ImpSaldoAnt      decimal.Decimal `json:"imp_saldo_ant"`
	ImpPagado        decimal.Decimal `json:"imp_pagado"`
	ImpSaldoInsoluto decimal.Decimal `json:"imp_saldo_insoluto"`
	ObjetoImpDR      string          `json:"objeto_imp"`
}

// PaymentTotals nodo Totales del complemento de pagos.
type PaymentTotals struct {
	TotalRetencionesIVA         decimal.Decimal `json:"total_retenciones_iva"`
	TotalRetencionesISR         decimal.Decimal `json:"total_retenciones_isr"`
	TotalTrasladosBaseIVA16     decimal.Decimal `json:"total_traslados_base_iva16"`
	TotalTrasladosImpuestoIVA16 decimal.Decimal `json:"total_traslados_impuesto_iva16"`
	TotalTrasladosBaseIVA8      decimal.Decimal `json:"total_traslados_base_iva8"`
	TotalTrasladosImpuestoIVA8  decimal.Decimal `json:"total_traslados_impuesto_iva8"`
	TotalTrasladosBaseIVA0      decimal.Decimal `json:"total_traslados_base_iva0"`
	TotalTrasladosBaseIVAExento decimal.Decimal `json:"total_traslados_base_iva_exento"`
	MontoTotalPagos             decimal.Decimal `json:"monto_total_pagos"`
}

// Parser lee CFDI timbrados devueltos por el PAC. Las etiquetas se comparan por
// nombre local, así que no depende de los prefijos que use cada PAC.
type Parser struct {
	log zerolog.Logger
}

func NewParser(log zerolog.Logger) *Parser {
	return &Parser{log: log}
}

// Parse nunca falla: un documento ilegible devuelve un ParsedCfdi en cero con Valid=false.
func (p *Parser) Parse(data []byte) ParsedCfdi {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		p.log.Debug().Err(err).Msg("cfdi ilegible")
		return ParsedCfdi{}
	}
	root := doc.Root()
	if root == nil || root.Tag != "Comprobante" {
		p.log.Debug().Msg("el documento no es un Comprobante")
		return ParsedCfdi{}
	}

	out := ParsedCfdi{
		Valid:             true,
		Version:           attr(root, "Version"),
		Serie:             attr(root, "Serie"),
		Folio:             attr(root, "Folio"),
		Fecha:             attr(root, "Fecha"),
		TipoDeComprobante: attr(root, "TipoDeComprobante"),
		SubTotal:          decAttr(root, "SubTotal"),
		Descuento:         decAttr(root, "Descuento"),
		Total:             decAttr(root, "Total"),
		Moneda:            attr(root, "Moneda"),
		TipoCambio:        attr(root, "TipoCambio"),
		FormaPago:         attr(root, "FormaPago"),
		MetodoPago:        attr(root, "MetodoPago"),
		LugarExpedicion:   attr(root, "LugarExpedicion"),
	}

	if e := child(root, "Emisor"); e != nil {
		out.EmisorRFC = attr(e, "Rfc")
		out.EmisorNombre = attr(e, "Nombre")
		out.EmisorRegimen = attr(e, "RegimenFiscal")
	}
	if r := child(root, "Receptor"); r != nil {
		out.ReceptorRFC = attr(r, "Rfc")
		out.ReceptorNombre = attr(r, "Nombre")
		out.ReceptorUsoCFDI = attr(r, "UsoCFDI")
	}

	parseRelations(root, &out)

	if cs := child(root, "Conceptos"); cs != nil {
		for _, c := range children(cs, "Concepto") {
			out.Concepts = append(out.Concepts, ParsedConcept{
				ClaveProdServ: attr(c, "ClaveProdServ"),
				Cantidad:      decAttr(c, "Cantidad"),
				ClaveUnidad:   attr(c, "ClaveUnidad"),
				Descripcion:   attr(c, "Descripcion"),
				ValorUnitario: decAttr(c, "ValorUnitario"),
				Importe:       decAttr(c, "Importe"),
				Descuento:     decAttr(c, "Descuento"),
				ObjetoImp:     attr(c, "ObjetoImp"),
			})
		}
	}

	// Solo los impuestos del comprobante: los de cada concepto ya están sumados ahí.
	if imp := child(root, "Impuestos"); imp != nil {
		parseTaxes(imp, &out.Taxes)
	}

	if comp := child(root, "Complemento"); comp != nil {
		if tfd := descendant(comp, "TimbreFiscalDigital"); tfd != nil {
			out.UUID = strings.ToUpper(attr(tfd, "UUID"))
			out.FechaTimbrado = attr(tfd, "FechaTimbrado")
			out.SelloCFD = attr(tfd, "SelloCFD")
			out.SelloSAT = attr(tfd, "SelloSAT")
			out.NoCertificadoSAT = attr(tfd, "NoCertificadoSAT")
			out.RfcProvCertif = attr(tfd, "RfcProvCertif")
		}
		if cp := descendant(comp, "CartaPorte"); cp != nil {
			out.IdCCP = attr(cp, "IdCCP")
		}
		if pagos := descendant(comp, "Pagos"); pagos != nil {
			parsePayments(pagos, &out)
		}
	}
	return out
}

func parseRelations(root *etree.Element, out *ParsedCfdi) {
	for _, rel := range children(root, "CfdiRelacionados") {
		r := Relation{TipoRelacion: attr(rel, "TipoRelacion")}
		for _, c := range children(rel, "CfdiRelacionado") {
			u := strings.ToUpper(attr(c, "UUID"))
			if u == "" {
				continue
			}
			r.UUIDs = append(r.UUIDs, u)
			out.RelatedUUIDs = append(out.RelatedUUIDs, u)
			if r.TipoRelacion == sat.TipoRelacionSustituc && out.OriginalUUID == "" {
				out.OriginalUUID = u
			}
		}
		out.Relations = append(out.Relations, r)
	}
}

var (
	rate16  = decimal.RequireFromString("0.16")
	rate8   = decimal.RequireFromString("0.08")
	iepsMap = map[string]func(*TaxBreakdown) *decimal.Decimal{
		"0.080000": func(t *TaxBreakdown) *decimal.Decimal { return &t.IEPS8 },
		"0.160000": func(t *TaxBreakdown) *decimal.Decimal { return &t.IEPS16 },
		"0.265000": func(t *TaxBreakdown) *decimal.Decimal { return &t.IEPS26_5 },
		"0.300000": func(t *TaxBreakdown) *decimal.Decimal { return &t.IEPS30 },
		"0.500000": func(t *TaxBreakdown) *decimal.Decimal { return &t.IEPS50 },
		"0.530000": func(t *TaxBreakdown) *decimal.Decimal { return &t.IEPS53 },
	}
)

func parseTaxes(imp *etree.Element, t *TaxBreakdown) {
	t.TotalTrasladados = decAttr(imp, "TotalImpuestosTrasladados")
	t.TotalRetenidos = decAttr(imp, "TotalImpuestosRetenidos")

	if trs := child(imp, "Traslados"); trs != nil {
		for _, tr := range children(trs, "Traslado") {
			addTransfer(t, attr(tr, "Impuesto"), attr(tr, "TipoFactor"), decAttr(tr, "TasaOCuota"), decAttr(tr, "Base"), decAttr(tr, "Importe"))
		}
	}
	if rets := child(imp, "Retenciones"); rets != nil {
		for _, r := range children(rets, "Retencion") {
			switch attr(r, "Impuesto") {
			case sat.ImpuestoISR:
				t.RetencionISR = t.RetencionISR.Add(decAttr(r, "Importe"))
			case sat.ImpuestoIVA:
				t.RetencionIVA = t.RetencionIVA.Add(decAttr(r, "Importe"))
			}
		}
	}
}

func addTransfer(t *TaxBreakdown, impuesto, factor string, rate, base, importe decimal.Decimal) {
	switch {
	case impuesto == sat.ImpuestoIVA && factor == sat.TipoFactorExento:
		t.BaseExento = t.BaseExento.Add(base)
	case impuesto == sat.ImpuestoIVA && rate.Equal(rate16):
		t.BaseIVA16 = t.BaseIVA16.Add(base)
		t.IVA16 = t.IVA16.Add(importe)
	case impuesto == sat.ImpuestoIVA && rate.Equal(rate8):
		t.BaseIVA8 = t.BaseIVA8.Add(base)
		t.IVA8 = t.IVA8.Add(importe)
	case impuesto == sat.ImpuestoIVA && rate.IsZero():
		t.BaseIVA0 = t.BaseIVA0.Add(base)
	case impuesto == sat.ImpuestoIEPS && factor == sat.TipoFactorTasa:
		if bucket, ok := iepsMap[domcfdi.FormatRate(rate)]; ok {
			p := bucket(t)
			*p = p.Add(importe)
			return
		}
		t.OtherTransfers = t.OtherTransfers.Add(importe)
	default:
		t.OtherTransfers = t.OtherTransfers.Add(importe)
	}
}

func parsePayments(pagos *etree.Element, out *ParsedCfdi) {
	if tot := child(pagos, "Totales"); tot != nil {
		pt := &PaymentTotals{
			TotalRetencionesIVA:         decAttr(tot, "TotalRetencionesIVA"),
			TotalRetencionesISR:         decAttr(tot, "TotalRetencionesISR"),
			TotalTrasladosBaseIVA16:     decAttr(tot, "TotalTrasladosBaseIVA16"),
			TotalTrasladosImpuestoIVA16: decAttr(tot, "TotalTrasladosImpuestoIVA16"),
			TotalTrasladosBaseIVA8:      decAttr(tot, "TotalTrasladosBaseIVA8"),
			TotalTrasladosImpuestoIVA8:  decAttr(tot, "TotalTrasladosImpuestoIVA8"),
			TotalTrasladosBaseIVA0:      decAttr(tot, "TotalTrasladosBaseIVA0"),
			TotalTrasladosBaseIVAExento: decAttr(tot, "TotalTrasladosBaseIVAExento"),
			MontoTotalPagos:             decAttr(tot, "MontoTotalPagos"),
		}
		out.PaymentTotals = pt

		// Un CFDI de pago no trae impuestos a nivel comprobante: las cubetas salen de Totales.
		if out.TipoDeComprobante == sat.TipoComprobantePago {
			out.Taxes.BaseIVA16 = pt.TotalTrasladosBaseIVA16
			out.Taxes.IVA16 = pt.TotalTrasladosImpuestoIVA16
			out.Taxes.BaseIVA8 = pt.TotalTrasladosBaseIVA8
			out.Taxes.IVA8 = pt.TotalTrasladosImpuestoIVA8
			out.Taxes.BaseIVA0 = pt.TotalTrasladosBaseIVA0
			out.Taxes.BaseExento = pt.TotalTrasladosBaseIVAExento
			out.Taxes.RetencionISR = pt.TotalRetencionesISR
			out.Taxes.RetencionIVA = pt.TotalRetencionesIVA
			out.Taxes.TotalTrasladados = pt.TotalTrasladosImpuestoIVA16.Add(pt.TotalTrasladosImpuestoIVA8)
			out.Taxes.TotalRetenidos = pt.TotalRetencionesISR.Add(pt.TotalRetencionesIVA)
		}
	}
	for _, p := range children(pagos, "Pago") {
		pay := Payment{
			FechaPago:    attr(p, "FechaPago"),
			FormaDePagoP: attr(p, "FormaDePagoP"),
			MonedaP:      attr(p, "MonedaP"),
			TipoCambioP:  attr(p, "TipoCambioP"),
			Monto:        decAttr(p, "Monto"),
			NumOperacion: attr(p, "NumOperacion"),
		}
		for _, d := range children(p, "DoctoRelacionado") {
			pay.Documents = append(pay.Documents, PaidDocument{
				IdDocumento:      strings.ToUpper(attr(d, "IdDocumento")),
				Serie:            attr(d, "Serie"),
				Folio:            attr(d, "Folio"),
				MonedaDR:         attr(d, "MonedaDR"),
				NumParcialidad:   attr(d, "NumParcialidad"),
				ImpSaldoAnt:      decAttr(d, "ImpSaldoAnt"),
				ImpPagado:        decAttr(d, "ImpPagado"),
				ImpSaldoInsoluto: decAttr(d, "ImpSaldoInsoluto"),
				ObjetoImpDR:      attr(d, "ObjetoImpDR"),
			})
		}
		out.Payments = append(out.Payments, pay)
	}
}

// ---- Búsqueda por nombre local

func child(e *etree.Element, local string) *etree.Element {
	for _, c := range e.ChildElements() {
		if c.Tag == local {
			return c
		}
	}
	return nil
}

func children(e *etree.Element, local string) []*etree.Element {
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if c.Tag == local {
			out = append(out, c)
		}
	}
	return out
}

// descendant primera coincidencia en profundidad.
func descendant(e *etree.Element, local string) *etree.Element {
	for _, c := range e.ChildElements() {
		if c.Tag == local {
			return c
		}
		if d := descendant(c, local); d != nil {
			return d
		}
	}
	return nil
}

func attr(e *etree.Element, key string) string {
	for _, a := range e.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

func decAttr(e *etree.Element, key string) decimal.Decimal {
	d, _ := domcfdi.ParseDecimal(attr(e, key))
	return d
}
