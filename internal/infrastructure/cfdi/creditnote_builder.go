package cfdi

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-api/internal/domain"
	domcfdi "github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-api/pkg/sat"
)

// Tasas de IVA aceptadas en los conceptos de la nota de crédito.
var creditNoteRates = map[string]decimal.Decimal{
	"0.160000": decimal.RequireFromString("0.16"),
	"0.080000": decimal.RequireFromString("0.08"),
	"0.000000": decimal.Zero,
}

// CreditNoteBuilder construye el CFDI de egreso (nota de crédito) relacionado con
// los CFDI de origen.
type CreditNoteBuilder struct {
	issuer    Issuer
	validator *domcfdi.CatalogValidator
	opts      options
}

func NewCreditNoteBuilder(issuer Issuer, validator *domcfdi.CatalogValidator, opts ...Option) *CreditNoteBuilder {
	if validator == nil {
		validator = domcfdi.NewCatalogValidator(nil)
	}
	return &CreditNoteBuilder{issuer: issuer, validator: validator, opts: applyOptions(opts)}
}

// Build genera el XML sin sellar. Uso CFDI, régimen y código postal inválidos se
// corrigen y se registran; nunca detienen la emisión.
func (b *CreditNoteBuilder) Build(req CreditNoteRequest) (*BuildResult, error) {
	var corrections domcfdi.Corrections

	related := make([]string, 0, len(req.RelatedUUIDs))
	for _, u := range req.RelatedUUIDs {
		if u = strings.ToUpper(strings.TrimSpace(u)); u != "" {
			related = append(related, u)
		}
	}
	if len(related) == 0 {
		return nil, domain.MissingField("UUID", PrefixCfdi+":CfdiRelacionado")
	}
	if len(req.Lines) == 0 {
		return nil, domain.Structural("Conceptos", "se requiere al menos un concepto")
	}

	lines, err := b.computeLines(req.Lines, &corrections)
	if err != nil {
		return nil, err
	}

	subtotal, discount := decimal.Zero, decimal.Zero
	summary := newTaxSummary()
	for _, l := range lines {
		subtotal = subtotal.Add(l.importe)
		discount = discount.Add(l.discount)
		for _, t := range l.transfers {
			summary.Add(t)
		}
	}
	tax := summary.Total()
	total := domcfdi.Round(subtotal.Sub(discount).Add(tax), domcfdi.ScaleAmount)

	lugar := postalCodeOr(b.issuer.PostalCode, b.opts.defaultPostalCode)
	if orig := strings.TrimSpace(b.issuer.PostalCode); lugar != "" && orig != lugar {
		corrections.Add(&domcfdi.Correction{Field: "LugarExpedicion", Original: orig, Applied: lugar, Reason: "código postal no utilizable"})
	}

	doc := NewDocument()
	root := writeComprobanteRoot(doc, nil)

	// ---- Encabezado
	root.Required("Version", CfdiVersion).
		Optional("Serie", req.Serie).
		Optional("Folio", req.Folio).
		Required("Fecha", b.opts.fecha(req.Fecha)).
		Optional("FormaPago", req.FormaPago).
		Required("SubTotal", domcfdi.FormatAmount(subtotal))
	if discount.IsPositive() {
		root.Required("Descuento", domcfdi.FormatAmount(discount))
	}
	moneda := firstNonEmpty(req.Moneda, sat.MonedaMXN)
	root.Required("Moneda", moneda)
	if moneda != sat.MonedaMXN {
		root.Optional("TipoCambio", optionalDecimal(req.TipoCambio, domcfdi.ScaleRate))
	}
	root.Required("Total", domcfdi.FormatAmount(total)).
		Required("TipoDeComprobante", sat.TipoComprobanteEgreso).
		Required("Exportacion", sat.ExportacionNoAplica).
		Required("MetodoPago", firstNonEmpty(req.MetodoPago, sat.MetodoPagoPUE)).
		Required("LugarExpedicion", lugar)

	// ---- Relacionados
	rel := root.Child(PrefixCfdi+":CfdiRelacionados").
		Required("TipoRelacion", firstNonEmpty(req.TipoRelacion, sat.TipoRelacionNotaCred))
	for _, u := range related {
		rel.Child(PrefixCfdi+":CfdiRelacionado").Required("UUID", u)
	}

	// ---- Emisor / Receptor
	writeIssuer(root, b.issuer)
	writeReceiver(root, req.Receiver, receiverRules{
		defaultUso:      sat.UsoDevoluciones,
		fallbackPostal:  b.opts.defaultPostalCode,
		lugarExpedicion: lugar,
		validator:       b.validator,
		corrections:     &corrections,
	})

	// ---- Conceptos
	conceptos := root.Child(PrefixCfdi + ":Conceptos")
	for _, l := range lines {
		c := conceptos.Child(PrefixCfdi+":Concepto").
			Required("ClaveProdServ", l.key).
			Optional("NoIdentificacion", l.src.NoIdentificacion).
			Required("Cantidad", domcfdi.FormatQuantity(l.quantity)).
			Required("ClaveUnidad", firstNonEmpty(l.src.ClaveUnidad, sat.ClaveUnidadActividad)).
			Optional("Unidad", l.src.Unidad).
			Required("Descripcion", l.src.Descripcion).
			Required("ValorUnitario", domcfdi.FormatAmount(l.unitPrice)).
			Required("Importe", domcfdi.FormatAmount(l.importe))
		if l.discount.IsPositive() {
			c.Required("Descuento", domcfdi.FormatAmount(l.discount))
		}
		c.Required("ObjetoImp", l.objetoImp)
		writeConceptTaxes(c, l.transfers)
	}

	// ---- Impuestos
	writeDocumentTaxes(root, summary)

	xml, err := doc.String()
	if err != nil {
		return nil, err
	}

	b.opts.logCorrections("nota_credito", corrections)
	res := newResult(xml, corrections)
	res.Subtotal = subtotal
	res.Discount = discount
	res.Tax = tax
	res.Total = total
	return res, nil
}

type creditLine struct {
	src       CreditNoteLine
	key       string
	quantity  decimal.Decimal
	unitPrice decimal.Decimal
	importe   decimal.Decimal
	discount  decimal.Decimal
	objetoImp string
	transfers []transfer
}

// computeLines importe = cantidad × valor unitario a 2 decimales; la base del IVA
// es el importe menos el descuento.
func (b *CreditNoteBuilder) computeLines(src []CreditNoteLine, cs *domcfdi.Corrections) ([]creditLine, error) {
	out := make([]creditLine, 0, len(src))
	for _, l := range src {
		unit, ok := domcfdi.ParseDecimal(l.ValorUnitario)
		if !ok || unit.IsNegative() {
			return nil, domain.MissingField("ValorUnitario", PrefixCfdi+":Concepto")
		}
		qty, ok := domcfdi.ParseDecimal(l.Cantidad)
		if !ok || !qty.IsPositive() {
			qty = decimal.NewFromInt(1)
		}
		qty = domcfdi.Round(qty, domcfdi.ScaleQuantity)
		unit = domcfdi.Round(unit, domcfdi.ScaleAmount)
		importe := domcfdi.Round(qty.Mul(unit), domcfdi.ScaleAmount)

		discount := decimal.Zero
		if d, ok := domcfdi.ParseDecimal(l.Descuento); ok && d.IsPositive() {
			discount = domcfdi.Round(decimal.Min(d, importe), domcfdi.ScaleAmount)
		}

		key, corr := b.validator.ProductKey(l.ClaveProdServ, sat.ClaveNotaCredito)
		cs.Add(corr)

		cl := creditLine{
			src:       l,
			key:       key,
			quantity:  qty,
			unitPrice: unit,
			importe:   importe,
			discount:  discount,
			objetoImp: sat.ObjetoImpSi,
		}
		base := importe.Sub(discount)
		switch {
		case l.NoObjeto:
			cl.objetoImp = sat.ObjetoImpNo
		case l.Exento:
			cl.transfers = []transfer{exemptTransfer(base)}
		default:
			cl.transfers = []transfer{ivaTransfer(base, resolveRate(l.TaxRate, cs))}
		}
		out = append(out, cl)
	}
	return out, nil
}

// resolveRate acepta 0.16, 0.08 y 0 (también en porcentaje). Vacío ⇒ 0.16; otro valor se corrige a 0.16.
func resolveRate(raw string, cs *domcfdi.Corrections) decimal.Decimal {
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if raw == "" {
		return domcfdi.IVARate
	}
	d, ok := domcfdi.ParseDecimal(raw)
	if ok && d.GreaterThan(decimal.NewFromInt(1)) {
		d = d.Div(decimal.NewFromInt(100))
	}
	if ok {
		if rate, known := creditNoteRates[domcfdi.FormatRate(d)]; known {
			return rate
		}
	}
	cs.Add(&domcfdi.Correction{Field: "TasaOCuota", Original: raw, Applied: domcfdi.FormatRate(domcfdi.IVARate), Reason: "tasa de IVA no reconocida"})
	return domcfdi.IVARate
}
