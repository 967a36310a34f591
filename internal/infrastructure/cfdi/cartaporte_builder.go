package cfdi

import (
	"strings"

	"github.com/jhoicas/cfdi-api/internal/domain"
	domcfdi "github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-api/pkg/sat"
)

const defaultFreightDescription = "Servicio de transporte de carga"

// CartaPorteBuilder construye el CFDI de ingreso con complemento Carta Porte.
// No guarda estado entre llamadas: la misma petición con reloj e IdCCP fijos produce el mismo XML.
type CartaPorteBuilder struct {
	issuer    Issuer
	validator *domcfdi.CatalogValidator
	opts      options
}

func NewCartaPorteBuilder(issuer Issuer, validator *domcfdi.CatalogValidator, opts ...Option) *CartaPorteBuilder {
	if validator == nil {
		validator = domcfdi.NewCatalogValidator(nil)
	}
	return &CartaPorteBuilder{issuer: issuer, validator: validator, opts: applyOptions(opts)}
}

// Build genera el XML sin sellar. Devuelve MissingRequiredFieldError o
// StructuralValidationError cuando la petición no permite construir el documento.
func (b *CartaPorteBuilder) Build(req CartaPorteRequest) (*BuildResult, error) {
	cp := req.Complement
	ns := ResolveNamespace(firstNonEmpty(cp.Version, b.opts.defaultVersion))
	hasRoad, hasRail := cp.Autotransporte != nil, cp.Ferroviario != nil

	var corrections domcfdi.Corrections

	mode, corr := b.validator.TransportMode(req.TransportMode, hasRoad, hasRail)
	corrections.Add(corr)
	mode = alignTransportMode(mode, hasRoad, hasRail, &corrections)

	if err := checkStructure(cp, mode, hasRoad, hasRail); err != nil {
		return nil, err
	}

	if t := strings.ToUpper(strings.TrimSpace(req.TipoDeComprobante)); t != "" && t != sat.TipoComprobanteIngreso {
		corrections.Add(&domcfdi.Correction{
			Field:    "TipoDeComprobante",
			Original: t,
			Applied:  sat.TipoComprobanteIngreso,
			Reason:   "la Carta Porte de este emisor siempre es de ingreso",
		})
	}

	price, ok := domcfdi.ParseDecimal(req.Price)
	if !ok || price.IsNegative() {
		return nil, domain.MissingField("SubTotal", PrefixCfdi+":Comprobante")
	}
	subtotal := domcfdi.Round(price, domcfdi.ScaleAmount)
	tax := domcfdi.TaxOf(subtotal, domcfdi.IVARate)
	total := domcfdi.Round(subtotal.Add(tax), domcfdi.ScaleAmount)

	serviceKey, corr := b.validator.TransportServiceKey(mode, req.ServiceKey)
	corrections.Add(corr)

	idCCP := ""
	if ns.Is3x() {
		idCCP = strings.ToUpper(strings.TrimSpace(cp.IdCCP))
		switch {
		case idCCP == "":
			idCCP = b.opts.newCCP()
		case !domcfdi.IsValidCCP(idCCP):
			generated := b.opts.newCCP()
			corrections.Add(&domcfdi.Correction{
				Field:    "IdCCP",
				Original: cp.IdCCP,
				Applied:  generated,
				Reason:   "no cumple el formato CCP + UUID, se genera uno nuevo",
			})
			idCCP = generated
		}
	}

	// Primera pasada: distancias normalizadas y TotalDistRec conocido antes de emitir.
	plan := planLocations(cp.Ubicaciones, &corrections)
	totalDist, err := plan.totalDistRec(cp.TotalDistRec, hasRoad || hasRail, &corrections)
	if err != nil {
		return nil, err
	}

	lugar := postalCodeOr(b.issuer.PostalCode, b.opts.defaultPostalCode)

	doc := NewDocument()
	root := writeComprobanteRoot(doc, &ns)

	// ---- Encabezado
	root.Required("Version", CfdiVersion).
		Optional("Serie", req.Serie).
		Optional("Folio", req.Folio).
		Required("Fecha", b.opts.fecha(req.Fecha)).
		Optional("FormaPago", req.FormaPago).
		Required("SubTotal", domcfdi.FormatAmount(subtotal)).
		Required("Moneda", firstNonEmpty(req.Moneda, sat.MonedaMXN)).
		Required("Total", domcfdi.FormatAmount(total)).
		Required("TipoDeComprobante", sat.TipoComprobanteIngreso).
		Required("Exportacion", sat.ExportacionNoAplica).
		Optional("MetodoPago", req.MetodoPago).
		Required("LugarExpedicion", lugar)

	// ---- Emisor / Receptor
	writeIssuer(root, b.issuer)
	writeReceiver(root, req.Receiver, receiverRules{
		defaultUso:      sat.UsoGastosEnGeneral,
		lugarExpedicion: lugar,
		validator:       b.validator,
		corrections:     &corrections,
	})

	// ---- Concepto único del flete
	objetoImp := sat.ObjetoImpNo
	if tax.IsPositive() {
		objetoImp = sat.ObjetoImpSi
	}
	concept := root.Child(PrefixCfdi+":Conceptos").Child(PrefixCfdi+":Concepto").
		Required("ClaveProdServ", serviceKey).
		Required("Cantidad", "1").
		Required("ClaveUnidad", sat.ClaveUnidadServicio).
		Optional("Unidad", "Servicio").
		Required("Descripcion", firstNonEmpty(req.ConceptDescription, defaultFreightDescription)).
		Required("ValorUnitario", domcfdi.FormatAmount(subtotal)).
		Required("Importe", domcfdi.FormatAmount(subtotal)).
		Required("ObjetoImp", objetoImp)

	// ---- Impuestos solo cuando hay IVA
	if tax.IsPositive() {
		t := ivaTransfer(subtotal, domcfdi.IVARate)
		writeConceptTaxes(concept, []transfer{t})
		summary := newTaxSummary()
		summary.Add(t)
		writeDocumentTaxes(root, summary)
	}

	// ---- Complemento
	w := &complementWriter{
		ns:          ns,
		hasRail:     hasRail,
		validator:   b.validator,
		corrections: &corrections,
	}
	w.writeCartaPorte(root.Child(PrefixCfdi+":Complemento"), cp, plan, idCCP, totalDist)

	xml, err := doc.String()
	if err != nil {
		return nil, err
	}

	b.opts.logCorrections("carta_porte", corrections)
	res := newResult(xml, corrections)
	res.IdCCP = idCCP
	res.Subtotal = subtotal
	res.Tax = tax
	res.Total = total
	return res, nil
}

// alignTransportMode el modo debe coincidir con la subestructura presente.
func alignTransportMode(mode string, hasRoad, hasRail bool, cs *domcfdi.Corrections) string {
	want := mode
	switch {
	case hasRoad && !hasRail:
		want = sat.CveTransporteAutotransporte
	case hasRail && !hasRoad:
		want = sat.CveTransporteFerroviario
	}
	if want != mode {
		cs.Add(&domcfdi.Correction{
			Field:    "CveTransporte",
			Original: mode,
			Applied:  want,
			Reason:   "el modo no corresponde al medio de transporte informado",
		})
	}
	return want
}

// checkStructure cardinalidades del complemento.
func checkStructure(cp CartaPorte, mode string, hasRoad, hasRail bool) error {
	if n := len(cp.Ubicaciones); n < 2 {
		return domain.Structural("Ubicaciones", "se requieren al menos 2 ubicaciones, se recibieron %d", n)
	}
	if len(cp.Mercancias.Items) == 0 {
		return domain.Structural("Mercancias", "se requiere al menos una mercancía")
	}
	if hasRoad && hasRail {
		return domain.Structural("Mercancias", "solo puede informarse Autotransporte o TransporteFerroviario, no ambos")
	}
	// Marítimo y aéreo no llevan ninguna de las dos subestructuras.
	if !hasRoad && !hasRail && mode != sat.CveTransporteMaritimo && mode != sat.CveTransporteAereo {
		return domain.Structural("Mercancias", "se requiere Autotransporte o TransporteFerroviario")
	}
	if hasRoad && len(cp.Autotransporte.Remolques) > 2 {
		return domain.Structural("Remolques", "máximo 2 remolques, se recibieron %d", len(cp.Autotransporte.Remolques))
	}
	if hasRail && len(cp.Ferroviario.Carros) == 0 {
		return domain.Structural("TransporteFerroviario", "se requiere al menos un carro")
	}
	if len(cp.Figuras) == 0 {
		return domain.Structural("FiguraTransporte", "se requiere al menos una figura de transporte")
	}
	return nil
}
