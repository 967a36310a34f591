package cfdi

import (
	"strings"

	domcfdi "github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-api/pkg/sat"
)

// writeComprobanteRoot crea cfdi:Comprobante con las declaraciones de namespace.
// complement puede ir nil (nota de crédito).
func writeComprobanteRoot(doc *Document, complement *Namespace) *Element {
	root := doc.Root(PrefixCfdi + ":Comprobante")
	root.Optional("xmlns:"+PrefixCfdi, NsCfdi)
	root.Optional("xmlns:xsi", nsXsi)
	schema := NsCfdi + " " + schemaCfdi40
	if complement != nil {
		root.Optional("xmlns:"+complement.Prefix, complement.URI)
		schema += " " + complement.URI + " " + complement.Schema
	}
	root.Optional("xsi:schemaLocation", schema)
	return root
}

func writeIssuer(root *Element, issuer Issuer) {
	root.Child(PrefixCfdi+":Emisor").
		Required("Rfc", sat.NormalizeRFC(issuer.RFC)).
		Required("Nombre", normalizeName(issuer.Name)).
		Required("RegimenFiscal", issuer.Regime)
}

// receiverRules parámetros del receptor que cambian por tipo de documento.
type receiverRules struct {
	defaultUso      string // se aplica antes de validar cuando la petición no trae uso
	fallbackPostal  string // sustituye CP vacío/00000; vacío ⇒ el CP es obligatorio
	lugarExpedicion string
	validator       *domcfdi.CatalogValidator
	corrections     *domcfdi.Corrections
}

// writeReceiver valida régimen y uso contra el tipo de persona del RFC y emite cfdi:Receptor.
// Para el RFC de público en general el domicilio fiscal es el LugarExpedicion.
func writeReceiver(root *Element, p Party, rules receiverRules) {
	rfc := sat.NormalizeRFC(p.RFC)

	cp := postalCodeOr(p.PostalCode, rules.fallbackPostal)
	if rfc == sat.RFCPublicoGeneral {
		cp = rules.lugarExpedicion
	}
	if orig := strings.TrimSpace(p.PostalCode); cp != "" && orig != cp {
		rules.corrections.Add(&domcfdi.Correction{
			Field:    "DomicilioFiscalReceptor",
			Original: orig,
			Applied:  cp,
			Reason:   "código postal no utilizable",
		})
	}

	regime, corr := rules.validator.Regime(rfc, p.Regime)
	rules.corrections.Add(corr)

	uso := firstNonEmpty(p.UsoCFDI, rules.defaultUso)
	uso, corr = rules.validator.UsoCFDI(rfc, regime, uso)
	rules.corrections.Add(corr)

	r := root.Child(PrefixCfdi+":Receptor").
		Required("Rfc", rfc).
		Required("Nombre", normalizeName(p.Name)).
		Required("DomicilioFiscalReceptor", cp)
	if rfc == sat.RFCExtranjero {
		r.Required("ResidenciaFiscal", p.ResidenciaFiscal).
			Required("NumRegIdTrib", p.NumRegIdTrib)
	}
	r.Required("RegimenFiscalReceptor", regime).
		Required("UsoCFDI", uso)
}
