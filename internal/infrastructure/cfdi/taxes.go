package cfdi

import (
	"github.com/shopspring/decimal"

	domcfdi "github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-api/pkg/sat"
)

// transfer un traslado de un concepto.
type transfer struct {
	Impuesto   string
	TipoFactor string
	Rate       decimal.Decimal
	Base       decimal.Decimal
	Importe    decimal.Decimal
}

func (t transfer) key() string {
	return t.Impuesto + "|" + t.TipoFactor + "|" + domcfdi.FormatRate(t.Rate)
}

func ivaTransfer(base, rate decimal.Decimal) transfer {
	return transfer{
		Impuesto:   sat.ImpuestoIVA,
		TipoFactor: sat.TipoFactorTasa,
		Rate:       rate,
		Base:       domcfdi.Round(base, domcfdi.ScaleAmount),
		Importe:    domcfdi.TaxOf(base, rate),
	}
}

func exemptTransfer(base decimal.Decimal) transfer {
	return transfer{
		Impuesto:   sat.ImpuestoIVA,
		TipoFactor: sat.TipoFactorExento,
		Base:       domcfdi.Round(base, domcfdi.ScaleAmount),
	}
}

// taxSummary agrupa los traslados del documento por impuesto, factor y tasa,
// en el orden en que aparecieron.
type taxSummary struct {
	groups map[string]*transfer
	order  []string
}

func newTaxSummary() *taxSummary {
	return &taxSummary{groups: map[string]*transfer{}}
}

func (s *taxSummary) Add(t transfer) {
	k := t.key()
	g, ok := s.groups[k]
	if !ok {
		c := t
		s.groups[k] = &c
		s.order = append(s.order, k)
		return
	}
	g.Base = g.Base.Add(t.Base)
	g.Importe = g.Importe.Add(t.Importe)
}

// Total suma de importes trasladados (los exentos no tienen importe).
func (s *taxSummary) Total() decimal.Decimal {
	total := decimal.Zero
	for _, k := range s.order {
		total = total.Add(s.groups[k].Importe)
	}
	return total
}

func (s *taxSummary) hasRated() bool {
	for _, k := range s.order {
		if s.groups[k].TipoFactor != sat.TipoFactorExento {
			return true
		}
	}
	return false
}

func (s *taxSummary) Empty() bool { return len(s.order) == 0 }

// writeTransfer emite un cfdi:Traslado.
func writeTransfer(parent *Element, t transfer) {
	tr := parent.Child(PrefixCfdi + ":Traslado").
		Required("Base", domcfdi.FormatAmount(t.Base)).
		Required("Impuesto", t.Impuesto).
		Required("TipoFactor", t.TipoFactor)
	if t.TipoFactor != sat.TipoFactorExento {
		tr.Required("TasaOCuota", domcfdi.FormatRate(t.Rate)).
			Required("Importe", domcfdi.FormatAmount(t.Importe))
	}
}

// writeConceptTaxes cfdi:Impuestos dentro de un concepto.
func writeConceptTaxes(concept *Element, transfers []transfer) {
	if len(transfers) == 0 {
		return
	}
	traslados := concept.Child(PrefixCfdi + ":Impuestos").Child(PrefixCfdi + ":Traslados")
	for _, t := range transfers {
		writeTransfer(traslados, t)
	}
}

// writeDocumentTaxes cfdi:Impuestos del comprobante. TotalImpuestosTrasladados se
// omite cuando todos los traslados son exentos.
func writeDocumentTaxes(root *Element, s *taxSummary) {
	if s.Empty() {
		return
	}
	imp := root.Child(PrefixCfdi + ":Impuestos")
	if s.hasRated() {
		imp.Required("TotalImpuestosTrasladados", domcfdi.FormatAmount(s.Total()))
	}
	traslados := imp.Child(PrefixCfdi + ":Traslados")
	for _, k := range s.order {
		writeTransfer(traslados, *s.groups[k])
	}
}
