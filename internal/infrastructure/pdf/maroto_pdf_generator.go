// Package pdf implementa la representación impresa de un CFDI 4.0 timbrado.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Emisor + RFC + Régimen │ Tipo + Serie/Folio + Fecha │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RECEPTOR: Nombre + RFC + UsoCFDI                            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Clave | Cant | Unidad | Descripción | P.Unit | Importe│
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / Descuento / Traslados / Retenciones / Total
//	│  ─────────────────────────────────────────────────────────  │
//	│  TIMBRE: UUID + sellos + QR de verificación SAT             │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-api/internal/infrastructure/cfdi"
)

const verificationURL = "https://verificacfdi.facturaelectronica.sat.gob.mx/default.aspx"

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 104, Blue: 71}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var tipoLabel = map[string]string{
	"I": "INGRESO",
	"E": "EGRESO",
	"T": "TRASLADO",
	"P": "PAGO",
	"N": "NÓMINA",
}

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator genera el PDF con Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateCFDIPDF genera el PDF a partir del resumen del CFDI y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateCFDIPDF(_ context.Context, p *cfdi.ParsedCfdi) ([]byte, error) {
	if p == nil || !p.Valid {
		return nil, fmt.Errorf("pdf: comprobante ilegible")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("CFDI "+p.UUID, true).
		WithAuthor(p.EmisorNombre, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(p))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(receptorRow(p))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(conceptRows(p.Concepts)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(p))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(stampRows(p)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// VerificationURL arma la URL del QR de verificación del SAT.
// fe son los últimos 8 caracteres del sello del emisor.
func VerificationURL(p *cfdi.ParsedCfdi) string {
	sello := p.SelloCFD
	if len(sello) > 8 {
		sello = sello[len(sello)-8:]
	}
	// El SAT espera este orden; url.Values.Encode ordenaría alfabéticamente.
	params := [][2]string{
		{"id", p.UUID},
		{"re", p.EmisorRFC},
		{"rr", p.ReceptorRFC},
		{"tt", p.Total.String()},
		{"fe", sello},
	}
	parts := make([]string, 0, len(params))
	for _, kv := range params {
		parts = append(parts, kv[0]+"="+url.QueryEscape(kv[1]))
	}
	return verificationURL + "?" + strings.Join(parts, "&")
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(p *cfdi.ParsedCfdi) core.Row {
	folio := strings.TrimSpace(p.Serie + " " + p.Folio)
	return row.New(20).Add(
		col.New(7).Add(
			text.New(p.EmisorNombre, props.Text{
				Style: fontstyle.Bold, Size: 12, Color: colorPrimary, Top: 1,
			}),
			text.New("RFC: "+p.EmisorRFC, props.Text{Size: 8, Top: 8, Color: colorGray}),
			text.New("Régimen fiscal: "+p.EmisorRegimen+"   |   Lugar de expedición: "+p.LugarExpedicion,
				props.Text{Size: 8, Top: 13, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("CFDI DE "+nonEmpty(tipoLabel[p.TipoDeComprobante], p.TipoDeComprobante), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(folio, "Sin folio"), props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+p.Fecha, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func receptorRow(p *cfdi.ParsedCfdi) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("RECEPTOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(p.ReceptorNombre, props.Text{Style: fontstyle.Bold, Size: 10, Top: 5}),
			text.New(fmt.Sprintf("RFC: %s   |   Uso CFDI: %s   |   Método: %s   |   Forma: %s   |   Moneda: %s",
				p.ReceptorRFC,
				nonEmpty(p.ReceptorUsoCFDI, "-"),
				nonEmpty(p.MetodoPago, "-"),
				nonEmpty(p.FormaPago, "-"),
				nonEmpty(p.Moneda, "MXN"),
			), props.Text{Size: 8, Top: 11, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Clave", 2, align.Left),
		h("Cant.", 1, align.Center),
		h("Unidad", 1, align.Center),
		h("Descripción", 4, align.Left),
		h("Valor unit.", 2, align.Right),
		h("Importe", 2, align.Right),
	)
}

func conceptRows(concepts []cfdi.ParsedConcept) []core.Row {
	out := make([]core.Row, 0, len(concepts))
	for _, c := range concepts {
		out = append(out, row.New(7).Add(
			col.New(2).Add(text.New(c.ClaveProdServ, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(c.Cantidad.String(), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(1).Add(text.New(c.ClaveUnidad, props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(4).Add(text.New(c.Descripcion, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(formatMoney(c.ValorUnitario), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(formatMoney(c.Importe), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return out
}

func totalsRow(p *cfdi.ParsedCfdi) core.Row {
	lines := []struct {
		label string
		value decimal.Decimal
	}{
		{"Subtotal:", p.SubTotal},
		{"Descuento:", p.Descuento},
		{"Impuestos trasladados:", p.Taxes.TotalTrasladados},
		{"Impuestos retenidos:", p.Taxes.TotalRetenidos},
		{"TOTAL:", p.Total},
	}
	labels, values := col.New(3), col.New(3)
	for i, l := range lines {
		lp := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: float64(i * 5)}
		vp := props.Text{Size: 9, Align: align.Right, Right: 1, Top: float64(i * 5)}
		if i == len(lines)-1 {
			lp.Color, lp.Size = colorPrimary, 10
			vp.Style, vp.Color, vp.Size = fontstyle.Bold, colorPrimary, 10
		}
		labels.Add(text.New(l.label, lp))
		values.Add(text.New(formatMoney(l.value), vp))
	}
	return row.New(30).Add(col.New(6), labels, values)
}

func stampRows(p *cfdi.ParsedCfdi) []core.Row {
	small := props.Text{Size: 6.5, Color: colorGray, Top: 0.5, Left: 2}
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("TIMBRE FISCAL DIGITAL", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}
	if p.UUID == "" {
		return append(rows, row.New(8).Add(col.New(12).Add(
			text.New("Documento sin timbrar: no tiene validez fiscal.", props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Center, Top: 2,
			}),
		)))
	}

	rows = append(rows, row.New(45).Add(
		col.New(3).Add(code.NewQr(VerificationURL(p), props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("Folio fiscal: "+p.UUID, props.Text{Style: fontstyle.Bold, Size: 8, Top: 2, Left: 2}),
			text.New("Fecha de certificación: "+p.FechaTimbrado, props.Text{Size: 7, Top: 8, Left: 2}),
			text.New("No. certificado SAT: "+p.NoCertificadoSAT, props.Text{Size: 7, Top: 13, Left: 2}),
			text.New("RFC del PAC: "+p.RfcProvCertif, props.Text{Size: 7, Top: 18, Left: 2}),
			text.New(idCCPLine(p), props.Text{Size: 7, Top: 23, Left: 2}),
		),
	))

	for _, s := range []struct{ title, value string }{
		{"Sello digital del CFDI:", p.SelloCFD},
		{"Sello del SAT:", p.SelloSAT},
	} {
		if s.value == "" {
			continue
		}
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New(s.title, props.Text{Style: fontstyle.Bold, Size: 7, Top: 1}),
		)))
		for _, chunk := range splitEvery(s.value, 110) {
			rows = append(rows, row.New(4).Add(col.New(12).Add(text.New(chunk, small))))
		}
	}

	rows = append(rows, row.New(8).Add(col.New(12).Add(
		text.New("Este documento es una representación impresa de un CFDI.", props.Text{
			Size: 7, Color: colorGray, Align: align.Center, Top: 3,
		}),
	)))
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func idCCPLine(p *cfdi.ParsedCfdi) string {
	if p.IdCCP == "" {
		return ""
	}
	return "IdCCP: " + p.IdCCP
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney "$1,234,567.89".
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 && (n-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteByte(intPart[i])
	}
	return sign + "$" + b.String() + "." + frac
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
