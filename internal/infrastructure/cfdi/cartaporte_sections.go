package cfdi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-api/internal/domain"
	domcfdi "github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-api/pkg/sat"
)

const (
	ubicacionOrigen  = "Origen"
	ubicacionDestino = "Destino"
)

// plannedLocation ubicación con tipo, ID y distancia ya resueltos.
type plannedLocation struct {
	loc      Location
	tipo     string
	id       string
	distance string // vacío cuando se omitió
}

// locationPlan resultado de la primera pasada sobre las ubicaciones.
type locationPlan struct {
	items []plannedLocation
	total decimal.Decimal
	kept  int
}

// planLocations la primera es Origen y la última Destino. Las distancias fuera de
// [0.01, 99999] se descartan del XML y de la suma.
func planLocations(locs []Location, cs *domcfdi.Corrections) locationPlan {
	plan := locationPlan{items: make([]plannedLocation, 0, len(locs)), total: decimal.Zero}
	last := len(locs) - 1
	for i, loc := range locs {
		requested := strings.TrimSpace(loc.TipoUbicacion)
		tipo := ubicacionDestino
		switch {
		case i == 0:
			tipo = ubicacionOrigen
		case i == last:
			tipo = ubicacionDestino
		case strings.EqualFold(requested, ubicacionOrigen):
			tipo = ubicacionOrigen
		}
		if requested != "" && !strings.EqualFold(requested, tipo) {
			cs.Add(&domcfdi.Correction{
				Field:    "TipoUbicacion",
				Original: requested,
				Applied:  tipo,
				Reason:   fmt.Sprintf("la ubicación %d debe ser %s", i+1, tipo),
			})
		}

		id := strings.TrimSpace(loc.IDUbicacion)
		if id == "" {
			prefix := "DE"
			if tipo == ubicacionOrigen {
				prefix = "OR"
			}
			id = fmt.Sprintf("%s%06d", prefix, i+1)
		}

		p := plannedLocation{loc: loc, tipo: tipo, id: id}
		if raw := strings.TrimSpace(loc.DistanciaRecorrida); raw != "" {
			if d, ok := domcfdi.ParseDistance(raw); ok {
				p.distance = domcfdi.FormatAmount(d)
				plan.total = plan.total.Add(d)
				plan.kept++
			} else {
				cs.Add(&domcfdi.Correction{
					Field:    "DistanciaRecorrida",
					Original: raw,
					Reason:   "fuera del rango 0.01 a 99999, se omite",
				})
			}
		}
		plan.items = append(plan.items, p)
	}
	return plan
}

// totalDistRec con autotransporte o ferroviario es la suma de las distancias
// emitidas y es obligatorio; sin ellos solo se emite el total explícito si es válido.
func (p locationPlan) totalDistRec(explicit string, required bool, cs *domcfdi.Corrections) (string, error) {
	explicit = strings.TrimSpace(explicit)
	if required {
		if p.kept == 0 {
			return "", domain.MissingField("TotalDistRec", "CartaPorte")
		}
		total := domcfdi.FormatAmount(p.total)
		if explicit != "" {
			if d, ok := domcfdi.ParseDecimal(explicit); !ok || domcfdi.FormatAmount(d) != total {
				cs.Add(&domcfdi.Correction{Field: "TotalDistRec", Original: explicit, Applied: total, Reason: "se usa la suma de DistanciaRecorrida"})
			}
		}
		return total, nil
	}
	if explicit == "" {
		return "", nil
	}
	if d, ok := domcfdi.ParseDistance(explicit); ok {
		return domcfdi.FormatAmount(d), nil
	}
	cs.Add(&domcfdi.Correction{Field: "TotalDistRec", Original: explicit, Reason: "fuera del rango 0.01 a 99999, se omite"})
	return "", nil
}

// complementWriter emite el árbol del complemento para una versión.
type complementWriter struct {
	ns          Namespace
	hasRail     bool
	validator   *domcfdi.CatalogValidator
	corrections *domcfdi.Corrections
}

func (w *complementWriter) tag(local string) string { return w.ns.Tag(local) }

func (w *complementWriter) writeCartaPorte(parent *Element, cp CartaPorte, plan locationPlan, idCCP, totalDist string) {
	c := parent.Child(w.tag("CartaPorte")).Required("Version", w.ns.Version)
	if w.ns.Is3x() {
		c.Required("IdCCP", idCCP)
	}
	internac := yesNo(cp.TranspInternac)
	c.Required("TranspInternac", internac)
	if w.ns.Version == "3.0" && internac == "Sí" && len(cp.RegimenesAduaneros) > 0 {
		c.Required("RegimenAduanero", cp.RegimenesAduaneros[0])
	}
	if internac == "Sí" {
		c.Required("EntradaSalidaMerc", cp.EntradaSalidaMerc).
			Required("PaisOrigenDestino", cp.PaisOrigenDestino).
			Required("ViaEntradaSalida", cp.ViaEntradaSalida)
	}
	c.Optional("TotalDistRec", totalDist)

	if w.ns.Version == "3.1" && len(cp.RegimenesAduaneros) > 0 {
		ra := c.Child(w.tag("RegimenesAduaneros"))
		for _, r := range cp.RegimenesAduaneros {
			ra.Child(w.tag("RegimenAduaneroCCP")).Required("RegimenAduanero", r)
		}
	}

	w.writeUbicaciones(c, plan)
	w.writeMercancias(c, cp)
	w.writeFiguras(c, cp.Figuras)
}

// ---- Ubicaciones

func (w *complementWriter) writeUbicaciones(c *Element, plan locationPlan) {
	ubs := c.Child(w.tag("Ubicaciones"))
	for _, p := range plan.items {
		l := p.loc
		u := ubs.Child(w.tag("Ubicacion")).
			Required("TipoUbicacion", p.tipo).
			Required("IDUbicacion", p.id).
			Required("RFCRemitenteDestinatario", sat.NormalizeRFC(l.RFC)).
			Optional("NombreRemitenteDestinatario", l.Nombre).
			Optional("NumRegIdTrib", l.NumRegIdTrib).
			Optional("ResidenciaFiscal", l.ResidenciaFiscal).
			Optional("NumEstacion", l.NumEstacion).
			Optional("NombreEstacion", l.NombreEstacion).
			Optional("NavegacionTrafico", l.NavegacionTrafico).
			Required("FechaHoraSalidaLlegada", l.FechaHora).
			Optional("TipoEstacion", l.TipoEstacion).
			Optional("DistanciaRecorrida", p.distance)

		// Estación intermedia en ferroviario: el domicilio nunca se emite.
		if w.hasRail && strings.TrimSpace(l.TipoEstacion) == sat.TipoEstacionIntermedia {
			continue
		}
		if l.Domicilio != nil {
			w.writeAddress(u, *l.Domicilio)
		}
	}
}

func (w *complementWriter) writeAddress(parent *Element, a Address) {
	parent.Child(w.tag("Domicilio")).
		Optional("Calle", a.Calle).
		Optional("NumeroExterior", a.NumeroExterior).
		Optional("NumeroInterior", a.NumeroInterior).
		Optional("Colonia", a.Colonia).
		Optional("Localidad", a.Localidad).
		Optional("Referencia", a.Referencia).
		Optional("Municipio", a.Municipio).
		Required("Estado", a.Estado).
		Required("Pais", firstNonEmpty(a.Pais, "MEX")).
		Required("CodigoPostal", a.CodigoPostal)
}

// ---- Mercancias

func (w *complementWriter) writeMercancias(c *Element, cp CartaPorte) {
	g := cp.Mercancias
	count := g.NumTotalMercancias
	if count <= 0 {
		count = len(g.Items)
	}
	m := c.Child(w.tag("Mercancias")).
		Required("PesoBrutoTotal", w.weight("PesoBrutoTotal", g.PesoBrutoTotal)).
		Required("UnidadPeso", firstNonEmpty(g.UnidadPeso, sat.UnidadPesoKGM)).
		Optional("PesoNetoTotal", optionalDecimal(g.PesoNetoTotal, domcfdi.ScaleWeight)).
		Required("NumTotalMercancias", strconv.Itoa(count))
	if w.ns.Version == "3.1" {
		m.Optional("LogisticaInversaRecoleccionDevolucion", g.LogisticaInversa)
	}

	for _, item := range g.Items {
		w.writeMercancia(m, item)
	}
	if cp.Autotransporte != nil {
		w.writeAutotransporte(m, *cp.Autotransporte)
	}
	if cp.Ferroviario != nil {
		w.writeFerroviario(m, *cp.Ferroviario)
	}
}

func (w *complementWriter) writeMercancia(m *Element, it GoodsItem) {
	w.corrections.Add(w.validator.GoodsKey(it.BienesTransp))
	w.corrections.Add(w.validator.UnitKey(it.ClaveUnidad))

	e := m.Child(w.tag("Mercancia")).
		Required("BienesTransp", it.BienesTransp).
		Optional("ClaveSTCC", it.ClaveSTCC).
		Required("Descripcion", it.Descripcion).
		Required("Cantidad", domcfdi.QuantityOrOne(it.Cantidad)).
		Required("ClaveUnidad", it.ClaveUnidad).
		Optional("Unidad", it.Unidad).
		Optional("Dimensiones", it.Dimensiones)

	if strings.TrimSpace(it.MaterialPeligroso) != "" {
		hazardous := yesNo(it.MaterialPeligroso)
		e.Required("MaterialPeligroso", hazardous)
		if hazardous == "Sí" {
			w.corrections.Add(w.validator.HazardousKey(it.CveMaterialPeligroso))
			e.Required("CveMaterialPeligroso", it.CveMaterialPeligroso).
				Required("Embalaje", it.Embalaje).
				Optional("DescripEmbalaje", it.DescripEmbalaje)
		}
	}

	e.Required("PesoEnKg", w.weight("PesoEnKg", it.PesoEnKg)).
		Optional("ValorMercancia", optionalDecimal(it.ValorMercancia, domcfdi.ScaleAmount)).
		Optional("Moneda", it.Moneda).
		Optional("FraccionArancelaria", it.FraccionArancelaria).
		Optional("UUIDComercioExt", it.UUIDComercioExt)

	for _, doc := range it.Aduanera {
		if w.ns.Is3x() {
			e.Child(w.tag("DocumentacionAduanera")).
				Required("TipoDocumento", doc.TipoDocumento).
				Optional("NumPedimento", doc.NumPedimento).
				Optional("IdentDocAduanero", doc.IdentDocAduanero).
				Optional("RFCImpo", doc.RFCImpo)
			continue
		}
		e.Child(w.tag("Pedimentos")).Required("Pedimento", doc.NumPedimento)
	}
	for _, ct := range it.CantidadTransporta {
		e.Child(w.tag("CantidadTransporta")).
			Required("Cantidad", optionalDecimal(ct.Cantidad, domcfdi.ScaleQuantity)).
			Required("IDOrigen", ct.IDOrigen).
			Required("IDDestino", ct.IDDestino).
			Optional("CvesTransporte", ct.CvesTransporte)
	}
}

// weight PesoEnKg y PesoBrutoTotal nunca bloquean el documento: si el dato no sirve
// se emite el mínimo y se deja constancia.
func (w *complementWriter) weight(field, raw string) string {
	v := domcfdi.WeightOrMinimum(raw)
	if v == domcfdi.MinWeight {
		if f, ok := domcfdi.FormatText(raw, domcfdi.ScaleWeight); !ok || f != v {
			w.corrections.Add(&domcfdi.Correction{Field: field, Original: strings.TrimSpace(raw), Applied: v, Reason: "peso no utilizable, se emite el mínimo"})
		}
	}
	return v
}

// ---- Autotransporte

func (w *complementWriter) writeAutotransporte(m *Element, r RoadTransport) {
	a := m.Child(w.tag("Autotransporte")).
		Required("PermSCT", r.PermSCT).
		Required("NumPermisoSCT", r.NumPermisoSCT)

	iv := a.Child(w.tag("IdentificacionVehicular")).
		Required("ConfigVehicular", r.ConfigVehicular)
	if w.ns.Is3x() {
		iv.Required("PesoBrutoVehicular", optionalDecimal(r.PesoBrutoVehicular, domcfdi.ScaleAmount))
	}
	iv.Required("PlacaVM", strings.ToUpper(r.PlacaVM)).
		Required("AnioModeloVM", r.AnioModeloVM)

	a.Child(w.tag("Seguros")).
		Required("AseguraRespCivil", r.AseguraRespCivil).
		Required("PolizaRespCivil", r.PolizaRespCivil).
		Optional("AseguraMedAmbiente", r.AseguraMedAmbiente).
		Optional("PolizaMedAmbiente", r.PolizaMedAmbiente).
		Optional("AseguraCarga", r.AseguraCarga).
		Optional("PolizaCarga", r.PolizaCarga).
		Optional("PrimaSeguro", optionalDecimal(r.PrimaSeguro, domcfdi.ScaleAmount))

	if len(r.Remolques) > 0 {
		rem := a.Child(w.tag("Remolques"))
		for _, t := range r.Remolques {
			rem.Child(w.tag("Remolque")).
				Required("SubTipoRem", t.SubTipoRem).
				Required("Placa", strings.ToUpper(t.Placa))
		}
	}
}

// ---- TransporteFerroviario

func (w *complementWriter) writeFerroviario(m *Element, r RailTransport) {
	f := m.Child(w.tag("TransporteFerroviario")).
		Required("TipoDeServicio", r.TipoDeServicio)
	if w.ns.Is3x() {
		f.Required("TipoDeTrafico", r.TipoDeTrafico)
	} else {
		f.Optional("TipoDeTrafico", r.TipoDeTrafico)
	}
	f.Optional("NombreAseg", r.NombreAseg).
		Optional("NumPolizaSeguro", r.NumPolizaSeguro)

	for _, d := range r.DerechosDePaso {
		f.Child(w.tag("DerechosDePaso")).
			Required("TipoDerechoDePaso", d.TipoDerechoDePaso).
			Required("KilometrajePagado", optionalDecimal(d.KilometrajePagado, domcfdi.ScaleAmount))
	}
	for _, car := range r.Carros {
		e := f.Child(w.tag("Carro")).
			Required("TipoCarro", car.TipoCarro).
			Required("MatriculaCarro", car.MatriculaCarro).
			Required("GuiaCarro", car.GuiaCarro).
			Required("ToneladasNetasCarro", optionalDecimal(car.ToneladasNetasCarro, domcfdi.ScaleWeight))
		for _, ct := range car.Contenedores {
			e.Child(w.tag("Contenedor")).
				Required("TipoContenedor", ct.TipoContenedor).
				Required("PesoContenedorVacio", optionalDecimal(ct.PesoContenedorVacio, domcfdi.ScaleWeight)).
				Required("PesoNetoMercancia", optionalDecimal(ct.PesoNetoMercancia, domcfdi.ScaleWeight))
		}
	}
}

// ---- FiguraTransporte

const figuraOperador = "01"

func (w *complementWriter) writeFiguras(c *Element, figuras []Figure) {
	ft := c.Child(w.tag("FiguraTransporte"))
	for _, f := range figuras {
		tf := ft.Child(w.tag("TiposFigura")).Required("TipoFigura", f.TipoFigura)

		rfc := sat.NormalizeRFC(f.RFCFigura)
		if rfc == "" && strings.TrimSpace(f.NumRegIdTribFigura) == "" {
			tf.Fail(domain.MissingField("RFCFigura", w.tag("TiposFigura")))
		}
		tf.Optional("RFCFigura", rfc)
		if strings.TrimSpace(f.TipoFigura) == figuraOperador {
			tf.Required("NumLicencia", f.NumLicencia)
		} else {
			tf.Optional("NumLicencia", f.NumLicencia)
		}
		tf.Required("NombreFigura", f.NombreFigura).
			Optional("NumRegIdTribFigura", f.NumRegIdTribFigura).
			Optional("ResidenciaFiscalFigura", f.ResidenciaFiscalFigura)

		for _, parte := range f.PartesTransporte {
			tf.Child(w.tag("PartesTransporte")).Required("ParteTransporte", parte)
		}
		if f.Domicilio != nil {
			w.writeAddress(tf, *f.Domicilio)
		}
	}
}

// optionalDecimal texto formateado a la escala; vacío si no es numérico. En un
// atributo obligatorio el vacío termina en MissingRequiredFieldError.
func optionalDecimal(raw string, scale int32) string {
	v, ok := domcfdi.FormatText(raw, scale)
	if !ok {
		return ""
	}
	return v
}

// yesNo normaliza Sí/No como lo pide el catálogo del complemento.
func yesNo(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sí", "si", "s", "yes", "true", "1":
		return "Sí"
	default:
		return "No"
	}
}
