package cfdi

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jhoicas/cfdi-api/pkg/sat"
)

// ProductService entrada del catálogo c_ClaveProdServ.
type ProductService struct {
	Code        string
	Description string
	// Material peligroso: "0" no, "1" sí, "0,1" depende.
	Hazardous string
}

// Catalog catálogos cargados una sola vez al arranque. Es inmutable: después de
// NewCatalog solo se lee, por lo que se comparte entre peticiones sin bloqueo.
type Catalog struct {
	products map[string]ProductService
	units    map[string]bool
	hazmat   map[string]bool
}

// NewCatalog construye el catálogo. units y hazmat pueden ir vacíos.
func NewCatalog(products []ProductService, units, hazmat []string) *Catalog {
	c := &Catalog{
		products: make(map[string]ProductService, len(products)),
		units:    make(map[string]bool, len(units)),
		hazmat:   make(map[string]bool, len(hazmat)),
	}
	for _, p := range products {
		code := strings.TrimSpace(p.Code)
		if code == "" {
			continue
		}
		p.Code = code
		c.products[code] = p
	}
	for _, u := range units {
		if u = strings.TrimSpace(u); u != "" {
			c.units[u] = true
		}
	}
	for _, h := range hazmat {
		if h = strings.TrimSpace(h); h != "" {
			c.hazmat[h] = true
		}
	}
	return c
}

// EmptyCatalog catálogo sin entradas; solo se valida la forma de las claves.
func EmptyCatalog() *Catalog { return NewCatalog(nil, nil, nil) }

func (c *Catalog) Len() int { return len(c.products) }

// Product devuelve la entrada de la clave.
func (c *Catalog) Product(code string) (ProductService, bool) {
	p, ok := c.products[strings.TrimSpace(code)]
	return p, ok
}

var productKeyPattern = regexp.MustCompile(`^[0-9]{8}$`)

// CatalogValidator valida claves contra los catálogos fijos de pkg/sat y el catálogo
// cargado. Los valores inválidos se sustituyen y se devuelven como Correction.
type CatalogValidator struct {
	catalog *Catalog
}

func NewCatalogValidator(c *Catalog) *CatalogValidator {
	if c == nil {
		c = EmptyCatalog()
	}
	return &CatalogValidator{catalog: c}
}

// TransportMode resuelve c_CveTransporte. Sin modo solicitado se deriva de la
// subestructura presente (ferroviario o autotransporte).
func (v *CatalogValidator) TransportMode(requested string, hasRoad, hasRail bool) (string, *Correction) {
	derived := sat.CveTransporteAutotransporte
	if hasRail && !hasRoad {
		derived = sat.CveTransporteFerroviario
	}
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return derived, nil
	}
	if mode, ok := sat.NormalizeTransport(requested); ok {
		return mode, nil
	}
	return derived, &Correction{
		Field:    "CveTransporte",
		Original: requested,
		Applied:  derived,
		Reason:   "modo de transporte desconocido",
	}
}

// TransportServiceKey clave del concepto de flete. La solicitada solo se acepta
// si es una de las cuatro claves de servicio de transporte.
func (v *CatalogValidator) TransportServiceKey(mode, requested string) (string, *Correction) {
	fallback, ok := sat.ServiceKeyByTransport[mode]
	if !ok {
		fallback = sat.ClaveServicioAutotransporte
	}
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return fallback, nil
	}
	if sat.ValidTransportServiceKeys[requested] {
		return requested, nil
	}
	return fallback, &Correction{
		Field:    "ClaveProdServ",
		Original: requested,
		Applied:  fallback,
		Reason:   "no es una clave de servicio de transporte",
	}
}

// ProductKey valida una clave de producto/servicio. Con catálogo vacío basta que
// tenga 8 dígitos.
func (v *CatalogValidator) ProductKey(code, fallback string) (string, *Correction) {
	code = strings.TrimSpace(code)
	if code == "" {
		return fallback, nil
	}
	known := productKeyPattern.MatchString(code)
	if known && v.catalog.Len() > 0 {
		_, known = v.catalog.Product(code)
	}
	if known {
		return code, nil
	}
	return fallback, &Correction{
		Field:    "ClaveProdServ",
		Original: code,
		Applied:  fallback,
		Reason:   "clave no encontrada en c_ClaveProdServ",
	}
}

// GoodsKey revisa BienesTransp sin sustituirlo: la clave de la mercancía la decide
// el remitente, solo se advierte.
func (v *CatalogValidator) GoodsKey(code string) *Correction {
	code = strings.TrimSpace(code)
	if code == "" || v.catalog.Len() == 0 {
		return nil
	}
	if _, ok := v.catalog.Product(code); ok {
		return nil
	}
	return &Correction{Field: "BienesTransp", Original: code, Applied: code, Reason: "clave no encontrada en c_ClaveProdServ"}
}

// UnitKey advierte cuando la ClaveUnidad no está en el catálogo cargado.
func (v *CatalogValidator) UnitKey(code string) *Correction {
	code = strings.TrimSpace(code)
	if code == "" || len(v.catalog.units) == 0 || v.catalog.units[code] {
		return nil
	}
	return &Correction{Field: "ClaveUnidad", Original: code, Applied: code, Reason: "clave no encontrada en c_ClaveUnidad"}
}

// HazardousKey advierte cuando CveMaterialPeligroso no está en el catálogo cargado.
func (v *CatalogValidator) HazardousKey(code string) *Correction {
	code = strings.TrimSpace(code)
	if code == "" || len(v.catalog.hazmat) == 0 || v.catalog.hazmat[code] {
		return nil
	}
	return &Correction{Field: "CveMaterialPeligroso", Original: code, Applied: code, Reason: "clave no encontrada en c_MaterialPeligroso"}
}

// Regime valida el régimen del receptor contra su tipo de persona.
// Inválido ⇒ 616 (física) o 601 (moral).
func (v *CatalogValidator) Regime(rfc, regime string) (string, *Correction) {
	regime = strings.TrimSpace(regime)
	var table map[string]bool
	var fallback string
	switch sat.PersonTypeFromRFC(rfc) {
	case sat.PersonIndividual:
		table, fallback = sat.RegimesIndividual, sat.RegimenSinObligacion
	case sat.PersonLegalEntity:
		table, fallback = sat.RegimesLegalEntity, sat.RegimenGeneralPM
	default:
		return regime, nil
	}
	if table[regime] {
		return regime, nil
	}
	return fallback, &Correction{
		Field:    "RegimenFiscalReceptor",
		Original: regime,
		Applied:  fallback,
		Reason:   fmt.Sprintf("régimen no válido para persona %s", sat.PersonTypeFromRFC(rfc)),
	}
}

// UsoCFDI valida el uso contra el tipo de persona y el régimen. Inválido ⇒ G02 si
// está permitido, si no S01.
func (v *CatalogValidator) UsoCFDI(rfc, regime, uso string) (string, *Correction) {
	uso = strings.ToUpper(strings.TrimSpace(uso))
	pt := sat.PersonTypeFromRFC(rfc)
	if usoAllowed(pt, regime, uso) {
		return uso, nil
	}
	fallback := sat.UsoSinEfectosFiscales
	if usoAllowed(pt, regime, sat.UsoDevoluciones) {
		fallback = sat.UsoDevoluciones
	}
	return fallback, &Correction{
		Field:    "UsoCFDI",
		Original: uso,
		Applied:  fallback,
		Reason:   fmt.Sprintf("uso no permitido para persona %s con régimen %s", pt, regime),
	}
}

func usoAllowed(pt sat.PersonType, regime, uso string) bool {
	if uso == "" {
		return false
	}
	switch pt {
	case sat.PersonIndividual:
		if !sat.UsosIndividual[uso] {
			return false
		}
	case sat.PersonLegalEntity:
		if !sat.UsosLegalEntity[uso] {
			return false
		}
	default:
		if !sat.UsosIndividual[uso] && !sat.UsosLegalEntity[uso] {
			return false
		}
	}
	regimes, restricted := sat.UsosRestrictedRegimes[uso]
	if !restricted || regimes == nil {
		return true
	}
	return regimes[strings.TrimSpace(regime)]
}
