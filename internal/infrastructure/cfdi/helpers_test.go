package cfdi_test

import (
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-api/internal/infrastructure/cfdi"
)

const fixedCCP = "CCP504E0-4F89-11D3-9A0C-0305E82C3301"

func fixedNow() time.Time { return time.Date(2024, 5, 10, 18, 30, 0, 0, time.UTC) }

var testIssuer = cfdi.Issuer{
	RFC:        "EKU9003173C9",
	Name:       "Escuela Kemper Urgate",
	Regime:     "601",
	PostalCode: "42501",
}

func newTestBuilder(opts ...cfdi.Option) *cfdi.CartaPorteBuilder {
	base := []cfdi.Option{
		cfdi.WithClock(fixedNow),
		cfdi.WithCCPGenerator(func() string { return fixedCCP }),
	}
	return cfdi.NewCartaPorteBuilder(testIssuer, nil, append(base, opts...)...)
}

// roadRequest Carta Porte 3.1 de autotransporte con dos ubicaciones.
func roadRequest() cfdi.CartaPorteRequest {
	return cfdi.CartaPorteRequest{
		Serie:      "CP",
		Folio:      "100",
		Moneda:     "MXN",
		FormaPago:  "03",
		MetodoPago: "PUE",
		Price:      "1000.00",
		Receiver: cfdi.Party{
			RFC:        "URE180429TM6",
			Name:       "Universidad Robotica Española",
			Regime:     "601",
			PostalCode: "86991",
			UsoCFDI:    "G03",
		},
		Complement: cfdi.CartaPorte{
			Version:        "3.1",
			TranspInternac: "No",
			Ubicaciones: []cfdi.Location{
				{
					RFC:                "EKU9003173C9",
					FechaHora:          "2024-05-10T08:00:00",
					DistanciaRecorrida: "100.005",
					Domicilio:          &cfdi.Address{Estado: "NLE", Pais: "MEX", CodigoPostal: "64000"},
				},
				{
					RFC:                "URE180429TM6",
					FechaHora:          "2024-05-11T08:00:00",
					DistanciaRecorrida: "151.00",
					Domicilio:          &cfdi.Address{Estado: "JAL", Pais: "MEX", CodigoPostal: "44100"},
				},
			},
			Mercancias: cfdi.Goods{
				PesoBrutoTotal: "1000",
				UnidadPeso:     "KGM",
				Items: []cfdi.GoodsItem{{
					BienesTransp: "10101500",
					Descripcion:  "Ganado vivo",
					Cantidad:     "2",
					ClaveUnidad:  "H87",
					PesoEnKg:     "500",
				}},
			},
			Autotransporte: &cfdi.RoadTransport{
				PermSCT:            "TPAF01",
				NumPermisoSCT:      "NumPermisoSCT",
				ConfigVehicular:    "C2",
				PesoBrutoVehicular: "18",
				PlacaVM:            "abc123",
				AnioModeloVM:       "2020",
				AseguraRespCivil:   "Seguros Atlas",
				PolizaRespCivil:    "123456",
			},
			Figuras: []cfdi.Figure{{
				TipoFigura:   "01",
				RFCFigura:    "VAAM130719H60",
				NumLicencia:  "a234567890",
				NombreFigura: "Operador Uno",
			}},
		},
	}
}

// railRequest ferroviario con una estación intermedia que trae domicilio.
func railRequest() cfdi.CartaPorteRequest {
	req := roadRequest()
	req.Complement.Autotransporte = nil
	req.Complement.Ferroviario = &cfdi.RailTransport{
		TipoDeServicio: "TS01",
		TipoDeTrafico:  "TT01",
		Carros: []cfdi.RailCar{{
			TipoCarro:           "TC01",
			MatriculaCarro:      "ABCD",
			GuiaCarro:           "G-1",
			ToneladasNetasCarro: "40",
		}},
	}
	req.Complement.Ubicaciones = []cfdi.Location{
		{RFC: "EKU9003173C9", FechaHora: "2024-05-10T08:00:00", TipoEstacion: "01",
			Domicilio: &cfdi.Address{Estado: "NLE", Pais: "MEX", CodigoPostal: "64000"}},
		{RFC: "EKU9003173C9", FechaHora: "2024-05-10T20:00:00", TipoEstacion: "02", DistanciaRecorrida: "300",
			Domicilio: &cfdi.Address{Estado: "SLP", Pais: "MEX", CodigoPostal: "78000"}},
		{RFC: "URE180429TM6", FechaHora: "2024-05-11T08:00:00", TipoEstacion: "03", DistanciaRecorrida: "200",
			Domicilio: &cfdi.Address{Estado: "JAL", Pais: "MEX", CodigoPostal: "44100"}},
	}
	return req
}

func parseXML(t *testing.T, s string) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(s))
	return doc
}

// findAll elementos con ese nombre local en todo el árbol.
func findAll(e *etree.Element, local string) []*etree.Element {
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if c.Tag == local {
			out = append(out, c)
		}
		out = append(out, findAll(c, local)...)
	}
	return out
}

func findOne(t *testing.T, doc *etree.Document, local string) *etree.Element {
	t.Helper()
	all := findAll(&doc.Element, local)
	require.NotEmpty(t, all, "no se encontró %s", local)
	return all[0]
}

func attrOf(e *etree.Element, key string) string { return e.SelectAttrValue(key, "") }
