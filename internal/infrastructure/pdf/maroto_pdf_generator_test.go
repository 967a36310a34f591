package pdf_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-api/internal/infrastructure/cfdi"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/pdf"
)

func stamped() *cfdi.ParsedCfdi {
	return &cfdi.ParsedCfdi{
		Valid:             true,
		Serie:             "CP",
		Folio:             "15",
		Fecha:             "2024-05-10T12:30:00",
		TipoDeComprobante: "I",
		SubTotal:          decimal.RequireFromString("1000"),
		Total:             decimal.RequireFromString("1160.00"),
		EmisorRFC:         "EKU9003173C9",
		EmisorNombre:      "ESCUELA KEMPER URGATE",
		ReceptorRFC:       "URE180429TM6",
		ReceptorNombre:    "UNIVERSIDAD ROBOTICA ESPAÑOLA",
		UUID:              "6E3B4A7F-1111-4ABC-9DEF-123456789ABC",
		SelloCFD:          "abcdefghijklmnopqrstuvwxyz0123456789+/==",
		Concepts: []cfdi.ParsedConcept{{
			ClaveProdServ: "78101800",
			Cantidad:      decimal.NewFromInt(1),
			ClaveUnidad:   "E48",
			Descripcion:   "Servicio de transporte de carga",
			ValorUnitario: decimal.RequireFromString("1000"),
			Importe:       decimal.RequireFromString("1000"),
		}},
		IdCCP: "CCP504E0-4F89-11D3-9A0C-0305E82C3301",
	}
}

func TestVerificationURL(t *testing.T) {
	got := pdf.VerificationURL(stamped())
	assert.Equal(t,
		"https://verificacfdi.facturaelectronica.sat.gob.mx/default.aspx"+
			"?id=6E3B4A7F-1111-4ABC-9DEF-123456789ABC&re=EKU9003173C9&rr=URE180429TM6&tt=1160&fe=6789%2B%2F%3D%3D",
		got)
}

func TestGenerateCFDIPDF(t *testing.T) {
	out, err := pdf.NewMarotoPDFGenerator().GenerateCFDIPDF(context.Background(), stamped())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateCFDIPDF_Ilegible(t *testing.T) {
	_, err := pdf.NewMarotoPDFGenerator().GenerateCFDIPDF(context.Background(), &cfdi.ParsedCfdi{})
	assert.Error(t, err)
}
