package pac_test

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-api/internal/infrastructure/pac"
)

const stampOK = `<?xml version="1.0" encoding="UTF-8"?>
<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/" xmlns:tns="apps.services.soap.core.views" xmlns:s0="apps.services.soap.core.views">
  <SOAP-ENV:Body>
    <tns:stampResponse>
      <tns:stampResult>
        <s0:xml>&lt;cfdi:Comprobante Total="1160.00"&gt;&lt;/cfdi:Comprobante&gt;</s0:xml>
        <s0:UUID>6E3B4A7F-1111-4ABC-9DEF-123456789ABC</s0:UUID>
        <s0:CodEstatus>Comprobante timbrado satisfactoriamente</s0:CodEstatus>
        <s0:Incidencias/>
      </tns:stampResult>
    </tns:stampResponse>
  </SOAP-ENV:Body>
</SOAP-ENV:Envelope>`

const stampRejected = `<?xml version="1.0" encoding="UTF-8"?>
<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/" xmlns:s0="apps.services.soap.core.views">
  <SOAP-ENV:Body>
    <s0:stampResponse><s0:stampResult>
      <s0:Incidencias>
        <s0:Incidencia>
          <s0:CodigoError>CFDI40147</s0:CodigoError>
          <s0:MensajeIncidencia>El campo DomicilioFiscalReceptor no coincide</s0:MensajeIncidencia>
        </s0:Incidencia>
      </s0:Incidencias>
    </s0:stampResult></s0:stampResponse>
  </SOAP-ENV:Body>
</SOAP-ENV:Envelope>`

const soapFault = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body><soap:Fault><faultcode>soap:Server</faultcode><faultstring>Usuario o contraseña inválidos</faultstring></soap:Fault></soap:Body>
</soap:Envelope>`

const cancelOK = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/" xmlns:s0="apps.services.soap.core.views">
  <soap:Body><s0:cancelResponse><s0:cancelResult>
    <s0:Folios><s0:Folio>
      <s0:EstatusUUID>201</s0:EstatusUUID>
      <s0:UUID>6E3B4A7F-1111-4ABC-9DEF-123456789ABC</s0:UUID>
      <s0:EstatusCancelacion>Cancelado sin aceptación</s0:EstatusCancelacion>
    </s0:Folio></s0:Folios>
    <s0:Acuse>&lt;Acuse/&gt;</s0:Acuse>
  </s0:cancelResult></s0:cancelResponse></soap:Body>
</soap:Envelope>`

func newServer(t *testing.T, status int, body string, seen *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if seen != nil {
			*seen = string(raw)
		}
		assert.Equal(t, "text/xml; charset=utf-8", r.Header.Get("Content-Type"))
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(url string) *pac.SOAPClient {
	return pac.NewSOAPClient(pac.Config{
		StampURL:  url,
		CancelURL: url,
		Username:  "usuario",
		Password:  "secreto",
	}, nil, zerolog.Nop())
}

func TestStamp_Exitoso(t *testing.T) {
	var sent string
	srv := newServer(t, http.StatusOK, stampOK, &sent)

	res := newClient(srv.URL).Stamp(context.Background(), `<cfdi:Comprobante/>`)

	require.True(t, res.Success, res.Message)
	assert.Equal(t, "6E3B4A7F-1111-4ABC-9DEF-123456789ABC", res.UUID)
	assert.Equal(t, `<cfdi:Comprobante Total="1160.00"></cfdi:Comprobante>`, res.StampedXML)
	assert.Equal(t, "Comprobante timbrado satisfactoriamente", res.Status)

	assert.Contains(t, sent, "<username>usuario</username>")
	assert.Contains(t, sent, base64.StdEncoding.EncodeToString([]byte(`<cfdi:Comprobante/>`)))
}

func TestStamp_IncidenciasSonResultadoFallido(t *testing.T) {
	srv := newServer(t, http.StatusOK, stampRejected, nil)

	res := newClient(srv.URL).Stamp(context.Background(), "<x/>")

	assert.False(t, res.Success)
	assert.Empty(t, res.UUID)
	assert.Equal(t, "CFDI40147: El campo DomicilioFiscalReceptor no coincide", res.Message)
}

func TestStamp_FaultNoEsError(t *testing.T) {
	srv := newServer(t, http.StatusInternalServerError, soapFault, nil)

	res := newClient(srv.URL).Stamp(context.Background(), "<x/>")

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "Usuario o contraseña inválidos")
}

func TestStamp_RespuestaNoXML(t *testing.T) {
	srv := newServer(t, http.StatusBadGateway, "<html><body>bad gateway", nil)

	res := newClient(srv.URL).Stamp(context.Background(), "<x/>")

	assert.False(t, res.Success)
	assert.True(t, strings.HasPrefix(res.Message, "soap:"), res.Message)
}

func TestStamp_SinConfiguracion(t *testing.T) {
	res := pac.NewSOAPClient(pac.Config{}, nil, zerolog.Nop()).Stamp(context.Background(), "<x/>")
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Message)
}

func TestCancel(t *testing.T) {
	var sent string
	srv := newServer(t, http.StatusOK, cancelOK, &sent)

	res := newClient(srv.URL).Cancel(context.Background(), pac.CancelRequest{
		UUID:      "6e3b4a7f-1111-4abc-9def-123456789abc",
		RFCEmisor: "EKU9003173C9",
		Motivo:    pac.MotivoErroresSinRelacion,
	})

	require.True(t, res.Success, res.Message)
	assert.Equal(t, pac.EstatusCancelado, res.Status)
	assert.Equal(t, "<Acuse/>", res.Acuse)
	assert.Contains(t, sent, `UUID="6E3B4A7F-1111-4ABC-9DEF-123456789ABC"`)
	assert.Contains(t, sent, "<taxpayer_id>EKU9003173C9</taxpayer_id>")
}

func TestCancel_Validaciones(t *testing.T) {
	c := newClient("http://127.0.0.1:0")
	cases := []struct {
		name string
		req  pac.CancelRequest
	}{
		{"sin uuid", pac.CancelRequest{RFCEmisor: "EKU9003173C9", Motivo: "02"}},
		{"sin rfc", pac.CancelRequest{UUID: "x", Motivo: "02"}},
		{"motivo 01 sin sustituto", pac.CancelRequest{UUID: "x", RFCEmisor: "EKU9003173C9", Motivo: "01"}},
		{"motivo desconocido", pac.CancelRequest{UUID: "x", RFCEmisor: "EKU9003173C9", Motivo: "09"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := c.Cancel(context.Background(), tc.req)
			assert.False(t, res.Success)
			assert.NotEmpty(t, res.Message)
		})
	}
}
