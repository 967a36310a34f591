package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-api/internal/application/billing"
	"github.com/jhoicas/cfdi-api/internal/application/dto"
	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/cfdi"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/mail"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/pac"
	apphttp "github.com/jhoicas/cfdi-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/cfdi-api/pkg/jwt"
)

// docsByUUID repo de solo lectura para las rutas por UUID.
type docsByUUID map[string]*entity.StampedDocument

func (d docsByUUID) Save(context.Context, *entity.StampedDocument) (string, error) { return "", nil }
func (d docsByUUID) GetByID(context.Context, string) (*entity.StampedDocument, error) {
	return nil, nil
}
func (d docsByUUID) GetByUUID(_ context.Context, uuid string) (*entity.StampedDocument, error) {
	return d[uuid], nil
}
func (d docsByUUID) UpdateStatus(_ context.Context, _, _, _ string) error { return nil }
func (d docsByUUID) MarkStamped(context.Context, string, string, string, int) error {
	return nil
}
func (d docsByUUID) ListPending(context.Context, int) ([]*entity.StampedDocument, error) {
	return nil, nil
}

type rejectingStamper struct{}

func (rejectingStamper) Stamp(context.Context, string) pac.StampResult {
	return pac.StampResult{Message: "sin PAC"}
}
func (rejectingStamper) Cancel(context.Context, pac.CancelRequest) pac.CancelResult {
	return pac.CancelResult{Message: "sin PAC"}
}

func buildRouter(t *testing.T, docs docsByUUID) *fiber.App {
	t.Helper()
	formats, err := mail.NewFormatStore("")
	require.NoError(t, err)
	log := zerolog.Nop()

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Cancel:    billing.NewCancelUseCase(docs, rejectingStamper{}, "EKU9003173C9", log),
		Documents: billing.NewDocumentUseCase(docs, cfdi.NewParser(log), nil, nil, formats, "EMISOR", log),
		JWTSecret: testJWTSecret,
		Log:       log,
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, role, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if role != "-" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeError(t *testing.T, resp *http.Response) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}

func TestRouter_HealthEsPublico(t *testing.T) {
	resp := call(t, buildRouter(t, nil), http.MethodGet, "/health", "-", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_APIRequiereToken(t *testing.T) {
	resp := call(t, buildRouter(t, nil), http.MethodPost, "/api/cfdi/parse", "-", "<x/>")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_ParseXMLIlegible(t *testing.T) {
	resp := call(t, buildRouter(t, nil), http.MethodPost, "/api/cfdi/parse", pkgjwt.RoleConsulta, "no es xml")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var parsed cfdi.ParsedCfdi
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	assert.False(t, parsed.Valid)
}

func TestRouter_ConsultaNoEmite(t *testing.T) {
	resp := call(t, buildRouter(t, nil), http.MethodPost, "/api/cfdi/carta-porte", pkgjwt.RoleConsulta, "{}")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRouter_VistaPreviaSinPrecio(t *testing.T) {
	resp := call(t, buildRouter(t, nil), http.MethodPost, "/api/cfdi/carta-porte/preview", pkgjwt.RoleFacturista,
		`{"receptor":{"rfc":"URE180429TM6"}}`)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, resp).Code)
}

func TestRouter_CancelMapeaErrores(t *testing.T) {
	docs := docsByUUID{
		"6E3B4A7F-1111-4ABC-9DEF-123456789ABC": {ID: "d1", UUID: "6E3B4A7F-1111-4ABC-9DEF-123456789ABC", Status: entity.StatusTimbrado},
		"AAAAAAAA-1111-4ABC-9DEF-123456789ABC": {ID: "d2", UUID: "AAAAAAAA-1111-4ABC-9DEF-123456789ABC", Status: entity.StatusCancelado},
	}
	app := buildRouter(t, docs)
	cases := []struct {
		name   string
		uuid   string
		body   string
		status int
		code   string
	}{
		{"motivo inválido", "6E3B4A7F-1111-4ABC-9DEF-123456789ABC", `{"motivo":"09"}`, http.StatusBadRequest, "VALIDATION"},
		{"no existe", "BBBBBBBB-1111-4ABC-9DEF-123456789ABC", `{"motivo":"02"}`, http.StatusNotFound, "NOT_FOUND"},
		{"ya cancelado", "AAAAAAAA-1111-4ABC-9DEF-123456789ABC", `{"motivo":"02"}`, http.StatusConflict, "CONFLICT"},
		{"rechazo del PAC", "6E3B4A7F-1111-4ABC-9DEF-123456789ABC", `{"motivo":"02"}`, http.StatusBadGateway, "UPSTREAM_FAILURE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := call(t, app, http.MethodPost, "/api/cfdi/"+tc.uuid+"/cancel", pkgjwt.RoleFacturista, tc.body)
			defer resp.Body.Close()

			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, decodeError(t, resp).Code)
		})
	}
}

func TestRouter_FormatoDeCorreo(t *testing.T) {
	app := buildRouter(t, nil)

	resp := call(t, app, http.MethodPut, "/api/email-format", pkgjwt.RoleFacturista, `{"subject":"s","body":"b"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "solo admin cambia el formato")

	resp = call(t, app, http.MethodPut, "/api/email-format", pkgjwt.RoleAdmin, `{"subject":"CFDI {{.Folio}}","body":"","attach_pdf":true}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = call(t, app, http.MethodPut, "/api/email-format", pkgjwt.RoleAdmin, `{"subject":"CFDI {{.Folio}}","body":"Adjunto","attach_pdf":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = call(t, app, http.MethodGet, "/api/email-format", pkgjwt.RoleConsulta, "")
	defer resp.Body.Close()
	var f entity.EmailFormat
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&f))
	assert.Equal(t, "CFDI {{.Folio}}", f.Subject)
	assert.True(t, f.AttachPDF)
}
