package pac

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/xmlpath.v2"

	"github.com/jhoicas/cfdi-api/internal/infrastructure/metrics"
)

const (
	soapNS   = "http://schemas.xmlsoap.org/soap/envelope/"
	nsStamp  = "http://facturacion.finkok.com/stamp"
	nsCancel = "http://facturacion.finkok.com/cancel"

	maxResponseBytes = 4 << 20
)

var errNotConfigured = errors.New("PAC no configurado")

// Config credenciales y endpoints del PAC.
type Config struct {
	StampURL  string
	CancelURL string
	Username  string
	Password  string
	Timeout   time.Duration // 0 = sin límite
}

// ── Implementación SOAP ────────────────────────────────────────────────────────

// SOAPClient implementa Stamper contra los servicios SOAP de timbrado y cancelación.
type SOAPClient struct {
	cfg        Config
	httpClient *http.Client
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

// NewSOAPClient construye el cliente. m puede ser nil.
func NewSOAPClient(cfg Config, m *metrics.Metrics, log zerolog.Logger) *SOAPClient {
	return &SOAPClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		metrics:    m,
		log:        log.With().Str("component", "pac").Logger(),
	}
}

// ── Estructuras SOAP ──────────────────────────────────────────────────────────

type soapEnvelope struct {
	XMLName xml.Name `xml:"soapenv:Envelope"`
	XmlnsS  string   `xml:"xmlns:soapenv,attr"`
	Body    soapBody `xml:"soapenv:Body"`
}

type soapBody struct {
	Content any
}

func (b soapBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "soapenv:Body"
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.Encode(b.Content); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

type stampBody struct {
	XMLName  xml.Name `xml:"stamp"`
	Xmlns    string   `xml:"xmlns,attr"`
	XML      string   `xml:"xml"` // comprobante en Base64
	Username string   `xml:"username"`
	Password string   `xml:"password"`
}

type cancelBody struct {
	XMLName    xml.Name     `xml:"cancel"`
	Xmlns      string       `xml:"xmlns,attr"`
	UUIDs      []cancelUUID `xml:"UUIDS>uuids>UUID"`
	Username   string       `xml:"username"`
	Password   string       `xml:"password"`
	TaxpayerID string       `xml:"taxpayer_id"`
}

type cancelUUID struct {
	UUID             string `xml:"UUID,attr"`
	Motivo           string `xml:"Motivo,attr"`
	FolioSustitucion string `xml:"FolioSustitucion,attr,omitempty"`
}

// ── Rutas de la respuesta (por nombre local) ──────────────────────────────────

var (
	pathFault         = xmlpath.MustCompile("//Fault/faultstring")
	pathStampedXML    = xmlpath.MustCompile("//stampResult/xml")
	pathStampUUID     = xmlpath.MustCompile("//stampResult/UUID")
	pathCodEstatus    = xmlpath.MustCompile("//CodEstatus")
	pathCodigoError   = xmlpath.MustCompile("//Incidencia/CodigoError")
	pathMensaje       = xmlpath.MustCompile("//Incidencia/MensajeIncidencia")
	pathEstatusUUID   = xmlpath.MustCompile("//Folio/EstatusUUID")
	pathEstatusCancel = xmlpath.MustCompile("//Folio/EstatusCancelacion")
	pathAcuse         = xmlpath.MustCompile("//Acuse")
)

// ── Stamp ─────────────────────────────────────────────────────────────────────

// Stamp envía el comprobante sin timbrar y devuelve el timbrado o el motivo del rechazo.
func (c *SOAPClient) Stamp(ctx context.Context, document string) StampResult {
	if c.cfg.StampURL == "" {
		return StampResult{Message: errNotConfigured.Error()}
	}
	body := &stampBody{
		Xmlns:    nsStamp,
		XML:      base64.StdEncoding.EncodeToString([]byte(document)),
		Username: c.cfg.Username,
		Password: c.cfg.Password,
	}

	start := time.Now()
	root, err := c.call(ctx, c.cfg.StampURL, "stamp", body)
	c.metrics.ObservePAC("stamp", time.Since(start))
	if err != nil {
		c.log.Error().Err(err).Msg("timbrado: llamada fallida")
		return StampResult{Message: err.Error()}
	}
	return parseStamp(root)
}

func parseStamp(root *xmlpath.Node) StampResult {
	if fault, ok := pathFault.String(root); ok {
		return StampResult{Message: "SOAP Fault: " + strings.TrimSpace(fault)}
	}
	res := StampResult{
		UUID:       text(pathStampUUID, root),
		Status:     text(pathCodEstatus, root),
		StampedXML: text(pathStampedXML, root),
		Message:    incidencias(root),
	}
	// Un comprobante timbrado previamente (307) también trae UUID y XML.
	res.Success = res.UUID != "" && res.StampedXML != ""
	if !res.Success && res.Message == "" {
		res.Message = firstNonEmpty(res.Status, "respuesta del PAC sin UUID")
	}
	return res
}

// ── Cancel ────────────────────────────────────────────────────────────────────

// Cancel solicita la cancelación de un folio fiscal.
func (c *SOAPClient) Cancel(ctx context.Context, req CancelRequest) CancelResult {
	if msg := validateCancel(req); msg != "" {
		return CancelResult{Message: msg}
	}
	if c.cfg.CancelURL == "" {
		return CancelResult{Message: errNotConfigured.Error()}
	}
	body := &cancelBody{
		Xmlns: nsCancel,
		UUIDs: []cancelUUID{{
			UUID:             strings.ToUpper(req.UUID),
			Motivo:           req.Motivo,
			FolioSustitucion: req.FolioSustitucion,
		}},
		Username:   c.cfg.Username,
		Password:   c.cfg.Password,
		TaxpayerID: req.RFCEmisor,
	}

	start := time.Now()
	root, err := c.call(ctx, c.cfg.CancelURL, "cancel", body)
	c.metrics.ObservePAC("cancel", time.Since(start))
	if err != nil {
		c.log.Error().Err(err).Str("uuid", req.UUID).Msg("cancelación: llamada fallida")
		return CancelResult{Message: err.Error()}
	}
	return parseCancel(root)
}

func validateCancel(req CancelRequest) string {
	switch {
	case strings.TrimSpace(req.UUID) == "":
		return "UUID requerido"
	case strings.TrimSpace(req.RFCEmisor) == "":
		return "RFC del emisor requerido"
	}
	switch req.Motivo {
	case MotivoSustitucion:
		if strings.TrimSpace(req.FolioSustitucion) == "" {
			return "el motivo 01 requiere FolioSustitucion"
		}
	case MotivoErroresSinRelacion, MotivoNoSeLlevoACabo, MotivoOperacionGlobal:
	default:
		return fmt.Sprintf("motivo de cancelación %q inválido", req.Motivo)
	}
	return ""
}

func parseCancel(root *xmlpath.Node) CancelResult {
	if fault, ok := pathFault.String(root); ok {
		return CancelResult{Message: "SOAP Fault: " + strings.TrimSpace(fault)}
	}
	res := CancelResult{
		Status: text(pathEstatusUUID, root),
		Acuse:  text(pathAcuse, root),
	}
	res.Success = res.Status == EstatusCancelado || res.Status == EstatusCancelacionPrevia
	if !res.Success {
		res.Message = firstNonEmpty(incidencias(root), text(pathCodEstatus, root), "cancelación no aceptada")
	} else {
		res.Message = text(pathEstatusCancel, root)
	}
	return res
}

// ── Transporte ────────────────────────────────────────────────────────────────

// call serializa el envelope, hace el POST y devuelve el árbol de la respuesta.
// Un HTTP 500 con Fault se devuelve como árbol para que el llamador lo lea.
func (c *SOAPClient) call(ctx context.Context, url, action string, body any) (*xmlpath.Node, error) {
	payload, err := xml.Marshal(soapEnvelope{XmlnsS: soapNS, Body: soapBody{Content: body}})
	if err != nil {
		return nil, fmt.Errorf("soap: serializar envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("soap: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", action)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("soap: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("soap: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("soap: leer respuesta: %w", err)
	}
	root, err := xmlpath.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("soap: respuesta no es XML (HTTP %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if _, ok := pathFault.String(root); !ok {
			return nil, fmt.Errorf("soap: HTTP %d", resp.StatusCode)
		}
	}
	return root, nil
}

func text(p *xmlpath.Path, root *xmlpath.Node) string {
	s, _ := p.String(root)
	return strings.TrimSpace(s)
}

// incidencias une los pares CodigoError/MensajeIncidencia de la respuesta.
func incidencias(root *xmlpath.Node) string {
	var codes, msgs []string
	for it := pathCodigoError.Iter(root); it.Next(); {
		codes = append(codes, strings.TrimSpace(it.Node().String()))
	}
	for it := pathMensaje.Iter(root); it.Next(); {
		msgs = append(msgs, strings.TrimSpace(it.Node().String()))
	}
	parts := make([]string, 0, len(msgs))
	for i, m := range msgs {
		if i < len(codes) && codes[i] != "" {
			m = codes[i] + ": " + m
		}
		parts = append(parts, m)
	}
	return strings.Join(parts, "; ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
