package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	domcfdi "github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	"github.com/jhoicas/cfdi-api/internal/domain/repository"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/cfdi"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/metrics"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/pac"
	"github.com/jhoicas/cfdi-api/pkg/sat"
)

// IssueResult resultado de emitir un comprobante: timbrado o pendiente de timbrar.
type IssueResult struct {
	DocumentID  string
	Status      string
	UUID        string
	IdCCP       string
	XML         string
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
	Outcome     cfdi.Outcome
	Corrections []domcfdi.Correction
	PACMessage  string
	Attempts    int
}

// RetrySummary resumen de un reintento de pendientes.
type RetrySummary struct {
	Processed int `json:"procesados"`
	Stamped   int `json:"timbrados"`
	Failed    int `json:"fallidos"`
}

// IssueUseCase construye, timbra y guarda comprobantes.
// Si el PAC falla el comprobante se guarda sin timbrar como PENDIENTE_TIMBRADO;
// solo los errores de construcción o de persistencia se devuelven como error.
type IssueUseCase struct {
	cartaPorte CartaPorteBuilder
	creditNote CreditNoteBuilder
	stamper    pac.Stamper
	tx         DocumentTxRunner
	docs       repository.DocumentRepository
	receivers  repository.ReceiverRepository
	issuerRFC  string
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

// NewIssueUseCase construye el caso de uso. receivers y m pueden ser nil.
func NewIssueUseCase(
	cartaPorte CartaPorteBuilder,
	creditNote CreditNoteBuilder,
	stamper pac.Stamper,
	tx DocumentTxRunner,
	docs repository.DocumentRepository,
	receivers repository.ReceiverRepository,
	issuerRFC string,
	m *metrics.Metrics,
	log zerolog.Logger,
) *IssueUseCase {
	return &IssueUseCase{
		cartaPorte: cartaPorte,
		creditNote: creditNote,
		stamper:    stamper,
		tx:         tx,
		docs:       docs,
		receivers:  receivers,
		issuerRFC:  issuerRFC,
		metrics:    m,
		log:        log.With().Str("component", "issue").Logger(),
	}
}

// ── Vista previa ──────────────────────────────────────────────────────────────

// PreviewCartaPorte construye el XML sin timbrar ni guardar.
func (uc *IssueUseCase) PreviewCartaPorte(ctx context.Context, req cfdi.CartaPorteRequest) (*cfdi.BuildResult, error) {
	uc.completeReceiver(ctx, &req.Receiver)
	return uc.cartaPorte.Build(req)
}

// PreviewCreditNote construye el XML de la nota de crédito sin timbrar ni guardar.
func (uc *IssueUseCase) PreviewCreditNote(ctx context.Context, req cfdi.CreditNoteRequest) (*cfdi.BuildResult, error) {
	uc.completeReceiver(ctx, &req.Receiver)
	return uc.creditNote.Build(req)
}

// ── Emisión ───────────────────────────────────────────────────────────────────

// IssueCartaPorte emite un CFDI de ingreso con complemento Carta Porte.
func (uc *IssueUseCase) IssueCartaPorte(ctx context.Context, req cfdi.CartaPorteRequest, email string) (*IssueResult, error) {
	email = firstNonEmpty(email, uc.completeReceiver(ctx, &req.Receiver))
	built, err := uc.cartaPorte.Build(req)
	if err != nil {
		uc.metrics.IncrementBuilt(sat.TipoComprobanteIngreso, "rejected")
		return nil, err
	}
	return uc.stampAndSave(ctx, sat.TipoComprobanteIngreso, req.Serie, req.Folio, req.Receiver, email, built)
}

// IssueCreditNote emite una nota de crédito (egreso).
func (uc *IssueUseCase) IssueCreditNote(ctx context.Context, req cfdi.CreditNoteRequest, email string) (*IssueResult, error) {
	email = firstNonEmpty(email, uc.completeReceiver(ctx, &req.Receiver))
	built, err := uc.creditNote.Build(req)
	if err != nil {
		uc.metrics.IncrementBuilt(sat.TipoComprobanteEgreso, "rejected")
		return nil, err
	}
	return uc.stampAndSave(ctx, sat.TipoComprobanteEgreso, req.Serie, req.Folio, req.Receiver, email, built)
}

func (uc *IssueUseCase) stampAndSave(
	ctx context.Context,
	tipo, serie, folio string,
	receiver cfdi.Party,
	email string,
	built *cfdi.BuildResult,
) (*IssueResult, error) {
	uc.metrics.IncrementBuilt(tipo, string(built.Outcome))

	stamp := uc.stamper.Stamp(ctx, built.XML)

	doc := &entity.StampedDocument{
		TipoDeComprobante: tipo,
		Serie:             serie,
		Folio:             folio,
		IssuerRFC:         uc.issuerRFC,
		ReceiverRFC:       sat.NormalizeRFC(receiver.RFC),
		ReceiverEmail:     email,
		IdCCP:             built.IdCCP,
		Subtotal:          built.Subtotal,
		Discount:          built.Discount,
		Tax:               built.Tax,
		Total:             built.Total,
		StampAttempts:     stamp.Attempts,
		Corrections:       joinCorrections(built.Corrections),
	}
	if stamp.Success {
		doc.Status = entity.StatusTimbrado
		doc.UUID = strings.ToUpper(stamp.UUID)
		doc.XML = stamp.StampedXML
	} else {
		doc.Status = entity.StatusPendienteTimbrado
		doc.XML = built.XML
		doc.PACMessage = stamp.Message
		uc.metrics.IncrementPending()
		uc.log.Warn().
			Str("tipo", tipo).
			Str("serie", serie).
			Str("folio", folio).
			Int("intentos", stamp.Attempts).
			Str("mensaje", stamp.Message).
			Msg("PAC sin éxito, se guarda como pendiente de timbrado")
	}

	err := uc.tx.RunDocuments(ctx, func(docs repository.DocumentRepository, _ repository.ReceiverRepository) error {
		_, err := docs.Save(ctx, doc)
		return err
	})
	if err != nil {
		// Un timbrado que no se pudo guardar ya existe ante el SAT: el UUID queda en el log.
		uc.log.Error().Err(err).Str("uuid", doc.UUID).Str("status", doc.Status).Msg("no se pudo guardar el comprobante")
		return nil, fmt.Errorf("guardar comprobante: %w", err)
	}

	// El receptor va fuera de la tx: un error en el upsert no puede revertir un comprobante timbrado.
	if r := receiverToSave(receiver, email); r != nil && uc.receivers != nil {
		if err := uc.receivers.Upsert(ctx, r); err != nil {
			uc.log.Warn().Err(err).Str("rfc", r.RFC).Str("documento", doc.ID).Msg("no se pudo registrar el receptor")
		}
	}

	return &IssueResult{
		DocumentID:  doc.ID,
		Status:      doc.Status,
		UUID:        doc.UUID,
		IdCCP:       built.IdCCP,
		XML:         doc.XML,
		Subtotal:    built.Subtotal,
		Discount:    built.Discount,
		Tax:         built.Tax,
		Total:       built.Total,
		Outcome:     built.Outcome,
		Corrections: built.Corrections,
		PACMessage:  doc.PACMessage,
		Attempts:    stamp.Attempts,
	}, nil
}

// ── Pendientes ────────────────────────────────────────────────────────────────

// RetryPending vuelve a enviar al PAC los comprobantes pendientes, los más antiguos primero.
func (uc *IssueUseCase) RetryPending(ctx context.Context, limit int) (RetrySummary, error) {
	var sum RetrySummary
	pending, err := uc.docs.ListPending(ctx, limit)
	if err != nil {
		return sum, fmt.Errorf("listar pendientes: %w", err)
	}
	for _, d := range pending {
		if ctx.Err() != nil {
			break
		}
		sum.Processed++
		res := uc.stamper.Stamp(ctx, d.XML)
		if !res.Success {
			sum.Failed++
			if err := uc.docs.UpdateStatus(ctx, d.ID, entity.StatusPendienteTimbrado, res.Message); err != nil {
				return sum, fmt.Errorf("actualizar pendiente %s: %w", d.ID, err)
			}
			continue
		}
		if err := uc.docs.MarkStamped(ctx, d.ID, strings.ToUpper(res.UUID), res.StampedXML, res.Attempts); err != nil {
			uc.log.Error().Err(err).Str("id", d.ID).Str("uuid", res.UUID).Msg("timbrado tardío sin guardar")
			return sum, fmt.Errorf("guardar timbrado de %s: %w", d.ID, err)
		}
		sum.Stamped++
	}
	uc.log.Info().Int("procesados", sum.Processed).Int("timbrados", sum.Stamped).Msg("reintento de pendientes")
	return sum, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

// completeReceiver llena los datos vacíos del receptor con lo registrado para su RFC
// y devuelve el correo registrado. Una falla de la consulta no detiene la emisión.
func (uc *IssueUseCase) completeReceiver(ctx context.Context, p *cfdi.Party) string {
	if uc.receivers == nil || strings.TrimSpace(p.RFC) == "" {
		return ""
	}
	stored, err := uc.receivers.FindByRfc(ctx, sat.NormalizeRFC(p.RFC))
	if err != nil {
		uc.log.Warn().Err(err).Str("rfc", p.RFC).Msg("no se pudo consultar el receptor")
		return ""
	}
	if stored == nil {
		return ""
	}
	p.Name = firstNonEmpty(strings.TrimSpace(p.Name), stored.Name)
	p.Regime = firstNonEmpty(strings.TrimSpace(p.Regime), stored.Regime)
	p.PostalCode = firstNonEmpty(strings.TrimSpace(p.PostalCode), stored.PostalCode)
	p.UsoCFDI = firstNonEmpty(strings.TrimSpace(p.UsoCFDI), stored.UsoCFDI)
	return stored.Email
}

// receiverToSave nil para RFC genéricos o datos incompletos.
func receiverToSave(p cfdi.Party, email string) *entity.Receiver {
	rfc := sat.NormalizeRFC(p.RFC)
	if rfc == sat.RFCPublicoGeneral || rfc == sat.RFCExtranjero {
		return nil
	}
	if rfc == "" || p.Name == "" || p.Regime == "" || !sat.IsUsablePostalCode(p.PostalCode) {
		return nil
	}
	return &entity.Receiver{
		RFC:        rfc,
		Name:       p.Name,
		Regime:     p.Regime,
		PostalCode: p.PostalCode,
		UsoCFDI:    p.UsoCFDI,
		Email:      email,
	}
}

func joinCorrections(cs []domcfdi.Correction) string {
	lines := make([]string, 0, len(cs))
	for _, c := range cs {
		lines = append(lines, c.String())
	}
	return strings.Join(lines, "\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
