package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jhoicas/cfdi-api/internal/domain"
	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	"github.com/jhoicas/cfdi-api/internal/domain/repository"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/cfdi"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/mail"
)

// DocumentUseCase lectura, PDF y envío por correo de comprobantes timbrados.
type DocumentUseCase struct {
	docs       repository.DocumentRepository
	parser     *cfdi.Parser
	pdf        PDFGenerator
	mailer     Mailer
	formats    EmailFormatStore
	issuerName string
	log        zerolog.Logger
}

// NewDocumentUseCase construye el caso de uso.
func NewDocumentUseCase(
	docs repository.DocumentRepository,
	parser *cfdi.Parser,
	pdf PDFGenerator,
	mailer Mailer,
	formats EmailFormatStore,
	issuerName string,
	log zerolog.Logger,
) *DocumentUseCase {
	return &DocumentUseCase{
		docs:       docs,
		parser:     parser,
		pdf:        pdf,
		mailer:     mailer,
		formats:    formats,
		issuerName: issuerName,
		log:        log.With().Str("component", "documents").Logger(),
	}
}

// Parse resume un XML de CFDI. Nunca falla: un XML ilegible da Valid=false.
func (uc *DocumentUseCase) Parse(xml []byte) cfdi.ParsedCfdi {
	return uc.parser.Parse(xml)
}

// PDF genera la representación impresa del comprobante con ese UUID.
func (uc *DocumentUseCase) PDF(ctx context.Context, uuid string) ([]byte, string, error) {
	doc, parsed, err := uc.load(ctx, uuid)
	if err != nil {
		return nil, "", err
	}
	out, err := uc.pdf.GenerateCFDIPDF(ctx, parsed)
	if err != nil {
		return nil, "", fmt.Errorf("generar pdf: %w", err)
	}
	return out, doc.UUID + ".pdf", nil
}

// Email envía el XML (y el PDF si el formato lo pide) a los destinatarios dados
// o, si no hay, al correo registrado del receptor.
func (uc *DocumentUseCase) Email(ctx context.Context, uuid string, to []string) error {
	doc, parsed, err := uc.load(ctx, uuid)
	if err != nil {
		return err
	}
	recipients := cleanRecipients(to)
	if len(recipients) == 0 && doc.ReceiverEmail != "" {
		recipients = []string{doc.ReceiverEmail}
	}
	if len(recipients) == 0 {
		return fmt.Errorf("sin destinatarios para %s: %w", doc.UUID, domain.ErrInvalidInput)
	}

	format := uc.formats.Get()
	subject, body, err := mail.Render(format, entity.MailData{
		ReceiverName: parsed.ReceptorNombre,
		ReceiverRFC:  parsed.ReceptorRFC,
		IssuerName:   firstNonEmpty(parsed.EmisorNombre, uc.issuerName),
		Serie:        parsed.Serie,
		Folio:        parsed.Folio,
		UUID:         doc.UUID,
		Total:        parsed.Total.StringFixed(2),
		Tipo:         parsed.TipoDeComprobante,
	})
	if err != nil {
		return fmt.Errorf("formato de correo: %w", err)
	}

	attachments := []mail.Attachment{{
		Name:        doc.UUID + ".xml",
		ContentType: "application/xml",
		Data:        []byte(doc.XML),
	}}
	if format.AttachPDF {
		pdf, err := uc.pdf.GenerateCFDIPDF(ctx, parsed)
		if err != nil {
			return fmt.Errorf("generar pdf: %w", err)
		}
		attachments = append(attachments, mail.Attachment{
			Name:        doc.UUID + ".pdf",
			ContentType: "application/pdf",
			Data:        pdf,
		})
	}

	if err := uc.mailer.Send(ctx, mail.Message{
		To:          recipients,
		CC:          format.CC,
		Subject:     subject,
		Body:        body,
		Attachments: attachments,
	}); err != nil {
		return &domain.UpstreamFailure{Service: "smtp", Message: "no se pudo enviar el correo", Err: err}
	}
	uc.log.Info().Str("uuid", doc.UUID).Strs("para", recipients).Msg("comprobante enviado")
	return nil
}

// EmailFormat formato de correo activo.
func (uc *DocumentUseCase) EmailFormat() entity.EmailFormat {
	return uc.formats.Get()
}

// UpdateEmailFormat reemplaza el formato de correo.
func (uc *DocumentUseCase) UpdateEmailFormat(f entity.EmailFormat) (entity.EmailFormat, error) {
	return uc.formats.Update(f)
}

func (uc *DocumentUseCase) load(ctx context.Context, uuid string) (*entity.StampedDocument, *cfdi.ParsedCfdi, error) {
	uuid = strings.ToUpper(strings.TrimSpace(uuid))
	if uuid == "" {
		return nil, nil, fmt.Errorf("uuid vacío: %w", domain.ErrInvalidInput)
	}
	doc, err := uc.docs.GetByUUID(ctx, uuid)
	if err != nil {
		return nil, nil, fmt.Errorf("buscar comprobante: %w", err)
	}
	if doc == nil {
		return nil, nil, domain.ErrNotFound
	}
	parsed := uc.parser.Parse([]byte(doc.XML))
	if !parsed.Valid {
		return nil, nil, fmt.Errorf("XML guardado ilegible para %s", uuid)
	}
	return doc, &parsed, nil
}

func cleanRecipients(in []string) []string {
	out := make([]string, 0, len(in))
	for _, r := range in {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
