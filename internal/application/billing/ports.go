package billing

import (
	"context"

	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	"github.com/jhoicas/cfdi-api/internal/domain/repository"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/cfdi"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/mail"
)

// DocumentTxRunner ejecuta fn dentro de una transacción con los repos de comprobantes y receptores.
type DocumentTxRunner interface {
	RunDocuments(ctx context.Context, fn func(
		docs repository.DocumentRepository,
		receivers repository.ReceiverRepository,
	) error) error
}

// CartaPorteBuilder construye el XML sin timbrar de un CFDI de ingreso con Carta Porte.
type CartaPorteBuilder interface {
	Build(req cfdi.CartaPorteRequest) (*cfdi.BuildResult, error)
}

// CreditNoteBuilder construye el XML sin timbrar de una nota de crédito.
type CreditNoteBuilder interface {
	Build(req cfdi.CreditNoteRequest) (*cfdi.BuildResult, error)
}

// PDFGenerator genera la representación impresa del CFDI.
type PDFGenerator interface {
	GenerateCFDIPDF(ctx context.Context, p *cfdi.ParsedCfdi) ([]byte, error)
}

// Mailer envía correos con adjuntos.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

// EmailFormatStore formato activo del correo.
type EmailFormatStore interface {
	Get() entity.EmailFormat
	Update(f entity.EmailFormat) (entity.EmailFormat, error)
}
