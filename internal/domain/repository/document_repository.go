package repository

import (
	"context"

	"github.com/jhoicas/cfdi-api/internal/domain/entity"
)

// DocumentRepository define el puerto de persistencia de comprobantes emitidos.
type DocumentRepository interface {
	// Save inserta el comprobante y devuelve su ID.
	Save(ctx context.Context, doc *entity.StampedDocument) (string, error)
	// GetByID y GetByUUID devuelven nil, nil cuando no existe.
	GetByID(ctx context.Context, id string) (*entity.StampedDocument, error)
	GetByUUID(ctx context.Context, uuid string) (*entity.StampedDocument, error)
	UpdateStatus(ctx context.Context, id, status, message string) error
	// MarkStamped guarda el resultado de un timbrado tardío de un pendiente.
	MarkStamped(ctx context.Context, id, uuid, xml string, attempts int) error
	ListPending(ctx context.Context, limit int) ([]*entity.StampedDocument, error)
}
