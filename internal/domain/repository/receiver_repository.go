package repository

import (
	"context"

	"github.com/jhoicas/cfdi-api/internal/domain/entity"
)

// ReceiverRepository define el puerto de persistencia de receptores.
type ReceiverRepository interface {
	// FindByRfc devuelve nil, nil cuando el RFC no está registrado.
	FindByRfc(ctx context.Context, rfc string) (*entity.Receiver, error)
	Upsert(ctx context.Context, r *entity.Receiver) error
}
