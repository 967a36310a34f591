package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	"github.com/jhoicas/cfdi-api/internal/domain/repository"
)

var _ repository.ReceiverRepository = (*ReceiverRepo)(nil)

// ReceiverRepo implementación de ReceiverRepository (usable con pool o tx).
type ReceiverRepo struct {
	q Querier
}

// NewReceiverRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReceiverRepository(q Querier) *ReceiverRepo {
	return &ReceiverRepo{q: q}
}

// FindByRfc busca un receptor por RFC.
func (r *ReceiverRepo) FindByRfc(ctx context.Context, rfc string) (*entity.Receiver, error) {
	query := `
		SELECT id, rfc, name, regime, postal_code, COALESCE(uso_cfdi, ''), COALESCE(email, ''),
		       created_at, updated_at
		FROM cfdi_receivers WHERE rfc = $1`
	var rc entity.Receiver
	err := r.q.QueryRow(ctx, query, strings.ToUpper(strings.TrimSpace(rfc))).Scan(
		&rc.ID, &rc.RFC, &rc.Name, &rc.Regime, &rc.PostalCode, &rc.UsoCFDI, &rc.Email,
		&rc.CreatedAt, &rc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cfdi_receiver: %w", err)
	}
	return &rc, nil
}

// Upsert inserta o actualiza por RFC.
func (r *ReceiverRepo) Upsert(ctx context.Context, rc *entity.Receiver) error {
	if rc.ID == "" {
		rc.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if rc.CreatedAt.IsZero() {
		rc.CreatedAt = now
	}
	rc.UpdatedAt = now
	rc.RFC = strings.ToUpper(strings.TrimSpace(rc.RFC))

	query := `
		INSERT INTO cfdi_receivers (id, rfc, name, regime, postal_code, uso_cfdi, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (rfc) DO UPDATE
		SET name        = EXCLUDED.name,
		    regime      = EXCLUDED.regime,
		    postal_code = EXCLUDED.postal_code,
		    uso_cfdi    = EXCLUDED.uso_cfdi,
		    email       = COALESCE(EXCLUDED.email, cfdi_receivers.email),
		    updated_at  = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		rc.ID, rc.RFC, rc.Name, rc.Regime, rc.PostalCode, nullIfEmpty(rc.UsoCFDI), nullIfEmpty(rc.Email),
		rc.CreatedAt, rc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert cfdi_receiver: %w", err)
	}
	return nil
}
