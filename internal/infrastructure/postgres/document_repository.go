package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/cfdi-api/internal/domain"
	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	"github.com/jhoicas/cfdi-api/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo implementación de DocumentRepository (usable con pool o tx).
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

const documentColumns = `
	id, tipo_comprobante, serie, folio, issuer_rfc, receiver_rfc, receiver_email,
	uuid, id_ccp, subtotal, discount, tax, total, status, xml, pac_message,
	stamp_attempts, corrections, created_at, updated_at`

// Save persiste el comprobante. El UUID fiscal es único cuando existe.
func (r *DocumentRepo) Save(ctx context.Context, d *entity.StampedDocument) (string, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	query := `INSERT INTO cfdi_documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := r.q.Exec(ctx, query,
		d.ID, d.TipoDeComprobante, d.Serie, d.Folio, d.IssuerRFC, d.ReceiverRFC, nullIfEmpty(d.ReceiverEmail),
		nullIfEmpty(d.UUID), nullIfEmpty(d.IdCCP), d.Subtotal, d.Discount, d.Tax, d.Total,
		d.Status, d.XML, nullIfEmpty(d.PACMessage), d.StampAttempts, nullIfEmpty(d.Corrections),
		d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("uuid %s: %w", d.UUID, domain.ErrDuplicate)
		}
		return "", fmt.Errorf("insert cfdi_document: %w", err)
	}
	return d.ID, nil
}

// GetByID obtiene un comprobante por ID interno.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*entity.StampedDocument, error) {
	return r.getOne(ctx, `SELECT `+documentColumns+` FROM cfdi_documents WHERE id = $1`, id)
}

// GetByUUID obtiene un comprobante por folio fiscal (sin distinguir mayúsculas).
func (r *DocumentRepo) GetByUUID(ctx context.Context, folio string) (*entity.StampedDocument, error) {
	return r.getOne(ctx, `SELECT `+documentColumns+` FROM cfdi_documents WHERE upper(uuid) = upper($1)`, folio)
}

func (r *DocumentRepo) getOne(ctx context.Context, query string, arg string) (*entity.StampedDocument, error) {
	d, err := scanDocument(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cfdi_document: %w", err)
	}
	return d, nil
}

// UpdateStatus cambia el estado y guarda el mensaje del PAC.
func (r *DocumentRepo) UpdateStatus(ctx context.Context, id, status, message string) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE cfdi_documents
		SET status      = $2,
		    pac_message = COALESCE($3, pac_message),
		    updated_at  = $4
		WHERE id = $1`,
		id, status, nullIfEmpty(message), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update cfdi_document status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkStamped guarda UUID y XML timbrado de un comprobante que estaba pendiente.
func (r *DocumentRepo) MarkStamped(ctx context.Context, id, folio, xml string, attempts int) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE cfdi_documents
		SET uuid           = $2,
		    xml            = $3,
		    status         = $4,
		    pac_message    = NULL,
		    stamp_attempts = stamp_attempts + $5,
		    updated_at     = $6
		WHERE id = $1`,
		id, folio, xml, entity.StatusTimbrado, attempts, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("uuid %s: %w", folio, domain.ErrDuplicate)
		}
		return fmt.Errorf("mark cfdi_document stamped: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListPending devuelve los pendientes de timbrado, los más antiguos primero.
func (r *DocumentRepo) ListPending(ctx context.Context, limit int) ([]*entity.StampedDocument, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.q.Query(ctx, `SELECT `+documentColumns+`
		FROM cfdi_documents WHERE status = $1 ORDER BY created_at LIMIT $2`,
		entity.StatusPendienteTimbrado, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending cfdi_documents: %w", err)
	}
	defer rows.Close()

	var out []*entity.StampedDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cfdi_document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDocument(row pgx.Row) (*entity.StampedDocument, error) {
	var d entity.StampedDocument
	var email, folio, idCCP, msg, corrections *string
	err := row.Scan(
		&d.ID, &d.TipoDeComprobante, &d.Serie, &d.Folio, &d.IssuerRFC, &d.ReceiverRFC, &email,
		&folio, &idCCP, &d.Subtotal, &d.Discount, &d.Tax, &d.Total, &d.Status, &d.XML, &msg,
		&d.StampAttempts, &corrections, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.ReceiverEmail = deref(email)
	d.UUID = deref(folio)
	d.IdCCP = deref(idCCP)
	d.PACMessage = deref(msg)
	d.Corrections = deref(corrections)
	return &d, nil
}
