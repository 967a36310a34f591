package billing_test

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/stretchr/testify/mock"

	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	"github.com/jhoicas/cfdi-api/internal/domain/repository"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/cfdi"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/mail"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/pac"
)

// ── Stamper ───────────────────────────────────────────────────────────────────

type mockStamper struct{ mock.Mock }

func (m *mockStamper) Stamp(ctx context.Context, xml string) pac.StampResult {
	return m.Called(ctx, xml).Get(0).(pac.StampResult)
}

func (m *mockStamper) Cancel(ctx context.Context, req pac.CancelRequest) pac.CancelResult {
	return m.Called(ctx, req).Get(0).(pac.CancelResult)
}

// ── Repositorios en memoria ───────────────────────────────────────────────────

type memDocs struct {
	byID    map[string]*entity.StampedDocument
	seq     int
	saveErr error
}

func newMemDocs(docs ...*entity.StampedDocument) *memDocs {
	m := &memDocs{byID: map[string]*entity.StampedDocument{}}
	for _, d := range docs {
		if d.ID == "" {
			m.seq++
			d.ID = fmt.Sprintf("doc-%d", m.seq)
		}
		m.byID[d.ID] = d
	}
	return m
}

func (m *memDocs) Save(_ context.Context, d *entity.StampedDocument) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.seq++
	d.ID = fmt.Sprintf("doc-%d", m.seq)
	m.byID[d.ID] = d
	return d.ID, nil
}

func (m *memDocs) GetByID(_ context.Context, id string) (*entity.StampedDocument, error) {
	return m.byID[id], nil
}

func (m *memDocs) GetByUUID(_ context.Context, uuid string) (*entity.StampedDocument, error) {
	for _, d := range m.byID {
		if d.UUID != "" && d.UUID == uuid {
			return d, nil
		}
	}
	return nil, nil
}

func (m *memDocs) UpdateStatus(_ context.Context, id, status, message string) error {
	d, ok := m.byID[id]
	if !ok {
		return errors.New("no existe")
	}
	d.Status = status
	d.PACMessage = message
	return nil
}

func (m *memDocs) MarkStamped(_ context.Context, id, uuid, xml string, attempts int) error {
	d, ok := m.byID[id]
	if !ok {
		return errors.New("no existe")
	}
	d.Status = entity.StatusTimbrado
	d.UUID = uuid
	d.XML = xml
	d.StampAttempts += attempts
	d.PACMessage = ""
	return nil
}

func (m *memDocs) ListPending(_ context.Context, limit int) ([]*entity.StampedDocument, error) {
	var out []*entity.StampedDocument
	for _, d := range m.byID {
		if d.Status == entity.StatusPendienteTimbrado {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memReceivers struct {
	byRFC     map[string]*entity.Receiver
	findErr   error
	upsertErr error
}

func newMemReceivers(rs ...*entity.Receiver) *memReceivers {
	m := &memReceivers{byRFC: map[string]*entity.Receiver{}}
	for _, r := range rs {
		m.byRFC[r.RFC] = r
	}
	return m
}

func (m *memReceivers) FindByRfc(_ context.Context, rfc string) (*entity.Receiver, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.byRFC[rfc], nil
}

func (m *memReceivers) Upsert(_ context.Context, r *entity.Receiver) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.byRFC[r.RFC] = r
	return nil
}

// memTx entrega los mismos repos en memoria. Si fn falla descarta los documentos
// guardados durante la llamada, como un Rollback.
type memTx struct {
	docs      *memDocs
	receivers *memReceivers
}

func (t memTx) RunDocuments(_ context.Context, fn func(repository.DocumentRepository, repository.ReceiverRepository) error) error {
	before := make(map[string]bool, len(t.docs.byID))
	for id := range t.docs.byID {
		before[id] = true
	}
	if err := fn(t.docs, t.receivers); err != nil {
		for id := range t.docs.byID {
			if !before[id] {
				delete(t.docs.byID, id)
			}
		}
		return err
	}
	return nil
}

// ── Builders, PDF y correo ────────────────────────────────────────────────────

type fixedCartaPorte struct {
	res  *cfdi.BuildResult
	err  error
	seen cfdi.CartaPorteRequest
}

func (b *fixedCartaPorte) Build(req cfdi.CartaPorteRequest) (*cfdi.BuildResult, error) {
	b.seen = req
	return b.res, b.err
}

type fixedCreditNote struct {
	res  *cfdi.BuildResult
	err  error
	seen cfdi.CreditNoteRequest
}

func (b *fixedCreditNote) Build(req cfdi.CreditNoteRequest) (*cfdi.BuildResult, error) {
	b.seen = req
	return b.res, b.err
}

type fakePDF struct{ calls int }

func (f *fakePDF) GenerateCFDIPDF(context.Context, *cfdi.ParsedCfdi) ([]byte, error) {
	f.calls++
	return []byte("%PDF-1.3 fake"), nil
}

type recordingMailer struct {
	sent []mail.Message
	err  error
}

func (r *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}
