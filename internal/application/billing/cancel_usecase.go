package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jhoicas/cfdi-api/internal/domain"
	"github.com/jhoicas/cfdi-api/internal/domain/entity"
	"github.com/jhoicas/cfdi-api/internal/domain/repository"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/pac"
)

// CancelResult resultado de una cancelación aceptada por el PAC.
type CancelResult struct {
	UUID   string
	Status string
	Acuse  string
}

// CancelUseCase cancela ante el PAC comprobantes ya timbrados.
type CancelUseCase struct {
	docs      repository.DocumentRepository
	stamper   pac.Stamper
	issuerRFC string
	log       zerolog.Logger
}

// NewCancelUseCase construye el caso de uso.
func NewCancelUseCase(docs repository.DocumentRepository, stamper pac.Stamper, issuerRFC string, log zerolog.Logger) *CancelUseCase {
	return &CancelUseCase{
		docs:      docs,
		stamper:   stamper,
		issuerRFC: issuerRFC,
		log:       log.With().Str("component", "cancel").Logger(),
	}
}

// Cancel solicita la cancelación del UUID con el motivo dado.
// Un rechazo del PAC se devuelve como UpstreamFailure y deja el comprobante en
// ERROR_CANCELACION, desde donde puede volver a intentarse.
func (uc *CancelUseCase) Cancel(ctx context.Context, uuid, motivo, folioSustitucion string) (*CancelResult, error) {
	uuid = strings.ToUpper(strings.TrimSpace(uuid))
	if uuid == "" {
		return nil, fmt.Errorf("uuid vacío: %w", domain.ErrInvalidInput)
	}
	doc, err := uc.docs.GetByUUID(ctx, uuid)
	if err != nil {
		return nil, fmt.Errorf("buscar comprobante: %w", err)
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	switch doc.Status {
	case entity.StatusCancelado:
		return nil, fmt.Errorf("comprobante %s ya cancelado: %w", uuid, domain.ErrConflict)
	case entity.StatusTimbrado, entity.StatusCancelacionError:
	default:
		return nil, fmt.Errorf("comprobante %s en estado %s: %w", uuid, doc.Status, domain.ErrConflict)
	}

	res := uc.stamper.Cancel(ctx, pac.CancelRequest{
		UUID:             uuid,
		RFCEmisor:        firstNonEmpty(doc.IssuerRFC, uc.issuerRFC),
		Motivo:           motivo,
		FolioSustitucion: folioSustitucion,
	})
	if !res.Success {
		msg := firstNonEmpty(res.Message, "cancelación rechazada")
		uc.log.Warn().Str("uuid", uuid).Str("motivo", motivo).Str("mensaje", msg).Msg("cancelación rechazada")
		if err := uc.docs.UpdateStatus(ctx, doc.ID, entity.StatusCancelacionError, msg); err != nil {
			uc.log.Error().Err(err).Str("uuid", uuid).Msg("no se pudo marcar el error de cancelación")
		}
		return nil, &domain.UpstreamFailure{Service: "pac", Message: msg}
	}

	if err := uc.docs.UpdateStatus(ctx, doc.ID, entity.StatusCancelado, res.Status); err != nil {
		uc.log.Error().Err(err).Str("uuid", uuid).Msg("cancelado ante el PAC pero sin guardar el estado")
		return nil, fmt.Errorf("guardar cancelación: %w", err)
	}
	uc.log.Info().Str("uuid", uuid).Str("estatus", res.Status).Msg("comprobante cancelado")
	return &CancelResult{UUID: uuid, Status: res.Status, Acuse: res.Acuse}, nil
}
