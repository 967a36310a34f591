package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/cfdi-api/internal/domain"
)

func TestClassify(t *testing.T) {
	wrapped := fmt.Errorf("construir carta porte: %w", domain.MissingField("RFCRemitenteDestinatario", "Ubicacion"))

	assert.Equal(t, domain.KindMissingRequired, domain.Classify(wrapped))
	assert.Equal(t, domain.KindStructural, domain.Classify(domain.Structural("Ubicaciones", "se requieren al menos %d", 2)))
	assert.Equal(t, domain.KindUpstream, domain.Classify(&domain.UpstreamFailure{Service: "pac", Message: "timeout"}))
	assert.Equal(t, domain.KindNone, domain.Classify(nil))
	assert.Equal(t, domain.KindInternal, domain.Classify(errors.New("otro")))
}

func TestMissingRequiredFieldError_NombraElCampo(t *testing.T) {
	err := domain.MissingField("RFCRemitenteDestinatario", "cartaporte31:Ubicacion")

	var mrf *domain.MissingRequiredFieldError
	assert.True(t, errors.As(err, &mrf))
	assert.Equal(t, "RFCRemitenteDestinatario", mrf.Field)
	assert.Contains(t, err.Error(), "RFCRemitenteDestinatario")
}
