package cfdi_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-api/internal/domain"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/cfdi"
)

func TestElementAttr(t *testing.T) {
	doc := cfdi.NewDocument()
	root := doc.Root("cfdi:Comprobante")

	assert.NoError(t, root.Attr("Serie", "  A  ", true))
	assert.NoError(t, root.Attr("Folio", "   ", false), "opcional vacío no se emite")

	err := root.Attr("Fecha", "", true)
	var mrf *domain.MissingRequiredFieldError
	require.True(t, errors.As(err, &mrf))
	assert.Equal(t, "Fecha", mrf.Field)
	assert.Equal(t, "cfdi:Comprobante", mrf.Path)

	_, err = doc.String()
	assert.ErrorIs(t, err, domain.ErrMissingRequiredField, "un documento con error no se serializa")
}

func TestElementAttr_RecortaYOmiteOpcionales(t *testing.T) {
	doc := cfdi.NewDocument()
	doc.Root("cfdi:Comprobante").
		Required("Serie", "  A  ").
		Optional("Folio", "").
		Child("cfdi:Emisor").Required("Rfc", "EKU9003173C9")

	xml, err := doc.String()
	require.NoError(t, err)
	assert.Contains(t, xml, `Serie="A"`)
	assert.NotContains(t, xml, "Folio")
	assert.Contains(t, xml, `<cfdi:Emisor Rfc="EKU9003173C9"/>`)
}

func TestElementAttr_PrimerErrorGana(t *testing.T) {
	doc := cfdi.NewDocument()
	doc.Root("cfdi:Comprobante").
		Required("Version", "").
		Required("Total", "")

	var mrf *domain.MissingRequiredFieldError
	require.True(t, errors.As(doc.Err(), &mrf))
	assert.Equal(t, "Version", mrf.Field)
}
