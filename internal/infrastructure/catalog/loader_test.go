package catalog_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domcfdi "github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/catalog"
)

const productsCSV = `clave,descripcion,material_peligroso
78101800,Transporte de carga por carretera,0
84111506,Servicios de facturación,0
12352104,Ácido sulfúrico,1
`

const tablesYAML = `
claves_unidad: [H87, KGM, E48, ACT]
materiales_peligrosos:
  - "1830"
  - "1266"
`

func TestReadProducts(t *testing.T) {
	products, err := catalog.ReadProducts(strings.NewReader(productsCSV))
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "12352104", products[2].Code)
	assert.Equal(t, "1", products[2].Hazardous)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "productos.csv")
	yamlPath := filepath.Join(dir, "tablas.yaml")
	require.NoError(t, os.WriteFile(csvPath, []byte(productsCSV), 0o600))
	require.NoError(t, os.WriteFile(yamlPath, []byte(tablesYAML), 0o600))

	c, err := catalog.Load(csvPath, yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	v := domcfdi.NewCatalogValidator(c)
	assert.Nil(t, v.UnitKey("H87"))
	assert.NotNil(t, v.UnitKey("XXX"))
	assert.Nil(t, v.HazardousKey("1830"))
	assert.NotNil(t, v.HazardousKey("9999"))
}

func TestLoad_RutasVacias(t *testing.T) {
	c, err := catalog.Load("", "")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestLoad_ArchivoInexistente(t *testing.T) {
	_, err := catalog.Load("/no/existe.csv", "")
	assert.Error(t, err)
}
