// Package catalog carga al arranque los catálogos del SAT que no caben como
// constantes: c_ClaveProdServ (CSV) y las tablas de unidades y materiales peligrosos (YAML).
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	domcfdi "github.com/jhoicas/cfdi-api/internal/domain/cfdi"
)

// productRow fila del CSV de productos/servicios.
type productRow struct {
	Code        string `csv:"clave"`
	Description string `csv:"descripcion"`
	Hazardous   string `csv:"material_peligroso"`
}

// Tables tablas auxiliares en YAML.
type Tables struct {
	Units     []string `yaml:"claves_unidad"`
	Hazardous []string `yaml:"materiales_peligrosos"`
}

// Load lee ambos archivos; una ruta vacía se omite y deja esa parte del catálogo vacía.
func Load(productsPath, tablesPath string) (*domcfdi.Catalog, error) {
	var products []domcfdi.ProductService
	if productsPath != "" {
		f, err := os.Open(productsPath)
		if err != nil {
			return nil, fmt.Errorf("catalog: abrir %s: %w", productsPath, err)
		}
		defer f.Close()
		if products, err = ReadProducts(f); err != nil {
			return nil, fmt.Errorf("catalog: %s: %w", productsPath, err)
		}
	}

	var tables Tables
	if tablesPath != "" {
		data, err := os.ReadFile(tablesPath)
		if err != nil {
			return nil, fmt.Errorf("catalog: leer %s: %w", tablesPath, err)
		}
		if tables, err = ParseTables(data); err != nil {
			return nil, fmt.Errorf("catalog: %s: %w", tablesPath, err)
		}
	}
	return domcfdi.NewCatalog(products, tables.Units, tables.Hazardous), nil
}

// ReadProducts lee el CSV (separado por comas, con encabezado).
func ReadProducts(r io.Reader) ([]domcfdi.ProductService, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []*productRow
	if err := gocsv.UnmarshalCSV(cr, &rows); err != nil {
		return nil, fmt.Errorf("leer productos: %w", err)
	}
	out := make([]domcfdi.ProductService, 0, len(rows))
	for _, row := range rows {
		out = append(out, domcfdi.ProductService{
			Code:        row.Code,
			Description: row.Description,
			Hazardous:   row.Hazardous,
		})
	}
	return out, nil
}

// ParseTables decodifica el YAML de tablas auxiliares.
func ParseTables(data []byte) (Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tables{}, fmt.Errorf("leer tablas: %w", err)
	}
	return t, nil
}
