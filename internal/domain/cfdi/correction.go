package cfdi

import "fmt"

// Correction registra un valor presente pero inválido según catálogo o régimen que
// se sustituyó por un valor seguro. Nunca aborta la generación del documento.
type Correction struct {
	Field    string `json:"field"`
	Original string `json:"original"`
	Applied  string `json:"applied"`
	Reason   string `json:"reason"`
}

func (c Correction) String() string {
	return fmt.Sprintf("%s: %q → %q (%s)", c.Field, c.Original, c.Applied, c.Reason)
}

// Corrections acumulador de correcciones de un documento.
type Corrections []Correction

// Add agrega la corrección si no es nil.
func (cs *Corrections) Add(c *Correction) {
	if c != nil {
		*cs = append(*cs, *c)
	}
}
