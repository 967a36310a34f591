package cfdi

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// CCPPattern formato del IdCCP: "CCP" seguido de los grupos 5-4-4-4-12 de un UUID.
var CCPPattern = regexp.MustCompile(`^CCP[0-9A-F]{5}-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{12}$`)

// CCPGenerator produce identificadores IdCCP. Se inyecta en los builders para fijarlo en pruebas.
type CCPGenerator func() string

// NewCCP genera un IdCCP aleatorio de 36 caracteres.
func NewCCP() string { return FormatCCP(uuid.New()) }

// FormatCCP sustituye los tres primeros caracteres del UUID en mayúsculas por "CCP".
func FormatCCP(id uuid.UUID) string {
	return "CCP" + strings.ToUpper(id.String())[3:]
}

// IsValidCCP indica si s cumple el formato del IdCCP.
func IsValidCCP(s string) bool { return CCPPattern.MatchString(s) }
