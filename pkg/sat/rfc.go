package sat

import (
	"fmt"
	"regexp"
	"strings"
)

// PersonType tipo de persona inferido del RFC.
type PersonType int

const (
	PersonUnknown PersonType = iota
	PersonIndividual         // persona física (RFC de 13 caracteres)
	PersonLegalEntity        // persona moral (RFC de 12 caracteres)
)

// String nombre legible para logs.
func (p PersonType) String() string {
	switch p {
	case PersonIndividual:
		return "fisica"
	case PersonLegalEntity:
		return "moral"
	default:
		return "desconocida"
	}
}

// RFCs genéricos del SAT.
const (
	RFCPublicoGeneral = "XAXX010101000"
	RFCExtranjero     = "XEXX010101000"
)

// Estructura del RFC: 3 (moral) o 4 (física) letras, fecha AAMMDD y homoclave de 3.
var rfcPattern = regexp.MustCompile(`^[A-ZÑ&]{3,4}[0-9]{6}[A-Z0-9]{3}$`)

// NormalizeRFC quita espacios y guiones y pasa a mayúsculas.
func NormalizeRFC(rfc string) string {
	r := strings.ToUpper(strings.TrimSpace(rfc))
	r = strings.ReplaceAll(r, "-", "")
	return strings.ReplaceAll(r, " ", "")
}

// PersonTypeFromRFC infiere el tipo de persona por longitud: 13 ⇒ física, 12 ⇒ moral.
func PersonTypeFromRFC(rfc string) PersonType {
	switch len([]rune(NormalizeRFC(rfc))) {
	case 13:
		return PersonIndividual
	case 12:
		return PersonLegalEntity
	default:
		return PersonUnknown
	}
}

// ValidateRFC valida la estructura del RFC (no consulta la lista de contribuyentes del SAT).
func ValidateRFC(rfc string) error {
	r := NormalizeRFC(rfc)
	if r == "" {
		return fmt.Errorf("sat: RFC vacío")
	}
	if !rfcPattern.MatchString(r) {
		return fmt.Errorf("sat: RFC %q con formato inválido", r)
	}
	return nil
}

var postalCodePattern = regexp.MustCompile(`^[0-9]{5}$`)

// IsUsablePostalCode indica si el CP puede enviarse al PAC (5 dígitos y distinto de 00000).
func IsUsablePostalCode(cp string) bool {
	cp = strings.TrimSpace(cp)
	return postalCodePattern.MatchString(cp) && cp != PostalCodePlaceholder
}
