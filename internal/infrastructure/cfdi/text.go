package cfdi

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/cfdi-api/pkg/sat"
)

// mexicoTime hora del centro de México. Sin horario de verano desde 2022.
var mexicoTime = time.FixedZone("CST", -6*60*60)

const fechaLayout = "2006-01-02T15:04:05"

func formatFecha(t time.Time) string { return t.In(mexicoTime).Format(fechaLayout) }

// normalizeName nombre o razón social en NFC, mayúsculas y espacios simples, como
// aparece en la constancia de situación fiscal. cases.Caser no es seguro entre
// goroutines, por eso se crea en cada llamada.
func normalizeName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return cases.Upper(language.Spanish).String(norm.NFC.String(s))
}

// postalCodeOr devuelve cp si es utilizable; si no, el de respaldo.
func postalCodeOr(cp, fallback string) string {
	cp = strings.TrimSpace(cp)
	if sat.IsUsablePostalCode(cp) {
		return cp
	}
	return strings.TrimSpace(fallback)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
