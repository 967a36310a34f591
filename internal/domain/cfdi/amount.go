// Package cfdi contiene las reglas puras del motor CFDI: formateo de importes,
// validación contra catálogos e identificadores del complemento Carta Porte.
package cfdi

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Escalas fijadas por el SAT para cada tipo de valor.
const (
	ScaleAmount   int32 = 2 // importes y distancias
	ScaleWeight   int32 = 3 // pesos en kg
	ScaleRate     int32 = 6 // tasas o cuotas
	ScaleQuantity int32 = 6 // cantidades
)

// MinWeight peso mínimo aceptado para PesoEnKg y PesoBrutoTotal cuando el dato no es utilizable.
const MinWeight = "0.001"

// Límites de DistanciaRecorrida / TotalDistRec.
var (
	MinDistance = decimal.RequireFromString("0.01")
	MaxDistance = decimal.RequireFromString("99999")
)

// IVARate tasa general de IVA.
var IVARate = decimal.RequireFromString("0.16")

// ParseDecimal interpreta un texto decimal. Acepta separador de miles con coma.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Round redondea HALF_UP a la escala indicada. Los valores del dominio nunca son
// negativos, por lo que el "half away from zero" de decimal coincide con HALF_UP.
func Round(d decimal.Decimal, scale int32) decimal.Decimal {
	return d.Round(scale)
}

// Format devuelve el texto con exactamente scale decimales.
func Format(d decimal.Decimal, scale int32) string {
	return d.Round(scale).StringFixed(scale)
}

func FormatAmount(d decimal.Decimal) string   { return Format(d, ScaleAmount) }
func FormatWeight(d decimal.Decimal) string   { return Format(d, ScaleWeight) }
func FormatRate(d decimal.Decimal) string     { return Format(d, ScaleRate) }
func FormatQuantity(d decimal.Decimal) string { return Format(d, ScaleQuantity) }

// FormatText formatea un texto numérico; ok=false si no es interpretable.
func FormatText(s string, scale int32) (string, bool) {
	d, ok := ParseDecimal(s)
	if !ok {
		return "", false
	}
	return Format(d, scale), true
}

// WeightOrMinimum formatea un peso a 3 decimales. Vacío, no numérico, cero o
// negativo devuelve MinWeight: la generación del documento no se bloquea por un peso mal capturado.
func WeightOrMinimum(s string) string {
	d, ok := ParseDecimal(s)
	if !ok {
		return MinWeight
	}
	r := Round(d, ScaleWeight)
	if !r.IsPositive() {
		return MinWeight
	}
	return FormatWeight(r)
}

// QuantityOrOne formatea una cantidad a 6 decimales; si no es positiva devuelve 1.
func QuantityOrOne(s string) string {
	d, ok := ParseDecimal(s)
	if !ok || !Round(d, ScaleQuantity).IsPositive() {
		return FormatQuantity(decimal.NewFromInt(1))
	}
	return FormatQuantity(d)
}

// DistanceInRange indica si el valor original (sin redondear) está en [0.01, 99999].
func DistanceInRange(d decimal.Decimal) bool {
	return d.GreaterThanOrEqual(MinDistance) && d.LessThanOrEqual(MaxDistance)
}

// ParseDistance interpreta una distancia. Fuera de rango o no numérica ⇒ ok=false;
// el valor devuelto ya está redondeado a 2 decimales.
func ParseDistance(s string) (decimal.Decimal, bool) {
	d, ok := ParseDecimal(s)
	if !ok || !DistanceInRange(d) {
		return decimal.Zero, false
	}
	return Round(d, ScaleAmount), true
}

// TaxOf calcula base × tasa redondeado a 2 decimales.
func TaxOf(base, rate decimal.Decimal) decimal.Decimal {
	return Round(base.Mul(rate), ScaleAmount)
}
