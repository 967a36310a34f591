package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// ErrMissingRequiredField agrupa todos los MissingRequiredFieldError (errors.Is).
	ErrMissingRequiredField = errors.New("campo obligatorio vacío")
	// ErrStructural agrupa todos los StructuralValidationError (errors.Is).
	ErrStructural = errors.New("estructura del documento inválida")
	// ErrUpstream agrupa fallas del PAC o de documentos externos.
	ErrUpstream = errors.New("falla en servicio externo")
)

// MissingRequiredFieldError un atributo o elemento obligatorio quedó vacío.
// Siempre aborta la construcción del documento.
type MissingRequiredFieldError struct {
	Field string
	Path  string // elemento contenedor, ej. "cartaporte31:Ubicacion"
}

func (e *MissingRequiredFieldError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("campo obligatorio vacío: %s (en %s)", e.Field, e.Path)
	}
	return "campo obligatorio vacío: " + e.Field
}

// Is permite errors.Is(err, ErrMissingRequiredField).
func (e *MissingRequiredFieldError) Is(target error) bool { return target == ErrMissingRequiredField }

// StructuralValidationError cardinalidad violada (ubicaciones, mercancías, figuras, tipo de transporte).
type StructuralValidationError struct {
	Section string
	Reason  string
}

func (e *StructuralValidationError) Error() string {
	return fmt.Sprintf("estructura inválida en %s: %s", e.Section, e.Reason)
}

// Is permite errors.Is(err, ErrStructural).
func (e *StructuralValidationError) Is(target error) bool { return target == ErrStructural }

// UpstreamFailure falla del PAC o de un documento externo. Normalmente viaja dentro
// de un objeto resultado; solo se devuelve como error cuando el llamador no tiene fallback.
type UpstreamFailure struct {
	Service string
	Message string
	Err     error
}

func (e *UpstreamFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Service, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}

func (e *UpstreamFailure) Unwrap() error { return e.Err }

// Is permite errors.Is(err, ErrUpstream).
func (e *UpstreamFailure) Is(target error) bool { return target == ErrUpstream }

// ErrorKind clasificación de un error para que los llamadores ramifiquen sin comparar mensajes.
type ErrorKind string

const (
	KindNone            ErrorKind = ""
	KindMissingRequired ErrorKind = "MISSING_REQUIRED_FIELD"
	KindStructural      ErrorKind = "STRUCTURAL_VALIDATION"
	KindUpstream        ErrorKind = "UPSTREAM_FAILURE"
	KindInvalidInput    ErrorKind = "VALIDATION"
	KindNotFound        ErrorKind = "NOT_FOUND"
	KindInternal        ErrorKind = "INTERNAL"
)

// Classify devuelve la clase del error.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrMissingRequiredField):
		return KindMissingRequired
	case errors.Is(err, ErrStructural):
		return KindStructural
	case errors.Is(err, ErrUpstream):
		return KindUpstream
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// MissingField atajo para construir un MissingRequiredFieldError.
func MissingField(field, path string) error {
	return &MissingRequiredFieldError{Field: field, Path: path}
}

// Structural atajo para construir un StructuralValidationError.
func Structural(section, format string, args ...any) error {
	return &StructuralValidationError{Section: section, Reason: fmt.Sprintf(format, args...)}
}
