package recommendation

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies why a recommendation request failed
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindEmptyGeneration
	KindUpstream
	KindPersistence
)

// Client-facing classifications
const (
	ClassInvalidInput = "invalid-input"
	ClassServerError  = "server-error"
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindEmptyGeneration:
		return "empty_generation"
	case KindUpstream:
		return "upstream_error"
	case KindPersistence:
		return "persistence_failure"
	default:
		return "unknown"
	}
}

// Classification maps the kind to what the caller is told about it
func (k Kind) Classification() string {
	if k == KindInvalidInput {
		return ClassInvalidInput
	}
	return ClassServerError
}

// HTTPStatus maps the kind to the status code returned at the HTTP boundary
func (k Kind) HTTPStatus() int {
	if k == KindInvalidInput {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// Error is a failure scoped to a single request. Detail is safe to show to the caller;
// Err keeps the underlying cause for logs and errors.Is/As.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil || strings.HasSuffix(e.Detail, e.Err.Error()) {
		return e.Detail
	}
	return fmt.Sprintf("%s: %v", e.Detail, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// User-facing messages for server-side failures
const (
	msgEmptyGeneration = "El modelo no ha generado recomendaciones."
	msgUpstream        = "Error al procesar la solicitud"
	msgPersistence     = "Error al guardar en la base de datos."
)

// InvalidInput wraps a validation failure
func InvalidInput(err error) *Error {
	return &Error{Kind: KindInvalidInput, Detail: err.Error(), Err: err}
}

// EmptyGeneration reports a completion that was blank after trimming
func EmptyGeneration() *Error {
	return &Error{Kind: KindEmptyGeneration, Detail: msgEmptyGeneration}
}

// Upstream reports a failed call to the generation provider
func Upstream(cause error) *Error {
	return &Error{Kind: KindUpstream, Detail: fmt.Sprintf("%s: %v", msgUpstream, cause), Err: cause}
}

// Persistence reports a failed insert; the transaction has already been rolled back
func Persistence(cause error) *Error {
	return &Error{Kind: KindPersistence, Detail: msgPersistence, Err: cause}
}

// KindOf returns the kind carried by err, or KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// InputError describes which field was rejected and why
type InputError struct {
	Field   string
	Value   string
	Allowed []string
	message string
}

func (e *InputError) Error() string {
	return e.message
}

// fieldLabels holds the article and noun used in the enum rejection messages
var fieldLabels = map[string]struct {
	subject string
	valid   string
}{
	"tipo":   {subject: "El tipo", valid: "válido"},
	"edad":   {subject: "La edad", valid: "válida"},
	"genero": {subject: "El género", valid: "válido"},
}

func newEnumError(field, value string, allowed []string) *InputError {
	label := fieldLabels[field]
	return &InputError{
		Field:   field,
		Value:   value,
		Allowed: allowed,
		message: fmt.Sprintf("%s '%s' no es %s. Los valores permitidos son: %s.",
			label.subject, value, label.valid, strings.Join(allowed, ", ")),
	}
}

func newCountError(value int, max int) *InputError {
	return &InputError{
		Field:   "cantidad",
		Value:   fmt.Sprint(value),
		message: fmt.Sprintf("La cantidad máxima permitida es %d.", max),
	}
}

func newRequiredError(field string) *InputError {
	return &InputError{
		Field:   field,
		message: fmt.Sprintf("El campo '%s' es obligatorio.", field),
	}
}
