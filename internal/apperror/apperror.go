// Package apperror defines the error kinds shared by repositories, services
// and HTTP handlers. Every error surfaced to a caller wraps exactly one of the
// sentinel kinds below so handlers can branch with errors.Is.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrReferenceNotFound = errors.New("reference not found")
	ErrSchemaMissing     = errors.New("schema missing")
	ErrConflict          = errors.New("conflict")
	ErrUnavailable       = errors.New("upstream unavailable")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthorized      = errors.New("unauthorized")
)

type AppError struct {
	Err     error    // one of the sentinel kinds
	Message string   // human-readable message, safe to return to clients
	Field   string   // optional: the single field or reference at fault
	Fields  []string // optional: every field at fault (validation)
	Cause   error    // optional: underlying driver or network error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause, so errors.Is works against the
// sentinel and errors.As can still reach a driver error.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// MissingFields reports absent required input. The message lists every field.
func MissingFields(fields ...string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: "missing required fields: " + strings.Join(fields, ", "),
		Fields:  fields,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// ReferenceNotFound names the reference ("owner", "sitter", "dog") that did
// not resolve in any key space.
func ReferenceNotFound(ref string) *AppError {
	msg := "invalid reference"
	if ref != "" {
		msg = "invalid " + ref
	}
	return &AppError{
		Err:     ErrReferenceNotFound,
		Message: msg,
		Field:   ref,
	}
}

// SchemaMissing reports a deployment defect: the table is absent or none of
// the accepted column names exist on it.
func SchemaMissing(table string, columns ...string) *AppError {
	msg := fmt.Sprintf("table %s does not exist", table)
	if len(columns) > 0 {
		msg = fmt.Sprintf("table %s has none of the columns [%s]", table, strings.Join(columns, ", "))
	}
	return &AppError{
		Err:     ErrSchemaMissing,
		Message: msg,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

func Unavailable(cause error) *AppError {
	return &AppError{
		Err:     ErrUnavailable,
		Message: "database unavailable",
		Cause:   cause,
	}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
