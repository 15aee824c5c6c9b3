// Package apperr holds the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// PreconditionError is a business-rule violation. Message is safe to show to the user.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string { return e.Message }

// Precondition returns a *PreconditionError carrying msg.
func Precondition(msg string) error {
	return &PreconditionError{Message: msg}
}

// IsPrecondition reports whether err wraps a PreconditionError and returns it.
func IsPrecondition(err error) (*PreconditionError, bool) {
	var pe *PreconditionError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// ValidationError maps form field names to their messages.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

// Add appends msg to field. An empty field name is a form-wide error.
func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty reports whether no field has errors.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// Err returns e as an error, or nil when it holds no messages.
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, n := range names {
		label := n
		if label == "" {
			label = "form"
		}
		parts = append(parts, label+": "+strings.Join(e.Fields[n], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// IsValidation reports whether err wraps a ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
