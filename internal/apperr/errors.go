// Package apperr defines the error taxonomy shared by the gate, the dispatch
// engine and the HTTP layer. Lower layers wrap these sentinels with %w and the
// handler package maps them onto status codes in one place.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationRequired means there is no live session behind the request.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrAuthorizationDenied means the session is valid but its role or
	// ownership does not permit the operation.
	ErrAuthorizationDenied = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	// ErrConflict is returned when a state transition is not legal from the
	// record's current state, or a unique key already exists.
	ErrConflict = errors.New("conflict")
	// ErrUpstream marks a failed call to an external collaborator (LLM, broker).
	ErrUpstream = errors.New("upstream service failure")
)

// ValidationError reports malformed input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validation builds a *ValidationError.
func Validation(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// AsValidation unwraps err into a *ValidationError when possible.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
