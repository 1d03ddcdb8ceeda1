package domain

import (
	"errors"
	"fmt"
)

// ErrWizardTerminated is returned when a transition is requested on a wizard
// that already finished or was cancelled.
var ErrWizardTerminated = errors.New("wizard already terminated")

// ErrReadOnlyRebind is returned when a read-only editor session is asked to
// bind a different domain object.
var ErrReadOnlyRebind = errors.New("read-only editor cannot be rebound")

// ErrAssertionNotFound is returned when an assertion id cannot be found in the store.
var ErrAssertionNotFound = errors.New("assertion not found")

// ErrRunNotFound is returned when a wizard run id is unknown.
var ErrRunNotFound = errors.New("wizard run not found")

// ValidationError is a single, user-correctable constraint violation.
// It blocks a commit or an advance but never closes the dialog.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// AsValidation extracts a ValidationError from err's chain.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// ConfigurationError signals a caller bug detected at construction time,
// such as a nil domain object or a cyclic step chain.
type ConfigurationError struct {
	Component string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s configuration: %s", e.Component, e.Reason)
}

// LookupError reports that an external registry could not be enumerated.
// Controls fed by the lookup degrade to an empty list.
type LookupError struct {
	Source string
	Err    error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("failed to look up %s: %v", e.Source, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}
