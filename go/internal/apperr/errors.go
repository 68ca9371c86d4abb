package apperr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for unknown team/venue/proposal ids
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for malformed input rejected before persistence
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is returned for proposal state machine violations
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrConstraintViolation is returned when a domain constraint is discovered
	// late, e.g. a weekly cap exceeded at acceptance time
	ErrConstraintViolation = errors.New("constraint violation")
)

// ValidationError wraps ErrValidation with a field-level message.
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

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validationf builds a ValidationError for a field.
func Validationf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError identifies the current and requested proposal status
// of a refused transition. The proposal is left untouched.
type InvalidTransitionError struct {
	ProposalID uuid.UUID
	Current    string
	Requested  string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("proposal %s: cannot transition from %s to %s", e.ProposalID, e.Current, e.Requested)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// NotFoundError identifies a missing entity by kind and id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFoundf builds a NotFoundError.
func NotFoundf(kind string, id uuid.UUID) error {
	return &NotFoundError{Kind: kind, ID: id.String()}
}

// ConstraintError wraps ErrConstraintViolation with a reason surfaced to the
// caller, never silently dropped.
type ConstraintError struct {
	Reason string
}

func (e *ConstraintError) Error() string { return e.Reason }

func (e *ConstraintError) Unwrap() error { return ErrConstraintViolation }
