package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrNotFound               = errors.New("not found")
	ErrInconsistentRecipients = errors.New("inconsistent recipients")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrConflict               = errors.New("conflict")
)

// ValidationError reports a rejected request parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type NotFoundError struct {
	Resource string
	ID       int64
}

func NewNotFoundError(resource string, id int64) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InconsistentRecipientsError lists requested recipient ids that do not resolve to users.
type InconsistentRecipientsError struct {
	Missing []int64
}

func (e *InconsistentRecipientsError) Error() string {
	ids := make([]string, len(e.Missing))
	for i, id := range e.Missing {
		ids[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("recipients not found: %s", strings.Join(ids, ","))
}

func (e *InconsistentRecipientsError) Unwrap() error { return ErrInconsistentRecipients }

type TransitionError struct {
	From AlertStatus
	To   AlertStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("alert status cannot change from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
