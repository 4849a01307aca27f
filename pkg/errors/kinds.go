package errors

import (
	"errors"
	"fmt"
)

// Kind classifies domain errors so callers can branch on recoverability.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindState        Kind = "state"
	KindNotFound     Kind = "not_found"
	KindTimeout      Kind = "timeout"
	KindExternal     Kind = "external"
	KindBusinessRule Kind = "business_rule"
)

// Classified is implemented by errors that know their Kind.
type Classified interface {
	error
	ErrorKind() Kind
}

// KindOf returns the Kind of the first classified error in err's chain.
func KindOf(err error) (Kind, bool) {
	var c Classified
	if errors.As(err, &c) {
		return c.ErrorKind(), true
	}
	return "", false
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// ValidationError is raised for malformed construction arguments.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) ErrorKind() Kind { return KindValidation }

// StateTransitionError is raised when a transition guard rejects the current state.
type StateTransitionError struct {
	Aggregate string
	Action    string
	From      string
}

// NewStateTransitionError creates a StateTransitionError.
func NewStateTransitionError(aggregate, action, from string) *StateTransitionError {
	return &StateTransitionError{Aggregate: aggregate, Action: action, From: from}
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s %s in status %s", e.Action, e.Aggregate, e.From)
}

func (e *StateTransitionError) ErrorKind() Kind { return KindState }

// NotFoundError is raised when a lookup by id misses.
type NotFoundError struct {
	Resource string
	ID       string
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) ErrorKind() Kind { return KindNotFound }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return IsKind(err, KindNotFound)
}
