package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a reference to a nonexistent entity.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateRegistration marks a second registration for the same (user, event) pair.
	ErrDuplicateRegistration = errors.New("user is already registered for this event")
	// ErrValidation marks malformed input, rejected before any persistence.
	ErrValidation = errors.New("validation failed")
	// ErrDependencyUnavailable marks a storage or group-store failure.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError reports one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// DependencyError wraps a failure of the store behind an operation.
type DependencyError struct {
	Op  string
	Err error
}

// Unavailable wraps err as a DependencyError for op.
func Unavailable(op string, err error) error {
	return &DependencyError{Op: op, Err: err}
}

func (e *DependencyError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *DependencyError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrDependencyUnavailable) match.
func (e *DependencyError) Is(target error) bool { return target == ErrDependencyUnavailable }
