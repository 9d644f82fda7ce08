// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid state for operation")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientCapital = errors.New("stake exceeds available capital")
	ErrAlreadyClosed       = errors.New("session already closed")
	ErrDatabaseError       = errors.New("database error")
	ErrConfigInvalid       = errors.New("invalid configuration")
)

// ValidationError represents a rejected input value.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// StateError represents an operation attempted against an entity whose
// current status does not permit it.
type StateError struct {
	Entity    string
	ID        int64
	Status    string
	Operation string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state error: cannot %s %s %d in status %q", e.Operation, e.Entity, e.ID, e.Status)
}

func (e *StateError) Unwrap() error {
	return ErrInvalidState
}

// NewStateError creates a new StateError.
func NewStateError(entity string, id int64, status, operation string) *StateError {
	return &StateError{
		Entity:    entity,
		ID:        id,
		Status:    status,
		Operation: operation,
	}
}

// CapitalError represents a stake that would exceed available capital.
type CapitalError struct {
	SessionID int64
	Stake     string
	Available string
}

func (e *CapitalError) Error() string {
	return fmt.Sprintf("capital error: session %d stake %s exceeds available %s", e.SessionID, e.Stake, e.Available)
}

func (e *CapitalError) Unwrap() error {
	return ErrInsufficientCapital
}

// NewCapitalError creates a new CapitalError.
func NewCapitalError(sessionID int64, stake, available string) *CapitalError {
	return &CapitalError{
		SessionID: sessionID,
		Stake:     stake,
		Available: available,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
