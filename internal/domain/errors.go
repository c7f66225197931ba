package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateSlug is returned when an event slug collides with an existing event.
	ErrDuplicateSlug = errors.New("event slug already exists")
)

// ConfigurationError reports missing or invalid operator configuration.
// It is not recoverable without changing the environment.
type ConfigurationError struct {
	Key     string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("configuration: %s: %s", e.Key, e.Message)
	}
	return fmt.Sprintf("configuration: %s is not set", e.Key)
}

// ConnectionError reports a failed attempt to reach the database. A later call may succeed.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("database connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ValidationError maps each offending field to the reason it was rejected.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

// ReferenceError reports that a booking points at an event that is missing or could not be checked.
// Err is nil when the event was confirmed missing.
type ReferenceError struct {
	EventID string
	Err     error
}

func (e *ReferenceError) Error() string {
	if e.Err != nil {
		return "failed to validate event reference"
	}
	return fmt.Sprintf("event with ID %s does not exist", e.EventID)
}

func (e *ReferenceError) Unwrap() error { return e.Err }

// Unverifiable is true when the existence lookup itself failed.
func (e *ReferenceError) Unverifiable() bool { return e.Err != nil }
