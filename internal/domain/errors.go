package domain

import (
	"errors"
	"fmt"
)

// Common errors used throughout the application.
var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNoAPIKeys         = errors.New("no API keys configured")
	ErrInvalidAPIKey     = errors.New("invalid API key")
	ErrBootstrapDisabled = errors.New("bootstrap key disabled - API keys exist")
)

// StructuralError reports a malformed topology document. It fails the run
// before the validator gets a chance to execute.
type StructuralError struct {
	Err error
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	return fmt.Sprintf("malformed topology document: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *StructuralError) Unwrap() error { return e.Err }

// APIError represents an error response from the API.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}
