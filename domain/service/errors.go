package service

import (
	"errors"
	"fmt"
)

// Error kinds shared by the domain, application and infrastructure layers.
var (
	// ErrModelUnavailable indicates the embedding model could not be loaded.
	// It persists until the process restarts.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// ErrUpstreamUnavailable indicates the vector store or relational store
	// failed or rejected a call.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrDimensionMismatch indicates a vector whose length differs from the
	// configured embedding dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrValidation indicates a request was rejected before any upstream call.
	ErrValidation = errors.New("validation error")

	// ErrNotImplemented marks a designed but unavailable capability.
	ErrNotImplemented = errors.New("not implemented")
)

// UpstreamError describes a failed call to an external store.
type UpstreamError struct {
	Service string
	Op      string
	Err     error
}

// NewUpstreamError wraps err as a failure of op against service.
func NewUpstreamError(service, op string, err error) *UpstreamError {
	return &UpstreamError{Service: service, Op: op, Err: err}
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

// Unwrap exposes both the underlying cause and ErrUpstreamUnavailable.
func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstreamUnavailable, e.Err}
}

// ValidationError describes an invalid request field.
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

// Unwrap makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
