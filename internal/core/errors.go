// Package core provides core types and interfaces for the city cost lookup service.
package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind represents the category of a lookup failure
type ErrorKind string

const (
	// KindValidation indicates bad or missing input (400)
	KindValidation ErrorKind = "validation_error"
	// KindConfiguration indicates a deployment misconfiguration, such as a missing API key (500)
	KindConfiguration ErrorKind = "configuration_error"
	// KindUpstream indicates a third-party provider failure (500, carries provider status and body)
	KindUpstream ErrorKind = "upstream_error"
	// KindStorage indicates a remote cache restore or cache write failure (500)
	KindStorage ErrorKind = "storage_error"
)

// Error is the base error type for all lookup errors
type Error struct {
	Kind    ErrorKind
	Message string
	// Provider names the upstream for upstream errors
	Provider string
	// Status is the provider HTTP status for upstream errors, 0 otherwise
	Status int
	// Body is the raw provider response body for upstream errors
	Body []byte
	// Original error for debugging (not exposed to clients)
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Kind == KindUpstream && e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Kind, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the status the HTTP boundary answers with for this error.
// Upstream errors are surfaced as 500 regardless of the provider status.
func (e *Error) HTTPStatusCode() int {
	if e.Kind == KindValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Details returns the diagnostic payload for the error envelope, or nil.
// JSON provider bodies are passed through as-is; anything else becomes a string.
func (e *Error) Details() any {
	if len(e.Body) == 0 {
		return nil
	}
	if json.Valid(e.Body) {
		return json.RawMessage(e.Body)
	}
	return string(e.Body)
}

// ToJSON converts the error to the {error, details?} envelope
func (e *Error) ToJSON() map[string]any {
	out := map[string]any{"error": e.Message}
	if details := e.Details(); details != nil {
		out["details"] = details
	}
	return out
}

// NewValidationError creates a new validation error (400)
func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(message string) *Error {
	return &Error{Kind: KindConfiguration, Message: message}
}

// NewUpstreamError creates a new upstream error carrying the provider status and body
func NewUpstreamError(provider string, status int, body []byte, err error) *Error {
	return &Error{
		Kind:     KindUpstream,
		Message:  fmt.Sprintf("%s request failed", provider),
		Provider: provider,
		Status:   status,
		Body:     body,
		Err:      err,
	}
}

// NewStorageError creates a new storage error
func NewStorageError(message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

// KindOf returns the ErrorKind of err, or "" if err is not a lookup error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsConfiguration reports whether err is a configuration error
func IsConfiguration(err error) bool { return KindOf(err) == KindConfiguration }

// IsUpstream reports whether err is an upstream error
func IsUpstream(err error) bool { return KindOf(err) == KindUpstream }

// IsStorage reports whether err is a storage error
func IsStorage(err error) bool { return KindOf(err) == KindStorage }
