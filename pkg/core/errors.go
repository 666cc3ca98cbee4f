// Package core holds the canonical error taxonomy shared by the practice
// engine, the provider clients, and the HTTP gateway.
package core

import (
	"fmt"
)

// ErrorType categorizes errors.
type ErrorType string

const (
	// Fatal at startup: required configuration is missing or invalid.
	ErrConfig ErrorType = "config_error"

	// Fatal to the interactive flow: no candidate model is reachable.
	ErrModelUnavailable ErrorType = "model_unavailable_error"

	// Turn-scoped failures. Each aborts (or degrades) a single turn and
	// leaves the session usable.
	ErrTranscription ErrorType = "transcription_error"
	ErrAnalysis      ErrorType = "analysis_error"
	ErrSynthesis     ErrorType = "synthesis_error"

	ErrInvalidRequest ErrorType = "invalid_request_error"
	ErrAuthentication ErrorType = "authentication_error"
	ErrNotFound       ErrorType = "not_found_error"
	ErrRateLimit      ErrorType = "rate_limit_error"
	ErrAPI            ErrorType = "api_error"
)

// Error represents an API error.
type Error struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Param      string    `json:"param,omitempty"`
	Code       string    `json:"code,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	RetryAfter int       `json:"retry_after,omitempty"`

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// WithCause attaches an underlying error and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

// TurnScoped reports whether the error aborts only the current turn,
// leaving the session intact.
func (e *Error) TurnScoped() bool {
	switch e.Type {
	case ErrTranscription, ErrAnalysis, ErrSynthesis:
		return true
	default:
		return false
	}
}

// Fatal reports whether the error halts the interactive flow entirely.
func (e *Error) Fatal() bool {
	return e.Type == ErrConfig || e.Type == ErrModelUnavailable
}

// NewConfigError creates a fatal configuration error.
func NewConfigError(message string) *Error {
	return &Error{Type: ErrConfig, Message: message}
}

// NewModelUnavailableError creates a fatal model-resolution error.
func NewModelUnavailableError(message string) *Error {
	return &Error{Type: ErrModelUnavailable, Message: message}
}

// NewTranscriptionError creates a turn-scoped transcription error.
func NewTranscriptionError(message string) *Error {
	return &Error{Type: ErrTranscription, Message: message}
}

// NewAnalysisError creates a turn-scoped analysis error.
func NewAnalysisError(message string) *Error {
	return &Error{Type: ErrAnalysis, Message: message}
}

// NewSynthesisError creates a turn-scoped synthesis error.
func NewSynthesisError(message string) *Error {
	return &Error{Type: ErrSynthesis, Message: message}
}

// NewInvalidRequestError creates an invalid request error.
func NewInvalidRequestError(message string) *Error {
	return &Error{Type: ErrInvalidRequest, Message: message}
}

// NewInvalidRequestErrorWithParam creates an invalid request error with a parameter.
func NewInvalidRequestErrorWithParam(message, param string) *Error {
	return &Error{Type: ErrInvalidRequest, Message: message, Param: param}
}

// NewAuthenticationError creates an authentication error.
func NewAuthenticationError(message string) *Error {
	return &Error{Type: ErrAuthentication, Message: message}
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(message string) *Error {
	return &Error{Type: ErrNotFound, Message: message}
}

// NewRateLimitError creates a rate limit error.
func NewRateLimitError(message string, retryAfter int) *Error {
	return &Error{Type: ErrRateLimit, Message: message, RetryAfter: retryAfter}
}

// NewAPIError creates a generic API error.
func NewAPIError(message string) *Error {
	return &Error{Type: ErrAPI, Message: message}
}
