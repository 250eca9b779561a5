// Package apperror defines the single application error contract
// shared across layers: a stable machine-readable code, an optional
// human-readable message, structured details and an HTTP status hint.
package apperror

import (
	"fmt"
	"net/http"
)

// AppError is the error shape every layer above the repositories
// returns. Code is stable and machine-readable; Message is a fallback
// for humans; Details carries structured diagnostics such as allowed
// field lists.
type AppError struct {
	Code       string
	Message    string
	Details    map[string]interface{}
	HTTPStatus int
	Cause      error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	label := e.Code
	if e.Message != "" {
		label = e.Message
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", label, e.Cause)
	}
	return label
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// New creates an AppError with a stable code.
func New(code string, cause error) *AppError {
	return &AppError{Code: code, Cause: cause}
}

// WithMessage sets the human-readable fallback message.
func (e *AppError) WithMessage(message string) *AppError {
	if e == nil {
		return nil
	}
	e.Message = message
	return e
}

// WithHTTPStatus sets an explicit HTTP status for this error.
func (e *AppError) WithHTTPStatus(status int) *AppError {
	if e == nil {
		return nil
	}
	e.HTTPStatus = status
	return e
}

// WithDetails sets structured error details.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	if e == nil {
		return nil
	}
	e.Details = details
	return e
}

// NewValidation creates a 400 validation error.
func NewValidation(code, message string, details map[string]interface{}) *AppError {
	return New(code, nil).
		WithMessage(message).
		WithHTTPStatus(http.StatusBadRequest).
		WithDetails(details)
}

// NewNotFound creates a 404 error.
func NewNotFound(message string) *AppError {
	return New("resource.not_found", nil).
		WithMessage(message).
		WithHTTPStatus(http.StatusNotFound)
}

// NewInternal creates a 500 error with an optional cause.
func NewInternal(message string, cause error) *AppError {
	return New("internal.error", cause).
		WithMessage(message).
		WithHTTPStatus(http.StatusInternalServerError)
}
