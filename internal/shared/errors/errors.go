// Package errors defines the application error model: a small set of typed
// errors that use cases return instead of raw transport or store failures.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an application error.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation_error"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeInternal   ErrorType = "internal_error"
	ErrorTypeUnknown    ErrorType = "unknown"
	ErrorTypeCancelled  ErrorType = "cancelled"
)

// AppError carries a type, a caller-facing message and an HTTP-ish code so
// the transport collaborator can map it without inspecting error text.
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func NewValidationError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeValidation, message, http.StatusBadRequest, details)
}

func NewNotFoundError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeNotFound, message, http.StatusNotFound, details)
}

func NewConflictError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeConflict, message, http.StatusConflict, details)
}

func NewInternalError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeInternal, message, http.StatusInternalServerError, details)
}

// statusClientClosedRequest is the nginx convention for a request the caller
// abandoned; net/http has no constant for it.
const statusClientClosedRequest = 499

func NewCancelledError(details ...string) *AppError {
	return newAppError(ErrorTypeCancelled, "Request was cancelled", statusClientClosedRequest, details)
}

func NewUnknownError(details ...string) *AppError {
	return newAppError(ErrorTypeUnknown, "An unexpected error occurred", http.StatusInternalServerError, details)
}

// Classify maps an arbitrary error onto the application error model for the
// transport collaborator: typed errors pass through, context cancellation
// and deadline expiry become cancelled, everything else becomes unknown.
func Classify(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewCancelledError(err.Error())
	}
	return NewUnknownError(err.Error())
}

func newAppError(t ErrorType, message string, code int, details []string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{Type: t, Message: message, Code: code, Details: detail}
}

// IsNotFound reports whether err is a not-found AppError.
func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == ErrorTypeNotFound
}
