package errors

import (
	stderrors "errors"
	"net/http"
)

// Authentication outcome error types. These are the contract between the
// sign-in use cases and the transport collaborator: every failure collapses
// to one of these, never to a raw provider or store error.
const (
	ErrorTypeInvalidSessionID      ErrorType = "invalid_session_id"
	ErrorTypeInvalidIDToken        ErrorType = "invalid_id_token"
	ErrorTypeInvalidAuthToken      ErrorType = "invalid_auth_token"
	ErrorTypeEmailAddressRequired  ErrorType = "email_address_required"
	ErrorTypeAuthenticationExpired ErrorType = "authentication_expired"
)

// AuthError is an AppError with logging hints. Expected failures (an expired
// pending login, a user typo) should not produce error-level noise; token
// verification failures may indicate tampering and should.
type AuthError struct {
	*AppError
	ShouldLog     bool
	SecurityEvent bool
}

func (e *AuthError) Error() string {
	return e.AppError.Error()
}

func (e *AuthError) Unwrap() error {
	return e.AppError
}

// NewInvalidSessionIDError is returned when the caller's session id is blank
// or does not match the session recorded on the authentication event.
func NewInvalidSessionIDError() *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeInvalidSessionID,
			Message: "Session is missing or does not match this login attempt",
			Code:    http.StatusUnauthorized,
		},
		ShouldLog:     false,
		SecurityEvent: true,
	}
}

// NewInvalidIDTokenError is returned when an Apple ID token fails signature,
// audience or issuer checks, or when the code exchange is rejected.
func NewInvalidIDTokenError(details ...string) *AuthError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeInvalidIDToken,
			Message: "Apple identity token could not be verified",
			Code:    http.StatusUnauthorized,
			Details: detail,
		},
		ShouldLog:     true,
		SecurityEvent: true,
	}
}

// NewInvalidAuthTokenError is returned when Twitter rejects the
// request-token/verifier exchange.
func NewInvalidAuthTokenError(details ...string) *AuthError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeInvalidAuthToken,
			Message: "Twitter authorization could not be verified",
			Code:    http.StatusUnauthorized,
			Details: detail,
		},
		ShouldLog:     true,
		SecurityEvent: true,
	}
}

// NewEmailAddressRequiredError is returned on the Twitter path when the
// provider supplied no usable email and the identity has no existing
// account association.
func NewEmailAddressRequiredError() *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeEmailAddressRequired,
			Message: "An email address is required to continue",
			Code:    http.StatusBadRequest,
		},
		ShouldLog:     false,
		SecurityEvent: false,
	}
}

// NewAuthenticationExpiredError is returned when a pending-auth token is
// redeemed after its five-minute window.
func NewAuthenticationExpiredError() *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeAuthenticationExpired,
			Message: "This login attempt has expired, please sign in again",
			Code:    http.StatusUnauthorized,
		},
		ShouldLog:     false,
		SecurityEvent: false,
	}
}

// IsAuthError reports whether err is (or wraps) an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return stderrors.As(err, &authErr)
}

// GetAuthError extracts an AuthError from the chain, or nil.
func GetAuthError(err error) *AuthError {
	var authErr *AuthError
	if stderrors.As(err, &authErr) {
		return authErr
	}
	return nil
}

// IsAuthErrorType reports whether err carries the given outcome type.
func IsAuthErrorType(err error, t ErrorType) bool {
	if authErr := GetAuthError(err); authErr != nil {
		return authErr.Type == t
	}
	return false
}

// ShouldLogAuthError returns false only for expected auth failures.
func ShouldLogAuthError(err error) bool {
	if authErr := GetAuthError(err); authErr != nil {
		return authErr.ShouldLog
	}
	return true
}
