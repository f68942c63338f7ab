package auth

import (
	stderrors "errors"
	"fmt"
)

// Error codes for session and credential failures
const (
	// Credential storage errors
	ErrStoreRead    = "AUTH_STORE_READ"
	ErrStoreWrite   = "AUTH_STORE_WRITE"
	ErrStoreRemove  = "AUTH_STORE_REMOVE"
	ErrStoreCorrupt = "AUTH_STORE_CORRUPT"

	// Token errors
	ErrTokenMissing = "AUTH_TOKEN_MISSING"

	// Session errors
	ErrInvalidTransition = "AUTH_INVALID_TRANSITION"
	ErrEmptyUser         = "AUTH_EMPTY_USER"
)

// AuthError represents an authentication error with code and context.
type AuthError struct {
	// Code is the error code (e.g., AUTH_TOKEN_EXPIRED)
	Code string

	// Message is a human-readable error message
	Message string

	// Context provides additional details about the error
	Context map[string]interface{}

	// Cause is the underlying error that caused this error
	Cause error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AuthError) Unwrap() error {
	return e.Cause
}

// NewError creates a new AuthError.
func NewError(code, message string, context map[string]interface{}) *AuthError {
	return &AuthError{
		Code:    code,
		Message: message,
		Context: context,
	}
}

// WrapError wraps an existing error with an AuthError.
func WrapError(code, message string, cause error, context map[string]interface{}) *AuthError {
	return &AuthError{
		Code:    code,
		Message: message,
		Context: context,
		Cause:   cause,
	}
}

// IsAuthError reports whether err wraps an AuthError with the given code.
func IsAuthError(err error, code string) bool {
	var authErr *AuthError
	if stderrors.As(err, &authErr) {
		return authErr.Code == code
	}
	return false
}
