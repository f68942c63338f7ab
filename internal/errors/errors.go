package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Authentication errors (AUTH-001 to AUTH-099)
	ErrCodeAuthNotLoggedIn      ErrorCode = "AUTH-001"
	ErrCodeAuthLoginFailed      ErrorCode = "AUTH-002"
	ErrCodeAuthRegisterFailed   ErrorCode = "AUTH-003"
	ErrCodeAuthSessionExpired   ErrorCode = "AUTH-004"
	ErrCodeAuthPasswordChange   ErrorCode = "AUTH-005"
	ErrCodeAuthForbidden        ErrorCode = "AUTH-006"
	ErrCodeAuthInvalidCredState ErrorCode = "AUTH-007"

	// API errors (API-001 to API-099)
	ErrCodeAPINetwork  ErrorCode = "API-001"
	ErrCodeAPITimeout  ErrorCode = "API-002"
	ErrCodeAPIClient   ErrorCode = "API-003"
	ErrCodeAPIServer   ErrorCode = "API-004"
	ErrCodeAPIDecode   ErrorCode = "API-005"
	ErrCodeAPIBadInput ErrorCode = "API-006"

	// Validation errors (VALIDATION-001 to VALIDATION-099)
	ErrCodeValidationFailed ErrorCode = "VALIDATION-001"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid  ErrorCode = "CONFIG-001"
	ErrCodeConfigNotFound ErrorCode = "CONFIG-002"
	ErrCodeConfigParse    ErrorCode = "CONFIG-003"

	// Credential storage errors (STORE-001 to STORE-099)
	ErrCodeStoreReadFailed   ErrorCode = "STORE-001"
	ErrCodeStoreWriteFailed  ErrorCode = "STORE-002"
	ErrCodeStoreRemoveFailed ErrorCode = "STORE-003"
	ErrCodeStoreCorrupt      ErrorCode = "STORE-004"

	// Navigation errors (ROUTE-001 to ROUTE-099)
	ErrCodeRouteDenied   ErrorCode = "ROUTE-001"
	ErrCodeRouteLoginReq ErrorCode = "ROUTE-002"
)

// PsiChatError represents an enhanced error with code, suggestions, and documentation
type PsiChatError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *PsiChatError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *PsiChatError) Unwrap() error {
	return e.Cause
}

// New creates a new PsiChatError
func New(code ErrorCode, message string) *PsiChatError {
	return &PsiChatError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new PsiChatError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *PsiChatError {
	return &PsiChatError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *PsiChatError) WithSuggestion(suggestion string) *PsiChatError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *PsiChatError) WithSuggestions(suggestions ...string) *PsiChatError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *PsiChatError) WithDocs(url string) *PsiChatError {
	e.DocsURL = url
	return e
}

// Common error constructors for frequently used errors

// NewNotLoggedInError is returned by commands that need an authenticated session
func NewNotLoggedInError() *PsiChatError {
	return New(ErrCodeAuthNotLoggedIn, "you must log in to access this page").
		WithSuggestion("Run 'psichat auth login --email <email>' to start a session").
		WithSuggestion("Run 'psichat auth status' to check the stored session")
}

// NewSessionExpiredError reports a session torn down by the server
func NewSessionExpiredError(cause error) *PsiChatError {
	return Wrap(ErrCodeAuthSessionExpired, "your session has expired", cause).
		WithSuggestion("Log in again with 'psichat auth login'")
}

// NewForbiddenRouteError reports a guard denial on a route
func NewForbiddenRouteError(path, reason string) *PsiChatError {
	return New(ErrCodeRouteDenied, fmt.Sprintf("access to %s denied: %s", path, reason)).
		WithSuggestion("Check that you are logged in with the right account").
		WithSuggestion("Run 'psichat auth status' to see your role")
}

// NewNetworkError reports that the backend could not be reached
func NewNetworkError(baseURL string, cause error) *PsiChatError {
	return Wrap(ErrCodeAPINetwork, "connection error, check your network", cause).
		WithSuggestion(fmt.Sprintf("Verify the API is reachable at %s", baseURL)).
		WithSuggestion("Set PSICHAT_API_BASE_URL to point at another backend")
}

// NewTimeoutError reports a request that took longer than the client timeout
func NewTimeoutError(cause error) *PsiChatError {
	return Wrap(ErrCodeAPITimeout, "the request took too long, try again", cause).
		WithSuggestion("Increase PSICHAT_TIMEOUT if the backend is slow")
}

// NewValidationError reports client-side form validation failures
func NewValidationError(details string) *PsiChatError {
	return New(ErrCodeValidationFailed, fmt.Sprintf("the submitted data is not valid: %s", details)).
		WithSuggestion("Fix the highlighted fields and submit again")
}

// NewConfigInvalidError reports an invalid configuration value
func NewConfigInvalidError(field, details string) *PsiChatError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration for %s: %s", field, details)).
		WithSuggestion("Check ~/.psichat/config.yaml and PSICHAT_* environment variables")
}

// NewConfigParseError reports a configuration file that could not be decoded
func NewConfigParseError(path string, cause error) *PsiChatError {
	return Wrap(ErrCodeConfigParse, fmt.Sprintf("failed to parse config file: %s", path), cause).
		WithSuggestion("Check the file syntax and format").
		WithSuggestion("Ensure the file is valid YAML")
}

// NewStoreError reports a failure reading or writing the credential file
func NewStoreError(code ErrorCode, path string, cause error) *PsiChatError {
	return Wrap(code, fmt.Sprintf("credential store failure: %s", path), cause).
		WithSuggestion("Verify the file exists and you have read/write permissions").
		WithSuggestion("Run 'psichat auth logout' to reset the stored session")
}
