package ux

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/psichat/internal/api"
	"github.com/felixgeelhaar/psichat/internal/errors"
	"github.com/felixgeelhaar/psichat/internal/validation"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\nSuggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError turns backend and validation failures into coded errors
// with recovery suggestions. Errors that are already coded pass through.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}

	var pcErr *errors.PsiChatError
	if stderrors.As(err, &pcErr) {
		return err
	}

	var fieldErrs validation.Errors
	if stderrors.As(err, &fieldErrs) {
		return fieldErrs.Coded()
	}

	if apiErr, ok := api.AsAPIError(err); ok {
		return fromAPIError(apiErr)
	}

	errMsg := err.Error()

	if strings.Contains(errMsg, "permission denied") {
		return NewErrorWithSuggestion(err,
			"Check the permissions of ~/.psichat and the files inside it")
	}

	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no route to host") {
		return NewErrorWithSuggestion(err,
			"Check your network connection and PSICHAT_API_BASE_URL")
	}

	return err
}

func fromAPIError(e *api.APIError) error {
	switch e.Kind {
	case api.KindNetwork:
		return errors.Wrap(errors.ErrCodeAPINetwork, e.Message, e).
			WithSuggestion("Verify the backend is running and reachable").
			WithSuggestion("Set PSICHAT_API_BASE_URL to point at another backend")
	case api.KindTimeout:
		return errors.NewTimeoutError(e)
	case api.KindUnauthorized:
		return errors.NewSessionExpiredError(e)
	case api.KindDecode:
		return errors.Wrap(errors.ErrCodeAPIDecode, e.Message, e).
			WithSuggestion("Check that the client and backend versions match")
	case api.KindServer:
		return errors.Wrap(errors.ErrCodeAPIServer, e.Message, e).
			WithSuggestion("Try again in a moment")
	}

	switch e.Status {
	case http.StatusForbidden:
		return errors.Wrap(errors.ErrCodeAuthForbidden, e.Message, e).
			WithSuggestion("Run 'psichat auth status' to see your role")
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return errors.Wrap(errors.ErrCodeAPIBadInput, e.Message, e).
			WithSuggestion("Check the values you submitted")
	}
	return errors.Wrap(errors.ErrCodeAPIClient, e.Message, e)
}

// FormatError provides consistent error formatting with context
func FormatError(err error, context string) error {
	if err == nil {
		return nil
	}

	enhanced := EnhanceError(err)
	if context != "" {
		return fmt.Errorf("%s: %w", context, enhanced)
	}
	return enhanced
}

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true)

// RenderError formats err for the terminal, styled unless noColor.
func RenderError(err error, noColor bool) string {
	if err == nil {
		return ""
	}
	label := "Error:"
	if !noColor {
		label = errorStyle.Render(label)
	}
	return fmt.Sprintf("%s %s", label, EnhanceError(err).Error())
}
