package exitcode

import (
	stderrors "errors"
	"os"
	"strings"

	"github.com/felixgeelhaar/psichat/internal/api"
	"github.com/felixgeelhaar/psichat/internal/errors"
	"github.com/felixgeelhaar/psichat/internal/validation"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// ValidationError indicates form input rejected before any request
	ValidationError = 3

	// AuthError indicates a missing, rejected or expired session
	AuthError = 4

	// AccessDenied indicates a page or endpoint the role may not use
	AccessDenied = 5

	// NetworkError indicates a network connectivity issue or timeout
	NetworkError = 6

	// ConfigError indicates an invalid or unreadable configuration
	ConfigError = 7

	// ServerError indicates a 5xx or malformed backend response
	ServerError = 8

	// Interrupted indicates the command was cancelled by SIGINT or SIGTERM
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// DetermineExitCode analyzes an error and returns the appropriate exit code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	var pcErr *errors.PsiChatError
	if stderrors.As(err, &pcErr) {
		if code, ok := codeForErrorCode(pcErr.Code); ok {
			return code
		}
	}

	var fieldErrs validation.Errors
	if stderrors.As(err, &fieldErrs) {
		return ValidationError
	}

	if apiErr, ok := api.AsAPIError(err); ok {
		switch apiErr.Kind {
		case api.KindNetwork, api.KindTimeout:
			return NetworkError
		case api.KindUnauthorized:
			return AuthError
		case api.KindServer, api.KindDecode:
			return ServerError
		}
		if apiErr.Status == 403 {
			return AccessDenied
		}
		return GeneralError
	}

	// cobra reports usage problems as plain errors
	errMsg := strings.ToLower(err.Error())
	for _, marker := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "required flag", "accepts ", "invalid argument"} {
		if strings.Contains(errMsg, marker) {
			return UsageError
		}
	}

	return GeneralError
}

func codeForErrorCode(code errors.ErrorCode) (int, bool) {
	switch code {
	case errors.ErrCodeAuthForbidden, errors.ErrCodeRouteDenied:
		return AccessDenied, true
	case errors.ErrCodeRouteLoginReq:
		return AuthError, true
	case errors.ErrCodeAPINetwork, errors.ErrCodeAPITimeout:
		return NetworkError, true
	case errors.ErrCodeAPIServer, errors.ErrCodeAPIDecode:
		return ServerError, true
	}

	prefix, _, _ := strings.Cut(string(code), "-")
	switch prefix {
	case "AUTH":
		return AuthError, true
	case "VALIDATION":
		return ValidationError, true
	case "CONFIG":
		return ConfigError, true
	case "STORE":
		return GeneralError, true
	}
	return 0, false
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case ValidationError:
		return "Invalid input"
	case AuthError:
		return "Authentication error"
	case AccessDenied:
		return "Access denied"
	case NetworkError:
		return "Network error"
	case ConfigError:
		return "Configuration error"
	case ServerError:
		return "Server error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
