package exitcode

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/felixgeelhaar/psichat/internal/api"
	"github.com/felixgeelhaar/psichat/internal/errors"
	"github.com/felixgeelhaar/psichat/internal/validation"
)

func TestDetermineExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, Success},
		{"plain error", stderrors.New("boom"), GeneralError},

		{"not logged in", errors.NewNotLoggedInError(), AuthError},
		{"session expired", errors.NewSessionExpiredError(nil), AuthError},
		{"route denied", errors.NewForbiddenRouteError("/tutor", "role"), AccessDenied},
		{"forbidden", errors.New(errors.ErrCodeAuthForbidden, "no"), AccessDenied},
		{"coded network", errors.NewNetworkError("http://x", nil), NetworkError},
		{"coded timeout", errors.NewTimeoutError(nil), NetworkError},
		{"coded server", errors.New(errors.ErrCodeAPIServer, "500"), ServerError},
		{"coded validation", errors.NewValidationError("email"), ValidationError},
		{"config", errors.NewConfigInvalidError("timeout", "negative"), ConfigError},
		{"store", errors.NewStoreError(errors.ErrCodeStoreCorrupt, "session.json", nil), GeneralError},
		{"wrapped coded", fmt.Errorf("status: %w", errors.NewNotLoggedInError()), AuthError},

		{"validation errors", validation.Errors{"email": "bad"}, ValidationError},

		{"api network", &api.APIError{Kind: api.KindNetwork}, NetworkError},
		{"api timeout", &api.APIError{Kind: api.KindTimeout}, NetworkError},
		{"api unauthorized", &api.APIError{Kind: api.KindUnauthorized, Status: 401}, AuthError},
		{"api server", &api.APIError{Kind: api.KindServer, Status: 502}, ServerError},
		{"api decode", &api.APIError{Kind: api.KindDecode, Status: 200}, ServerError},
		{"api forbidden", &api.APIError{Kind: api.KindClient, Status: 403}, AccessDenied},
		{"api not found", &api.APIError{Kind: api.KindClient, Status: 404}, GeneralError},
		{"wrapped api", fmt.Errorf("analysis: %w", &api.APIError{Kind: api.KindTimeout}), NetworkError},

		{"unknown command", stderrors.New(`unknown command "foo" for "psichat"`), UsageError},
		{"unknown flag", stderrors.New("unknown flag: --nope"), UsageError},
		{"required flag", stderrors.New(`required flag(s) "email" not set`), UsageError},
		{"arg count", stderrors.New("accepts 1 arg(s), received 0"), UsageError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineExitCode(tt.err); got != tt.want {
				t.Errorf("DetermineExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetExitCodeDescription(t *testing.T) {
	codes := []int{Success, GeneralError, UsageError, ValidationError, AuthError, AccessDenied, NetworkError, ConfigError, ServerError, Interrupted}
	seen := map[string]bool{}
	for _, code := range codes {
		desc := GetExitCodeDescription(code)
		if desc == "Unknown error" {
			t.Errorf("code %d has no description", code)
		}
		if seen[desc] {
			t.Errorf("duplicate description %q", desc)
		}
		seen[desc] = true
	}

	if got := GetExitCodeDescription(99); got != "Unknown error" {
		t.Errorf("GetExitCodeDescription(99) = %q", got)
	}
}
