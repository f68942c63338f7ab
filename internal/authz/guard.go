// Package authz decides which screens the current session may open.
package authz

import (
	"fmt"

	"github.com/felixgeelhaar/psichat/internal/auth"
	"github.com/felixgeelhaar/psichat/internal/notify"
)

// Outcome is what the view layer must do for a route.
type Outcome string

const (
	OutcomeLoading       Outcome = "loading"
	OutcomeRedirectLogin Outcome = "redirect_login"
	OutcomeRedirectHome  Outcome = "redirect_home"
	OutcomeRender        Outcome = "render"
)

// User-visible guard messages.
const (
	MessageLoginRequired     = "You must log in to access this page"
	MessageRoleDenied        = "You do not have permission to access this page"
	MessagePermissionsDenied = "You do not have the required permissions"
)

// Notice is the notification a decision asks the view layer to raise.
type Notice struct {
	Kind    notify.Kind
	Message string
}

// Decision is the result of guarding one route.
type Decision struct {
	Outcome Outcome
	// Redirect is the target path for redirect outcomes.
	Redirect string
	Notice   *Notice
	// Reason explains the outcome for logs.
	Reason string
}

// Allowed reports whether the route renders.
func (d Decision) Allowed() bool {
	return d.Outcome == OutcomeRender
}

// Decide guards route against state. It is a pure function: identical
// inputs give identical decisions.
func Decide(state auth.State, route Route) Decision {
	if route.Public {
		return Decision{Outcome: OutcomeRender, Reason: "public route"}
	}

	if state.Loading {
		return Decision{Outcome: OutcomeLoading, Reason: "session loading"}
	}

	if !state.Authenticated || state.User == nil {
		return Decision{
			Outcome:  OutcomeRedirectLogin,
			Redirect: LoginPath,
			Notice:   &Notice{Kind: notify.KindWarning, Message: MessageLoginRequired},
			Reason:   "not authenticated",
		}
	}

	if len(route.Roles) > 0 {
		member := false
		for _, r := range route.Roles {
			if r == state.User.Role {
				member = true
				break
			}
		}
		if !member {
			return Decision{
				Outcome:  OutcomeRedirectHome,
				Redirect: HomePath,
				Notice:   &Notice{Kind: notify.KindError, Message: MessageRoleDenied},
				Reason:   fmt.Sprintf("role %q not in %v", state.User.Role, route.Roles),
			}
		}
	}

	for _, p := range route.Permissions {
		if !state.User.HasPermission(p) {
			return Decision{
				Outcome:  OutcomeRedirectHome,
				Redirect: HomePath,
				Notice:   &Notice{Kind: notify.KindError, Message: MessagePermissionsDenied},
				Reason:   fmt.Sprintf("missing permission %q", p),
			}
		}
	}

	return Decision{Outcome: OutcomeRender, Reason: "allowed"}
}
