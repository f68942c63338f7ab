package app

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/psichat/internal/api"
	"github.com/felixgeelhaar/psichat/internal/auth"
	"github.com/felixgeelhaar/psichat/internal/authz"
	"github.com/felixgeelhaar/psichat/internal/errors"
	"github.com/felixgeelhaar/psichat/internal/platform"
	"github.com/felixgeelhaar/psichat/internal/validation"
)

// User-visible flow messages.
const (
	MessagePasswordUpdated     = "Password updated successfully."
	MessagePasswordUpdateError = "Error updating the password."
	MessageLoggedOut           = "You have been logged out."
	MessageChatFailed          = "The message could not be sent."
)

// Login validates the form, authenticates and opens the landing page for
// the user's role. Validation failures never reach the network.
func (a *App) Login(ctx context.Context, email, password string) (*platform.User, error) {
	if err := validation.Login(email, password); err != nil {
		a.Notifications.Error(err.Error())
		return nil, err
	}

	user, err := a.Session.Login(ctx, email, password)
	if err != nil {
		a.Notifications.Error(a.Session.State().LastError)
		return nil, err
	}

	a.Notifications.Success(fmt.Sprintf("Welcome, %s", user.DisplayName()))
	a.Router.Open(authz.LandingPath(user.Role))
	return user, nil
}

// Register validates the form, creates the account and opens the landing page.
func (a *App) Register(ctx context.Context, form validation.RegisterForm, role platform.Role, institution string) (*platform.User, error) {
	if err := validation.Register(form); err != nil {
		a.Notifications.Error(err.Error())
		return nil, err
	}
	if role == "" {
		role = platform.RoleStudent
	}

	user, err := a.Session.Register(ctx, platform.RegisterRequest{
		Email:       form.Email,
		Password:    form.Password,
		Name:        form.Name,
		LastName:    form.LastName,
		Role:        role,
		Institution: institution,
	})
	if err != nil {
		a.Notifications.Error(a.Session.State().LastError)
		return nil, err
	}

	a.Notifications.Success(fmt.Sprintf("Welcome, %s", user.DisplayName()))
	a.Router.Open(authz.LandingPath(user.Role))
	return user, nil
}

// ChangePassword validates and submits a password change.
func (a *App) ChangePassword(ctx context.Context, form validation.ChangePasswordForm) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	if err := validation.ChangePassword(form); err != nil {
		a.Notifications.Error(err.Error())
		return err
	}

	if err := a.Session.UpdatePassword(ctx, form.CurrentPassword, form.NewPassword); err != nil {
		a.Notifications.Error(api.MessageOf(err, MessagePasswordUpdateError))
		return err
	}
	a.Notifications.Success(MessagePasswordUpdated)
	return nil
}

// Logout clears the session and returns to the login page.
func (a *App) Logout() {
	a.Session.Logout()
	a.Notifications.Info(MessageLoggedOut)
	a.Router.Navigate(authz.LoginPath)
}

// SendMessage validates text and sends it to the chat assistant.
func (a *App) SendMessage(ctx context.Context, text string, history []platform.Turn) (*platform.ChatResponse, error) {
	if err := a.requireSession(); err != nil {
		return nil, err
	}
	if err := validation.Message(text); err != nil {
		return nil, err
	}

	clean := validation.Sanitize(text)
	a.Logger.Chat("sending message", "length", len(clean), "history", len(history))

	resp, err := a.Services.Chat.Send(ctx, platform.ChatRequest{UserText: clean, History: history})
	if err != nil {
		a.Notifications.Error(api.MessageOf(err, MessageChatFailed))
		return nil, err
	}
	return resp, nil
}

// Open guards path against the current session.
func (a *App) Open(path string) authz.Navigation {
	return a.Router.Open(path)
}

// Require opens path and converts a denial into a coded error, for
// commands that cannot render a redirect.
func (a *App) Require(path string) (authz.Navigation, error) {
	nav := a.Router.Open(path)
	if nav.Rendered() && nav.Location == nav.Hops[0] {
		return nav, nil
	}

	if nav.Decision.Outcome == authz.OutcomeLoading || nav.Location == authz.LoginPath {
		return nav, errors.NewNotLoggedInError()
	}
	reason := "no such page"
	if m, ok := a.Router.Table().Match(nav.Requested); ok {
		reason = authz.Decide(a.Session.State(), m.Route).Reason
	}
	return nav, errors.NewForbiddenRouteError(nav.Requested, reason)
}

func (a *App) requireSession() error {
	if a.Session.State().Phase() != auth.PhaseAuthenticated {
		return errors.NewNotLoggedInError()
	}
	return nil
}
