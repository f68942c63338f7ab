package ux

import (
	stderrors "errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/psichat/internal/platform"
	"github.com/felixgeelhaar/psichat/internal/validation"
)

// Credentials is the input of the login prompt.
type Credentials struct {
	Email    string
	Password string
}

// Registration is the input of the registration prompt.
type Registration struct {
	Form        validation.RegisterForm
	Role        platform.Role
	Institution string
}

// Prompter asks the user for form input. Commands depend on it so tests
// can answer without a terminal.
type Prompter interface {
	Login(email string) (Credentials, error)
	Register() (Registration, error)
	ChangePassword() (validation.ChangePasswordForm, error)
	Confirm(message string, defaultYes bool) (bool, error)
}

// FormPrompter renders huh forms on the terminal.
type FormPrompter struct {
	// Accessible switches huh to plain line prompts, for screen readers
	// and non-TTY sessions.
	Accessible bool
}

// Login asks for credentials, pre-filling email when given.
func (p FormPrompter) Login(email string) (Credentials, error) {
	c := Credentials{Email: email}
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Email").
			Value(&c.Email).
			Validate(func(s string) error { return fieldError(validation.Login(s, "-"), "email") }),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&c.Password).
			Validate(func(s string) error { return fieldError(validation.Login("a@b.co", s), "password") }),
	)).WithAccessible(p.Accessible)

	if err := form.Run(); err != nil {
		return Credentials{}, err
	}
	return c, nil
}

// Register asks for the account details.
func (p FormPrompter) Register() (Registration, error) {
	var (
		r    Registration
		role = string(platform.RoleStudent)
	)
	check := func(field string) func(string) error {
		return func(string) error { return fieldError(validation.Register(r.Form), field) }
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&r.Form.Name).Validate(check("nombre")),
			huh.NewInput().Title("Last name").Value(&r.Form.LastName).Validate(check("apellido")),
			huh.NewInput().Title("Email").Value(&r.Form.Email).Validate(check("email")),
			huh.NewInput().Title("Institution").Value(&r.Institution),
			huh.NewSelect[string]().
				Title("Role").
				Options(
					huh.NewOption("Student", string(platform.RoleStudent)),
					huh.NewOption("Tutor", string(platform.RoleTutor)),
				).
				Value(&role),
		),
		huh.NewGroup(
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).
				Value(&r.Form.Password).Validate(check("password")),
			huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).
				Value(&r.Form.ConfirmPassword).Validate(check("confirmPassword")),
		),
	).WithAccessible(p.Accessible)

	if err := form.Run(); err != nil {
		return Registration{}, err
	}
	r.Role = platform.Role(role)
	return r, nil
}

// ChangePassword asks for the current and new password.
func (p FormPrompter) ChangePassword() (validation.ChangePasswordForm, error) {
	var f validation.ChangePasswordForm
	check := func(field string) func(string) error {
		return func(string) error { return fieldError(validation.ChangePassword(f), field) }
	}

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Current password").EchoMode(huh.EchoModePassword).
			Value(&f.CurrentPassword).Validate(check("currentPassword")),
		huh.NewInput().Title("New password").EchoMode(huh.EchoModePassword).
			Value(&f.NewPassword).Validate(check("newPassword")),
		huh.NewInput().Title("Confirm new password").EchoMode(huh.EchoModePassword).
			Value(&f.ConfirmPassword).Validate(check("confirmPassword")),
	)).WithAccessible(p.Accessible)

	if err := form.Run(); err != nil {
		return validation.ChangePasswordForm{}, err
	}
	return f, nil
}

// Confirm asks a yes/no question.
func (p FormPrompter) Confirm(message string, defaultYes bool) (bool, error) {
	answer := defaultYes
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(message).
			Affirmative("Yes").
			Negative("No").
			Value(&answer),
	)).WithAccessible(p.Accessible).Run()
	return answer, err
}

// fieldError narrows a form validation result to one field.
func fieldError(err error, field string) error {
	var errs validation.Errors
	if !stderrors.As(err, &errs) {
		return nil
	}
	if msg, ok := errs[field]; ok {
		return fmt.Errorf("%s", msg)
	}
	return nil
}

var _ Prompter = FormPrompter{}
