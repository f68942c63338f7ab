// Package validation checks form input locally before anything is sent to
// the backend.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/felixgeelhaar/psichat/internal/errors"
)

// Limits shared with the views.
const (
	PasswordMinLength = 8
	NameMinLength     = 2
	MessageMaxLength  = 1000
	VolumeMin         = 0
	VolumeMax         = 100
)

var (
	letterPattern = regexp.MustCompile(`[a-zA-Z]`)
	digitPattern  = regexp.MustCompile(`\d`)
	namePattern   = regexp.MustCompile(`^[a-zA-ZáéíóúÁÉÍÓÚñÑ\s]+$`)
	unsafePattern = regexp.MustCompile(`(?i)[<>]|javascript:`)
)

// LoginForm is the login screen input. Password strength is only enforced
// when a password is chosen, so existing accounts can still log in.
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterForm is the registration screen input.
type RegisterForm struct {
	Name            string `json:"nombre" validate:"required,min=2,person_name"`
	LastName        string `json:"apellido" validate:"omitempty,min=2,person_name"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,password"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// ChangePasswordForm is the change-password screen input.
type ChangePasswordForm struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,password"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// MessageForm is one chat message.
type MessageForm struct {
	Text string `json:"message" validate:"required,max=1000"`
}

// SettingsForm carries the settings fields that have numeric bounds.
type SettingsForm struct {
	Volume *int `json:"volume" validate:"omitempty,min=0,max=100"`
}

// Errors maps a field name to its first failure message.
type Errors map[string]string

// Error lists the failures sorted by field.
func (e Errors) Error() string {
	fields := e.Fields()
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e[f]))
	}
	return strings.Join(parts, "; ")
}

// Fields returns the failing field names in sorted order.
func (e Errors) Fields() []string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Coded converts the failures into a coded application error.
func (e Errors) Coded() *errors.PsiChatError {
	return errors.NewValidationError(e.Error())
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return letterPattern.MatchString(s) && digitPattern.MatchString(s)
		})
		_ = v.RegisterValidation("person_name", func(fl validator.FieldLevel) bool {
			return namePattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// Struct validates one of the forms. It returns nil or Errors.
func Struct(form any) error {
	err := instance().Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !asValidationErrors(err, &fieldErrs) {
		return err
	}

	out := Errors{}
	for _, fe := range fieldErrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	ve, ok := err.(validator.ValidationErrors)
	if ok {
		*target = ve
	}
	return ok
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		if fe.StructField() == "ConfirmPassword" {
			return "Confirm your password"
		}
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "The email format is not valid"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be between %d and %d", field, VolumeMin, VolumeMax)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s cannot exceed %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be between %d and %d", field, VolumeMin, VolumeMax)
	case "password":
		return "The password must contain at least one letter and one number"
	case "person_name":
		return "The name can only contain letters and spaces"
	case "eqfield":
		return "The passwords do not match"
	default:
		return fmt.Sprintf("%s is not valid", field)
	}
}

// Login validates the login form.
func Login(email, password string) error {
	return Struct(LoginForm{Email: strings.TrimSpace(email), Password: password})
}

// Register validates the registration form.
func Register(form RegisterForm) error {
	form.Email = strings.TrimSpace(form.Email)
	return Struct(form)
}

// ChangePassword validates the change-password form.
func ChangePassword(form ChangePasswordForm) error {
	return Struct(form)
}

// Message validates a chat message after trimming.
func Message(text string) error {
	return Struct(MessageForm{Text: strings.TrimSpace(text)})
}

// Volume validates a sound volume.
func Volume(v int) error {
	return Struct(SettingsForm{Volume: &v})
}

// Sanitize strips markup characters and script URLs from free text.
func Sanitize(input string) string {
	return strings.TrimSpace(unsafePattern.ReplaceAllString(input, ""))
}
