package platform

import (
	"context"
	"net/http"

	"github.com/felixgeelhaar/psichat/internal/api"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned by login and, on some deployments, register.
type LoginResponse struct {
	Token       string `json:"token,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	User        *User  `json:"user,omitempty"`
}

// AuthToken returns whichever token field the backend filled.
func (r *LoginResponse) AuthToken() string {
	if r.Token != "" {
		return r.Token
	}
	return r.AccessToken
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"nombre"`
	LastName    string `json:"apellido,omitempty"`
	Role        Role   `json:"rol,omitempty"`
	Institution string `json:"institucion,omitempty"`
}

// ChangePasswordRequest is the body of POST /auth/change-password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// AuthService wraps the /auth endpoints.
type AuthService struct {
	doer api.Doer
}

// Login exchanges credentials for a token and the user.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := s.doer.Do(ctx, http.MethodPost, "/auth/login", nil, LoginRequest{Username: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account. The backend may reply with the bare user
// or with a login response; both shapes are accepted.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	var raw struct {
		LoginResponse
		User
	}
	if err := s.doer.Do(ctx, http.MethodPost, "/auth/register", nil, req, &raw); err != nil {
		return nil, err
	}

	resp := raw.LoginResponse
	if resp.User == nil && raw.User.Email != "" {
		u := raw.User
		resp.User = &u
	}
	return &resp, nil
}

// CurrentUser returns the user the stored token belongs to.
func (s *AuthService) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := s.doer.Do(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword updates the password of the current user.
func (s *AuthService) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	req := ChangePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}
	return s.doer.Do(ctx, http.MethodPost, "/auth/change-password", nil, req, nil)
}

// Students lists student accounts (tutors only).
func (s *AuthService) Students(ctx context.Context) ([]User, error) {
	var users []User
	if err := s.doer.Do(ctx, http.MethodGet, "/auth/students", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}
