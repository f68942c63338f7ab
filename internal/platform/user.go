package platform

import (
	"context"
	"net/http"

	"github.com/felixgeelhaar/psichat/internal/api"
)

// Settings is the user preference document. Sections are kept loosely
// typed; known sections are notifications, alerts, display, privacy and sound.
type Settings map[string]any

// Section returns a settings section, or nil when it is missing or not an object.
func (s Settings) Section(name string) Document {
	if m, ok := s[name].(map[string]any); ok {
		return Document(m)
	}
	return nil
}

// Volume returns sound.volume, or -1 when unset.
func (s Settings) Volume() float64 {
	sound := s.Section("sound")
	if _, ok := sound["volume"]; !ok {
		return -1
	}
	return sound.Float("volume")
}

// ProfileUpdate is the body of PUT /user/profile. Empty fields are omitted.
type ProfileUpdate struct {
	Name        string `json:"nombre,omitempty"`
	LastName    string `json:"apellido,omitempty"`
	Phone       string `json:"telefono,omitempty"`
	Institution string `json:"institucion,omitempty"`
	Degree      string `json:"grado_academico,omitempty"`
}

// UserService wraps the /user endpoints.
type UserService struct {
	doer api.Doer
}

// Settings returns the caller's settings.
func (s *UserService) Settings(ctx context.Context) (Settings, error) {
	var out Settings
	if err := s.doer.Do(ctx, http.MethodGet, "/user/settings", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateSettings replaces the caller's settings.
func (s *UserService) UpdateSettings(ctx context.Context, settings Settings) (Settings, error) {
	var out Settings
	if err := s.doer.Do(ctx, http.MethodPut, "/user/settings", nil, settings, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ResetSettings restores the defaults.
func (s *UserService) ResetSettings(ctx context.Context) (Settings, error) {
	var out Settings
	if err := s.doer.Do(ctx, http.MethodPost, "/user/settings/reset", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Profile returns the caller's profile.
func (s *UserService) Profile(ctx context.Context) (*User, error) {
	var u User
	if err := s.doer.Do(ctx, http.MethodGet, "/user/profile", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile updates the caller's profile and returns the new state.
func (s *UserService) UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error) {
	var u User
	if err := s.doer.Do(ctx, http.MethodPut, "/user/profile", nil, update, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ProfileStats returns usage statistics for the caller.
func (s *UserService) ProfileStats(ctx context.Context) (Document, error) {
	var doc Document
	if err := s.doer.Do(ctx, http.MethodGet, "/user/profile/stats", nil, nil, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
