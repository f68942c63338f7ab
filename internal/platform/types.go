package platform

import (
	"encoding/json"
	"strings"
	"time"
)

// Role is the account role assigned by the backend.
type Role string

const (
	RoleStudent Role = "estudiante"
	RoleTutor   Role = "tutor"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTutor, RoleAdmin:
		return true
	}
	return false
}

// User is the authenticated identity.
type User struct {
	ID          int        `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"nombre"`
	LastName    string     `json:"apellido,omitempty"`
	Role        Role       `json:"rol"`
	Permissions []string   `json:"permisos,omitempty"`
	Status      string     `json:"estado,omitempty"`
	Phone       string     `json:"telefono,omitempty"`
	Institution string     `json:"institucion,omitempty"`
	Degree      string     `json:"grado_academico,omitempty"`
	CreatedAt   *time.Time `json:"creado_en,omitempty"`
	LastAccess  *time.Time `json:"ultimo_acceso,omitempty"`
}

// DisplayName joins first and last name.
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.Name + " " + u.LastName)
}

// HasPermission reports whether the user carries p.
func (u *User) HasPermission(p string) bool {
	for _, have := range u.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// Document is a loosely shaped JSON object returned by analytics endpoints.
type Document map[string]any

// String returns the string at key, or "".
func (d Document) String(key string) string {
	if v, ok := d[key].(string); ok {
		return v
	}
	return ""
}

// Float returns the number at key, or 0.
func (d Document) Float(key string) float64 {
	switch v := d[key].(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}

// Documents is a list of Document.
type Documents []Document
