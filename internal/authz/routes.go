package authz

import (
	"strings"

	"github.com/felixgeelhaar/psichat/internal/platform"
)

// Well-known paths.
const (
	HomePath  = "/"
	LoginPath = "/login"
)

// Route is one entry of the route table.
type Route struct {
	// Pattern is a path whose segments may be ":name" parameters.
	Pattern string
	// Name identifies the route in logs and metrics.
	Name string
	// View is the screen rendered when the guard allows the route.
	View string
	// Roles allowed to see the route. Empty means any authenticated role.
	Roles []platform.Role
	// Permissions that must all be held.
	Permissions []string
	// Public routes skip the guard.
	Public bool
}

// Table is an ordered route table; the first matching pattern wins.
type Table []Route

// Match is a resolved route with its path parameters.
type Match struct {
	Route  Route
	Params map[string]string
}

// DefaultRoutes returns the PsiChat route surface.
func DefaultRoutes() Table {
	student := []platform.Role{platform.RoleStudent}
	tutor := []platform.Role{platform.RoleTutor}

	return Table{
		{Pattern: "/login", Name: "login", View: "login", Public: true},
		{Pattern: "/", Name: "student-dashboard", View: "student-dashboard", Roles: student},
		{Pattern: "/chat", Name: "chat", View: "chat", Roles: student},
		{Pattern: "/analisis", Name: "analysis", View: "emotional-analysis", Roles: student},
		{Pattern: "/analisis-profundo", Name: "deep-analysis", View: "deep-analysis", Roles: student},
		{Pattern: "/chat-directo/:studentId", Name: "direct-chat", View: "direct-chat", Roles: student},
		{Pattern: "/configuracion", Name: "settings", View: "settings"},
		{Pattern: "/perfil", Name: "profile", View: "profile"},
		{Pattern: "/cambiar-contrasena", Name: "change-password", View: "change-password"},
		{Pattern: "/tutor", Name: "tutor-dashboard", View: "tutor-dashboard", Roles: tutor},
		{Pattern: "/tutor/panel", Name: "tutor-panel", View: "tutor-panel", Roles: tutor},
		{Pattern: "/tutor/chat/:studentId", Name: "tutor-chat", View: "direct-chat", Roles: tutor},
	}
}

// Match resolves path against the table.
func (t Table) Match(path string) (Match, bool) {
	segments := splitPath(path)
	for _, route := range t {
		if params, ok := matchPattern(splitPath(route.Pattern), segments); ok {
			return Match{Route: route, Params: params}, true
		}
	}
	return Match{}, false
}

// Lookup returns the route with the given name.
func (t Table) Lookup(name string) (Route, bool) {
	for _, route := range t {
		if route.Name == name {
			return route, true
		}
	}
	return Route{}, false
}

func matchPattern(pattern, segments []string) (map[string]string, bool) {
	if len(pattern) != len(segments) {
		return nil, false
	}
	params := map[string]string{}
	for i, p := range pattern {
		if strings.HasPrefix(p, ":") {
			if segments[i] == "" {
				return nil, false
			}
			params[p[1:]] = segments[i]
			continue
		}
		if p != segments[i] {
			return nil, false
		}
	}
	return params, true
}

// splitPath drops the query and surrounding slashes.
func splitPath(path string) []string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// LandingPath is where a freshly authenticated user is sent.
func LandingPath(role platform.Role) string {
	if role == platform.RoleTutor {
		return "/tutor"
	}
	return HomePath
}
