package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/psichat/internal/platform"
)

func TestTableMatch(t *testing.T) {
	table := DefaultRoutes()

	tests := []struct {
		path   string
		name   string
		params map[string]string
	}{
		{"/", "student-dashboard", map[string]string{}},
		{"/login", "login", map[string]string{}},
		{"/chat/", "chat", map[string]string{}},
		{"/tutor", "tutor-dashboard", map[string]string{}},
		{"/tutor/panel", "tutor-panel", map[string]string{}},
		{"/tutor/chat/42", "tutor-chat", map[string]string{"studentId": "42"}},
		{"/chat-directo/7?tab=history", "direct-chat", map[string]string{"studentId": "7"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			m, ok := table.Match(tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.name, m.Route.Name)
			assert.Equal(t, tt.params, m.Params)
		})
	}
}

func TestTableMatchMisses(t *testing.T) {
	table := DefaultRoutes()
	for _, path := range []string{"/nope", "/tutor/chat", "/tutor/chat/1/extra"} {
		_, ok := table.Match(path)
		assert.False(t, ok, path)
	}
}

func TestTableLookup(t *testing.T) {
	r, ok := DefaultRoutes().Lookup("profile")
	require.True(t, ok)
	assert.Equal(t, "/perfil", r.Pattern)
	assert.Empty(t, r.Roles)

	_, ok = DefaultRoutes().Lookup("missing")
	assert.False(t, ok)
}

func TestLandingPath(t *testing.T) {
	assert.Equal(t, "/tutor", LandingPath(platform.RoleTutor))
	assert.Equal(t, "/", LandingPath(platform.RoleStudent))
	assert.Equal(t, "/", LandingPath(platform.RoleAdmin))
}
