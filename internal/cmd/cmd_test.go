package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/psichat/internal/app"
	"github.com/felixgeelhaar/psichat/internal/auth"
	"github.com/felixgeelhaar/psichat/internal/errors"
	"github.com/felixgeelhaar/psichat/internal/exitcode"
	"github.com/felixgeelhaar/psichat/internal/platform"
	"github.com/felixgeelhaar/psichat/internal/ux"
	"github.com/felixgeelhaar/psichat/internal/validation"
)

const (
	studentToken = "tok-student"
	tutorToken   = "tok-tutor"
)

type backend struct {
	*httptest.Server
	requests atomic.Int32

	mu       sync.Mutex
	settings map[string]any
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{settings: map[string]any{
		"sound":         map[string]any{"volume": 70, "enabled": true},
		"notifications": map[string]any{"email": true},
	}}

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	userFor := func(r *http.Request) map[string]any {
		switch r.Header.Get("Authorization") {
		case "Bearer " + studentToken:
			return map[string]any{"id": 1, "email": "a@b.com", "nombre": "Ana", "rol": "estudiante"}
		case "Bearer " + tutorToken:
			return map[string]any{"id": 2, "email": "t@b.com", "nombre": "Tomas", "rol": "tutor"}
		}
		return nil
	}
	authed := func(h func(w http.ResponseWriter, r *http.Request, user map[string]any)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user := userFor(r)
			if user == nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
				return
			}
			h(w, r, user)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req platform.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Username != "a@b.com" || req.Password != "pw123" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": studentToken,
			"token_type":   "bearer",
			"user":         map[string]any{"id": 1, "email": "a@b.com", "nombre": "Ana", "rol": "estudiante"},
		})
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "database": "connected"})
	})
	mux.HandleFunc("GET /auth/me", authed(func(w http.ResponseWriter, r *http.Request, user map[string]any) {
		writeJSON(w, http.StatusOK, user)
	}))
	mux.HandleFunc("POST /chat/", authed(func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		writeJSON(w, http.StatusOK, map[string]any{
			"reply": "Gracias por contarme",
			"meta":  map[string]any{"detected_emotion": "ansiedad", "emotion_score": 62},
		})
	}))
	mux.HandleFunc("GET /tutor/alerts", authed(func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		writeJSON(w, http.StatusOK, []map[string]any{{
			"id":          "a-17",
			"student":     map[string]any{"id": 1, "name": "Ana"},
			"lastMessage": "no puedo dormir",
			"emotion":     map[string]any{"name": "tristeza", "score": 81},
			"urgency":     "high",
		}})
	}))
	mux.HandleFunc("GET /user/settings", authed(func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, http.StatusOK, b.settings)
	}))
	mux.HandleFunc("PUT /user/settings", authed(func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		b.mu.Lock()
		defer b.mu.Unlock()
		var next map[string]any
		_ = json.NewDecoder(r.Body).Decode(&next)
		b.settings = next
		writeJSON(w, http.StatusOK, b.settings)
	}))

	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.requests.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.Close)
	return b
}

type fakePrompter struct {
	creds   ux.Credentials
	confirm bool
	asked   []string
}

func (p *fakePrompter) Login(email string) (ux.Credentials, error) {
	p.asked = append(p.asked, "login")
	c := p.creds
	if email != "" {
		c.Email = email
	}
	return c, nil
}

func (p *fakePrompter) Register() (ux.Registration, error) {
	p.asked = append(p.asked, "register")
	return ux.Registration{}, nil
}

func (p *fakePrompter) ChangePassword() (validation.ChangePasswordForm, error) {
	p.asked = append(p.asked, "change-password")
	return validation.ChangePasswordForm{}, nil
}

func (p *fakePrompter) Confirm(message string, defaultYes bool) (bool, error) {
	p.asked = append(p.asked, "confirm")
	return p.confirm, nil
}

type harness struct {
	backend  *backend
	tokens   *auth.MemoryStore
	prompter *fakePrompter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PSICHAT_ENV", "")
	b := newBackend(t)
	t.Setenv("PSICHAT_API_BASE_URL", b.URL)
	return &harness{backend: b, tokens: auth.NewMemoryStore(), prompter: &fakePrompter{}}
}

func (h *harness) withToken(t *testing.T, token string) *harness {
	t.Helper()
	require.NoError(t, h.tokens.SetToken(token))
	return h
}

// run executes one command line against a fresh command tree.
func (h *harness) run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root, rt := newRoot(
		WithAppOptions(app.WithLogOutput(io.Discard), app.WithoutTracing(), app.WithTokenStore(h.tokens)),
		WithPrompter(h.prompter),
	)
	defer rt.close(context.Background())

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--env", "test", "--env-file", "", "--no-color"}, args...))
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestCommandTree(t *testing.T) {
	root := NewRootCmd()

	paths := [][]string{
		{"auth", "login"}, {"auth", "register"}, {"auth", "logout"}, {"auth", "status"},
		{"auth", "change-password"}, {"auth", "students"},
		{"chat", "send"}, {"chat", "history"}, {"chat", "direct"}, {"chat", "direct-send"}, {"chat", "tui"},
		{"analysis", "last"}, {"analysis", "student"}, {"analysis", "deep"}, {"analysis", "export"}, {"analysis", "history"},
		{"tutor", "dashboard"}, {"tutor", "alerts"}, {"tutor", "review"}, {"tutor", "intervene"}, {"tutor", "conversation"},
		{"tutor", "notifications", "list"}, {"tutor", "notifications", "read"},
		{"tutor", "notifications", "read-all"}, {"tutor", "notifications", "delete"},
		{"user", "settings", "get"}, {"user", "settings", "update"}, {"user", "settings", "reset"},
		{"user", "profile", "get"}, {"user", "profile", "update"}, {"user", "profile", "stats"},
		{"open"}, {"diag"}, {"version"},
	}
	for _, p := range paths {
		t.Run(strings.Join(p, " "), func(t *testing.T) {
			found, rest, err := root.Find(p)
			require.NoError(t, err)
			assert.Empty(t, rest)
			assert.Equal(t, p[len(p)-1], found.Name())
		})
	}

	for _, name := range []string{"env", "config", "env-file", "format", "log-level", "no-color"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "missing --%s", name)
	}
}

func TestLoginWithFlags(t *testing.T) {
	h := newHarness(t)

	stdout, stderr, err := h.run(t, "auth", "login", "--email", "a@b.com", "--password", "pw123", "-o", "json")
	require.NoError(t, err)

	var user platform.User
	require.NoError(t, json.Unmarshal([]byte(stdout), &user))
	assert.Equal(t, "a@b.com", user.Email)
	assert.Equal(t, platform.RoleStudent, user.Role)
	assert.Contains(t, stderr, "Welcome, Ana")
	assert.Empty(t, h.prompter.asked)

	token, err := h.tokens.Token()
	require.NoError(t, err)
	assert.Equal(t, studentToken, token)
}

func TestLoginPromptsForMissingValues(t *testing.T) {
	h := newHarness(t)
	h.prompter.creds = ux.Credentials{Password: "pw123"}

	_, _, err := h.run(t, "auth", "login", "--email", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"login"}, h.prompter.asked)
}

func TestLoginRejected(t *testing.T) {
	h := newHarness(t)

	_, stderr, err := h.run(t, "auth", "login", "--email", "a@b.com", "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, stderr, "Incorrect email or password")
	assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(err))

	token, _ := h.tokens.Token()
	assert.Empty(t, token)
}

func TestRegisterMismatchSendsNothing(t *testing.T) {
	h := newHarness(t)
	before := h.backend.requests.Load()

	_, _, err := h.run(t, "auth", "register",
		"--name", "Ana", "--email", "a@b.com", "--password", "secret123", "--confirm", "secret124")
	require.Error(t, err)
	assert.Equal(t, exitcode.ValidationError, exitcode.DetermineExitCode(err))
	assert.Equal(t, before, h.backend.requests.Load())
}

func TestStatus(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		h := newHarness(t)
		stdout, _, err := h.run(t, "auth", "status")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Not logged in")
	})

	t.Run("authenticated", func(t *testing.T) {
		h := newHarness(t).withToken(t, studentToken)
		stdout, _, err := h.run(t, "auth", "status", "-o", "json")
		require.NoError(t, err)

		var out map[string]any
		require.NoError(t, json.Unmarshal([]byte(stdout), &out))
		assert.Equal(t, "authenticated", out["phase"])
		assert.Equal(t, auth.Fingerprint(studentToken), out["token_fingerprint"])
	})
}

func TestLogout(t *testing.T) {
	h := newHarness(t).withToken(t, studentToken)

	stdout, _, err := h.run(t, "auth", "logout")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Logged out")

	token, _ := h.tokens.Token()
	assert.Empty(t, token)
}

func TestChatSend(t *testing.T) {
	h := newHarness(t).withToken(t, studentToken)

	stdout, _, err := h.run(t, "chat", "send", "hoy", "me", "siento", "ansioso")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Gracias por contarme")
	assert.Contains(t, stdout, "ansiedad")
}

func TestChatSendRequiresLogin(t *testing.T) {
	h := newHarness(t)

	_, stderr, err := h.run(t, "chat", "send", "hola")
	require.Error(t, err)

	var pcErr *errors.PsiChatError
	require.ErrorAs(t, err, &pcErr)
	assert.Equal(t, errors.ErrCodeAuthNotLoggedIn, pcErr.Code)
	assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(err))
	assert.Contains(t, stderr, "You must log in to access this page")
}

func TestRoleGuardedCommands(t *testing.T) {
	t.Run("student denied tutor alerts", func(t *testing.T) {
		h := newHarness(t).withToken(t, studentToken)
		_, _, err := h.run(t, "tutor", "alerts")
		require.Error(t, err)
		assert.Equal(t, exitcode.AccessDenied, exitcode.DetermineExitCode(err))
	})

	t.Run("tutor lists alerts", func(t *testing.T) {
		h := newHarness(t).withToken(t, tutorToken)
		stdout, _, err := h.run(t, "tutor", "alerts")
		require.NoError(t, err)
		assert.Contains(t, stdout, "a-17")
		assert.Contains(t, stdout, "tristeza")
	})

	t.Run("tutor denied student chat", func(t *testing.T) {
		h := newHarness(t).withToken(t, tutorToken)
		_, _, err := h.run(t, "chat", "send", "hola")
		require.Error(t, err)
		assert.Equal(t, exitcode.AccessDenied, exitcode.DetermineExitCode(err))
	})
}

func TestSettingsUpdateMerges(t *testing.T) {
	h := newHarness(t).withToken(t, studentToken)

	_, _, err := h.run(t, "user", "settings", "update", "--volume", "40", "--set", "notifications.push=false")
	require.NoError(t, err)

	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	sound := h.backend.settings["sound"].(map[string]any)
	assert.Equal(t, 40.0, sound["volume"])
	assert.Equal(t, true, sound["enabled"])
	notifications := h.backend.settings["notifications"].(map[string]any)
	assert.Equal(t, true, notifications["email"])
	assert.Equal(t, false, notifications["push"])
}

func TestSettingsUpdateRejectsVolume(t *testing.T) {
	h := newHarness(t).withToken(t, studentToken)
	before := h.backend.requests.Load()

	_, _, err := h.run(t, "user", "settings", "update", "--volume", "150")
	require.Error(t, err)
	assert.Equal(t, exitcode.ValidationError, exitcode.DetermineExitCode(err))
	assert.Equal(t, before, h.backend.requests.Load())
}

func TestOpen(t *testing.T) {
	t.Run("anonymous redirected to login", func(t *testing.T) {
		h := newHarness(t)
		stdout, _, err := h.run(t, "open", "/analisis", "-o", "json")
		require.NoError(t, err)

		var nav navigationOutput
		require.NoError(t, json.Unmarshal([]byte(stdout), &nav))
		assert.Equal(t, "/login", nav.Location)
		assert.Equal(t, "login", nav.View)
	})

	t.Run("student renders chat", func(t *testing.T) {
		h := newHarness(t).withToken(t, studentToken)
		stdout, _, err := h.run(t, "open", "/chat")
		require.NoError(t, err)
		assert.Contains(t, stdout, "/chat")
	})
}

func TestDiag(t *testing.T) {
	h := newHarness(t)

	stdout, _, err := h.run(t, "diag", "-o", "json")
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "test", out["environment"])
	assert.Equal(t, h.backend.URL, out["api_base_url"])
	assert.Equal(t, "anonymous", out["session_phase"])
	assert.NotContains(t, out, "checks")
}

func TestDiagCheck(t *testing.T) {
	h := newHarness(t).withToken(t, studentToken)

	stdout, _, err := h.run(t, "diag", "--check")
	require.NoError(t, err)
	assert.Contains(t, stdout, "health:        healthy")
	assert.Contains(t, stdout, "backend-api")
	assert.Contains(t, stdout, "credentials")
	assert.Contains(t, stdout, "psichat_api_requests_total")
}

func TestVersion(t *testing.T) {
	h := newHarness(t)

	stdout, _, err := h.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "PsiChat")
}

func TestParseSetting(t *testing.T) {
	tests := []struct {
		in      string
		section string
		key     string
		value   any
		wantErr bool
	}{
		{in: "sound.volume=12", section: "sound", key: "volume", value: 12},
		{in: "notifications.email=false", section: "notifications", key: "email", value: false},
		{in: "display.theme=dark", section: "display", key: "theme", value: "dark"},
		{in: "display.theme=", section: "display", key: "theme", value: ""},
		{in: "volume=12", wantErr: true},
		{in: "sound.volume", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			section, key, value, err := parseSetting(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.section, section)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestMergeSettingsKeepsCurrent(t *testing.T) {
	current := platform.Settings{"sound": map[string]any{"volume": 70}}
	merged := mergeSettings(current, map[string]map[string]any{"sound": {"enabled": false}})

	assert.Equal(t, map[string]any{"volume": 70, "enabled": false}, merged["sound"])
	assert.Equal(t, map[string]any{"volume": 70}, current["sound"], "input must not change")
}
