package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/psichat/internal/auth"
	"github.com/felixgeelhaar/psichat/internal/authz"
	"github.com/felixgeelhaar/psichat/internal/config"
	"github.com/felixgeelhaar/psichat/internal/errors"
	"github.com/felixgeelhaar/psichat/internal/notify"
	"github.com/felixgeelhaar/psichat/internal/platform"
	"github.com/felixgeelhaar/psichat/internal/validation"
)

const validToken = "tok-1"

type backend struct {
	*httptest.Server
	requests atomic.Int32
	role     platform.Role
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{role: platform.RoleStudent}

	user := func() map[string]any {
		return map[string]any{"id": 1, "email": "a@b.com", "nombre": "Ana", "rol": string(b.role)}
	}
	authorized := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer "+validToken
	}
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req platform.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Username != "a@b.com" || req.Password != "pw123" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"access_token": validToken, "token_type": "bearer", "user": user()})
	})
	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": validToken, "user": user()})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		writeJSON(w, http.StatusOK, user())
	})
	mux.HandleFunc("POST /chat/", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"reply": "hola", "history": [][2]string{{"hi", "hola"}}})
	})
	mux.HandleFunc("GET /analysis/last", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "expired"})
	})

	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.requests.Add(1)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.Close)
	return b
}

func newTestApp(t *testing.T, baseURL string, opts ...Option) *App {
	t.Helper()
	cfg := config.Defaults(config.EnvTest)
	cfg.APIBaseURL = baseURL
	cfg.TokenPath = filepath.Join(t.TempDir(), "session.json")
	cfg.NotificationDuration = 0
	cfg.ErrorNotificationDuration = 0

	a, err := New(&cfg, append([]Option{WithLogOutput(&bytes.Buffer{}), WithoutTracing()}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func lastNotification(t *testing.T, a *App) notify.Notification {
	t.Helper()
	list := a.Notifications.List()
	require.NotEmpty(t, list)
	return list[len(list)-1]
}

func TestNewRejectsNilConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestNewTokenStoreSelection(t *testing.T) {
	a := newTestApp(t, "http://localhost:8000")
	assert.IsType(t, &auth.FileStore{}, a.Tokens)

	cfg := config.Defaults(config.EnvTest)
	mem, err := New(&cfg, WithoutTracing())
	require.NoError(t, err)
	assert.IsType(t, &auth.MemoryStore{}, mem.Tokens)

	custom := auth.NewMemoryStore()
	withStore := newTestApp(t, "http://localhost:8000", WithTokenStore(custom))
	assert.Same(t, custom, withStore.Tokens)
}

func TestLoginStoresToken(t *testing.T) {
	b := newBackend(t)
	a := newTestApp(t, b.URL)
	a.Start(context.Background())

	user, err := a.Login(context.Background(), "a@b.com", "pw123")
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)

	st := a.Session.State()
	assert.True(t, st.Authenticated)
	token, err := a.Tokens.Token()
	require.NoError(t, err)
	assert.Equal(t, validToken, token)

	assert.Equal(t, "/", a.Router.Location())
	assert.Equal(t, notify.KindSuccess, lastNotification(t, a).Kind)
}

func TestLoginRejected(t *testing.T) {
	b := newBackend(t)
	a := newTestApp(t, b.URL)
	a.Start(context.Background())

	_, err := a.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)

	assert.False(t, a.Session.State().Authenticated)
	n := lastNotification(t, a)
	assert.Equal(t, notify.KindError, n.Kind)
	assert.Equal(t, "Incorrect email or password", n.Message)
}

func TestSessionSurvivesRestart(t *testing.T) {
	b := newBackend(t)
	a := newTestApp(t, b.URL)
	a.Start(context.Background())
	_, err := a.Login(context.Background(), "a@b.com", "pw123")
	require.NoError(t, err)

	again, err := New(a.Config, WithoutTracing(), WithLogOutput(&bytes.Buffer{}))
	require.NoError(t, err)
	st := again.Start(context.Background())

	assert.True(t, st.Authenticated)
	assert.Equal(t, 1, st.User.ID)
}

func TestUnauthorizedTearsDownSession(t *testing.T) {
	b := newBackend(t)
	a := newTestApp(t, b.URL)
	a.Start(context.Background())
	_, err := a.Login(context.Background(), "a@b.com", "pw123")
	require.NoError(t, err)
	a.Router.Open("/chat")
	require.Equal(t, "/chat", a.Router.Location())

	_, err = a.Services.Analysis.Last(context.Background())
	require.Error(t, err)

	assert.False(t, a.Session.State().Authenticated)
	token, _ := a.Tokens.Token()
	assert.Empty(t, token)
	assert.Equal(t, authz.LoginPath, a.Router.Location())
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics.APIUnauthorized))
}

func TestConcurrentUnauthorized(t *testing.T) {
	b := newBackend(t)
	a := newTestApp(t, b.URL)
	a.Start(context.Background())
	_, err := a.Login(context.Background(), "a@b.com", "pw123")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = a.Services.Analysis.Last(context.Background())
		}()
	}
	wg.Wait()

	st := a.Session.State()
	assert.Equal(t, auth.PhaseAnonymous, st.Phase())
	assert.Nil(t, st.User)
	token, _ := a.Tokens.Token()
	assert.Empty(t, token)
	assert.Equal(t, authz.LoginPath, a.Router.Location())
}

func TestRegisterMismatchMakesNoRequest(t *testing.T) {
	b := newBackend(t)
	a := newTestApp(t, b.URL)
	a.Start(context.Background())
	before := b.requests.Load()

	_, err := a.Register(context.Background(), validation.RegisterForm{
		Name:            "Ana",
		Email:           "a@b.com",
		Password:        "secret123",
		ConfirmPassword: "secret321",
	}, platform.RoleStudent, "")

	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, "confirmPassword")
	assert.Equal(t, before, b.requests.Load())
	assert.Equal(t, notify.KindError, lastNotification(t, a).Kind)
}

func TestRegisterLandsTutorOnDashboard(t *testing.T) {
	b := newBackend(t)
	b.role = platform.RoleTutor
	a := newTestApp(t, b.URL)
	a.Start(context.Background())

	user, err := a.Register(context.Background(), validation.RegisterForm{
		Name:            "Luis",
		Email:           "luis@psichat.edu",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	}, platform.RoleTutor, "PsiChat U")
	require.NoError(t, err)

	assert.Equal(t, platform.RoleTutor, user.Role)
	assert.Equal(t, "/tutor", a.Router.Location())
}

func TestSendMessage(t *testing.T) {
	b := newBackend(t)
	a := newTestApp(t, b.URL)
	a.Start(context.Background())

	_, err := a.SendMessage(context.Background(), "hi", nil)
	var pcErr *errors.PsiChatError
	require.ErrorAs(t, err, &pcErr)
	assert.Equal(t, errors.ErrCodeAuthNotLoggedIn, pcErr.Code)

	_, err = a.Login(context.Background(), "a@b.com", "pw123")
	require.NoError(t, err)

	_, err = a.SendMessage(context.Background(), "   ", nil)
	assert.ErrorAs(t, err, new(validation.Errors))

	resp, err := a.SendMessage(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "hola", resp.Reply)
}

func TestLogout(t *testing.T) {
	b := newBackend(t)
	a := newTestApp(t, b.URL)
	a.Start(context.Background())
	_, err := a.Login(context.Background(), "a@b.com", "pw123")
	require.NoError(t, err)

	a.Logout()
	a.Logout()

	assert.False(t, a.Session.State().Authenticated)
	token, _ := a.Tokens.Token()
	assert.Empty(t, token)
	assert.Equal(t, authz.LoginPath, a.Router.Location())
}

func TestRequire(t *testing.T) {
	b := newBackend(t)
	a := newTestApp(t, b.URL)
	a.Start(context.Background())

	_, err := a.Require("/chat")
	var pcErr *errors.PsiChatError
	require.ErrorAs(t, err, &pcErr)
	assert.Equal(t, errors.ErrCodeAuthNotLoggedIn, pcErr.Code)

	_, err = a.Login(context.Background(), "a@b.com", "pw123")
	require.NoError(t, err)

	nav, err := a.Require("/chat")
	require.NoError(t, err)
	assert.Equal(t, "chat", nav.Route.Name)

	_, err = a.Require("/tutor")
	require.ErrorAs(t, err, &pcErr)
	assert.Equal(t, errors.ErrCodeRouteDenied, pcErr.Code)
}
