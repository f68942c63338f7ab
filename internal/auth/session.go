package auth

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/psichat/internal/api"
	"github.com/felixgeelhaar/psichat/internal/log"
	"github.com/felixgeelhaar/psichat/internal/metrics"
	"github.com/felixgeelhaar/psichat/internal/platform"
)

// LoginPath is where a torn-down session is sent.
const LoginPath = "/login"

// Messages shown when the backend gives no reason.
const (
	LoginFallbackMessage    = "Login failed. Please try again."
	RegisterFallbackMessage = "Registration failed. Please try again."
)

// Authenticator is the subset of the auth façade the session needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*platform.LoginResponse, error)
	Register(ctx context.Context, req platform.RegisterRequest) (*platform.LoginResponse, error)
	CurrentUser(ctx context.Context) (*platform.User, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
}

// Navigator performs a hard redirect, bypassing the route guard.
type Navigator interface {
	Navigate(path string)
}

// Phase is the coarse session state.
type Phase string

const (
	PhaseLoading       Phase = "loading"
	PhaseAnonymous     Phase = "anonymous"
	PhaseAuthenticated Phase = "authenticated"
)

// State is an immutable snapshot of the session.
//
// Authenticated implies User is non-nil and a token is stored.
type State struct {
	User          *platform.User
	Authenticated bool
	Loading       bool
	LastError     string
}

// Phase derives the coarse state from the snapshot.
func (s State) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseLoading
	case s.Authenticated:
		return PhaseAuthenticated
	default:
		return PhaseAnonymous
	}
}

// Role returns the user's role, or "" when anonymous.
func (s State) Role() platform.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// allowed lists the legal phase changes. Staying in a phase is always legal.
var allowed = map[Phase]map[Phase]bool{
	PhaseLoading:       {PhaseAnonymous: true, PhaseAuthenticated: true},
	PhaseAnonymous:     {PhaseAuthenticated: true},
	PhaseAuthenticated: {PhaseAnonymous: true},
}

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithNavigator sets where forced teardowns redirect.
func WithNavigator(n Navigator) SessionOption {
	return func(s *SessionStore) { s.nav = n }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) SessionOption {
	return func(s *SessionStore) { s.logger = l }
}

// WithMetrics records state transitions.
func WithMetrics(m *metrics.Metrics) SessionOption {
	return func(s *SessionStore) { s.metrics = m }
}

// WithClock replaces time.Now for local token expiry checks.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionStore) { s.now = now }
}

// SessionStore owns the authentication state of the client.
//
// It is safe for concurrent use. Listeners are called outside the lock.
type SessionStore struct {
	mu    sync.RWMutex
	state State

	tokens  TokenStore
	auth    Authenticator
	nav     Navigator
	logger  *log.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	listenerMu sync.Mutex
	listeners  map[uint64]func(State)
	nextSub    uint64
}

// NewSessionStore creates a store in the loading phase. Call Initialize
// to rehydrate it from the stored token.
func NewSessionStore(tokens TokenStore, authn Authenticator, opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		state:     State{Loading: true},
		tokens:    tokens,
		auth:      authn,
		logger:    log.Discard(),
		now:       time.Now,
		listeners: make(map[uint64]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot.
func (s *SessionStore) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn for every state change and returns a function
// that unregisters it.
func (s *SessionStore) Subscribe(fn func(State)) func() {
	s.listenerMu.Lock()
	s.nextSub++
	id := s.nextSub
	s.listeners[id] = fn
	s.listenerMu.Unlock()

	return func() {
		s.listenerMu.Lock()
		delete(s.listeners, id)
		s.listenerMu.Unlock()
	}
}

// Initialize rehydrates the session from a stored token. It only acts
// while the store is loading and never returns an error; failures leave
// the session anonymous with the token removed.
func (s *SessionStore) Initialize(ctx context.Context) {
	if s.State().Phase() != PhaseLoading {
		s.logger.Debug("session already initialized")
		return
	}

	token, err := s.tokens.Token()
	if err != nil {
		s.logger.LogError("failed to read stored token", err)
		s.resetAnonymous(true)
		return
	}
	if token == "" {
		s.resetAnonymous(false)
		return
	}

	if info, _ := InspectToken(token); info.Expired(s.now()) {
		s.logger.Auth("stored token expired", "token", Fingerprint(token), "expired_at", info.ExpiresAt)
		s.resetAnonymous(true)
		return
	}

	user, err := s.auth.CurrentUser(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to verify authentication status")
		s.resetAnonymous(true)
		return
	}

	if !s.transition(func(st *State) bool {
		if st.Phase() != PhaseLoading {
			return false
		}
		*st = State{User: user, Authenticated: true}
		return true
	}) {
		return
	}
	s.logger.Auth("authentication status verified", "user_id", user.ID)
}

// Login authenticates with email and password.
func (s *SessionStore) Login(ctx context.Context, email, password string) (*platform.User, error) {
	resp, err := s.auth.Login(ctx, email, password)
	if err != nil {
		s.logger.WithError(err).Error("login failed", "email", email)
		s.setError(api.MessageOf(err, LoginFallbackMessage))
		return nil, err
	}

	user, err := s.establish(resp)
	if err != nil {
		s.logger.WithError(err).Error("login failed", "email", email)
		s.setError(LoginFallbackMessage)
		return nil, err
	}

	s.logger.Auth("login succeeded", "user_id", user.ID, "email", email)
	return user, nil
}

// Register creates an account and authenticates as it. When the backend
// returns the user without a token, the store logs in with the submitted
// credentials.
func (s *SessionStore) Register(ctx context.Context, req platform.RegisterRequest) (*platform.User, error) {
	resp, err := s.auth.Register(ctx, req)
	if err != nil {
		s.logger.WithError(err).Error("registration failed", "email", req.Email)
		s.setError(api.MessageOf(err, RegisterFallbackMessage))
		return nil, err
	}

	if resp.AuthToken() == "" {
		s.logger.Auth("registered without token, logging in", "email", req.Email)
		resp, err = s.auth.Login(ctx, req.Email, req.Password)
		if err != nil {
			s.logger.WithError(err).Error("login after registration failed", "email", req.Email)
			s.setError(api.MessageOf(err, RegisterFallbackMessage))
			return nil, err
		}
	}

	user, err := s.establish(resp)
	if err != nil {
		s.logger.WithError(err).Error("registration failed", "email", req.Email)
		s.setError(RegisterFallbackMessage)
		return nil, err
	}

	s.logger.Auth("registration succeeded", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// establish stores the token and marks the session authenticated.
func (s *SessionStore) establish(resp *platform.LoginResponse) (*platform.User, error) {
	token := resp.AuthToken()
	if token == "" || resp.User == nil {
		return nil, NewError(ErrEmptyUser, "authentication response has no token or user", nil)
	}
	user := *resp.User

	var storeErr error
	ok := s.transition(func(st *State) bool {
		if st.Phase() == PhaseLoading {
			return false
		}
		if err := s.tokens.SetToken(token); err != nil {
			storeErr = err
			return false
		}
		*st = State{User: &user, Authenticated: true}
		return true
	})
	if storeErr != nil {
		return nil, storeErr
	}
	if !ok {
		return nil, NewError(ErrInvalidTransition, "session is still loading", nil)
	}
	return &user, nil
}

// Logout clears the local session. No request is sent.
func (s *SessionStore) Logout() {
	s.resetAnonymous(true)
	s.logger.Auth("logout")
}

// UpdateUser replaces the cached identity. It is ignored while anonymous.
func (s *SessionStore) UpdateUser(user *platform.User) {
	if user == nil {
		return
	}
	u := *user
	if !s.transition(func(st *State) bool {
		if !st.Authenticated {
			return false
		}
		st.User = &u
		return true
	}) {
		s.logger.Warn("ignoring user update without an authenticated session")
	}
}

// UpdatePassword changes the password. Identity is never touched.
func (s *SessionStore) UpdatePassword(ctx context.Context, oldPassword, newPassword string) error {
	if err := s.auth.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		s.logger.WithError(err).Error("password change failed")
		return err
	}

	var userID int
	if u := s.State().User; u != nil {
		userID = u.ID
	}
	s.logger.Auth("password updated", "user_id", userID)
	return nil
}

// ClearError drops the last error message.
func (s *SessionStore) ClearError() {
	s.transition(func(st *State) bool {
		st.LastError = ""
		return true
	})
}

// HandleUnauthorized tears the session down after a 401 and redirects to
// the login page. Calling it repeatedly has the same effect as once.
func (s *SessionStore) HandleUnauthorized(ctx context.Context, err *api.APIError) {
	attrs := []any{}
	if err != nil {
		attrs = append(attrs, "path", err.Path, "request_id", err.RequestID)
	}
	s.logger.Auth("session rejected by server", attrs...)

	s.resetAnonymous(true)
	if s.nav != nil {
		s.nav.Navigate(LoginPath)
	}
}

// resetAnonymous removes the token when asked and moves to anonymous.
func (s *SessionStore) resetAnonymous(removeToken bool) {
	s.transition(func(st *State) bool {
		if removeToken {
			if err := s.tokens.Remove(); err != nil {
				s.logger.LogError("failed to remove stored token", err)
			}
		}
		*st = State{}
		return true
	})
}

func (s *SessionStore) setError(msg string) {
	s.transition(func(st *State) bool {
		st.LastError = msg
		return true
	})
}

// transition applies mutate under the lock, rejects illegal phase changes
// and notifies listeners when the snapshot changed.
func (s *SessionStore) transition(mutate func(*State) bool) bool {
	s.mu.Lock()
	prev := s.state
	next := prev
	if !mutate(&next) {
		s.mu.Unlock()
		return false
	}

	from, to := prev.Phase(), next.Phase()
	if from != to && !allowed[from][to] {
		s.mu.Unlock()
		s.logger.Warn("rejected session transition", "from", string(from), "to", string(to))
		return false
	}
	s.state = next
	s.mu.Unlock()

	if from != to {
		s.metrics.RecordTransition(string(from), string(to))
	}
	if prev != next {
		s.notify(next)
	}
	return true
}

func (s *SessionStore) notify(st State) {
	s.listenerMu.Lock()
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenerMu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
