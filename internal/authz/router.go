package authz

import (
	"sync"

	"github.com/felixgeelhaar/psichat/internal/auth"
	"github.com/felixgeelhaar/psichat/internal/log"
	"github.com/felixgeelhaar/psichat/internal/metrics"
	"github.com/felixgeelhaar/psichat/internal/notify"
)

// maxRedirects bounds redirect chains such as a tutor sent to "/".
const maxRedirects = 3

// SessionSource provides the session snapshot the guard evaluates.
type SessionSource interface {
	State() auth.State
}

// Notifier raises user-visible notices.
type Notifier interface {
	Create(kind notify.Kind, message string, opts ...notify.CreateOption) uint64
}

// Navigation is the result of opening a path.
type Navigation struct {
	// Requested is the path that was asked for.
	Requested string
	// Location is where the router ended up.
	Location string
	// Route is the route at Location, nil when unmatched.
	Route    *Route
	Params   map[string]string
	Decision Decision
	// Hops lists every path visited, starting with Requested.
	Hops []string
}

// Rendered reports whether a view is shown at Location.
func (n Navigation) Rendered() bool {
	return n.Decision.Allowed() && n.Route != nil
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) RouterOption {
	return func(r *Router) { r.logger = l }
}

// WithMetrics records guard decisions.
func WithMetrics(m *metrics.Metrics) RouterOption {
	return func(r *Router) { r.metrics = m }
}

// WithNotifier sets where decision notices go.
func WithNotifier(n Notifier) RouterOption {
	return func(r *Router) { r.notifier = n }
}

// Router resolves paths through the route table and the guard, and
// tracks the current location.
type Router struct {
	mu       sync.Mutex
	location string

	table    Table
	session  SessionSource
	notifier Notifier
	logger   *log.Logger
	metrics  *metrics.Metrics
}

// NewRouter creates a router over table. A nil session is allowed until
// SetSession is called; until then every protected route is loading.
func NewRouter(table Table, session SessionSource, opts ...RouterOption) *Router {
	r := &Router{
		location: HomePath,
		table:    table,
		session:  session,
		logger:   log.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetSession attaches the session after construction, for wiring where
// the session itself needs the router as its Navigator.
func (r *Router) SetSession(s SessionSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = s
}

// Table returns the route table.
func (r *Router) Table() Table {
	return r.table
}

// Location returns the current path.
func (r *Router) Location() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.location
}

// Navigate is a hard redirect that bypasses the guard.
func (r *Router) Navigate(path string) {
	r.mu.Lock()
	r.location = path
	r.mu.Unlock()
	r.logger.Debug("navigated", "path", path)
}

// Open guards path and follows redirects. Unmatched paths redirect to "/".
func (r *Router) Open(path string) Navigation {
	nav := Navigation{Requested: path}
	current := path

	for hop := 0; ; hop++ {
		nav.Hops = append(nav.Hops, current)
		nav.Location = current
		nav.Route = nil
		nav.Params = nil

		match, ok := r.table.Match(current)
		if !ok {
			r.logger.Debug("no route matched, redirecting home", "path", current)
			nav.Decision = Decision{Outcome: OutcomeRedirectHome, Redirect: HomePath, Reason: "no matching route"}
			if current == HomePath || hop >= maxRedirects {
				break
			}
			current = HomePath
			continue
		}

		route := match.Route
		nav.Route = &route
		nav.Params = match.Params
		nav.Decision = r.decide(route)

		if nav.Decision.Redirect == "" || nav.Decision.Redirect == current || hop >= maxRedirects {
			break
		}
		current = nav.Decision.Redirect
	}

	r.Navigate(nav.Location)
	return nav
}

func (r *Router) decide(route Route) Decision {
	r.mu.Lock()
	session := r.session
	r.mu.Unlock()

	state := auth.State{Loading: true}
	if session != nil {
		state = session.State()
	}

	d := Decide(state, route)
	r.metrics.RecordDecision(route.Name, string(d.Outcome))
	r.logger.Debug("route guarded", "route", route.Name, "outcome", string(d.Outcome), "reason", d.Reason)

	if d.Notice != nil && r.notifier != nil {
		r.notifier.Create(d.Notice.Kind, d.Notice.Message)
	}
	return d
}
