// Package app is the composition root. It builds every long-lived service
// once and hands the same instances to the command and view layers.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/felixgeelhaar/psichat/internal/api"
	"github.com/felixgeelhaar/psichat/internal/auth"
	"github.com/felixgeelhaar/psichat/internal/authz"
	"github.com/felixgeelhaar/psichat/internal/config"
	"github.com/felixgeelhaar/psichat/internal/log"
	"github.com/felixgeelhaar/psichat/internal/metrics"
	"github.com/felixgeelhaar/psichat/internal/notify"
	"github.com/felixgeelhaar/psichat/internal/platform"
	"github.com/felixgeelhaar/psichat/internal/telemetry"
)

// App owns the process-wide services.
type App struct {
	Config        *config.Config
	Logger        *log.Logger
	Notifications *notify.Manager
	Registry      *prometheus.Registry
	Metrics       *metrics.Metrics
	Telemetry     *telemetry.Provider
	Tokens        auth.TokenStore
	Client        *api.Client
	Services      *platform.Services
	Session       *auth.SessionStore
	Router        *authz.Router
}

type options struct {
	logOutput   io.Writer
	httpClient  *http.Client
	tokens      auth.TokenStore
	scheduler   notify.Scheduler
	traceOpts   []sdktrace.TracerProviderOption
	userAgent   string
	routes      authz.Table
	disableSpan bool
}

// Option customises New.
type Option func(*options)

// WithLogOutput sends log records to w instead of stderr.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// WithHTTPClient replaces the HTTP client used by the API client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithTokenStore replaces the store derived from Config.TokenPath.
func WithTokenStore(s auth.TokenStore) Option {
	return func(o *options) { o.tokens = s }
}

// WithScheduler replaces the notification timer source.
func WithScheduler(s notify.Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

// WithTracerOptions adds options to the tracer provider, such as a span
// processor for tests.
func WithTracerOptions(opts ...sdktrace.TracerProviderOption) Option {
	return func(o *options) { o.traceOpts = append(o.traceOpts, opts...) }
}

// WithoutTracing installs the noop tracer regardless of environment.
func WithoutTracing() Option {
	return func(o *options) { o.disableSpan = true }
}

// WithUserAgent sets the User-Agent sent to the backend.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithRoutes replaces the default route table.
func WithRoutes(t authz.Table) Option {
	return func(o *options) { o.routes = t }
}

// New wires the services for cfg. The session starts in the loading
// phase; call Start to rehydrate it.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	o := options{
		userAgent: fmt.Sprintf("%s/%s", cfg.AppName, cfg.Version),
		routes:    authz.DefaultRoutes(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg}

	logCfg := log.ConfigForEnvironment(cfg.Environment)
	logCfg.Level = log.ParseLevel(cfg.LogLevel)
	logCfg.Format = log.ParseFormat(cfg.LogFormat)
	if o.logOutput != nil {
		logCfg.Output = log.NewOutput(o.logOutput)
	}
	a.Logger = log.New(logCfg)

	a.Registry, a.Metrics = metrics.NewRegistry()

	traceCfg := telemetry.ConfigForEnvironment(cfg.Environment, cfg.Version)
	if o.disableSpan {
		traceCfg.Enabled = false
	} else if len(o.traceOpts) > 0 {
		traceCfg.Enabled = true
	}
	provider, err := telemetry.NewProvider(traceCfg, a.Logger.WithGroup("trace"), o.traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start tracing: %w", err)
	}
	a.Telemetry = provider

	notifyOpts := []notify.Option{
		notify.WithDefaults(cfg.NotificationDuration, cfg.ErrorNotificationDuration),
		notify.WithMetrics(a.Metrics),
	}
	if o.scheduler != nil {
		notifyOpts = append(notifyOpts, notify.WithScheduler(o.scheduler))
	}
	a.Notifications = notify.NewManager(notifyOpts...)

	a.Tokens = o.tokens
	if a.Tokens == nil {
		if cfg.TokenPath == "" {
			a.Tokens = auth.NewMemoryStore()
		} else {
			a.Tokens = auth.NewFileStore(cfg.TokenPath)
		}
	}

	clientOpts := []api.Option{
		api.WithCredentials(a.Tokens),
		api.WithLogger(a.Logger),
		api.WithMetrics(a.Metrics),
		// The session does not exist yet; resolve it per call.
		api.WithUnauthorizedHandler(func(ctx context.Context, apiErr *api.APIError) {
			if a.Session != nil {
				a.Session.HandleUnauthorized(ctx, apiErr)
			}
		}),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(o.httpClient))
	}
	a.Client = api.New(api.Config{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.Timeout,
		UserAgent: o.userAgent,
	}, clientOpts...)

	a.Services = platform.NewServices(a.Client)

	a.Router = authz.NewRouter(o.routes, nil,
		authz.WithNotifier(a.Notifications),
		authz.WithMetrics(a.Metrics),
		authz.WithLogger(a.Logger),
	)

	a.Session = auth.NewSessionStore(a.Tokens, a.Services.Auth,
		auth.WithNavigator(a.Router),
		auth.WithLogger(a.Logger),
		auth.WithMetrics(a.Metrics),
	)
	a.Router.SetSession(a.Session)

	a.Logger.Debug("application wired",
		"env", cfg.Environment,
		"api_base_url", cfg.APIBaseURL,
		"token_path", cfg.TokenPath,
	)
	return a, nil
}

// Start rehydrates the session from the stored token.
func (a *App) Start(ctx context.Context) auth.State {
	a.Session.Initialize(ctx)
	return a.Session.State()
}

// Close flushes tracing.
func (a *App) Close(ctx context.Context) error {
	return a.Telemetry.Shutdown(ctx)
}
