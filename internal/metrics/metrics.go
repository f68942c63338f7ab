package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the PsiChat client.
//
// Every recording method is safe to call on a nil *Metrics.
type Metrics struct {
	// HTTP client boundary
	APIRequests     *prometheus.CounterVec
	APIDuration     *prometheus.HistogramVec
	APIUnauthorized prometheus.Counter

	// Session store
	SessionTransitions *prometheus.CounterVec

	// Route guard
	GuardDecisions *prometheus.CounterVec

	// Notification manager
	NotificationsCreated *prometheus.CounterVec

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		APIRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "psichat_api_requests_total",
				Help: "Total number of backend API requests",
			},
			[]string{"method", "route", "status"},
		),
		APIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "psichat_api_request_duration_seconds",
				Help:    "Backend API request duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "route"},
		),
		APIUnauthorized: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "psichat_api_unauthorized_total",
				Help: "Total number of 401 responses that forced a session teardown",
			},
		),

		SessionTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "psichat_session_transitions_total",
				Help: "Total number of session state transitions",
			},
			[]string{"from", "to"},
		),

		GuardDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "psichat_guard_decisions_total",
				Help: "Total number of route guard decisions",
			},
			[]string{"route", "outcome"},
		),

		NotificationsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "psichat_notifications_created_total",
				Help: "Total number of notifications created",
			},
			[]string{"kind"},
		),

		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "psichat_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code", "component"},
		),
	}
}

// RecordRequest records one completed API call. A status of 0 means the
// request never got a response.
func (m *Metrics) RecordRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.APIRequests.WithLabelValues(method, route, code).Inc()
	m.APIDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordUnauthorized counts a 401 teardown.
func (m *Metrics) RecordUnauthorized() {
	if m == nil {
		return
	}
	m.APIUnauthorized.Inc()
}

// RecordTransition counts a session state change.
func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.SessionTransitions.WithLabelValues(from, to).Inc()
}

// RecordDecision counts a guard outcome for a route name.
func (m *Metrics) RecordDecision(route, outcome string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(route, outcome).Inc()
}

// RecordNotification counts a created notification.
func (m *Metrics) RecordNotification(kind string) {
	if m == nil {
		return
	}
	m.NotificationsCreated.WithLabelValues(kind).Inc()
}

// RecordError counts a structured error by code.
func (m *Metrics) RecordError(code, component string) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(code, component).Inc()
}
