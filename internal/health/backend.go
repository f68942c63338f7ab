package health

import (
	"context"

	"github.com/felixgeelhaar/psichat/internal/api"
	"github.com/felixgeelhaar/psichat/internal/platform"
)

// HealthSource reports the backend health document.
type HealthSource interface {
	Health(ctx context.Context) (platform.Document, error)
}

// BackendChecker probes GET /health on the API.
type BackendChecker struct {
	source HealthSource
}

// NewBackendChecker creates a checker over source.
func NewBackendChecker(source HealthSource) *BackendChecker {
	return &BackendChecker{source: source}
}

// Name implements Checker.
func (c *BackendChecker) Name() string { return "backend-api" }

// Check implements Checker. A reachable backend that reports anything but
// "healthy" is degraded.
func (c *BackendChecker) Check(ctx context.Context) *Result {
	doc, err := c.source.Health(ctx)
	if err != nil {
		res := Unhealthy(api.MessageOf(err, "backend unreachable"))
		if apiErr, ok := api.AsAPIError(err); ok {
			res.WithDetail("kind", apiErr.Kind.String())
			if apiErr.Status != 0 {
				res.WithDetail("status", apiErr.Status)
			}
		}
		return res
	}

	status := doc.String("status")
	res := Healthy("backend reachable")
	if status != string(StatusHealthy) {
		res = Degraded("backend reports " + status)
	}
	for _, key := range []string{"database", "version"} {
		if v := doc.String(key); v != "" {
			res.WithDetail(key, v)
		}
	}
	return res
}
