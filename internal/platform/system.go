package platform

import (
	"context"
	"net/http"

	"github.com/felixgeelhaar/psichat/internal/api"
)

// SystemService wraps the unauthenticated service endpoints.
type SystemService struct {
	doer api.Doer
}

// Health returns the backend health document. The backend answers 503
// with status "unhealthy" when its database is down.
func (s *SystemService) Health(ctx context.Context) (Document, error) {
	var doc Document
	if err := s.doer.Do(ctx, http.MethodGet, "/health", nil, nil, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
