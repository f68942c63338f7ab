package platform

import (
	"context"
	"net/http"
	"net/url"

	"github.com/felixgeelhaar/psichat/internal/api"
)

// AnalysisService wraps the /analysis endpoints. Payloads are returned
// as Documents because their shape varies between backend versions.
type AnalysisService struct {
	doer api.Doer
}

// Last returns the caller's most recent analysis.
func (s *AnalysisService) Last(ctx context.Context) (Document, error) {
	return s.get(ctx, "/analysis/last", nil)
}

// LastForStudent returns a student's most recent analysis.
func (s *AnalysisService) LastForStudent(ctx context.Context, studentID string) (Document, error) {
	return s.get(ctx, "/analysis/last/"+url.PathEscape(studentID), nil)
}

// Deep returns the aggregated analysis over a time range such as "7d".
// An empty range lets the backend pick its default.
func (s *AnalysisService) Deep(ctx context.Context, timeRange string) (Document, error) {
	var q url.Values
	if timeRange != "" {
		q = url.Values{"timeRange": {timeRange}}
	}
	return s.get(ctx, "/analysis/deep", q)
}

// ExportReport returns an exportable report for a time range.
func (s *AnalysisService) ExportReport(ctx context.Context, timeRange string) (Document, error) {
	var q url.Values
	if timeRange != "" {
		q = url.Values{"time_range": {timeRange}}
	}
	return s.get(ctx, "/analysis/export-report", q)
}

// History returns the caller's past analyses.
func (s *AnalysisService) History(ctx context.Context) (Documents, error) {
	var docs Documents
	if err := s.doer.Do(ctx, http.MethodGet, "/analysis/history", nil, nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *AnalysisService) get(ctx context.Context, path string, q url.Values) (Document, error) {
	var doc Document
	if err := s.doer.Do(ctx, http.MethodGet, path, q, nil, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
