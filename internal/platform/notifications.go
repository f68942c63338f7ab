package platform

import (
	"context"
	"net/http"
	"net/url"

	"github.com/felixgeelhaar/psichat/internal/api"
)

// TutorNotification is a server-side notification for a tutor.
type TutorNotification struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      string `json:"type,omitempty"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at,omitempty"`
}

// NotificationService wraps /tutor/notifications.
//
// MarkAllRead and Delete follow the documented contract but are not
// served by every backend version.
type NotificationService struct {
	doer api.Doer
}

// List returns the tutor's notifications.
func (s *NotificationService) List(ctx context.Context) ([]TutorNotification, error) {
	var out []TutorNotification
	if err := s.doer.Do(ctx, http.MethodGet, "/tutor/notifications", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead marks one notification read.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	return s.doer.Do(ctx, http.MethodPut, "/tutor/notifications/"+url.PathEscape(id)+"/read", nil, nil, nil)
}

// MarkAllRead marks every notification read.
func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	return s.doer.Do(ctx, http.MethodPut, "/tutor/notifications/mark-all-read", nil, nil, nil)
}

// Delete removes one notification.
func (s *NotificationService) Delete(ctx context.Context, id string) error {
	return s.doer.Do(ctx, http.MethodDelete, "/tutor/notifications/"+url.PathEscape(id), nil, nil, nil)
}
