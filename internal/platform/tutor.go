package platform

import (
	"context"
	"net/http"
	"net/url"

	"github.com/felixgeelhaar/psichat/internal/api"
)

// StudentInfo identifies the student an alert is about.
type StudentInfo struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// EmotionInfo is the detected emotion of an alert.
type EmotionInfo struct {
	Name  string  `json:"name"`
	Icon  string  `json:"icon,omitempty"`
	Score float64 `json:"score"`
}

// Alert is a message flagged for tutor attention.
type Alert struct {
	ID          string      `json:"id"`
	Student     StudentInfo `json:"student"`
	LastMessage string      `json:"lastMessage"`
	Emotion     EmotionInfo `json:"emotion"`
	Urgency     string      `json:"urgency"`
	Timestamp   string      `json:"timestamp"`
	Reviewed    bool        `json:"reviewed"`
}

// ReviewRequest is the body of PUT /tutor/alert/{id}/review.
// Nil fields are sent as JSON null.
type ReviewRequest struct {
	Notes       *string `json:"notes"`
	ActionTaken *string `json:"action_taken"`
}

// InterventionRequest is the body of POST /tutor/intervene.
type InterventionRequest struct {
	StudentID int    `json:"student_id"`
	Message   string `json:"message"`
}

// ConversationMessage is one line of a student conversation.
type ConversationMessage struct {
	ID        int    `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Emotion   string `json:"emotion"`
	Timestamp string `json:"timestamp"`
}

// StudentConversation is a student's recent conversation with the bot.
type StudentConversation struct {
	Student      StudentInfo           `json:"student"`
	Conversation []ConversationMessage `json:"conversation"`
}

// DashboardQuery filters the tutor dashboard.
type DashboardQuery struct {
	TimeRange string
	StudentID string
}

func (q DashboardQuery) values() url.Values {
	v := url.Values{}
	if q.TimeRange != "" {
		v.Set("time_range", q.TimeRange)
	}
	if q.StudentID != "" {
		v.Set("student_id", q.StudentID)
	}
	return v
}

// TutorService wraps the /tutor endpoints other than notifications.
type TutorService struct {
	doer api.Doer
}

// Dashboard returns the aggregated tutor dashboard.
func (s *TutorService) Dashboard(ctx context.Context, q DashboardQuery) (Document, error) {
	var doc Document
	if err := s.doer.Do(ctx, http.MethodGet, "/tutor/dashboard", q.values(), nil, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Alerts lists pending alerts.
func (s *TutorService) Alerts(ctx context.Context) ([]Alert, error) {
	var alerts []Alert
	if err := s.doer.Do(ctx, http.MethodGet, "/tutor/alerts", nil, nil, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// ReviewAlert marks an alert as reviewed.
func (s *TutorService) ReviewAlert(ctx context.Context, alertID string, req ReviewRequest) (Document, error) {
	var doc Document
	path := "/tutor/alert/" + url.PathEscape(alertID) + "/review"
	if err := s.doer.Do(ctx, http.MethodPut, path, nil, req, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Intervene sends a message from the tutor to a student.
func (s *TutorService) Intervene(ctx context.Context, req InterventionRequest) (Document, error) {
	var doc Document
	if err := s.doer.Do(ctx, http.MethodPost, "/tutor/intervene", nil, req, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// StudentConversation returns a student's conversation with the bot.
func (s *TutorService) StudentConversation(ctx context.Context, studentID string) (*StudentConversation, error) {
	var conv StudentConversation
	path := "/tutor/student/" + url.PathEscape(studentID) + "/conversation"
	if err := s.doer.Do(ctx, http.MethodGet, path, nil, nil, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}
