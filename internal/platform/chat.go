package platform

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/felixgeelhaar/psichat/internal/api"
)

// Turn is one exchange of the conversation: user message then bot reply.
type Turn [2]string

// ChatRequest is the body of POST /chat/.
type ChatRequest struct {
	UserText string `json:"user_text"`
	History  []Turn `json:"history"`
}

// ChatMeta is the emotional analysis attached to a reply.
type ChatMeta struct {
	DetectedEmotion string  `json:"detected_emotion"`
	EmotionScore    float64 `json:"emotion_score"`
	DetectedStyle   string  `json:"detected_style"`
	StyleScore      float64 `json:"style_score"`
	Priority        string  `json:"priority"`
	Alert           bool    `json:"alert"`
	AlertReason     string  `json:"alert_reason,omitempty"`
}

// ChatResponse is the bot reply.
type ChatResponse struct {
	Reply   string   `json:"reply"`
	Meta    ChatMeta `json:"meta"`
	History []Turn   `json:"history"`
}

// HistoryMessage is one stored message.
type HistoryMessage struct {
	ID        int       `json:"id"`
	Text      string    `json:"texto"`
	Sender    string    `json:"remitente"`
	CreatedAt time.Time `json:"creado_en"`
	Analysis  Document  `json:"analisis,omitempty"`
}

// DirectMessage is a message between a student and a tutor.
type DirectMessage struct {
	ID         int       `json:"id,omitempty"`
	Content    string    `json:"content"`
	SenderID   int       `json:"sender_id"`
	ReceiverID int       `json:"receiver_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// ChatService wraps the /chat endpoints.
type ChatService struct {
	doer api.Doer
}

// Send posts a message with the running history and returns the reply.
func (s *ChatService) Send(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.History == nil {
		req.History = []Turn{}
	}
	var resp ChatResponse
	if err := s.doer.Do(ctx, http.MethodPost, "/chat/", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History returns the caller's stored messages.
func (s *ChatService) History(ctx context.Context) ([]HistoryMessage, error) {
	var msgs []HistoryMessage
	if err := s.doer.Do(ctx, http.MethodGet, "/chat/history", nil, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// DirectHistory returns the direct conversation with a participant.
func (s *ChatService) DirectHistory(ctx context.Context, participantID string) ([]DirectMessage, error) {
	var msgs []DirectMessage
	path := "/chat/direct/" + url.PathEscape(participantID)
	if err := s.doer.Do(ctx, http.MethodGet, path, nil, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendDirect posts a direct message.
func (s *ChatService) SendDirect(ctx context.Context, msg DirectMessage) (*DirectMessage, error) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	var out DirectMessage
	if err := s.doer.Do(ctx, http.MethodPost, "/chat/direct", nil, msg, &out); err != nil {
		return nil, err
	}
	if out.Content == "" {
		out = msg
	}
	return &out, nil
}
