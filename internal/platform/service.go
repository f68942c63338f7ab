package platform

import (
	"github.com/felixgeelhaar/psichat/internal/api"
)

// Services groups every backend façade over one Doer.
type Services struct {
	Auth          *AuthService
	Chat          *ChatService
	Analysis      *AnalysisService
	Tutor         *TutorService
	Notifications *NotificationService
	User          *UserService
	System        *SystemService
}

// NewServices builds all façades on d.
func NewServices(d api.Doer) *Services {
	return &Services{
		Auth:          &AuthService{doer: d},
		Chat:          &ChatService{doer: d},
		Analysis:      &AnalysisService{doer: d},
		Tutor:         &TutorService{doer: d},
		Notifications: &NotificationService{doer: d},
		User:          &UserService{doer: d},
		System:        &SystemService{doer: d},
	}
}
