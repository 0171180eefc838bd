package amqp

import (
	"encoding/json"
	"time"

	"budget/internal/core"
)

// NotificationEvent mirrors one entry of the activity feed.
type NotificationEvent struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	User      string    `json:"user"`
	Module    string    `json:"module"`
	CreatedAt time.Time `json:"created_at"`
	Timestamp time.Time `json:"timestamp"`
}

func NewNotificationEvent(n core.Notification) *NotificationEvent {
	return &NotificationEvent{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		User:      n.User,
		Module:    n.Module,
		CreatedAt: n.CreatedAt,
		Timestamp: time.Now(),
	}
}

// Notification converts the event back to the domain type.
func (m *NotificationEvent) Notification() core.Notification {
	return core.Notification{
		ID:        m.ID,
		Title:     m.Title,
		Message:   m.Message,
		User:      m.User,
		Module:    m.Module,
		CreatedAt: m.CreatedAt,
	}
}

func (m *NotificationEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func NotificationEventFromJSON(data []byte) (*NotificationEvent, error) {
	var msg NotificationEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
