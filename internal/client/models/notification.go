package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a push message kept in the local inbox.
type Notification struct {
	ID         string    `json:"id" yaml:"id"`
	UserID     string    `json:"userId" yaml:"userId"`
	Title      string    `json:"title" yaml:"title"`
	Body       string    `json:"body" yaml:"body"`
	Read       bool      `json:"read" yaml:"read"`
	ReceivedAt time.Time `json:"receivedAt" yaml:"receivedAt"`
}

// PushMessage is an inbound push with its display fields.
type PushMessage struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// NewNotification stores msg as an unread notification for userID.
func NewNotification(userID string, msg PushMessage, now time.Time) Notification {
	return Notification{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      msg.Title,
		Body:       msg.Body,
		ReceivedAt: now.UTC().Truncate(time.Millisecond),
	}
}
