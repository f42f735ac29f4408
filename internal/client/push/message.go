// Package push receives push messages from a NATS subject and hands them to
// the notification inbox.
package push

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/kenala/internal/client/models"
)

var ErrEmptyPayload = errors.New("push payload carries no title or body")

type envelope struct {
	Title        string              `json:"title"`
	Body         string              `json:"body"`
	Notification *models.PushMessage `json:"notification"`
	Data         *models.PushMessage `json:"data"`
}

// DecodeMessage accepts a flat {"title","body"} object or an FCM-style
// payload with a "notification" (or "data") block.
func DecodeMessage(data []byte) (models.PushMessage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return models.PushMessage{}, fmt.Errorf("decode push payload: %w", err)
	}

	candidates := []*models.PushMessage{env.Notification, env.Data, {Title: env.Title, Body: env.Body}}
	for _, c := range candidates {
		if c == nil {
			continue
		}
		msg := models.PushMessage{Title: strings.TrimSpace(c.Title), Body: strings.TrimSpace(c.Body)}
		if msg.Title != "" || msg.Body != "" {
			return msg, nil
		}
	}
	return models.PushMessage{}, ErrEmptyPayload
}
