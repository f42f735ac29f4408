// Package notifications persists push notifications received by the device.
// Rows carry a read flag and are scoped by the owning user.
package notifications

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/kenala/internal/client/models"
)

var ErrNotFound = errors.New("notification not found")

type Repository interface {
	Insert(ctx context.Context, n models.Notification) error
	// ListByUser returns notifications newest first.
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID string) error
	CountUnread(ctx context.Context, userID string) (int, error)
}
