package localstore

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/kenala/internal/client/models"
	"github.com/dmitrijs2005/kenala/internal/client/repositories/notifications"
	"github.com/dmitrijs2005/kenala/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/kenala/internal/client/watch"
	"github.com/dmitrijs2005/kenala/internal/logging"
)

var ErrNotificationNotFound = notifications.ErrNotFound

// NotificationStore is the local inbox of push notifications.
type NotificationStore struct {
	db    *sql.DB
	repos repomanager.Manager
	hub   *watch.Hub
	log   logging.Logger
}

// Query streams the notifications of userID, newest first.
func (s *NotificationStore) Query(ctx context.Context, userID string) (<-chan []models.Notification, func()) {
	return observe(ctx, s.hub, s.log.With("query", "notifications", "user_id", userID),
		func(ctx context.Context) ([]models.Notification, error) {
			return s.repos.Notifications(s.db).ListByUser(ctx, userID)
		})
}

func (s *NotificationStore) List(ctx context.Context, userID string) ([]models.Notification, error) {
	return s.repos.Notifications(s.db).ListByUser(ctx, userID)
}

func (s *NotificationStore) Insert(ctx context.Context, n models.Notification) error {
	if err := s.repos.Notifications(s.db).Insert(ctx, n); err != nil {
		return err
	}
	s.hub.Notify()
	return nil
}

func (s *NotificationStore) MarkRead(ctx context.Context, id string) error {
	if err := s.repos.Notifications(s.db).MarkRead(ctx, id); err != nil {
		return err
	}
	s.hub.Notify()
	return nil
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repos.Notifications(s.db).MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.hub.Notify()
	}
	return n, nil
}

func (s *NotificationStore) DeleteByID(ctx context.Context, id string) error {
	if err := s.repos.Notifications(s.db).DeleteByID(ctx, id); err != nil {
		return err
	}
	s.hub.Notify()
	return nil
}

func (s *NotificationStore) DeleteAllForUser(ctx context.Context, userID string) error {
	if err := s.repos.Notifications(s.db).DeleteAllForUser(ctx, userID); err != nil {
		return err
	}
	s.hub.Notify()
	return nil
}

func (s *NotificationStore) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.repos.Notifications(s.db).CountUnread(ctx, userID)
}
