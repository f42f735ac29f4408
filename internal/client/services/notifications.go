package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/kenala/internal/client/localstore"
	"github.com/dmitrijs2005/kenala/internal/client/metrics"
	"github.com/dmitrijs2005/kenala/internal/client/models"
	"github.com/dmitrijs2005/kenala/internal/logging"
)

var (
	ErrEmptyMessage         = errors.New("push message has neither title nor body")
	ErrNotificationNotFound = errors.New("notification not found")
)

// NotificationStore is the part of the local store the inbox uses.
type NotificationStore interface {
	Query(ctx context.Context, userID string) (<-chan []models.Notification, func())
	List(ctx context.Context, userID string) ([]models.Notification, error)
	Insert(ctx context.Context, n models.Notification) error
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID string) error
	CountUnread(ctx context.Context, userID string) (int, error)
}

// Notifier surfaces a stored notification to the user.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// NotificationService is the local inbox of push messages.
type NotificationService interface {
	// Ingest stores msg for userID and then surfaces it. A failure to
	// surface is logged; the stored notification is kept.
	Ingest(ctx context.Context, userID string, msg models.PushMessage) (models.Notification, error)
	Observe(ctx context.Context, userID string) (<-chan []models.Notification, func())
	List(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context, userID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
}

type notificationService struct {
	store    NotificationStore
	notifier Notifier
	log      logging.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewNotificationService builds the inbox. notifier may be nil.
func NewNotificationService(store NotificationStore, notifier Notifier, log logging.Logger, m *metrics.Metrics) NotificationService {
	return &notificationService{
		store:    store,
		notifier: notifier,
		log:      log.With("module", "notifications"),
		metrics:  m,
		now:      time.Now,
	}
}

func (s *notificationService) Ingest(ctx context.Context, userID string, msg models.PushMessage) (models.Notification, error) {
	msg.Title = strings.TrimSpace(msg.Title)
	msg.Body = strings.TrimSpace(msg.Body)
	if msg.Title == "" && msg.Body == "" {
		return models.Notification{}, ErrEmptyMessage
	}

	n := models.NewNotification(userID, msg, s.now())
	if err := s.store.Insert(ctx, n); err != nil {
		return models.Notification{}, storageError(err)
	}
	s.metrics.NotificationIngested()

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.log.Warn(ctx, "failed to surface notification", "id", n.ID, "error", err)
		}
	}
	return n, nil
}

func (s *notificationService) Observe(ctx context.Context, userID string) (<-chan []models.Notification, func()) {
	return s.store.Query(ctx, userID)
}

func (s *notificationService) List(ctx context.Context, userID string) ([]models.Notification, error) {
	list, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, storageError(err)
	}
	return list, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id string) error {
	err := s.store.MarkRead(ctx, id)
	if errors.Is(err, localstore.ErrNotificationNotFound) {
		return ErrNotificationNotFound
	}
	return storageError(err)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, storageError(err)
	}
	return n, nil
}

func (s *notificationService) Delete(ctx context.Context, id string) error {
	return storageError(s.store.DeleteByID(ctx, id))
}

func (s *notificationService) Clear(ctx context.Context, userID string) error {
	return storageError(s.store.DeleteAllForUser(ctx, userID))
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	n, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return 0, storageError(err)
	}
	return n, nil
}
