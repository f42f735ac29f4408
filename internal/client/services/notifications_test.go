package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/kenala/internal/client/metrics"
	"github.com/dmitrijs2005/kenala/internal/client/models"
	"github.com/dmitrijs2005/kenala/internal/logging"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	got []models.Notification
	err error
}

func (r *recordingNotifier) Notify(_ context.Context, n models.Notification) error {
	r.got = append(r.got, n)
	return r.err
}

func newNotificationService(t *testing.T, n Notifier, m *metrics.Metrics) *notificationService {
	t.Helper()
	store := openStore(t)
	svc := NewNotificationService(store.Notifications, n, logging.Nop(), m).(*notificationService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestIngest_PersistsThenSurfaces(t *testing.T) {
	notifier := &recordingNotifier{}
	m := metrics.New()
	svc := newNotificationService(t, notifier, m)
	ctx := context.Background()

	stream, stop := svc.Observe(ctx, "u1")
	defer stop()
	assert.Empty(t, receive(t, stream))

	n, err := svc.Ingest(ctx, "u1", models.PushMessage{Title: " New badge ", Body: "Explorer unlocked"})
	require.NoError(t, err)
	assert.Equal(t, "New badge", n.Title)
	assert.False(t, n.Read)
	assert.Equal(t, fixedNow, n.ReceivedAt)

	assert.Equal(t, []models.Notification{n}, receive(t, stream))
	assert.Equal(t, []models.Notification{n}, notifier.got)

	expected := `
# HELP kenala_notifications_ingested_total Push notifications stored in the local inbox.
# TYPE kenala_notifications_ingested_total counter
kenala_notifications_ingested_total 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "kenala_notifications_ingested_total"))
}

func TestIngest_NotifierFailureKeepsNotification(t *testing.T) {
	svc := newNotificationService(t, &recordingNotifier{err: errors.New("no display")}, nil)
	ctx := context.Background()

	n, err := svc.Ingest(ctx, "u1", models.PushMessage{Title: "Streak", Body: "3 days"})
	require.NoError(t, err)

	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []models.Notification{n}, list)
}

func TestIngest_RejectsEmptyMessage(t *testing.T) {
	svc := newNotificationService(t, nil, nil)

	_, err := svc.Ingest(context.Background(), "u1", models.PushMessage{Title: "  "})
	require.ErrorIs(t, err, ErrEmptyMessage)
}

func TestNotifications_ReadAndClear(t *testing.T) {
	svc := newNotificationService(t, nil, nil)
	ctx := context.Background()

	a, err := svc.Ingest(ctx, "u1", models.PushMessage{Title: "a"})
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, "u1", models.PushMessage{Body: "b"})
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, "u2", models.PushMessage{Title: "c"})
	require.NoError(t, err)

	unread, err := svc.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	require.NoError(t, svc.MarkRead(ctx, a.ID))
	require.ErrorIs(t, svc.MarkRead(ctx, "missing"), ErrNotificationNotFound)

	changed, err := svc.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)

	require.NoError(t, svc.Delete(ctx, a.ID))
	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Clear(ctx, "u1"))
	list, err = svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)

	unread, err = svc.UnreadCount(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}
