package localstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/kenala/internal/client/models"
	"github.com/dmitrijs2005/kenala/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "kenala.db"), logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var base = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func journal(id, user string, offset time.Duration, synced bool) models.Journal {
	return models.Journal{
		ID: id, UserID: user, Title: "title " + id, Story: "story",
		CreatedAt: base.Add(offset), Synced: synced,
	}
}

func ids(list []models.Journal) []string {
	out := make([]string, 0, len(list))
	for _, j := range list {
		out = append(out, j.ID)
	}
	return out
}

func receive[T any](t *testing.T, ch <-chan []T) []T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "stream closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("no emission")
		return nil
	}
}

func TestJournalStore_QueryEmitsOnChange(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	stream, stop := s.Journals.Query(ctx, "u1")
	defer stop()

	assert.Empty(t, receive(t, stream))

	require.NoError(t, s.Journals.Upsert(ctx, journal("a", "u1", 0, true)))
	assert.Equal(t, []string{"a"}, ids(receive(t, stream)))

	require.NoError(t, s.Journals.Upsert(ctx, journal("b", "u1", time.Hour, false)))
	assert.Equal(t, []string{"b", "a"}, ids(receive(t, stream)))

	require.NoError(t, s.Journals.DeleteByID(ctx, "a"))
	assert.Equal(t, []string{"b"}, ids(receive(t, stream)))
}

func TestJournalStore_QueryTeardownClosesStream(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	stream, stop := s.Journals.Query(ctx, "u1")
	receive(t, stream)

	stop()
	stop()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-stream:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return s.Hub().Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}

func TestJournalStore_QueryStopsOnContextCancel(t *testing.T) {
	s := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	stream, stop := s.Journals.Query(ctx, "u1")
	defer stop()
	receive(t, stream)

	cancel()
	assert.Eventually(t, func() bool {
		_, ok := <-stream
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestJournalStore_QueryClosesOnStorageError(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Close())

	stream, stop := s.Journals.Query(context.Background(), "u1")
	defer stop()

	select {
	case _, ok := <-stream:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("stream not closed")
	}
}

func TestJournalStore_PointReads(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, err := s.Journals.GetByID(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Journals.UpsertMany(ctx, []models.Journal{
		journal("srv", "u1", 0, true),
		journal("local_2", "u1", 2*time.Minute, false),
		journal("local_1", "u1", time.Minute, false),
	}))

	got, err := s.Journals.GetByID(ctx, "srv")
	require.NoError(t, err)
	assert.Equal(t, journal("srv", "u1", 0, true), *got)

	unsynced, err := s.Journals.GetUnsynced(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"local_1", "local_2"}, ids(unsynced))
}

func TestJournalStore_ReplaceSynced(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	refreshed := base.Add(time.Hour)
	s.Journals.now = func() time.Time { return refreshed }

	never, err := s.Journals.LastRefresh(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, never.IsZero())

	require.NoError(t, s.Journals.UpsertMany(ctx, []models.Journal{
		journal("s1", "u1", 0, true),
		journal("stale", "u1", time.Minute, true),
		journal("local_1", "u1", 2*time.Minute, false),
		journal("other", "u2", 0, true),
	}))

	updated := journal("s1", "u1", 0, true)
	updated.Title = "from server"
	pruned, err := s.Journals.ReplaceSynced(ctx, "u1", []models.Journal{updated, journal("s2", "u1", 3*time.Minute, true)})
	require.NoError(t, err)
	assert.EqualValues(t, 1, pruned)

	list, err := s.Journals.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s2", "local_1", "s1"}, ids(list))
	assert.Equal(t, "from server", list[2].Title)

	others, err := s.Journals.List(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, others, 1)

	at, err := s.Journals.LastRefresh(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, refreshed.Equal(at))

	at, err = s.Journals.LastRefresh(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, at.IsZero())
}

func TestJournalStore_Promote(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	local := journal("local_1", "u1", 0, false)
	require.NoError(t, s.Journals.Upsert(ctx, local))

	confirmed := local
	confirmed.ID = "srv-1"
	confirmed.Synced = true
	require.NoError(t, s.Journals.Promote(ctx, "local_1", confirmed))

	_, err := s.Journals.GetByID(ctx, "local_1")
	require.ErrorIs(t, err, ErrNotFound)

	got, err := s.Journals.GetByID(ctx, "srv-1")
	require.NoError(t, err)
	assert.Equal(t, confirmed, *got)
}

func TestJournalStore_DeleteAllForUser(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Journals.UpsertMany(ctx, []models.Journal{
		journal("a", "u1", 0, true),
		journal("b", "u2", 0, true),
	}))
	_, err := s.Journals.ReplaceSynced(ctx, "u1", []models.Journal{journal("a", "u1", 0, true)})
	require.NoError(t, err)
	require.NoError(t, s.Journals.DeleteAllForUser(ctx, "u1"))

	list, err := s.Journals.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)

	at, err := s.Journals.LastRefresh(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, at.IsZero())

	kept, err := s.Journals.List(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestNotificationStore(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	stream, stop := s.Notifications.Query(ctx, "u1")
	defer stop()
	assert.Empty(t, receive(t, stream))

	n := models.NewNotification("u1", models.PushMessage{Title: "Badge", Body: "Explorer"}, base)
	require.NoError(t, s.Notifications.Insert(ctx, n))

	got := receive(t, stream)
	require.Len(t, got, 1)
	assert.Equal(t, n, got[0])

	unread, err := s.Notifications.CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	require.NoError(t, s.Notifications.MarkRead(ctx, n.ID))
	assert.True(t, receive(t, stream)[0].Read)

	require.ErrorIs(t, s.Notifications.MarkRead(ctx, "missing"), ErrNotificationNotFound)

	changed, err := s.Notifications.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, changed)

	require.NoError(t, s.Notifications.DeleteAllForUser(ctx, "u1"))
	assert.Empty(t, receive(t, stream))
}

func TestStore_Metadata(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Metadata().Set(ctx, "k", []byte("v")))
	v, err := s.Metadata().Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	all, err := s.Metadata().List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"k": []byte("v")}, all)
}
