package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/kenala/internal/client/client"
	"github.com/dmitrijs2005/kenala/internal/client/localstore"
	"github.com/dmitrijs2005/kenala/internal/client/models"
	"github.com/dmitrijs2005/kenala/internal/logging"
	"github.com/stretchr/testify/require"
)

var (
	errUnavailable = fmt.Errorf("%w: dial tcp: connection refused", client.ErrUnavailable)
	errRejected    = &client.StatusError{Code: 422, Message: "title is required"}
	errConflict    = &client.StatusError{Code: 409, Message: "journal was modified"}
)

var fixedNow = time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)

// fakeAPI implements client.Client. Unset hooks fail the test.
type fakeAPI struct {
	client.Client

	mu      sync.Mutex
	t       *testing.T
	created []models.JournalRequest
	nextID  int

	list   func() ([]models.JournalPayload, error)
	create func(req models.JournalRequest) (*models.JournalPayload, error)
	update func(id string, req models.JournalRequest) (*models.JournalPayload, error)
	delete func(id string) error
	login  func(email, password string) (string, error)
	ping   func() error
}

func newFakeAPI(t *testing.T) *fakeAPI {
	return &fakeAPI{t: t}
}

// echo answers a create by assigning the next server id.
func (f *fakeAPI) echo(req models.JournalRequest) (*models.JournalPayload, error) {
	f.nextID++
	return payloadFrom(fmt.Sprintf("srv-%d", f.nextID), req), nil
}

func payloadFrom(id string, req models.JournalRequest) *models.JournalPayload {
	return &models.JournalPayload{
		ID: id, UserID: "u1", Title: req.Title, Story: req.Story,
		ImageURL: req.ImageURL, Latitude: req.Latitude, Longitude: req.Longitude,
		CreatedAt: fixedNow,
	}
}

func (f *fakeAPI) ListJournals(ctx context.Context) ([]models.JournalPayload, error) {
	require.NotNil(f.t, f.list, "unexpected ListJournals")
	return f.list()
}

func (f *fakeAPI) CreateJournal(ctx context.Context, req models.JournalRequest) (*models.JournalPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotNil(f.t, f.create, "unexpected CreateJournal")
	f.created = append(f.created, req)
	return f.create(req)
}

func (f *fakeAPI) UpdateJournal(ctx context.Context, id string, req models.JournalRequest) (*models.JournalPayload, error) {
	require.NotNil(f.t, f.update, "unexpected UpdateJournal")
	return f.update(id, req)
}

func (f *fakeAPI) DeleteJournal(ctx context.Context, id string) error {
	require.NotNil(f.t, f.delete, "unexpected DeleteJournal")
	return f.delete(id)
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (string, error) {
	require.NotNil(f.t, f.login, "unexpected Login")
	return f.login(email, password)
}

func (f *fakeAPI) Ping(ctx context.Context) error {
	require.NotNil(f.t, f.ping, "unexpected Ping")
	return f.ping()
}

func (f *fakeAPI) createCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func openStore(t *testing.T) *localstore.Store {
	t.Helper()
	s, err := localstore.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "kenala.db"), logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newJournalService(t *testing.T, api *fakeAPI) (*journalService, *localstore.Store) {
	t.Helper()
	store := openStore(t)
	svc := NewJournalService(api, store.Journals, logging.Nop(), nil).(*journalService)
	svc.now = func() time.Time { return fixedNow }
	return svc, store
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
