package localstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/kenala/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/kenala/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/kenala/internal/client/watch"
	"github.com/dmitrijs2005/kenala/internal/logging"
)

// Store owns the database handle of the local cache. It is constructed once
// by the composition root and shared by every service.
type Store struct {
	db    *sql.DB
	repos repomanager.Manager
	hub   *watch.Hub

	Journals      *JournalStore
	Notifications *NotificationStore
}

// Open opens the database, applies migrations and builds the stores.
func Open(ctx context.Context, driver, dsn string, log logging.Logger) (*Store, error) {
	db, repos, err := repomanager.Open(ctx, driver, dsn, log)
	if err != nil {
		return nil, err
	}
	return New(db, repos, watch.NewHub(), log), nil
}

// New wraps an already migrated database.
func New(db *sql.DB, repos repomanager.Manager, hub *watch.Hub, log logging.Logger) *Store {
	log = log.With("module", "localstore")
	return &Store{
		db:            db,
		repos:         repos,
		hub:           hub,
		Journals:      &JournalStore{db: db, repos: repos, hub: hub, log: log, now: time.Now},
		Notifications: &NotificationStore{db: db, repos: repos, hub: hub, log: log},
	}
}

// Metadata returns the key/value repository bound to the store database.
func (s *Store) Metadata() metadata.Repository {
	return s.repos.Metadata(s.db)
}

// Hub returns the change hub. External triggers call Notify on it.
func (s *Store) Hub() *watch.Hub {
	return s.hub
}

func (s *Store) Close() error {
	return s.db.Close()
}
