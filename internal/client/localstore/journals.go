package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/kenala/internal/client/models"
	"github.com/dmitrijs2005/kenala/internal/client/repositories/journals"
	"github.com/dmitrijs2005/kenala/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/kenala/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/kenala/internal/client/watch"
	"github.com/dmitrijs2005/kenala/internal/dbx"
	"github.com/dmitrijs2005/kenala/internal/logging"
)

// ErrNotFound is returned by GetByID when no journal has the given id.
var ErrNotFound = journals.ErrNotFound

// JournalStore caches journals of every user that signed in on the device.
type JournalStore struct {
	db    *sql.DB
	repos repomanager.Manager
	hub   *watch.Hub
	log   logging.Logger
	now   func() time.Time
}

// Query streams the journals of userID, newest first.
func (s *JournalStore) Query(ctx context.Context, userID string) (<-chan []models.Journal, func()) {
	return observe(ctx, s.hub, s.log.With("query", "journals", "user_id", userID),
		func(ctx context.Context) ([]models.Journal, error) {
			return s.repos.Journals(s.db).ListByUser(ctx, userID)
		})
}

func (s *JournalStore) List(ctx context.Context, userID string) ([]models.Journal, error) {
	return s.repos.Journals(s.db).ListByUser(ctx, userID)
}

func (s *JournalStore) GetByID(ctx context.Context, id string) (*models.Journal, error) {
	return s.repos.Journals(s.db).GetByID(ctx, id)
}

// GetUnsynced returns the journals of userID that wait for reconciliation,
// oldest first.
func (s *JournalStore) GetUnsynced(ctx context.Context, userID string) ([]models.Journal, error) {
	return s.repos.Journals(s.db).ListUnsynced(ctx, userID)
}

func (s *JournalStore) Upsert(ctx context.Context, j models.Journal) error {
	if err := s.repos.Journals(s.db).Upsert(ctx, j); err != nil {
		return err
	}
	s.hub.Notify()
	return nil
}

func (s *JournalStore) UpsertMany(ctx context.Context, list []models.Journal) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.Journals(tx).UpsertMany(ctx, list)
	})
	if err != nil {
		return err
	}
	s.hub.Notify()
	return nil
}

// DeleteByID removes a journal. Deleting a missing id is not an error.
func (s *JournalStore) DeleteByID(ctx context.Context, id string) error {
	if err := s.repos.Journals(s.db).DeleteByID(ctx, id); err != nil {
		return err
	}
	s.hub.Notify()
	return nil
}

// DeleteAllForUser drops the cached journals of userID together with the
// record of its last refresh.
func (s *JournalStore) DeleteAllForUser(ctx context.Context, userID string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Journals(tx).DeleteAllForUser(ctx, userID); err != nil {
			return err
		}
		return s.repos.Metadata(tx).Delete(ctx, metadata.LastRefreshKey(userID))
	})
	if err != nil {
		return err
	}
	s.hub.Notify()
	return nil
}

// ReplaceSynced upserts list and removes every synced journal of userID
// that is not in list. Unsynced journals are left alone. The refresh time of
// userID is recorded in the same transaction. It returns the number of
// removed rows.
func (s *JournalStore) ReplaceSynced(ctx context.Context, userID string, list []models.Journal) (int64, error) {
	keep := make([]string, 0, len(list))
	for _, j := range list {
		keep = append(keep, j.ID)
	}

	var pruned int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Journals(tx)
		if err := repo.UpsertMany(ctx, list); err != nil {
			return err
		}
		n, err := repo.DeleteSyncedExcept(ctx, userID, keep)
		if err != nil {
			return err
		}
		pruned = n
		return metadata.PutTime(ctx, s.repos.Metadata(tx), metadata.LastRefreshKey(userID), s.now())
	})
	if err != nil {
		return 0, fmt.Errorf("replace synced journals: %w", err)
	}
	s.hub.Notify()
	return pruned, nil
}

// LastRefresh reports when ReplaceSynced last succeeded for userID. The zero
// time means never.
func (s *JournalStore) LastRefresh(ctx context.Context, userID string) (time.Time, error) {
	return metadata.GetTime(ctx, s.repos.Metadata(s.db), metadata.LastRefreshKey(userID))
}

// Promote replaces the provisional journal oldID with its server confirmed
// version j in one transaction.
func (s *JournalStore) Promote(ctx context.Context, oldID string, j models.Journal) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Journals(tx)
		if oldID != j.ID {
			if err := repo.DeleteByID(ctx, oldID); err != nil {
				return err
			}
		}
		return repo.Upsert(ctx, j)
	})
	if err != nil {
		return fmt.Errorf("promote journal %s: %w", oldID, err)
	}
	s.hub.Notify()
	return nil
}
