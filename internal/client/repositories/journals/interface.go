package journals

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/kenala/internal/client/models"
)

// ErrNotFound is returned by GetByID when no row has the given id.
var ErrNotFound = errors.New("journal not found")

// Repository describes the journal operations of the local store.
type Repository interface {
	// Upsert inserts j or replaces the row with the same id.
	Upsert(ctx context.Context, j models.Journal) error

	// UpsertMany upserts every journal in order.
	UpsertMany(ctx context.Context, list []models.Journal) error

	// GetByID returns the journal with the given id or ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Journal, error)

	// ListByUser returns the journals of userID, newest first.
	ListByUser(ctx context.Context, userID string) ([]models.Journal, error)

	// ListUnsynced returns the unsynced journals of userID, oldest first.
	ListUnsynced(ctx context.Context, userID string) ([]models.Journal, error)

	// DeleteByID removes a journal. Deleting a missing id is not an error.
	DeleteByID(ctx context.Context, id string) error

	// DeleteAllForUser removes every journal of userID.
	DeleteAllForUser(ctx context.Context, userID string) error

	// DeleteSyncedExcept removes the synced journals of userID whose id is
	// not in keep. Unsynced journals are never touched.
	DeleteSyncedExcept(ctx context.Context, userID string, keep []string) (int64, error)
}
