package journals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/kenala/internal/client/models"
	"github.com/dmitrijs2005/kenala/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, j models.Journal) error {
	query := `INSERT INTO journals (` + columns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id,
			title = excluded.title,
			story = excluded.story,
			image_url = excluded.image_url,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			created_at = excluded.created_at,
			synced = excluded.synced`
	if _, err := r.db.ExecContext(ctx, query, args(j)...); err != nil {
		return fmt.Errorf("failed to upsert journal %s: %w", j.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) UpsertMany(ctx context.Context, list []models.Journal) error {
	for _, j := range list {
		if err := r.Upsert(ctx, j); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Journal, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM journals WHERE id = ?`, id)
	j, err := scanJournal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get journal %s: %w", id, err)
	}
	return &j, nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string) ([]models.Journal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+columns+` FROM journals WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select journals: %w", err)
	}
	return scanAll(rows)
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context, userID string) ([]models.Journal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+columns+` FROM journals WHERE user_id = ? AND synced = 0 ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select unsynced journals: %w", err)
	}
	return scanAll(rows)
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM journals WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete journal %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM journals WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear journals: %w", err)
	}
	return nil
}

var sqlitePrune = pruneStatements{
	syncedIDs: `SELECT id FROM journals WHERE user_id = ? AND synced = 1`,
	deleteIDs: func(n int) string {
		return `DELETE FROM journals WHERE synced = 1 AND id IN (` +
			strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + `)`
	},
}

func (r *SQLiteRepository) DeleteSyncedExcept(ctx context.Context, userID string, keep []string) (int64, error) {
	return pruneSyncedExcept(ctx, r.db, sqlitePrune, userID, keep)
}
