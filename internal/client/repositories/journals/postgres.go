package journals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/kenala/internal/client/models"
	"github.com/dmitrijs2005/kenala/internal/dbx"
)

// PostgresRepository implements Repository over a PostgreSQL DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, j models.Journal) error {
	query := `
		INSERT INTO journals (` + columns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id)
		DO UPDATE SET
			user_id = EXCLUDED.user_id,
			title = EXCLUDED.title,
			story = EXCLUDED.story,
			image_url = EXCLUDED.image_url,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			created_at = EXCLUDED.created_at,
			synced = EXCLUDED.synced;
	`
	if _, err := r.db.ExecContext(ctx, query, args(j)...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpsertMany(ctx context.Context, list []models.Journal) error {
	for _, j := range list {
		if err := r.Upsert(ctx, j); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Journal, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM journals WHERE id = $1`, id)
	j, err := scanJournal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &j, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]models.Journal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+columns+` FROM journals WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select journals: %w", err)
	}
	return scanAll(rows)
}

func (r *PostgresRepository) ListUnsynced(ctx context.Context, userID string) ([]models.Journal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+columns+` FROM journals WHERE user_id = $1 AND NOT synced ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select unsynced journals: %w", err)
	}
	return scanAll(rows)
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM journals WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM journals WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

var postgresPrune = pruneStatements{
	syncedIDs: `SELECT id FROM journals WHERE user_id = $1 AND synced`,
	deleteIDs: func(n int) string {
		ph := make([]string, n)
		for i := range ph {
			ph[i] = "$" + strconv.Itoa(i+1)
		}
		return `DELETE FROM journals WHERE synced AND id IN (` + strings.Join(ph, ", ") + `)`
	},
}

func (r *PostgresRepository) DeleteSyncedExcept(ctx context.Context, userID string, keep []string) (int64, error) {
	return pruneSyncedExcept(ctx, r.db, postgresPrune, userID, keep)
}
