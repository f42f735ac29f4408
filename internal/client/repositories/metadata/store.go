package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/kenala/internal/dbx"
)

// statements holds the dialect specific SQL of a key/value table. Prefix
// matching uses LIKE with '\' as the escape character in both dialects.
type statements struct {
	get    string
	set    string
	del    string
	list   string
	prefix string
}

var sqliteStatements = statements{
	get: `SELECT value FROM metadata WHERE key = ?`,
	set: `INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
	del:    `DELETE FROM metadata WHERE key = ?`,
	list:   `SELECT key, value FROM metadata WHERE key LIKE ? ESCAPE '\' ORDER BY key`,
	prefix: `DELETE FROM metadata WHERE key LIKE ? ESCAPE '\'`,
}

var postgresStatements = statements{
	get: `SELECT value FROM metadata WHERE key = $1`,
	set: `INSERT INTO metadata (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
	del:    `DELETE FROM metadata WHERE key = $1`,
	list:   `SELECT key, value FROM metadata WHERE key LIKE $1 ESCAPE '\' ORDER BY key`,
	prefix: `DELETE FROM metadata WHERE key LIKE $1 ESCAPE '\'`,
}

type kv struct {
	db dbx.DBTX
	q  statements
}

// SQLiteRepository is the metadata table of the on-device cache.
type SQLiteRepository struct{ kv }

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{kv{db: db, q: sqliteStatements}}
}

// PostgresRepository serves the same table when the cache lives in Postgres.
type PostgresRepository struct{ kv }

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{kv{db: db, q: postgresStatements}}
}

func (r kv) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, r.q.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata %q: %w", key, err)
	}
	return value, nil
}

// Set overwrites any previous value. A nil value is stored as empty so the
// NOT NULL column accepts it.
func (r kv) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	if _, err := r.db.ExecContext(ctx, r.q.set, key, value); err != nil {
		return fmt.Errorf("write metadata %q: %w", key, err)
	}
	return nil
}

func (r kv) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, r.q.del, key); err != nil {
		return fmt.Errorf("delete metadata %q: %w", key, err)
	}
	return nil
}

func (r kv) List(ctx context.Context, prefix string) (map[string][]byte, error) {
	rows, err := r.db.QueryContext(ctx, r.q.list, likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("list metadata %q: %w", prefix, err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list metadata %q: %w", prefix, err)
	}
	return out, nil
}

func (r kv) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.q.prefix, likePrefix(prefix))
	if err != nil {
		return 0, fmt.Errorf("delete metadata %q*: %w", prefix, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete metadata %q*: %w", prefix, err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}
