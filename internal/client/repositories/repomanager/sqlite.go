package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/kenala/internal/client/migrations/sqlite"
	"github.com/dmitrijs2005/kenala/internal/client/repositories/journals"
	"github.com/dmitrijs2005/kenala/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/kenala/internal/client/repositories/notifications"
	"github.com/dmitrijs2005/kenala/internal/dbx"
	"github.com/dmitrijs2005/kenala/internal/logging"

	_ "modernc.org/sqlite"
)

// SQLiteManager vends SQLite-backed repositories.
type SQLiteManager struct {
	log logging.Logger
}

func (m *SQLiteManager) Journals(db dbx.DBTX) journals.Repository {
	return journals.NewSQLiteRepository(db)
}

func (m *SQLiteManager) Notifications(db dbx.DBTX) notifications.Repository {
	return notifications.NewSQLiteRepository(db)
}

func (m *SQLiteManager) Metadata(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (m *SQLiteManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate(ctx, db, sqlite.Migrations, "sqlite3", m.log)
}

// openSQLite opens a single-connection handle in WAL mode. A single
// connection serializes writers inside the process; busy_timeout covers
// other processes sharing the file.
func openSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000`,
		`PRAGMA journal_mode = WAL`,
		`PRAGMA foreign_keys = ON`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return db, nil
}
