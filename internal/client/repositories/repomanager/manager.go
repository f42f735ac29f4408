// Package repomanager vends local store repositories bound to a database
// handle or a transaction, and owns the schema migrations of each backend.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/kenala/internal/client/repositories/journals"
	"github.com/dmitrijs2005/kenala/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/kenala/internal/client/repositories/notifications"
	"github.com/dmitrijs2005/kenala/internal/dbx"
	"github.com/dmitrijs2005/kenala/internal/logging"
	"github.com/pressly/goose/v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Manager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Journals(db dbx.DBTX) journals.Repository
	Notifications(db dbx.DBTX) notifications.Repository
	Metadata(db dbx.DBTX) metadata.Repository
}

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// NewManager returns the manager for the given database driver name.
// Migration output goes to log; a nil log discards it.
func NewManager(driver string, log logging.Logger) (Manager, error) {
	switch driver {
	case DriverSQLite, "":
		return &SQLiteManager{log: log}, nil
	case DriverPostgres, "pgx":
		return &PostgresManager{log: log}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Open opens the local store database, applies pending migrations and
// returns the handle together with its manager.
func Open(ctx context.Context, driver, dsn string, log logging.Logger) (*sql.DB, Manager, error) {
	m, err := NewManager(driver, log)
	if err != nil {
		return nil, nil, err
	}

	var db *sql.DB
	switch m.(type) {
	case *SQLiteManager:
		db, err = openSQLite(ctx, dsn)
	default:
		db, err = sql.Open("pgx", dsn)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, m, nil
}
