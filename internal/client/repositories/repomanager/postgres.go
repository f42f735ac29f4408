package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/kenala/internal/client/migrations/postgres"
	"github.com/dmitrijs2005/kenala/internal/client/repositories/journals"
	"github.com/dmitrijs2005/kenala/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/kenala/internal/client/repositories/notifications"
	"github.com/dmitrijs2005/kenala/internal/dbx"
	"github.com/dmitrijs2005/kenala/internal/logging"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresManager vends PostgreSQL-backed repositories for installations
// that keep the local store in a shared database.
type PostgresManager struct {
	log logging.Logger
}

func (m *PostgresManager) Journals(db dbx.DBTX) journals.Repository {
	return journals.NewPostgresRepository(db)
}

func (m *PostgresManager) Notifications(db dbx.DBTX) notifications.Repository {
	return notifications.NewPostgresRepository(db)
}

func (m *PostgresManager) Metadata(db dbx.DBTX) metadata.Repository {
	return metadata.NewPostgresRepository(db)
}

func (m *PostgresManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate(ctx, db, postgres.Migrations, "pgx", m.log)
}
