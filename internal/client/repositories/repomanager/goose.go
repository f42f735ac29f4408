package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"

	"github.com/dmitrijs2005/kenala/internal/logging"
	"github.com/pressly/goose/v3"
)

// gooseLogger routes goose progress lines into the application log at
// debug level instead of the standard logger on stderr.
type gooseLogger struct {
	log logging.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.log.Debug(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.log.Error(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func newGooseLogger(log logging.Logger) goose.Logger {
	if log == nil {
		return goose.NopLogger()
	}
	return gooseLogger{log: log.With("module", "migrations")}
}

// migrate applies the embedded migrations under gooseMu, since goose keeps
// its logger, base FS and dialect in package globals.
func migrate(ctx context.Context, db *sql.DB, fsys fs.FS, dialect string, log logging.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetLogger(newGooseLogger(log))
	goose.SetBaseFS(fsys)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, ".")
}
