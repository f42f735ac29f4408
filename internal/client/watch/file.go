package watch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/kenala/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// Notifier receives change signals.
type Notifier interface {
	Notify()
}

// FileTrigger watches a SQLite database file and its write-ahead log and
// notifies when either is written. It lets a `journal list --watch` in one
// process observe writes made by the daemon or another command.
type FileTrigger struct {
	path   string
	target Notifier
	log    logging.Logger
}

func NewFileTrigger(dbPath string, target Notifier, log logging.Logger) *FileTrigger {
	return &FileTrigger{path: dbPath, target: target, log: log.With("module", "watch")}
}

// Run blocks until ctx is done. The parent directory is watched instead of
// the files themselves because SQLite creates and removes the -wal file.
func (f *FileTrigger) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(f.path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", f.path, err)
	}
	dir := filepath.Dir(abs)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	names := map[string]bool{
		abs:          true,
		abs + "-wal": true,
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !names[filepath.Clean(ev.Name)] {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				f.target.Notify()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			f.log.Warn(ctx, "watch error", "path", dir, "error", err)
		}
	}
}
