package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/kenala/internal/client/client"
	"github.com/dmitrijs2005/kenala/internal/client/config"
	"github.com/dmitrijs2005/kenala/internal/client/images"
	"github.com/dmitrijs2005/kenala/internal/client/localstore"
	"github.com/dmitrijs2005/kenala/internal/client/metrics"
	"github.com/dmitrijs2005/kenala/internal/client/services"
	"github.com/dmitrijs2005/kenala/internal/client/session"
	"github.com/dmitrijs2005/kenala/internal/logging"
)

// App is the composition root. It is built once per command invocation and
// owns every long-lived dependency.
type App struct {
	cfg       *config.Config
	log       logging.Logger
	logCloser io.Closer
	in        *bufio.Reader
	ask       *prompter
	out       io.Writer

	store    *localstore.Store
	sessions *session.Manager
	api      *client.HTTPClient
	metrics  *metrics.Metrics

	auth          services.AuthService
	journals      services.JournalService
	notifications services.NotificationService
	uploader      images.Uploader
}

func NewApp(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) (*App, error) {
	log, logCloser, err := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	if cfg.DatabaseDriver == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.DatabaseDSN), 0o700); err != nil {
			logCloser.Close()
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	store, err := localstore.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN, log)
	if err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("open local store: %w", err)
	}

	sessions := session.NewManager(store.Metadata())
	api, err := client.NewHTTPClient(cfg.ServerURL, cfg.RequestTimeout, sessions)
	if err != nil {
		store.Close()
		logCloser.Close()
		return nil, err
	}

	m := metrics.New()
	a := &App{
		cfg:       cfg,
		log:       log,
		logCloser: logCloser,
		in:        bufio.NewReader(in),
		out:       out,
		store:     store,
		sessions:  sessions,
		api:       api,
		metrics:   m,
	}
	a.ask = newPrompter(a.in, out)
	a.auth = services.NewAuthService(api, sessions, log, store.Journals, store.Notifications)
	a.journals = services.NewJournalService(api, store.Journals, log, m)
	a.notifications = services.NewNotificationService(store.Notifications, &terminalNotifier{w: out}, log, m)

	if cfg.S3Bucket != "" {
		up, err := images.NewS3Uploader(ctx, images.Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init image storage: %w", err)
		}
		a.uploader = up
	}

	return a, nil
}

func (a *App) Close() error {
	err := a.store.Close()
	return errors.Join(err, a.logCloser.Close())
}

var errNotLoggedIn = errors.New("not logged in, run 'kenala login' first")

// currentUser returns the scope of the stored session. An expired token
// still names its user; only the server can reject it.
func (a *App) currentUser(ctx context.Context) (string, error) {
	uid, err := a.auth.CurrentUser(ctx)
	if errors.Is(err, session.ErrNotLoggedIn) {
		return "", errNotLoggedIn
	}
	return uid, err
}

// loginHint adds the way out to an error caused by a rejected session.
func loginHint(err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf("%w; run 'kenala login' again", err)
	}
	return err
}