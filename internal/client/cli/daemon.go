package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/kenala/internal/buildinfo"
	"github.com/dmitrijs2005/kenala/internal/client/models"
	"github.com/dmitrijs2005/kenala/internal/client/push"
)

type Mode string

const (
	ModeUnknown Mode = ""
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const (
	pingTimeout     = 3 * time.Second
	shutdownTimeout = 5 * time.Second
)

func newDaemonCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Keep the cache in sync, receive push messages and serve /metrics",
		Long: "Run in the foreground until interrupted. The daemon pings the server every\n" +
			"online_check_interval; when it comes back online, pending entries are sent\n" +
			"and the cache is refreshed. Push messages arrive over NATS when nats_url is set.",
		Args: cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ *cobra.Command, _ []string) error {
			return newDaemon(a).Run(ctx)
		}),
	}
}

type daemon struct {
	app *App

	mu   sync.Mutex
	mode Mode
}

func newDaemon(a *App) *daemon {
	return &daemon{app: a}
}

func (d *daemon) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// setMode records the new mode and reports whether it changed.
func (d *daemon) setMode(ctx context.Context, mode Mode) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mode == mode {
		return false
	}
	d.mode = mode
	d.app.metrics.SetOnline(mode == ModeOnline)
	d.app.log.Info(ctx, "connectivity changed", "mode", string(mode))
	return true
}

// Run blocks until ctx is done or a component fails, then shuts the HTTP
// server down gracefully.
func (d *daemon) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", d.app.cfg.MetricsAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", d.app.cfg.MetricsAddr, err)
	}
	return d.serve(ctx, ln)
}

func (d *daemon) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: d.router(), ReadHeaderTimeout: 5 * time.Second}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.app.log.Info(ctx, "daemon http server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		d.watchOnline(ctx, d.app.cfg.OnlineCheckInterval)
		return nil
	})
	if d.app.cfg.NATSURL != "" {
		sub := push.NewSubscriber(d.app.cfg.NATSURL, d.app.cfg.NATSSubject, d.ingest, d.app.log)
		g.Go(func() error { return sub.Run(ctx) })
	}

	return g.Wait()
}

// watchOnline probes the server right away and then every interval.
func (d *daemon) watchOnline(ctx context.Context, interval time.Duration) {
	d.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// checkOnline pings once. Coming online sends pending entries and then
// refreshes the cache; a failure there only logs, the next transition
// retries.
func (d *daemon) checkOnline(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := d.app.auth.Ping(pingCtx)
	cancel()
	if ctx.Err() != nil {
		return
	}

	if err != nil {
		d.setMode(ctx, ModeOffline)
		return
	}
	if d.setMode(ctx, ModeOnline) {
		d.catchUp(ctx)
	}
}

func (d *daemon) catchUp(ctx context.Context) {
	uid, err := d.app.currentUser(ctx)
	if err != nil {
		d.app.log.Info(ctx, "skipping sync", "reason", err.Error())
		return
	}

	rec, err := d.app.journals.Reconcile(ctx, uid)
	if err != nil {
		d.app.log.Error(ctx, "reconcile failed", "error", err)
		return
	}
	if rec.Attempted > 0 {
		d.app.log.Info(ctx, "pending entries sent", "synced", rec.Synced, "failed", rec.Failed)
	}

	ref, err := d.app.journals.Refresh(ctx, uid)
	if err != nil {
		d.app.log.Error(ctx, "refresh failed", "error", err)
		return
	}
	d.app.log.Info(ctx, "cache refreshed", "fetched", ref.Fetched, "pruned", ref.Pruned)
}

// ingest stores a push message for whoever is signed in when it arrives.
func (d *daemon) ingest(ctx context.Context, msg models.PushMessage) error {
	uid, err := d.app.currentUser(ctx)
	if err != nil {
		return err
	}
	_, err = d.app.notifications.Ingest(ctx, uid, msg)
	return err
}

type healthResponse struct {
	Status  string `json:"status"`
	Mode    string `json:"mode"`
	Version string `json:"version"`
	Pending *int   `json:"pending,omitempty"`
	Unread  *int   `json:"unread,omitempty"`

	LastRefresh *time.Time `json:"last_refresh,omitempty"`
}

func (d *daemon) router() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", d.app.metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", d.handleHealth).Methods(http.MethodGet)
	return r
}

func (d *daemon) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Mode: string(d.Mode()), Version: buildinfo.Version}
	if resp.Mode == "" {
		resp.Mode = "unknown"
	}

	ctx := r.Context()
	if uid, err := d.app.currentUser(ctx); err == nil {
		if pending, err := d.app.journals.Pending(ctx, uid); err == nil {
			n := len(pending)
			resp.Pending = &n
		}
		if unread, err := d.app.notifications.UnreadCount(ctx, uid); err == nil {
			resp.Unread = &unread
		}
		if at, err := d.app.store.Journals.LastRefresh(ctx, uid); err == nil && !at.IsZero() {
			resp.LastRefresh = &at
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		d.app.log.Warn(ctx, "write health response", "error", err)
	}
}
