package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/kenala/internal/client/config"
	"github.com/dmitrijs2005/kenala/internal/client/models"
	"github.com/dmitrijs2005/kenala/internal/client/session"
)

const testUser = "u1"

func signToken(t *testing.T, userID string) string {
	t.Helper()
	return signTokenExpiring(t, userID, time.Now().Add(time.Hour))
}

func signTokenExpiring(t *testing.T, userID string, exp time.Time) string {
	t.Helper()
	claims := session.Claims{
		UserID:           userID,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

// backend is an in-memory Kenala API.
type backend struct {
	*httptest.Server

	mu       sync.Mutex
	token    string
	journals map[string]models.JournalPayload
	next     int
	down     atomic.Bool
}

func writeData(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": v})
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{token: signToken(t, testUser), journals: map[string]models.JournalPayload{}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid credentials"})
			return
		}
		writeData(w, http.StatusOK, map[string]string{"token": b.token})
	})
	mux.HandleFunc("GET /journals", b.authed(func(w http.ResponseWriter, _ *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := make([]models.JournalPayload, 0, len(b.journals))
		for _, p := range b.journals {
			list = append(list, p)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
		writeData(w, http.StatusOK, list)
	}))
	mux.HandleFunc("POST /journals", b.authed(func(w http.ResponseWriter, r *http.Request) {
		var req models.JournalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		b.next++
		p := payload(fmt.Sprintf("srv-%d", b.next), req, time.Now())
		b.journals[p.ID] = p
		writeData(w, http.StatusCreated, p)
	}))
	mux.HandleFunc("PUT /journals/{id}", b.authed(func(w http.ResponseWriter, r *http.Request) {
		var req models.JournalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		old, ok := b.journals[r.PathValue("id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		p := payload(old.ID, req, old.CreatedAt)
		b.journals[p.ID] = p
		writeData(w, http.StatusOK, p)
	}))
	mux.HandleFunc("DELETE /journals/{id}", b.authed(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.journals[r.PathValue("id")]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(b.journals, r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	}))

	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.down.Load() {
			// Drop the connection so the client sees a transport failure.
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				conn.Close()
			}
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.Close)
	return b
}

func (b *backend) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+b.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		h(w, r)
	}
}

func (b *backend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.journals)
}

func payload(id string, req models.JournalRequest, created time.Time) models.JournalPayload {
	return models.JournalPayload{
		ID: id, UserID: testUser, Title: req.Title, Story: req.Story,
		ImageURL: req.ImageURL, Latitude: req.Latitude, Longitude: req.Longitude,
		CreatedAt: created.UTC(),
	}
}

// env runs kenala commands against one backend and one local database.
type env struct {
	t       *testing.T
	backend *backend
	dsn     string
}

func newEnv(t *testing.T) *env {
	return &env{t: t, backend: newBackend(t), dsn: filepath.Join(t.TempDir(), "kenala.db")}
}

func (e *env) globals() []string {
	return []string{
		"-a", e.backend.URL,
		"--database-dsn", e.dsn,
		"--log-level", "error",
		"--request-timeout", "2s",
	}
}

func (e *env) runCtx(ctx context.Context, stdin string, args ...string) (string, error) {
	e.t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, e.globals()...))
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func (e *env) run(stdin string, args ...string) (string, error) {
	e.t.Helper()
	return e.runCtx(context.Background(), stdin, args...)
}

func (e *env) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run("", args...)
	require.NoError(e.t, err, out)
	return out
}

func (e *env) login() {
	e.t.Helper()
	out, err := e.run("pw\n", "login", "--email", "ana@example.com", "--password-stdin")
	require.NoError(e.t, err, out)
}

func (e *env) listJSON() []models.Journal {
	e.t.Helper()
	var list []models.Journal
	require.NoError(e.t, json.Unmarshal([]byte(e.mustRun("journal", "list", "-o", "json")), &list))
	return list
}

func (e *env) config() *config.Config {
	var c config.Config
	c.LoadDefaults()
	c.ServerURL = e.backend.URL
	c.DatabaseDSN = e.dsn
	c.LogLevel = "error"
	c.RequestTimeout = 2 * time.Second
	c.OnlineCheckInterval = 20 * time.Millisecond
	c.MetricsAddr = "127.0.0.1:0"
	return &c
}
