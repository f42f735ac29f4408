package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/dmitrijs2005/kenala/internal/client/models"
)

type locationFrame struct {
	Event string          `json:"event"`
	Data  models.Location `json:"data"`
}

type trackingSocket struct {
	url string

	mu       sync.Mutex
	header   string
	received []locationFrame
	done     chan struct{}
}

func newTrackingSocket(t *testing.T) *trackingSocket {
	t.Helper()
	s := &trackingSocket{done: make(chan struct{})}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.header = r.Header.Get("Authorization")
		s.mu.Unlock()

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		defer close(s.done)
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				return
			}
			var f locationFrame
			if json.Unmarshal(data, &f) == nil {
				s.mu.Lock()
				s.received = append(s.received, f)
				s.mu.Unlock()
			}
		}
	}))
	t.Cleanup(srv.Close)
	s.url = "ws" + strings.TrimPrefix(srv.URL, "http")
	return s
}

// frames waits for the client to close the socket and returns what it sent.
func (s *trackingSocket) frames() []locationFrame {
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]locationFrame(nil), s.received...)
}

func (s *trackingSocket) auth() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.header
}
