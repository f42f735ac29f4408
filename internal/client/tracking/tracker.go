// Package tracking streams device locations to the backend's live tracking
// socket while an adventure is in progress.
package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/coder/websocket"

	"github.com/dmitrijs2005/kenala/internal/client/client"
	"github.com/dmitrijs2005/kenala/internal/client/models"
	"github.com/dmitrijs2005/kenala/internal/logging"
)

const EventLocationUpdate = "location:update"

var ErrInvalidLocation = errors.New("invalid location")

type frame struct {
	Event string          `json:"event"`
	Data  models.Location `json:"data"`
}

type Tracker struct {
	url    string
	tokens client.TokenSource
	log    logging.Logger
}

// NewTracker returns a Tracker for the socket at url. tokens may be nil for
// unauthenticated endpoints.
func NewTracker(url string, tokens client.TokenSource, log logging.Logger) *Tracker {
	return &Tracker{url: url, tokens: tokens, log: log}
}

// Run dials the socket and sends one frame per location until locations is
// closed or ctx is done. A closed channel is a normal end and returns nil.
// The connection is not re-established after a failure.
func (t *Tracker) Run(ctx context.Context, locations <-chan models.Location) error {
	header := http.Header{}
	if t.tokens != nil {
		tok, err := t.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("tracking token: %w", err)
		}
		header.Set("Authorization", "Bearer "+tok)
	}

	conn, _, err := websocket.Dial(ctx, t.url, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return fmt.Errorf("dial tracking socket: %w", err)
	}
	defer conn.CloseNow()

	t.log.Info(ctx, "tracking started", "url", t.url)
	sent := 0
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusGoingAway, "client stopped")
			return ctx.Err()
		case loc, ok := <-locations:
			if !ok {
				t.log.Info(ctx, "tracking finished", "sent", sent)
				return conn.Close(websocket.StatusNormalClosure, "")
			}
			data, err := json.Marshal(frame{Event: EventLocationUpdate, Data: loc})
			if err != nil {
				return fmt.Errorf("encode location: %w", err)
			}
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("send location: %w", err)
			}
			sent++
			t.log.Debug(ctx, "location sent", "lat", loc.Latitude, "lng", loc.Longitude)
		}
	}
}

// ParseLocation parses a "lat,lng" line. Only the coordinates are filled in.
func ParseLocation(line string) (models.Location, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != 2 {
		return models.Location{}, fmt.Errorf("%w: want \"lat,lng\", got %q", ErrInvalidLocation, line)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return models.Location{}, fmt.Errorf("%w: latitude: %w", ErrInvalidLocation, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return models.Location{}, fmt.Errorf("%w: longitude: %w", ErrInvalidLocation, err)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return models.Location{}, fmt.Errorf("%w: %v,%v out of range", ErrInvalidLocation, lat, lng)
	}
	return models.Location{Latitude: lat, Longitude: lng}, nil
}
