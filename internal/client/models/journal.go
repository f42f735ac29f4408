// Package models defines the client-side records cached in the local store
// and the wire payloads exchanged with the Kenala backend.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalIDPrefix marks identities generated on the device for records the
// server has not confirmed yet. Server identities never carry it.
const LocalIDPrefix = "local_"

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Journal is a journal entry written after finishing an adventure.
type Journal struct {
	// ID is the server id, or a LocalIDPrefix id while Synced is false.
	ID     string `json:"id" yaml:"id"`
	UserID string `json:"userId" yaml:"userId"`

	Title string `json:"title" yaml:"title"`
	Story string `json:"story" yaml:"story"`

	// ImageURL is empty when the entry has no photo.
	ImageURL string    `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	Location *GeoPoint `json:"location,omitempty" yaml:"location,omitempty"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`

	// Synced is true once the server has confirmed the record.
	Synced bool `json:"synced" yaml:"synced"`
}

// JournalFields are the user supplied values of a journal entry.
type JournalFields struct {
	Title    string
	Story    string
	ImageURL string
	Location *GeoPoint
}

// JournalPayload is the backend representation of a journal entry.
type JournalPayload struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Story     string    `json:"story"`
	ImageURL  *string   `json:"imageUrl"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	CreatedAt time.Time `json:"createdAt"`
}

// JournalRequest is the body of create and update calls. Absent optionals
// are sent as explicit nulls so an update can clear them.
type JournalRequest struct {
	Title     string   `json:"title"`
	Story     string   `json:"story"`
	ImageURL  *string  `json:"imageUrl"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// NewLocalID returns a fresh provisional identity.
func NewLocalID() string {
	return LocalIDPrefix + uuid.NewString()
}

// IsLocalID reports whether id was generated on the device.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// NewLocalJournal builds an unsynced journal owned by userID. Timestamps are
// kept at millisecond precision, the resolution of the local store.
func NewLocalJournal(userID string, f JournalFields, now time.Time) Journal {
	return Journal{
		ID:        NewLocalID(),
		UserID:    userID,
		Title:     f.Title,
		Story:     f.Story,
		ImageURL:  f.ImageURL,
		Location:  f.Location.clone(),
		CreatedAt: now.UTC().Truncate(time.Millisecond),
		Synced:    false,
	}
}

// JournalFromPayload maps a server payload to a synced journal. An empty
// payload user id is filled with userID, the scope the payload was fetched
// for. A location is kept only when both coordinates are present.
func JournalFromPayload(p JournalPayload, userID string) Journal {
	j := Journal{
		ID:        p.ID,
		UserID:    p.UserID,
		Title:     p.Title,
		Story:     p.Story,
		CreatedAt: p.CreatedAt.UTC().Truncate(time.Millisecond),
		Synced:    true,
	}
	if j.UserID == "" {
		j.UserID = userID
	}
	if p.ImageURL != nil {
		j.ImageURL = *p.ImageURL
	}
	if p.Latitude != nil && p.Longitude != nil {
		j.Location = &GeoPoint{Latitude: *p.Latitude, Longitude: *p.Longitude}
	}
	return j
}

// Fields returns the user supplied values of j.
func (j Journal) Fields() JournalFields {
	return JournalFields{Title: j.Title, Story: j.Story, ImageURL: j.ImageURL, Location: j.Location.clone()}
}

// Request maps the user supplied values of f to a request body.
func (f JournalFields) Request() JournalRequest {
	r := JournalRequest{Title: f.Title, Story: f.Story}
	if f.ImageURL != "" {
		img := f.ImageURL
		r.ImageURL = &img
	}
	if f.Location != nil {
		lat, lng := f.Location.Latitude, f.Location.Longitude
		r.Latitude, r.Longitude = &lat, &lng
	}
	return r
}

// Apply returns a copy of j carrying the values of f.
func (j Journal) Apply(f JournalFields) Journal {
	j.Title = f.Title
	j.Story = f.Story
	j.ImageURL = f.ImageURL
	j.Location = f.Location.clone()
	return j
}

func (g *GeoPoint) clone() *GeoPoint {
	if g == nil {
		return nil
	}
	c := *g
	return &c
}
