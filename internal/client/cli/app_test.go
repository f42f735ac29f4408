package cli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/kenala/internal/buildinfo"
	"github.com/dmitrijs2005/kenala/internal/client/images"
	"github.com/dmitrijs2005/kenala/internal/client/models"
)

func TestVersion(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun("version")
	assert.Contains(t, out, "kenala "+buildinfo.Version)
}

func TestCommands_RequireLogin(t *testing.T) {
	e := newEnv(t)
	for _, args := range [][]string{
		{"journal", "list"},
		{"journal", "create", "-t", "x", "-s", "y"},
		{"sync"},
		{"logout"},
		{"notifications", "list"},
	} {
		_, err := e.run("", args...)
		require.ErrorIs(t, err, errNotLoggedIn, args)
	}
}

func TestLogin(t *testing.T) {
	e := newEnv(t)

	out, err := e.run("wrong\n", "login", "-e", "ana@example.com", "--password-stdin")
	require.ErrorContains(t, err, "login failed")
	assert.NotContains(t, out, "Logged in")

	out, err = e.run("ana@example.com\npw\n", "login", "--password-stdin")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as "+testUser)
}

func TestLogin_ReadsPasswordFromTerminal(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) { return []byte("pw"), nil }

	e := newEnv(t)
	out, err := e.run("", "login", "-e", "ana@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as "+testUser)
}

func TestJournal_OnlineLifecycle(t *testing.T) {
	e := newEnv(t)
	e.login()

	out := e.mustRun("journal", "create", "-t", "Cafe visit", "-s", "Great flat white", "--lat", "-8.65", "--lng", "115.21")
	assert.Contains(t, out, "Created journal srv-1")

	list := e.listJSON()
	require.Len(t, list, 1)
	assert.Equal(t, "srv-1", list[0].ID)
	assert.True(t, list[0].Synced)
	require.NotNil(t, list[0].Location)
	assert.Equal(t, 115.21, list[0].Location.Longitude)

	out = e.mustRun("journal", "update", "srv-1", "-t", "Cafe visit, again", "--clear-location")
	assert.Contains(t, out, "Updated journal srv-1")

	var shown models.Journal
	require.NoError(t, yaml.Unmarshal([]byte(e.mustRun("journal", "show", "srv-1", "-o", "yaml")), &shown))
	assert.Equal(t, "Cafe visit, again", shown.Title)
	assert.Equal(t, "Great flat white", shown.Story)
	assert.Nil(t, shown.Location)

	table := e.mustRun("journal", "show", "srv-1")
	assert.Contains(t, table, "Status:")
	assert.Contains(t, table, "synced")

	out = e.mustRun("journal", "delete", "srv-1")
	assert.Contains(t, out, "Deleted journal srv-1")
	assert.Equal(t, 0, e.backend.count())

	_, err := e.run("", "journal", "show", "srv-1")
	require.Error(t, err)
	assert.Contains(t, e.mustRun("journal", "list"), "No journal entries yet.")
}

func TestJournal_OfflineCreateThenSync(t *testing.T) {
	e := newEnv(t)
	e.login()

	e.backend.down.Store(true)
	out := e.mustRun("journal", "create", "-t", "Beach", "-s", "Sunset at Uluwatu")
	assert.Contains(t, out, "on this device")

	list := e.listJSON()
	require.Len(t, list, 1)
	assert.True(t, models.IsLocalID(list[0].ID))
	assert.False(t, list[0].Synced)
	assert.Contains(t, e.mustRun("journal", "list"), "pending")

	_, err := e.run("", "sync")
	require.Error(t, err, "sync must report the unreachable server")

	_, err = e.run("", "logout")
	require.ErrorContains(t, err, "1 journal entries are not synced")

	e.backend.down.Store(false)
	out = e.mustRun("sync")
	assert.Contains(t, out, "Sent 1 of 1 pending entries")
	assert.Contains(t, out, "Fetched 1 entries")

	list = e.listJSON()
	require.Len(t, list, 1)
	assert.Equal(t, "srv-1", list[0].ID)
	assert.True(t, list[0].Synced)

	assert.Contains(t, e.mustRun("logout"), "Logged out")
	_, err = e.run("", "journal", "list")
	require.ErrorIs(t, err, errNotLoggedIn)
}

func TestJournal_ServerEditFailsOffline(t *testing.T) {
	e := newEnv(t)
	e.login()
	e.mustRun("journal", "create", "-t", "Temple", "-s", "Quiet morning")

	e.backend.down.Store(true)
	_, err := e.run("", "journal", "update", "srv-1", "-t", "Changed")
	require.Error(t, err)
	_, err = e.run("", "journal", "delete", "srv-1")
	require.Error(t, err)

	list := e.listJSON()
	require.Len(t, list, 1)
	assert.Equal(t, "Temple", list[0].Title)
}

func TestJournal_LogoutForceDropsPending(t *testing.T) {
	e := newEnv(t)
	e.login()
	e.backend.down.Store(true)
	e.mustRun("journal", "create", "-t", "Draft", "-s", "")

	assert.Contains(t, e.mustRun("logout", "--force"), "Logged out")

	e.backend.down.Store(false)
	e.login()
	assert.Empty(t, e.listJSON())
}

func TestJournal_FlagValidation(t *testing.T) {
	e := newEnv(t)
	e.login()

	_, err := e.run("", "journal", "create", "-t", "x", "-s", "y", "--lat", "1")
	require.ErrorContains(t, err, "--lat and --lng")

	_, err = e.run("", "journal", "create", "-t", "x", "-s", "y", "--lat", "95", "--lng", "1")
	require.ErrorContains(t, err, "out of range")

	_, err = e.run("", "journal", "create", "-t", "x", "-s", "y", "--image", "a.png")
	require.ErrorContains(t, err, "not configured")

	_, err = e.run("", "journal", "list", "-o", "xml")
	require.ErrorContains(t, err, "unknown output format")
}

func TestJournal_CreatePromptsForMissingFields(t *testing.T) {
	e := newEnv(t)
	e.login()

	out, err := e.run("Rice terraces\nGreen everywhere\nand quiet\n\n", "journal", "create")
	require.NoError(t, err, out)

	list := e.listJSON()
	require.Len(t, list, 1)
	assert.Equal(t, "Rice terraces", list[0].Title)
	assert.Equal(t, "Green everywhere\nand quiet", list[0].Story)
}

func TestJournal_ListWatchStopsWithContext(t *testing.T) {
	e := newEnv(t)
	e.login()
	e.mustRun("journal", "create", "-t", "Volcano", "-s", "Sunrise hike")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	out, err := e.runCtx(ctx, "", "journal", "list", "--watch")
	require.NoError(t, err)
	assert.Contains(t, out, "Volcano")
}

func TestNotifications(t *testing.T) {
	e := newEnv(t)
	e.login()

	out := e.mustRun("notifications", "ingest", "--title", "Badge earned", "--body", "Five cafes visited")
	assert.Contains(t, out, "[notification] Badge earned: Five cafes visited")

	out, err := e.run(`{"notification":{"title":"New quest","body":"Try the night market"}}`, "notifications", "ingest", "--stdin")
	require.NoError(t, err)
	assert.Contains(t, out, "[notification] New quest")

	_, err = e.run(`{"data":{}}`, "notifications", "ingest", "--stdin")
	require.Error(t, err)

	var inbox []models.Notification
	require.NoError(t, json.Unmarshal([]byte(e.mustRun("notifications", "list", "-o", "json")), &inbox))
	require.Len(t, inbox, 2)
	assert.Equal(t, "New quest", inbox[0].Title)

	e.mustRun("notifications", "read", inbox[0].ID)
	var unread []models.Notification
	require.NoError(t, json.Unmarshal([]byte(e.mustRun("notifications", "list", "--unread", "-o", "json")), &unread))
	require.Len(t, unread, 1)
	assert.Equal(t, "Badge earned", unread[0].Title)

	assert.Contains(t, e.mustRun("notifications", "read", "--all"), "Marked 1 notifications")

	_, err = e.run("", "notifications", "read", "missing")
	require.Error(t, err)
	_, err = e.run("", "notifications", "read")
	require.ErrorContains(t, err, "--all")

	e.mustRun("notifications", "delete", inbox[1].ID)
	e.mustRun("notifications", "clear")
	assert.Contains(t, e.mustRun("notifications", "list"), "Inbox is empty.")
}

func TestTrack_RequiresURL(t *testing.T) {
	e := newEnv(t)
	e.login()
	_, err := e.run("1,2\n", "track")
	require.ErrorContains(t, err, "tracking_url")
}

func TestTrack_StreamsStdin(t *testing.T) {
	e := newEnv(t)
	e.login()
	sock := newTrackingSocket(t)

	out, err := e.run("-8.65,115.21\nnot a location\n-8.66,115.22\n", "track", "--tracking-url", sock.url)
	require.NoError(t, err)
	assert.Contains(t, out, "invalid location")

	frames := sock.frames()
	require.Len(t, frames, 2)
	assert.True(t, strings.HasPrefix(sock.auth(), "Bearer "))
	assert.Equal(t, testUser, frames[1].Data.UserID)
	assert.Equal(t, 115.22, frames[1].Data.Longitude)
}

func TestJournal_ExpiredSessionKeepsCacheUsable(t *testing.T) {
	e := newEnv(t)
	e.login()
	e.mustRun("journal", "create", "-t", "Before expiry", "-s", "sent")

	ctx := context.Background()
	a, err := NewApp(ctx, e.config(), strings.NewReader(""), io.Discard)
	require.NoError(t, err)
	require.NoError(t, a.sessions.Save(ctx, signTokenExpiring(t, testUser, time.Now().Add(-time.Minute))))
	require.NoError(t, a.Close())

	e.backend.down.Store(true)

	out := e.mustRun("journal", "create", "-t", "Cafe visit", "-s", "Flat white")
	assert.Contains(t, out, "on this device")

	list := e.listJSON()
	require.Len(t, list, 2)
	assert.Equal(t, "Cafe visit", list[0].Title)
	assert.True(t, models.IsLocalID(list[0].ID))
	assert.False(t, list[0].Synced)

	// Back online the server rejects the stale token; nothing is lost.
	e.backend.down.Store(false)
	out, err = e.run("", "sync")
	require.ErrorContains(t, err, "kenala login")
	assert.Contains(t, out, "Sent 0 of 1 pending entries")
	assert.Len(t, e.listJSON(), 2)
}

func unreachableImageStorage(t *testing.T) {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	t.Setenv("KENALA_S3_ENDPOINT", srv.URL)
	t.Setenv("KENALA_S3_BUCKET", "kenala")
	t.Setenv("KENALA_S3_ACCESS_KEY", "minioadmin")
	t.Setenv("KENALA_S3_SECRET_KEY", "minioadmin")
	t.Setenv("AWS_MAX_ATTEMPTS", "1")
}

func TestJournal_OfflineCreateWithImageKeepsEntry(t *testing.T) {
	unreachableImageStorage(t)
	e := newEnv(t)
	e.login()
	e.backend.down.Store(true)

	photo := filepath.Join(t.TempDir(), "beach.jpg")
	require.NoError(t, os.WriteFile(photo, []byte("\xff\xd8 fake jpeg"), 0o600))

	out := e.mustRun("journal", "create", "-t", "Beach", "-s", "Sunset", "--image", photo)
	assert.Contains(t, out, "Could not upload "+photo)
	assert.Contains(t, out, "saved without a photo")
	assert.Contains(t, out, "on this device")

	list := e.listJSON()
	require.Len(t, list, 1)
	assert.Equal(t, "Beach", list[0].Title)
	assert.Empty(t, list[0].ImageURL)
	assert.False(t, list[0].Synced)
}

func TestJournal_ImageErrorsThatStillFail(t *testing.T) {
	unreachableImageStorage(t)
	e := newEnv(t)
	e.login()

	notes := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("plain"), 0o600))
	_, err := e.run("", "journal", "create", "-t", "Beach", "-s", "x", "--image", notes)
	require.ErrorContains(t, err, "not an image")
	assert.Empty(t, e.listJSON())

	e.mustRun("journal", "create", "-t", "Beach", "-s", "x")
	id := e.listJSON()[0].ID

	photo := filepath.Join(t.TempDir(), "beach.jpg")
	require.NoError(t, os.WriteFile(photo, []byte("\xff\xd8 fake jpeg"), 0o600))
	_, err = e.run("", "journal", "update", id, "--image", photo)
	require.ErrorIs(t, err, images.ErrUpload)
}
