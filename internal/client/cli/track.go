package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/kenala/internal/client/models"
	"github.com/dmitrijs2005/kenala/internal/client/tracking"
)

func newTrackCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "track",
		Short: `Stream "lat,lng" lines from stdin to live tracking`,
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, cmd *cobra.Command, _ []string) error {
			return a.Track(ctx)
		}),
	}
}

// Track sends one location per input line until EOF or ctx is done.
// Malformed lines are reported and skipped.
func (a *App) Track(ctx context.Context) error {
	if a.cfg.TrackingURL == "" {
		return errors.New("tracking_url is not configured")
	}
	uid, err := a.currentUser(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	locations := make(chan models.Location)
	go func() {
		defer close(locations)
		sc := bufio.NewScanner(a.in)
		for sc.Scan() {
			if sc.Text() == "" {
				continue
			}
			loc, err := tracking.ParseLocation(sc.Text())
			if err != nil {
				fmt.Fprintln(a.out, err)
				continue
			}
			loc.UserID = uid
			loc.Timestamp = time.Now().UTC()
			select {
			case locations <- loc:
			case <-ctx.Done():
				return
			}
		}
	}()

	return tracking.NewTracker(a.cfg.TrackingURL, a.sessions, a.log).Run(ctx, locations)
}
