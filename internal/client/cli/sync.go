package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Send pending entries, then refresh the cache from the server",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ *cobra.Command, _ []string) error {
			return a.Sync(ctx)
		}),
	}
}

// Sync reconciles pending entries before refreshing, so the refresh sees
// the entries it just confirmed.
func (a *App) Sync(ctx context.Context) error {
	uid, err := a.currentUser(ctx)
	if err != nil {
		return err
	}

	rec, err := a.journals.Reconcile(ctx, uid)
	if err != nil {
		return err
	}
	if rec.Attempted > 0 {
		fmt.Fprintf(a.out, "Sent %d of %d pending entries\n", rec.Synced, rec.Attempted)
		ids := make([]string, 0, len(rec.Failures))
		for id := range rec.Failures {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(a.out, "  %s: %v\n", id, rec.Failures[id])
		}
	}

	ref, err := a.journals.Refresh(ctx, uid)
	if err != nil {
		return loginHint(err)
	}
	fmt.Fprintf(a.out, "Fetched %d entries from the server", ref.Fetched)
	if ref.Pruned > 0 {
		fmt.Fprintf(a.out, ", removed %d deleted elsewhere", ref.Pruned)
	}
	fmt.Fprintln(a.out)
	return nil
}
