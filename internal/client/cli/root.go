package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/kenala/internal/buildinfo"
	"github.com/dmitrijs2005/kenala/internal/client/config"
)

// runFunc is the body of a command that needs the App.
type runFunc func(ctx context.Context, a *App, cmd *cobra.Command, args []string) error

// NewRootCommand builds the kenala command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "kenala",
		Short:         "Kenala adventure journal, offline first",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newLoginCommand(),
		newLogoutCommand(),
		newJournalCommand(),
		newSyncCommand(),
		newNotificationsCommand(),
		newTrackCommand(),
		newDaemonCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				buildinfo.Print(cmd.OutOrStdout())
			},
		},
	)
	return root
}

// withApp loads the configuration, builds the App for the duration of fn
// and closes it afterwards.
func withApp(fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		cfg, err := config.LoadConfig(cmd.Flags())
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		a, err := NewApp(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, a.Close()) }()

		return fn(ctx, a, cmd, args)
	}
}
