package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/kenala/internal/client/session"
)

func newLoginCommand() *cobra.Command {
	var (
		email         string
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session on this device",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ *cobra.Command, _ []string) error {
			return a.Login(ctx, email, passwordStdin)
		}),
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email (prompted when empty)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

// Login prompts for missing credentials and signs in. The password is read
// without echo unless fromStdin is set.
func (a *App) Login(ctx context.Context, email string, fromStdin bool) error {
	var err error
	if email == "" {
		if email, err = a.ask.Line("Email"); err != nil {
			return err
		}
	}

	var password string
	if fromStdin {
		password, err = a.in.ReadString('\n')
		if err != nil && password == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(password, "\r\n")
	} else if password, err = a.ask.Secret("Password"); err != nil {
		return err
	}

	uid, err := a.auth.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", uid)
	return nil
}

func newLogoutCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear this user's cached data",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ *cobra.Command, _ []string) error {
			return a.Logout(ctx, force)
		}),
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "log out even if some journal entries were never synced")
	return cmd
}

// Logout refuses to drop unsynced entries unless force is set. An expired
// session still owns its cached rows, so it is checked too.
func (a *App) Logout(ctx context.Context, force bool) error {
	owner, err := a.sessions.Owner(ctx)
	if errors.Is(err, session.ErrNotLoggedIn) {
		return errNotLoggedIn
	}
	if err != nil {
		return err
	}

	if !force {
		pending, err := a.journals.Pending(ctx, owner)
		if err != nil {
			return err
		}
		if n := len(pending); n > 0 {
			return fmt.Errorf("%d journal entries are not synced yet; run 'kenala sync' or pass --force", n)
		}
	}

	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
