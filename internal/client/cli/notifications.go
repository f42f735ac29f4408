package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/kenala/internal/client/models"
	"github.com/dmitrijs2005/kenala/internal/client/push"
)

// terminalNotifier surfaces notifications by printing them.
type terminalNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func (n *terminalNotifier) Notify(_ context.Context, m models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch {
	case m.Title != "" && m.Body != "":
		_, err := fmt.Fprintf(n.w, "[notification] %s: %s\n", m.Title, m.Body)
		return err
	case m.Title != "":
		_, err := fmt.Fprintf(n.w, "[notification] %s\n", m.Title)
		return err
	default:
		_, err := fmt.Fprintf(n.w, "[notification] %s\n", m.Body)
		return err
	}
}

func newNotificationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"inbox"},
		Short:   "Manage the local notification inbox",
	}

	var (
		output     string
		unreadOnly bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first; unread ones are starred",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ *cobra.Command, _ []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			uid, err := a.currentUser(ctx)
			if err != nil {
				return err
			}
			inbox, err := a.notifications.List(ctx, uid)
			if err != nil {
				return err
			}
			if unreadOnly {
				kept := inbox[:0]
				for _, n := range inbox {
					if !n.Read {
						kept = append(kept, n)
					}
				}
				inbox = kept
			}
			return printNotifications(a.out, output, inbox)
		}),
	}
	list.Flags().StringVarP(&output, "output", "o", outputTable, "table, json or yaml")
	list.Flags().BoolVarP(&unreadOnly, "unread", "u", false, "only unread notifications")

	var all bool
	read := &cobra.Command{
		Use:   "read [id]",
		Short: "Mark a notification, or all of them, as read",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(ctx context.Context, a *App, _ *cobra.Command, args []string) error {
			if all {
				uid, err := a.currentUser(ctx)
				if err != nil {
					return err
				}
				n, err := a.notifications.MarkAllRead(ctx, uid)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Marked %d notifications as read\n", n)
				return nil
			}
			if len(args) != 1 {
				return errors.New("give a notification id or --all")
			}
			if err := a.notifications.MarkRead(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Marked as read")
			return nil
		}),
	}
	read.Flags().BoolVar(&all, "all", false, "mark every notification as read")

	var title, body string
	var fromStdin bool
	ingest := &cobra.Command{
		Use:   "ingest",
		Short: "Store a push message in the inbox",
		Long: "Store a push message in the inbox. With --stdin the message is read as JSON,\n" +
			`either {"title":..,"body":..} or an FCM payload with a "notification" block.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ *cobra.Command, _ []string) error {
			uid, err := a.currentUser(ctx)
			if err != nil {
				return err
			}
			msg := models.PushMessage{Title: title, Body: body}
			if fromStdin {
				data, err := io.ReadAll(a.in)
				if err != nil {
					return err
				}
				if msg, err = push.DecodeMessage(data); err != nil {
					return err
				}
			}
			_, err = a.notifications.Ingest(ctx, uid, msg)
			return err
		}),
	}
	ingest.Flags().StringVar(&title, "title", "", "notification title")
	ingest.Flags().StringVar(&body, "body", "", "notification body")
	ingest.Flags().BoolVar(&fromStdin, "stdin", false, "read a JSON push payload from stdin")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one notification",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *App, _ *cobra.Command, args []string) error {
			return a.notifications.Delete(ctx, args[0])
		}),
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every notification",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *App, _ *cobra.Command, _ []string) error {
			uid, err := a.currentUser(ctx)
			if err != nil {
				return err
			}
			return a.notifications.Clear(ctx, uid)
		}),
	}

	cmd.AddCommand(list, read, ingest, del, clearCmd)
	return cmd
}
