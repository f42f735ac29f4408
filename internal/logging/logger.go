// Package logging is the structured logging layer of the Kenala client.
// Packages accept a Logger and never touch log/slog directly, so tests can
// pass Nop and the composition root decides format and destination.
package logging

import "context"

// Logger writes leveled records made of a message and alternating key and
// value arguments:
//
//	log.Warn(ctx, "reconcile stopped", "user_id", uid, "pending", n)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that prefixes every record with args.
	With(args ...any) Logger
}
