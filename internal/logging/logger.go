// Package logging is the structured logger every fintrack binary writes
// through. The slog backed implementation lives in slog.go.
package logging

import "context"

// Logger takes a message plus alternating key/value args:
//
//	l.Info(ctx, "session rotated", "user_id", id)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that adds args to every record.
	With(args ...any) Logger
}
