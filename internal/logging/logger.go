// Package logging defines the structured logger used across habitkeeper and
// its slog and zap backed implementations.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are key-value pairs:
//
//	log.Info(ctx, "session issued", "user_id", id, "method", "password")
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}

// Config selects and tunes a Logger backend.
type Config struct {
	Backend     string // "zap" or "slog"
	Level       string // debug, info, warn, error
	Format      string // json or console
	Output      string // stdout, stderr or file
	FilePath    string
	Development bool
}

// New builds the logger selected by cfg.Backend. Unknown backends get zap.
func New(cfg Config) (Logger, error) {
	if cfg.Backend == "slog" {
		return NewSlogFromConfig(cfg)
	}
	return NewZap(cfg)
}
