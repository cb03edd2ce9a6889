package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	sentryslog "github.com/getsentry/sentry-go/slog"
	"github.com/lmittmann/tint"
)

type Options struct {
	Level  slog.Level
	Format string
	// Sentry forwards info and above to Sentry when enabled, with customer
	// contact details masked.
	Sentry bool
}

// New builds the application logger: tint for text output, JSON otherwise.
func New(w io.Writer, opts Options) *slog.Logger {
	var base slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "json":
		base = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: opts.Level})
	default:
		base = tint.NewHandler(w, &tint.Options{Level: opts.Level})
	}

	if !opts.Sentry {
		return slog.New(base)
	}

	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelInfo},
	}.NewSentryHandler(context.Background())

	return slog.New(MultiHandler(base, Redact(sentryHandler, SensitiveKeys...)))
}
