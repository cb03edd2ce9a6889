package observability

import (
	"fmt"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

type SentryConfig struct {
	DSN              string
	Environment      string
	TracesSampleRate float64
}

// InitSentry configures the global Sentry hub. It returns false without error
// when no DSN is set, in which case spans and meters become no-ops.
func InitSentry(cfg SentryConfig) (bool, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return false, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      cfg.Environment,
		EnableTracing:    true,
		TracesSampleRate: cfg.TracesSampleRate,
		EnableLogs:       true,
	})
	if err != nil {
		return false, fmt.Errorf("failed to initialize sentry: %w", err)
	}
	return true, nil
}

func FlushSentry() {
	sentry.Flush(2 * time.Second)
}
