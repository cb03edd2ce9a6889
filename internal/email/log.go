package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/beeboo/storefront/internal/logging"
)

// LogProvider records outgoing mail in the log. Used in development and when
// no mail service is configured.
type LogProvider struct {
	logger *slog.Logger
	from   string
}

func NewLogProvider(logger *slog.Logger, from string) *LogProvider {
	if logger == nil {
		logger = logging.Discard()
	}
	return &LogProvider{logger: logger.With("component", "email"), from: from}
}

func (l *LogProvider) SendEmail(ctx context.Context, email *Email) error {
	if email == nil {
		return fmt.Errorf("email is required")
	}
	if email.To == "" {
		return fmt.Errorf("email recipient is required")
	}
	logging.FromContext(ctx, l.logger).InfoContext(ctx, "email not delivered; log provider active",
		"from", l.from,
		"to", email.To,
		"subject", email.Subject,
		"text_bytes", len(email.Text),
		"html_bytes", len(email.HTML),
	)
	return nil
}

func (l *LogProvider) ValidateAPIKey(context.Context) error {
	return nil
}
