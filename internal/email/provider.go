// Package email renders and delivers order notifications.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

const (
	ProviderResend = "resend"
	ProviderLog    = "log"
)

type Provider interface {
	SendEmail(ctx context.Context, email *Email) error
	ValidateAPIKey(ctx context.Context) error
}

type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
	// Tags are attached as provider metadata where supported.
	Tags map[string]string
}

type Config struct {
	Provider string
	APIKey   string
	From     string
	// HTTPClient is used for API calls when set.
	HTTPClient *http.Client
}

// NewProvider builds the configured provider. The log provider writes
// messages to logger instead of delivering them.
func NewProvider(config Config, logger *slog.Logger) (Provider, error) {
	switch config.Provider {
	case ProviderResend:
		if config.APIKey == "" {
			return nil, fmt.Errorf("EMAIL_API_KEY is required for the resend provider")
		}
		return NewResendProvider(config.APIKey, config.From, config.HTTPClient), nil
	case ProviderLog, "":
		return NewLogProvider(logger, config.From), nil
	default:
		return nil, fmt.Errorf("EMAIL_PROVIDER must be either 'resend' or 'log'")
	}
}
