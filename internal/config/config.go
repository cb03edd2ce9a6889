package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	PaymentProviderRazorpay = "razorpay"
	PaymentProviderStripe   = "stripe"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	AppEnv  string `env:"APP_ENV" envDefault:"development" validate:"oneof=development production"`
	BaseURL string `env:"BASE_URL" validate:"omitempty,url"`
	Port    string `env:"PORT" envDefault:"8080"`

	// AllowedOrigins are extra sites allowed to send admin writes.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," validate:"dive,url"`

	CacheProvider         string `env:"CACHE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	RedisConnectionString string `env:"REDIS_CONNECTION_STRING" envDefault:"redis://localhost:6379/0" validate:"required_if=CacheProvider redis"`
	RedisKeyPrefix        string `env:"REDIS_KEY_PREFIX" envDefault:"beeboo:"`

	PaymentProvider     string `env:"PAYMENT_PROVIDER" envDefault:"razorpay" validate:"oneof=razorpay stripe"`
	RazorpayKeyID       string `env:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret   string `env:"RAZORPAY_KEY_SECRET"`
	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET" validate:"required_with=StripeSecretKey"`
	Currency            string `env:"CURRENCY" envDefault:"INR" validate:"len=3"`
	AllowDirectOrders   bool   `env:"ALLOW_DIRECT_ORDERS" envDefault:"false"`

	AuthJWTSecret string `env:"AUTH_JWT_SECRET,required" validate:"required,min=32"`
	AuthIssuer    string `env:"AUTH_ISSUER"`
	AuthAudience  string `env:"AUTH_AUDIENCE"`

	EmailProvider string `env:"EMAIL_PROVIDER" envDefault:"log" validate:"oneof=resend log"`
	EmailAPIKey   string `env:"EMAIL_API_KEY" validate:"required_if=EmailProvider resend"`
	EmailFrom     string `env:"EMAIL_FROM" envDefault:"BEE BOO <orders@beeboo.in>"`
	AdminEmail    string `env:"ADMIN_EMAIL" validate:"omitempty,email"`
	ShopName      string `env:"SHOP_NAME" envDefault:"BEE BOO"`

	ShippingFee     decimal.Decimal `env:"SHIPPING_FEE" envDefault:"70"`
	PendingOrderTTL time.Duration   `env:"PENDING_ORDER_TTL" envDefault:"30m" validate:"gt=0"`
	SweepInterval   time.Duration   `env:"SWEEP_INTERVAL" envDefault:"5m" validate:"gt=0"`

	SentryDSN              string  `env:"SENTRY_DSN"`
	SentryTracesSampleRate float64 `env:"SENTRY_TRACES_SAMPLE_RATE" envDefault:"0.1" validate:"gte=0,lte=1"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`
}

var configValidator = validator.New()

func Load() (*Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	hasRazorpayKeyID := strings.TrimSpace(c.RazorpayKeyID) != ""
	hasRazorpayKeySecret := strings.TrimSpace(c.RazorpayKeySecret) != ""
	if hasRazorpayKeyID != hasRazorpayKeySecret {
		return fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET must be set together")
	}

	if c.ShippingFee.IsNegative() {
		return fmt.Errorf("SHIPPING_FEE must not be negative")
	}

	if !c.PaymentGatewayConfigured() && c.IsProduction() && !c.AllowDirectOrders {
		return fmt.Errorf("a payment gateway must be configured in production unless ALLOW_DIRECT_ORDERS is set")
	}

	baseURL := strings.TrimSpace(c.BaseURL)
	if baseURL != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil || parsed.Hostname() == "" {
			return fmt.Errorf("BASE_URL must be a valid absolute URL")
		}
		if !isLocalHost(parsed.Hostname()) && !strings.EqualFold(parsed.Scheme, "https") {
			return fmt.Errorf("BASE_URL must use https outside local development")
		}
	}

	return nil
}

// PaymentGatewayConfigured reports whether the selected provider has credentials.
// When it returns false orders are placed directly without a gateway.
func (c *Config) PaymentGatewayConfigured() bool {
	switch c.PaymentProvider {
	case PaymentProviderStripe:
		return strings.TrimSpace(c.StripeSecretKey) != ""
	default:
		return strings.TrimSpace(c.RazorpayKeyID) != "" && strings.TrimSpace(c.RazorpayKeySecret) != ""
	}
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

func isLocalHost(host string) bool {
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
