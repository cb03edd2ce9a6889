package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/beeboo/storefront/internal/auth"
	"github.com/beeboo/storefront/internal/cache"
	"github.com/beeboo/storefront/internal/config"
	"github.com/beeboo/storefront/internal/db"
	"github.com/beeboo/storefront/internal/email"
	"github.com/beeboo/storefront/internal/handlers"
	"github.com/beeboo/storefront/internal/logging"
	"github.com/beeboo/storefront/internal/migrate"
	"github.com/beeboo/storefront/internal/observability"
	"github.com/beeboo/storefront/internal/razorpay"
	"github.com/beeboo/storefront/internal/services"
	"github.com/beeboo/storefront/internal/stripe"
)

const (
	settingsCacheSize     = 1024
	providerClientTimeout = 20 * time.Second
	startupTimeout        = 30 * time.Second
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *pgxpool.Pool
	CacheProvider cache.Provider
	Handlers      *handlers.Handlers
	Sweeper       *services.StaleOrderSweeper

	sentryEnabled bool
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	sentryEnabled, err := observability.InitSentry(observability.SentryConfig{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.AppEnv,
		TracesSampleRate: cfg.SentryTracesSampleRate,
	})
	if err != nil {
		return nil, err
	}

	logger := logging.New(os.Stdout, logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Sentry: sentryEnabled,
	})

	startupCtx, startupCancel := context.WithTimeout(context.Background(), startupTimeout)
	defer startupCancel()

	database, err := db.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := migrate.Apply(startupCtx, database); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		logger.Info("database migrations applied")
	}

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
		RedisKeyPrefix:        cfg.RedisKeyPrefix,
		MemorySize:            settingsCacheSize,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize cache provider: %w", err)
	}

	emailProvider, err := email.NewProvider(email.Config{
		Provider:   cfg.EmailProvider,
		APIKey:     cfg.EmailAPIKey,
		From:       cfg.EmailFrom,
		HTTPClient: observability.NewProviderClient(email.ProviderResend, providerClientTimeout),
	}, logger.With("component", "email"))
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize email provider: %w", err)
	}
	notifier := services.NewEmailNotifier(emailProvider, services.EmailNotifierConfig{
		ShopName:   cfg.ShopName,
		ShopURL:    cfg.BaseURL,
		AdminEmail: cfg.AdminEmail,
	})

	orderStore := db.NewOrderStore(database)
	productStore := db.NewProductStore(database)
	categoryStore := db.NewCategoryStore(database)
	settingsStore := db.NewSettingsStore(database)

	gateway := newPaymentGateway(cfg)
	if gateway == nil {
		logger.Warn("no payment gateway configured; orders will be placed directly without payment", "provider", cfg.PaymentProvider)
	} else {
		logger.Info("payment gateway configured", "provider", gateway.Name())
	}

	orderService := services.NewOrderService(
		orderStore,
		productStore,
		gateway,
		notifier,
		services.OrderServiceConfig{
			ShippingFee: cfg.ShippingFee,
			Currency:    cfg.Currency,
		},
		logger.With("component", "order_service"),
	)
	catalogService := services.NewCatalogService(productStore, categoryStore, logger.With("component", "catalog_service"))
	settingsService := services.NewSettingsService(settingsStore, cacheProvider, services.DefaultSettingsTTL, logger.With("component", "settings_service"))
	adminService := services.NewAdminService(orderStore, productStore, notifier, logger.With("component", "admin_service"))
	sweeper := services.NewStaleOrderSweeper(orderStore, cfg.PendingOrderTTL, cfg.SweepInterval, logger.With("component", "order_sweeper"))

	var stripeRouter *handlers.StripeEventRouter
	if cfg.PaymentProvider == config.PaymentProviderStripe && cfg.StripeWebhookSecret != "" {
		stripeService := services.NewStripeService(orderStore, notifier, logger.With("component", "stripe_service"))
		stripeRouter = handlers.NewStripeEventRouter(stripeService, logger.With("component", "stripe_router"))
	}

	h, err := handlers.New(handlers.Dependencies{
		Config:          cfg,
		DB:              database,
		CacheProvider:   cacheProvider,
		Verifier:        auth.NewVerifier(cfg.AuthJWTSecret, cfg.AuthIssuer, cfg.AuthAudience),
		OrderService:    orderService,
		CatalogService:  catalogService,
		SettingsService: settingsService,
		AdminService:    adminService,
		StripeRouter:    stripeRouter,
		Logger:          logger,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            database,
		CacheProvider: cacheProvider,
		Handlers:      h,
		Sweeper:       sweeper,
		sentryEnabled: sentryEnabled,
	}, nil
}

// newPaymentGateway returns nil when the selected provider has no credentials.
func newPaymentGateway(cfg *config.Config) services.PaymentGateway {
	if !cfg.PaymentGatewayConfigured() {
		return nil
	}
	switch cfg.PaymentProvider {
	case config.PaymentProviderStripe:
		return stripe.NewPaymentClient(cfg.StripeSecretKey, observability.NewProviderClient(stripe.ProviderName, providerClientTimeout))
	default:
		return razorpay.NewClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.CacheProvider != nil {
		closeCacheProvider(a.Logger, a.CacheProvider)
	}
	if a.DB != nil {
		a.DB.Close()
	}
	if a.sentryEnabled {
		observability.FlushSentry()
	}
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}
