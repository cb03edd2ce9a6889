package main

// migrate applies or rolls back the storefront schema.

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/beeboo/storefront/internal/db"
	"github.com/beeboo/storefront/internal/logging"
	"github.com/beeboo/storefront/internal/migrate"
)

type migrateConfig struct {
	DatabaseURL string     `env:"DATABASE_URL,required"`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat   string     `env:"LOG_FORMAT" envDefault:"text"`
}

func main() {
	down := flag.Int("down", 0, "number of migrations to roll back")
	showVersion := flag.Bool("version", false, "print the applied schema version and exit")
	flag.Parse()

	var cfg migrateConfig
	if err := env.Parse(&cfg); err != nil {
		slog.Error("failed to parse config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat}).With("component", "migrate")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	switch {
	case *showVersion:
		version, dirty, err := migrate.Version(ctx, pool)
		if err != nil {
			logger.Error("failed to read schema version", "error", err)
			os.Exit(1)
		}
		logger.Info("schema version", "version", version, "dirty", dirty)
	case *down > 0:
		if err := migrate.Rollback(ctx, pool, *down); err != nil {
			logger.Error("failed to roll back migrations", "error", err, "steps", *down)
			os.Exit(1)
		}
		logger.Info("migrations rolled back", "steps", *down)
	default:
		if err := migrate.Apply(ctx, pool); err != nil {
			logger.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}
}
