package main

// seed imports a catalog.yaml file of categories and products.

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/beeboo/storefront/internal/catalog"
	"github.com/beeboo/storefront/internal/db"
	"github.com/beeboo/storefront/internal/logging"
	"github.com/beeboo/storefront/internal/services"
)

type seedConfig struct {
	DatabaseURL string     `env:"DATABASE_URL,required"`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat   string     `env:"LOG_FORMAT" envDefault:"text"`
}

func main() {
	path := flag.String("file", "catalog.yaml", "catalog file to import")
	flag.Parse()

	var cfg seedConfig
	if err := env.Parse(&cfg); err != nil {
		slog.Error("failed to parse config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat}).With("component", "seed")

	content, err := os.ReadFile(*path)
	if err != nil {
		logger.Error("failed to read catalog file", "error", err, "file", *path)
		os.Exit(1)
	}
	file, err := catalog.NewParser().Parse(content)
	if err != nil {
		logger.Error("failed to parse catalog file", "error", err, "file", *path)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	service := services.NewCatalogService(db.NewProductStore(pool), db.NewCategoryStore(pool), logger)
	result, err := service.ImportCatalog(ctx, file)
	if err != nil {
		logger.Error("catalog import failed", "error", err)
		pool.Close()
		os.Exit(1)
	}

	for _, failure := range result.Failures {
		logger.Warn("catalog entry rejected", "title", failure.Title, "reason", failure.Reason)
	}
	if len(result.Failures) > 0 {
		pool.Close()
		os.Exit(2)
	}
}
