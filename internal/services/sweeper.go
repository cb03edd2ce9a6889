package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"

	"github.com/beeboo/storefront/internal/logging"
	"github.com/beeboo/storefront/internal/observability"
)

const StaleOrderMessage = "payment window expired"

// StaleOrderSweeper fails orders left pending past the payment window.
type StaleOrderSweeper struct {
	orderStore OrderRepository
	ttl        time.Duration
	interval   time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

func NewStaleOrderSweeper(orderStore OrderRepository, ttl, interval time.Duration, logger *slog.Logger) *StaleOrderSweeper {
	return &StaleOrderSweeper{
		orderStore: orderStore,
		ttl:        ttl,
		interval:   interval,
		logger:     logger,
		now:        time.Now,
	}
}

// Run sweeps once immediately and then every interval until ctx is done.
func (s *StaleOrderSweeper) Run(ctx context.Context) error {
	if s.ttl <= 0 || s.interval <= 0 {
		return fmt.Errorf("sweeper ttl and interval must be positive")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.SweepOnce(ctx); err != nil {
			logging.FromContext(ctx, s.logger).Error("stale order sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *StaleOrderSweeper) SweepOnce(ctx context.Context) ([]uuid.UUID, error) {
	ctx = observability.WithJobMeter(ctx, "stale_order_sweeper")
	meter := observability.MeterFromContext(ctx)
	logger := logging.FromContext(ctx, s.logger)

	cutoff := s.now().Add(-s.ttl)
	expired, err := s.orderStore.ExpireStale(ctx, cutoff, StaleOrderMessage)
	if err != nil {
		meter.Count("order.sweep.failed", 1)
		return nil, fmt.Errorf("failed to expire stale orders: %w", err)
	}

	if len(expired) > 0 {
		meter.Count("order.expired", int64(len(expired)), sentry.WithAttributes(
			attribute.String("reason", "payment_window_expired"),
		))
		logger.Info("expired stale pending orders", "count", len(expired), "cutoff", cutoff)
	}
	return expired, nil
}
