package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beeboo/storefront/internal/logging"
	"github.com/beeboo/storefront/internal/models"
)

func TestSweepOnceExpiresOnlyStalePendingOrders(t *testing.T) {
	t.Parallel()
	store := newFakeOrderStore()
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	stale := &models.Order{ID: uuid.New(), Status: models.StatusPending, PaymentStatus: models.PaymentPending, CreatedAt: now.Add(-time.Hour)}
	fresh := &models.Order{ID: uuid.New(), Status: models.StatusPending, PaymentStatus: models.PaymentPending, CreatedAt: now.Add(-5 * time.Minute)}
	paid := &models.Order{ID: uuid.New(), Status: models.StatusPlaced, PaymentStatus: models.PaymentPaid, CreatedAt: now.Add(-2 * time.Hour)}
	for _, order := range []*models.Order{stale, fresh, paid} {
		require.NoError(t, store.Create(ctx, order))
	}

	sweeper := NewStaleOrderSweeper(store, 30*time.Minute, time.Minute, logging.Discard())
	sweeper.now = func() time.Time { return now }

	expired, err := sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{stale.ID}, expired)

	got := store.mustGet(stale.ID)
	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Equal(t, models.PaymentFailed, got.PaymentStatus)
	assert.Equal(t, StaleOrderMessage, got.ErrorMessage)
	assert.Equal(t, models.StatusPending, store.mustGet(fresh.ID).Status)
	assert.Equal(t, models.StatusPlaced, store.mustGet(paid.ID).Status)
}

func TestSweeperRunStopsWithContext(t *testing.T) {
	t.Parallel()
	sweeper := NewStaleOrderSweeper(newFakeOrderStore(), time.Minute, 10*time.Millisecond, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}

	require.Error(t, NewStaleOrderSweeper(newFakeOrderStore(), 0, time.Second, nil).Run(context.Background()))
}
