package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beeboo/storefront/internal/logging"
	"github.com/beeboo/storefront/internal/models"
)

func seedPaidOrder(t *testing.T, store *fakeOrderStore, status models.OrderStatus, createdAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:               uuid.New(),
		UserID:           "user-1",
		Total:            decimal.NewFromInt(1070),
		Status:           status,
		PaymentStatus:    models.PaymentPaid,
		GatewayOrderID:   "order_xyz",
		GatewayPaymentID: "pay_abc",
		GatewaySignature: "sig",
		ShippingAddress:  validShipping(),
		CreatedAt:        createdAt,
	}
	require.NoError(t, store.Create(context.Background(), order))
	return order
}

func TestUpdateOrderStatusLifecycle(t *testing.T) {
	t.Parallel()
	store := newFakeOrderStore()
	notifier := newFakeNotifier()
	service := NewAdminService(store, newFakeProductStore(), notifier, logging.Discard())
	ctx := context.Background()
	order := seedPaidOrder(t, store, models.StatusPlaced, time.Now())

	_, err := service.UpdateOrderStatus(ctx, UpdateOrderStatusInput{OrderID: order.ID, Status: models.StatusShipped})
	var userErr UserError
	require.ErrorAs(t, err, &userErr)

	shipped, err := service.UpdateOrderStatus(ctx, UpdateOrderStatusInput{
		OrderID:          order.ID,
		Status:           models.StatusShipped,
		TrackingNumber:   " EE123456789IN ",
		ShippingProvider: "speedpost",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, shipped.Status)
	assert.Equal(t, "EE123456789IN", shipped.TrackingNumber)
	assert.Equal(t, "India Post", shipped.Carrier)
	assert.Equal(t, []uuid.UUID{order.ID}, notifier.shipped)

	delivered, err := service.UpdateOrderStatus(ctx, UpdateOrderStatusInput{OrderID: order.ID, Status: models.StatusDelivered})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, delivered.Status)
	assert.Len(t, notifier.delivered, 1)

	_, err = service.UpdateOrderStatus(ctx, UpdateOrderStatusInput{OrderID: order.ID, Status: models.StatusCancelled})
	require.ErrorIs(t, err, ErrOrderStatusConflict)
}

func TestUpdateOrderStatusCancelRefundsPaidOrder(t *testing.T) {
	t.Parallel()
	store := newFakeOrderStore()
	notifier := newFakeNotifier()
	service := NewAdminService(store, newFakeProductStore(), notifier, logging.Discard())
	order := seedPaidOrder(t, store, models.StatusPlaced, time.Now())

	cancelled, err := service.UpdateOrderStatus(context.Background(), UpdateOrderStatusInput{OrderID: order.ID, Status: models.StatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, models.PaymentRefunded, cancelled.PaymentStatus)
	assert.True(t, notifier.cancelled[order.ID])
}

func TestUpdateOrderStatusRejections(t *testing.T) {
	t.Parallel()
	store := newFakeOrderStore()
	notifier := newFakeNotifier()
	notifier.err = errBoom
	service := NewAdminService(store, newFakeProductStore(), notifier, logging.Discard())
	ctx := context.Background()
	order := seedPaidOrder(t, store, models.StatusPlaced, time.Now())

	_, err := service.UpdateOrderStatus(ctx, UpdateOrderStatusInput{OrderID: uuid.New(), Status: models.StatusDelivered})
	require.ErrorIs(t, err, ErrOrderNotFound)

	_, err = service.UpdateOrderStatus(ctx, UpdateOrderStatusInput{OrderID: order.ID, Status: models.StatusDelivered})
	require.ErrorIs(t, err, ErrOrderStatusConflict)

	_, err = service.UpdateOrderStatus(ctx, UpdateOrderStatusInput{OrderID: order.ID, Status: models.StatusPending})
	var userErr UserError
	require.ErrorAs(t, err, &userErr)

	// Email failures never block the transition.
	_, err = service.UpdateOrderStatus(ctx, UpdateOrderStatusInput{
		OrderID: order.ID, Status: models.StatusShipped, TrackingNumber: "X1", Carrier: "Delhivery",
	})
	require.NoError(t, err)
}

func TestDashboard(t *testing.T) {
	t.Parallel()
	store := newFakeOrderStore()
	products := newFakeProductStore(tshirt(), mug(), models.Product{ID: "p3", Stock: 0})
	service := NewAdminService(store, products, nil, logging.Discard())
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	seedPaidOrder(t, store, models.StatusPlaced, now.AddDate(0, 0, -2))
	seedPaidOrder(t, store, models.StatusDelivered, now.AddDate(0, -2, 0))
	require.NoError(t, store.Create(context.Background(), &models.Order{
		ID: uuid.New(), Status: models.StatusPending, PaymentStatus: models.PaymentPending, Total: decimal.NewFromInt(90),
	}))

	stats, err := service.Dashboard(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.TotalSales.Equal(decimal.NewFromInt(2140)))
	assert.True(t, stats.SalesThisMonth.Equal(decimal.NewFromInt(1070)))
	assert.Equal(t, 3, stats.TotalOrders)
	assert.Equal(t, 1, stats.AwaitingPayment)
	assert.Equal(t, 3, stats.TotalProducts)
	assert.Equal(t, 1, stats.OutOfStockProducts)

	recent, err := service.RecentOrders(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, recent, 3)
}
