package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"

	"github.com/beeboo/storefront/internal/db"
	"github.com/beeboo/storefront/internal/logging"
	"github.com/beeboo/storefront/internal/models"
	"github.com/beeboo/storefront/internal/observability"
)

const defaultRecentOrders = 20

type UpdateOrderStatusInput struct {
	OrderID          uuid.UUID
	Status           models.OrderStatus `json:"status"`
	TrackingNumber   string             `json:"trackingNumber"`
	ShippingProvider string             `json:"shippingProvider"`
	Carrier          string             `json:"carrier"`
	OtherCarrier     string             `json:"otherCarrier"`
}

type AdminService struct {
	orderStore   OrderRepository
	productStore ProductRepository
	notifier     OrderNotifier
	logger       *slog.Logger
	now          func() time.Time
}

func NewAdminService(orderStore OrderRepository, productStore ProductRepository, notifier OrderNotifier, logger *slog.Logger) *AdminService {
	if notifier == nil {
		notifier = noopOrderNotifier{}
	}

	return &AdminService{
		orderStore:   orderStore,
		productStore: productStore,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *AdminService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// Dashboard aggregates sales, order and inventory figures. Monthly sales are
// counted from the first day of the current UTC month.
func (s *AdminService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	orderStats, err := s.orderStore.Stats(ctx, monthStart)
	if err != nil {
		return nil, fmt.Errorf("failed to load order stats: %w", err)
	}
	totalProducts, outOfStock, err := s.productStore.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load product counts: %w", err)
	}

	return &models.DashboardStats{
		TotalSales:         orderStats.TotalSales,
		SalesThisMonth:     orderStats.SalesThisMonth,
		TotalOrders:        orderStats.TotalOrders,
		PendingOrders:      orderStats.PendingOrders,
		FailedOrders:       orderStats.FailedOrders,
		AwaitingPayment:    orderStats.AwaitingPayment,
		TotalProducts:      totalProducts,
		OutOfStockProducts: outOfStock,
	}, nil
}

func (s *AdminService) RecentOrders(ctx context.Context, limit int) ([]*models.Order, error) {
	if limit <= 0 {
		limit = defaultRecentOrders
	}

	orders, err := s.orderStore.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus moves an order along placed → shipped → delivered, or
// cancels it. Cancelling a paid order refunds it.
func (s *AdminService) UpdateOrderStatus(ctx context.Context, input UpdateOrderStatusInput) (*models.Order, error) {
	span := sentry.StartSpan(
		ctx,
		"service.admin.update_order_status",
		sentry.WithOpName("service.admin"),
		sentry.WithDescription("UpdateOrderStatus"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	meter.Count("fulfillment.status.received", 1)
	recordFailed := func(reason string) {
		meter.Count("fulfillment.status.failed", 1, sentry.WithAttributes(
			attribute.String("reason", reason),
		))
	}

	if input.OrderID == uuid.Nil {
		recordFailed("invalid_input")
		return nil, UserError{Message: "Order ID is required"}
	}

	if _, err := s.orderStore.GetByID(ctx, input.OrderID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			recordFailed("order_not_found")
			return nil, ErrOrderNotFound
		}
		recordFailed("order_lookup_failed")
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	var (
		transitionErr error
		refunded      bool
	)
	switch input.Status {
	case models.StatusShipped:
		trackingNumber := strings.TrimSpace(input.TrackingNumber)
		carrier := strings.TrimSpace(ResolveShippingCarrier(input.ShippingProvider, input.Carrier, input.OtherCarrier))
		if trackingNumber == "" || carrier == "" {
			recordFailed("missing_tracking_details")
			return nil, UserError{Message: "Tracking number and carrier are required to ship an order"}
		}
		transitionErr = s.orderStore.MarkShipped(ctx, input.OrderID, trackingNumber, carrier)
	case models.StatusDelivered:
		transitionErr = s.orderStore.MarkDelivered(ctx, input.OrderID)
	case models.StatusCancelled:
		var paymentStatus models.PaymentStatus
		paymentStatus, transitionErr = s.orderStore.Cancel(ctx, input.OrderID)
		refunded = paymentStatus == models.PaymentRefunded
	default:
		recordFailed("unsupported_status")
		return nil, UserError{Message: fmt.Sprintf("Orders cannot be moved to %q", input.Status)}
	}

	if transitionErr != nil {
		if errors.Is(transitionErr, db.ErrInvalidStatusTransition) {
			recordFailed("invalid_status_transition")
			return nil, fmt.Errorf("%w: %w", ErrOrderStatusConflict, transitionErr)
		}
		recordFailed("update_failed")
		return nil, fmt.Errorf("failed to update order status: %w", transitionErr)
	}

	updated, err := s.orderStore.GetByID(ctx, input.OrderID)
	if err != nil {
		recordFailed("order_reload_failed")
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}

	var notifyErr error
	switch input.Status {
	case models.StatusShipped:
		notifyErr = s.notifier.OrderShipped(ctx, updated)
	case models.StatusDelivered:
		notifyErr = s.notifier.OrderDelivered(ctx, updated)
	case models.StatusCancelled:
		notifyErr = s.notifier.OrderCancelled(ctx, updated, refunded)
	}
	if notifyErr != nil {
		meter.Count("fulfillment.status.side_effect_failed", 1, sentry.WithAttributes(
			attribute.String("reason", "email_failed"),
		))
		logger.Error("failed to send order status email", "error", notifyErr, "order_id", input.OrderID, "status", input.Status)
	}

	meter.Count("fulfillment.status.processed", 1, sentry.WithAttributes(
		attribute.String("status", string(input.Status)),
	))
	logger.Info("order status updated", "order_id", input.OrderID, "status", input.Status, "refunded", refunded)
	span.Status = sentry.SpanStatusOK

	return updated, nil
}
