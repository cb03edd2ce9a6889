package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/beeboo/storefront/internal/cart"
	"github.com/beeboo/storefront/internal/db"
	"github.com/beeboo/storefront/internal/logging"
	"github.com/beeboo/storefront/internal/models"
	"github.com/beeboo/storefront/internal/observability"
	"github.com/beeboo/storefront/internal/razorpay"
	"github.com/beeboo/storefront/internal/stripe"
)

const (
	directPaymentProvider = "direct"
	directSignature       = "direct"

	// DefaultOrderHistoryLimit caps ListOrdersForUser.
	DefaultOrderHistoryLimit = 50
)

type OrderServiceConfig struct {
	ShippingFee decimal.Decimal
	Currency    string
}

type OrderService struct {
	orderStore   OrderRepository
	productStore ProductRepository
	gateway      PaymentGateway
	notifier     OrderNotifier
	config       OrderServiceConfig
	logger       *slog.Logger
	now          func() time.Time
}

// NewOrderService wires the order orchestrator. A nil gateway places every
// order directly as paid.
func NewOrderService(orderStore OrderRepository, productStore ProductRepository, gateway PaymentGateway, notifier OrderNotifier, config OrderServiceConfig, logger *slog.Logger) *OrderService {
	if notifier == nil {
		notifier = noopOrderNotifier{}
	}
	if config.Currency == "" {
		config.Currency = "INR"
	}

	return &OrderService{
		orderStore:   orderStore,
		productStore: productStore,
		gateway:      gateway,
		notifier:     notifier,
		config:       config,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *OrderService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// DirectOrdersEnabled reports whether orders bypass the payment gateway.
func (s *OrderService) DirectOrdersEnabled() bool {
	return s.gateway == nil
}

// CreateOrderAndPayment validates a checkout, persists the order and opens a
// gateway payment for it. Validation problems are returned as
// *ValidationError before anything is written.
func (s *OrderService) CreateOrderAndPayment(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	span := sentry.StartSpan(
		ctx,
		"service.order.create_order_and_payment",
		sentry.WithOpName("service.order"),
		sentry.WithDescription("CreateOrderAndPayment"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	meter.Count("order.checkout.received", 1)
	recordFailure := func(reason string) {
		meter.Count("order.checkout.failed", 1, sentry.WithAttributes(
			attribute.String("reason", reason),
		))
	}

	order, err := s.buildOrder(ctx, req)
	if err != nil {
		recordFailure("validation_failed")
		return nil, err
	}

	if req.IdempotencyKey != "" {
		existing, err := s.orderStore.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		switch {
		case err == nil:
			meter.Count("order.checkout.replayed", 1)
			return s.replayResult(existing, req.UserID)
		case !errors.Is(err, db.ErrNotFound):
			recordFailure("idempotency_lookup_failed")
			return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
		}
	}

	if s.gateway == nil {
		result, err := s.placeDirectOrder(ctx, order, req)
		if err != nil {
			recordFailure("direct_order_failed")
			return nil, err
		}
		meter.Count("order.created", 1, sentry.WithAttributes(attribute.String("flow", "direct")))
		span.Status = sentry.SpanStatusOK
		return result, nil
	}

	order.Status = models.StatusPending
	order.PaymentStatus = models.PaymentPending
	order.PaymentProvider = s.gateway.Name()

	if err := s.orderStore.Create(ctx, order); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return s.replayByKey(ctx, req)
		}
		recordFailure("order_create_failed")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	meter.Count("order.created", 1, sentry.WithAttributes(attribute.String("flow", "gateway")))

	paymentOrder, err := s.gateway.CreateOrder(ctx, models.PaymentOrderRequest{
		OrderID:        order.ID,
		UserID:         order.UserID,
		Amount:         AmountInMinorUnits(order.Total),
		Currency:       s.config.Currency,
		CustomerEmail:  order.ShippingAddress.Email,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		recordFailure("gateway_order_failed")
		s.markFailed(ctx, order.ID, models.PaymentFailed, "Payment gateway error: "+err.Error())
		return nil, fmt.Errorf("%w: %w", ErrPaymentGateway, err)
	}

	if err := s.orderStore.AttachGatewayOrder(ctx, order.ID, s.gateway.Name(), paymentOrder.ID); err != nil {
		recordFailure("gateway_attach_failed")
		s.markFailed(ctx, order.ID, models.PaymentFailed, "Failed to record gateway order: "+err.Error())
		return nil, fmt.Errorf("failed to attach gateway order: %w", err)
	}

	logger.Info("order awaiting payment",
		"order_id", order.ID,
		"gateway", s.gateway.Name(),
		"gateway_order_id", paymentOrder.ID,
		"amount", paymentOrder.Amount,
	)
	meter.Count("payment.order.created", 1, sentry.WithAttributes(attribute.String("gateway", s.gateway.Name())))
	span.Status = sentry.SpanStatusOK

	result := &CheckoutResult{
		ID:              order.ID.String(),
		RazorpayOrderID: paymentOrder.ID,
		Amount:          paymentOrder.Amount,
		Currency:        paymentOrder.Currency,
		Provider:        s.gateway.Name(),
		ClientSecret:    paymentOrder.ClientSecret,
	}
	if keyer, ok := s.gateway.(publicKeyer); ok {
		result.KeyID = keyer.KeyID()
	}
	return result, nil
}

// buildOrder validates req against the catalog and returns an unsaved order.
func (s *OrderService) buildOrder(ctx context.Context, req CheckoutRequest) (*models.Order, error) {
	fields := validateCartLines(req.Cart)
	shipping := normalizeShipping(req.ShippingDetails)
	for field, message := range validateShipping(shipping) {
		fields[field] = message
	}
	if len(fields) > 0 {
		return nil, validationError(fields)
	}

	merged := cart.FromItems(s.config.ShippingFee, req.Cart...)
	lines := merged.Items()

	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.productStore.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}

	items, fields := priceLines(lines, products)
	if len(fields) > 0 {
		return nil, validationError(fields)
	}

	priced := cart.New(s.config.ShippingFee)
	for _, item := range items {
		priced.Add(cart.Item{ProductID: item.ProductID, Price: item.Price, Size: item.Size, Quantity: item.Quantity})
	}
	subtotal := priced.Subtotal()
	shippingFee := priced.ShippingFee()
	total := priced.Total()

	if !total.IsPositive() {
		return nil, validationError(map[string]string{"total": "Order total must be greater than zero"})
	}
	if !req.Total.Equal(total) {
		return nil, validationError(map[string]string{
			"total": fmt.Sprintf("Order total has changed to %s. Please review your cart.", total.StringFixed(2)),
		})
	}

	return &models.Order{
		ID:              uuid.New(),
		UserID:          req.UserID,
		Items:           items,
		Subtotal:        subtotal,
		ShippingFee:     shippingFee,
		Total:           total,
		ShippingAddress: shipping,
		IdempotencyKey:  req.IdempotencyKey,
	}, nil
}

func (s *OrderService) placeDirectOrder(ctx context.Context, order *models.Order, req CheckoutRequest) (*CheckoutResult, error) {
	now := s.now()
	syntheticID := models.DirectGatewayOrderPrefix + strconv.FormatInt(now.UnixMilli(), 10)

	order.Status = models.StatusPlaced
	order.PaymentStatus = models.PaymentPaid
	order.PaymentProvider = directPaymentProvider
	order.GatewayOrderID = syntheticID
	order.GatewayPaymentID = syntheticID
	order.GatewaySignature = directSignature
	order.PaidAt = &now

	if err := s.orderStore.Create(ctx, order); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return s.replayByKey(ctx, req)
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.loggerFromContext(ctx).Warn("order placed without payment gateway", "order_id", order.ID, "total", order.Total.String())
	s.notifyPlaced(ctx, order)

	return &CheckoutResult{ID: order.ID.String(), IsDirectOrder: true}, nil
}

func (s *OrderService) replayByKey(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	existing, err := s.orderStore.GetByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load order for idempotency key: %w", err)
	}
	return s.replayResult(existing, req.UserID)
}

// replayResult answers a repeated checkout with the original order's result.
func (s *OrderService) replayResult(existing *models.Order, userID string) (*CheckoutResult, error) {
	if existing.UserID != userID {
		return nil, ErrOrderForbidden
	}
	if existing.Status == models.StatusFailed {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateOrder, existing.ErrorMessage)
	}

	if existing.IsDirect() {
		return &CheckoutResult{ID: existing.ID.String(), IsDirectOrder: true}, nil
	}

	result := &CheckoutResult{
		ID:              existing.ID.String(),
		RazorpayOrderID: existing.GatewayOrderID,
		Amount:          AmountInMinorUnits(existing.Total),
		Currency:        s.config.Currency,
		Provider:        existing.PaymentProvider,
	}
	if keyer, ok := s.gateway.(publicKeyer); ok {
		result.KeyID = keyer.KeyID()
	}
	return result, nil
}

type VerifyPaymentInput struct {
	OrderID        uuid.UUID
	UserID         string
	GatewayOrderID string `json:"razorpayOrderId" validate:"required"`
	PaymentID      string `json:"razorpayPaymentId" validate:"required"`
	Signature      string `json:"razorpaySignature"`
}

// VerifyPaymentAndUpdateOrder confirms a gateway payment and marks the order
// placed and paid. Any verification failure fails the order.
func (s *OrderService) VerifyPaymentAndUpdateOrder(ctx context.Context, input VerifyPaymentInput) (*models.Order, error) {
	span := sentry.StartSpan(
		ctx,
		"service.order.verify_payment",
		sentry.WithOpName("service.order"),
		sentry.WithDescription("VerifyPaymentAndUpdateOrder"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	meter.Count("payment.verification.received", 1)
	recordFailure := func(reason string) {
		meter.Count("payment.verification.failed", 1, sentry.WithAttributes(
			attribute.String("reason", reason),
		))
	}

	order, err := s.orderStore.GetByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			recordFailure("order_not_found")
			return nil, ErrOrderNotFound
		}
		recordFailure("order_lookup_failed")
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order.UserID != "" && order.UserID != input.UserID {
		recordFailure("owner_mismatch")
		return nil, ErrOrderForbidden
	}
	if order.IsDirect() {
		recordFailure("direct_order")
		return nil, fmt.Errorf("%w: order was placed without a payment gateway", ErrOrderStatusConflict)
	}
	if s.gateway == nil {
		recordFailure("gateway_unavailable")
		return nil, fmt.Errorf("%w: payment gateway is not configured", ErrServiceUnavailable)
	}

	wasPending := order.Status == models.StatusPending

	if strings.TrimSpace(input.GatewayOrderID) == "" || input.GatewayOrderID != order.GatewayOrderID {
		recordFailure("gateway_order_mismatch")
		s.markFailed(ctx, order.ID, models.PaymentVerificationFailed, "Payment verification failed: gateway order does not match")
		return nil, fmt.Errorf("%w: gateway order does not match", ErrSignatureMismatch)
	}

	confirmation, err := s.gateway.VerifyPayment(ctx, input.GatewayOrderID, input.PaymentID, input.Signature)
	if err != nil {
		if errors.Is(err, razorpay.ErrSignatureMismatch) {
			recordFailure("signature_mismatch")
			logger.Warn("payment signature mismatch", "order_id", order.ID, "gateway_order_id", input.GatewayOrderID)
			s.markFailed(ctx, order.ID, models.PaymentVerificationFailed, "Payment verification failed: signature mismatch")
			return nil, ErrSignatureMismatch
		}
		reason := "gateway_verification_failed"
		if errors.Is(err, stripe.ErrPaymentNotSucceeded) {
			reason = "payment_not_succeeded"
		}
		recordFailure(reason)
		s.markFailed(ctx, order.ID, models.PaymentVerificationFailed, "Payment verification failed: "+err.Error())
		return nil, fmt.Errorf("%w: %w", ErrPaymentVerification, err)
	}

	if err := s.orderStore.MarkPaid(ctx, order.ID, confirmation.PaymentID, confirmation.Signature); err != nil {
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			recordFailure("invalid_status_transition")
			logger.Error("verified payment for order that can no longer be confirmed",
				"order_id", order.ID,
				"status", order.Status,
				"payment_id", confirmation.PaymentID,
			)
			return nil, fmt.Errorf("%w: %w", ErrOrderStatusConflict, err)
		}
		recordFailure("mark_paid_failed")
		s.markFailed(ctx, order.ID, models.PaymentVerificationFailed, "Payment verification failed: "+err.Error())
		return nil, fmt.Errorf("%w: failed to record payment: %w", ErrPaymentVerification, err)
	}

	updated, err := s.orderStore.GetByID(ctx, order.ID)
	if err != nil {
		logger.Warn("failed to reload paid order", "error", err, "order_id", order.ID)
		updated = order
		updated.Status = models.StatusPlaced
		updated.PaymentStatus = models.PaymentPaid
		updated.GatewayPaymentID = confirmation.PaymentID
		updated.GatewaySignature = confirmation.Signature
	}

	if wasPending {
		s.notifyPlaced(ctx, updated)
	}
	meter.Count("payment.verification.succeeded", 1, sentry.WithAttributes(
		attribute.String("gateway", s.gateway.Name()),
	))
	span.Status = sentry.SpanStatusOK

	return updated, nil
}

// ListOrdersForUser returns the caller's orders, newest first.
func (s *OrderService) ListOrdersForUser(ctx context.Context, userID string) ([]*models.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrOrderForbidden
	}
	orders, err := s.orderStore.ListByUser(ctx, userID, DefaultOrderHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// GetOrderForUser returns one order if it belongs to userID.
func (s *OrderService) GetOrderForUser(ctx context.Context, orderID uuid.UUID, userID string) (*models.Order, error) {
	order, err := s.orderStore.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// markFailed records a terminal failure. Errors are logged, never returned.
func (s *OrderService) markFailed(ctx context.Context, orderID uuid.UUID, paymentStatus models.PaymentStatus, message string) {
	if err := s.orderStore.MarkFailed(ctx, orderID, paymentStatus, message); err != nil {
		s.loggerFromContext(ctx).Warn("failed to mark order failed", "error", err, "order_id", orderID, "payment_status", paymentStatus)
	}
}

func (s *OrderService) notifyPlaced(ctx context.Context, order *models.Order) {
	notifyPlaced(ctx, s.notifier, s.loggerFromContext(ctx), order)
}

func notifyPlaced(ctx context.Context, notifier OrderNotifier, logger *slog.Logger, order *models.Order) {
	if err := notifier.OrderPlaced(ctx, order); err != nil {
		observability.MeterFromContext(ctx).Count("notification.failed", 1, sentry.WithAttributes(
			attribute.String("kind", "order_placed"),
		))
		logger.Warn("failed to send order notification", "error", err, "order_id", order.ID)
	}
}
