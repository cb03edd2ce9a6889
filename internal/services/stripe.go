package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"
	stripeapi "github.com/stripe/stripe-go/v84"

	"github.com/beeboo/storefront/internal/db"
	"github.com/beeboo/storefront/internal/logging"
	"github.com/beeboo/storefront/internal/models"
	"github.com/beeboo/storefront/internal/observability"
	"github.com/beeboo/storefront/internal/stripe"
)

// StripeService applies PaymentIntent webhook events to orders.
type StripeService struct {
	orderStore OrderRepository
	notifier   OrderNotifier
	logger     *slog.Logger
}

func NewStripeService(orderStore OrderRepository, notifier OrderNotifier, logger *slog.Logger) *StripeService {
	if notifier == nil {
		notifier = noopOrderNotifier{}
	}

	return &StripeService{
		orderStore: orderStore,
		notifier:   notifier,
		logger:     logger,
	}
}

func (s *StripeService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// HandlePaymentIntentSucceeded confirms the order behind a succeeded intent.
// The verified event id is stored as the payment signature.
func (s *StripeService) HandlePaymentIntentSucceeded(ctx context.Context, payload []byte, eventID string) error {
	span := sentry.StartSpan(
		ctx,
		"service.stripe.payment_intent_succeeded",
		sentry.WithOpName("service.stripe"),
		sentry.WithDescription("HandlePaymentIntentSucceeded"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)

	intent, order, err := s.loadIntentOrder(ctx, payload)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}

	confirmation, err := stripe.ConfirmationFromIntent(intent, eventID)
	if err != nil {
		return fmt.Errorf("failed to read payment intent: %w", err)
	}

	wasPending := order.Status == models.StatusPending
	if err := s.orderStore.MarkPaid(ctx, order.ID, confirmation.PaymentID, confirmation.Signature); err != nil {
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			logger.Info("ignoring payment_intent.succeeded due to state transition", "order_id", order.ID, "intent_id", intent.ID, "error", err)
			return nil
		}
		return fmt.Errorf("failed to mark order as paid: %w", err)
	}
	meter.Count("payment.verification.succeeded", 1, sentry.WithAttributes(
		attribute.String("gateway", stripe.ProviderName),
	))

	if wasPending {
		updated, err := s.orderStore.GetByID(ctx, order.ID)
		if err != nil {
			logger.Warn("failed to reload paid order", "error", err, "order_id", order.ID)
			updated = order
		}
		notifyPlaced(ctx, s.notifier, logger, updated)
	}

	logger.Info("stripe payment confirmed", "order_id", order.ID, "intent_id", intent.ID, "payment_id", confirmation.PaymentID)
	return nil
}

func (s *StripeService) HandlePaymentIntentFailed(ctx context.Context, payload []byte) error {
	logger := s.loggerFromContext(ctx)

	intent, order, err := s.loadIntentOrder(ctx, payload)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}

	message := "Payment failed"
	if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
		message += ": " + intent.LastPaymentError.Msg
	}

	if err := s.orderStore.MarkFailed(ctx, order.ID, models.PaymentFailed, message); err != nil {
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			logger.Info("ignoring payment_intent.payment_failed due to state transition", "order_id", order.ID, "intent_id", intent.ID, "error", err)
			return nil
		}
		return fmt.Errorf("failed to mark order as failed: %w", err)
	}

	observability.MeterFromContext(ctx).Count("payment.verification.failed", 1, sentry.WithAttributes(
		attribute.String("reason", "stripe_payment_failed"),
	))
	logger.Info("stripe payment failed", "order_id", order.ID, "intent_id", intent.ID)
	return nil
}

// loadIntentOrder decodes the intent and loads its order. A nil order with a
// nil error means the event does not concern this store.
func (s *StripeService) loadIntentOrder(ctx context.Context, payload []byte) (*stripeapi.PaymentIntent, *models.Order, error) {
	logger := s.loggerFromContext(ctx)

	intent, err := stripe.DecodePaymentIntent(payload)
	if err != nil {
		return nil, nil, err
	}

	rawOrderID := stripe.OrderIDFromIntent(intent)
	if rawOrderID == "" {
		logger.Info("payment intent missing order metadata; skipping", "intent_id", intent.ID)
		return intent, nil, nil
	}
	orderID, err := uuid.Parse(rawOrderID)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid order_id metadata: %w", err)
	}

	order, err := s.orderStore.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			logger.Warn("payment intent references unknown order", "order_id", orderID, "intent_id", intent.ID)
			return intent, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order.GatewayOrderID != intent.ID {
		logger.Warn("payment intent does not match order", "order_id", orderID, "intent_id", intent.ID, "gateway_order_id", order.GatewayOrderID)
		return intent, nil, nil
	}

	return intent, order, nil
}
