package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"

	"github.com/beeboo/storefront/internal/cache"
	"github.com/beeboo/storefront/internal/observability"
	stripewebhook "github.com/beeboo/storefront/internal/stripe"
)

const (
	// stripeWebhookIdempotencyTTL is how long processed event IDs are kept.
	stripeWebhookIdempotencyTTL = 24 * time.Hour
	// stripeWebhookClaimTTL bounds how long a crashed delivery blocks retries.
	stripeWebhookClaimTTL = 2 * time.Minute

	webhookProcessed = "processed"
)

func (h *Handlers) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)

	if h.stripeRouter == nil || h.config.StripeWebhookSecret == "" {
		logger.Warn("stripe webhook received but stripe is not configured")
		http.Error(w, "Webhook handler not configured", http.StatusNotFound)
		return
	}

	event, err := stripewebhook.ReadWebhookEvent(r, h.config.StripeWebhookSecret)
	if err != nil {
		reason := "unreadable"
		switch {
		case errors.Is(err, stripewebhook.ErrMissingSignature):
			reason = "missing_signature"
		case errors.Is(err, stripewebhook.ErrInvalidSignature):
			reason = "invalid_signature"
		}
		observability.MeterFromContext(ctx).Count("webhook.rejected", 1, sentry.WithAttributes(
			attribute.String("webhook.provider", "stripe"),
			attribute.String("reason", reason),
		))
		logger.Warn("rejected Stripe webhook", "reason", reason, "error", err)
		http.Error(w, "Invalid webhook", http.StatusBadRequest)
		return
	}

	if event == nil || event.ID == "" {
		logger.Error("missing Stripe event ID")
		http.Error(w, "Missing event ID", http.StatusBadRequest)
		return
	}

	cacheKey := cache.WebhookKey("stripe", event.ID)
	if value, err := h.cacheProvider.Get(ctx, cacheKey); err == nil && value == webhookProcessed {
		logger.Info("webhook already processed", "event_id", event.ID)
		w.WriteHeader(http.StatusOK)
		return
	}

	// A concurrent delivery of the same event gets 409 so Stripe retries it
	// after the first attempt has either finished or released the claim.
	claimed, err := h.cacheProvider.Claim(ctx, cacheKey, stripeWebhookClaimTTL)
	if err != nil {
		logger.Warn("failed to claim Stripe event; processing without a claim", "error", err, "event_id", event.ID)
		claimed = true
	}
	if !claimed {
		logger.Info("webhook already in progress", "event_id", event.ID)
		http.Error(w, "Event is being processed", http.StatusConflict)
		return
	}

	if processErr := h.stripeRouter.Handle(ctx, event); processErr != nil {
		logger.Error("failed to process Stripe webhook", "error", processErr, "type", event.Type)
		if err := h.cacheProvider.Delete(ctx, cacheKey); err != nil {
			logger.Warn("failed to release Stripe event claim", "error", err, "event_id", event.ID)
		}
		http.Error(w, "Processing failed", http.StatusInternalServerError)
		return
	}

	if err := h.cacheProvider.Set(ctx, cacheKey, webhookProcessed, stripeWebhookIdempotencyTTL); err != nil {
		logger.Error("failed to mark webhook as processed in cache", "error", err)
	}

	w.WriteHeader(http.StatusOK)
}
