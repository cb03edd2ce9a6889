package stripe

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	stripeapi "github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
)

// PaymentIntent events that move an order.
const (
	EventPaymentIntentSucceeded stripeapi.EventType = "payment_intent.succeeded"
	EventPaymentIntentFailed    stripeapi.EventType = "payment_intent.payment_failed"
)

var (
	ErrMissingSignature = errors.New("missing stripe signature header")
	ErrInvalidSignature = errors.New("invalid stripe webhook signature")
)

// ReadWebhookEvent reads the body of r and verifies its Stripe-Signature
// header. Events signed for another API version are accepted because only the
// PaymentIntent id, status and metadata are read from them.
func ReadWebhookEvent(r *http.Request, secret string) (*stripeapi.Event, error) {
	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		return nil, ErrMissingSignature
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	return &event, nil
}

// DecodePaymentIntent decodes the PaymentIntent carried in an event's data.
func DecodePaymentIntent(raw []byte) (*stripeapi.PaymentIntent, error) {
	var intent stripeapi.PaymentIntent
	if err := json.Unmarshal(raw, &intent); err != nil {
		return nil, fmt.Errorf("invalid payment intent: %w", err)
	}
	if intent.ID == "" {
		return nil, fmt.Errorf("missing payment intent ID")
	}
	return &intent, nil
}
