// Package stripe opens Stripe PaymentIntents and validates Stripe webhooks.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/beeboo/storefront/internal/models"
)

const ProviderName = "stripe"

var ErrPaymentNotSucceeded = errors.New("stripe payment has not succeeded")

// PaymentClient creates and checks PaymentIntents.
type PaymentClient struct {
	client *stripe.Client
}

// NewPaymentClient builds a client; httpClient may be nil to use the SDK default.
func NewPaymentClient(secretKey string, httpClient *http.Client) *PaymentClient {
	var opts []stripe.ClientOption
	if httpClient != nil {
		opts = append(opts, stripe.WithBackends(stripe.NewBackendsWithConfig(&stripe.BackendConfig{
			HTTPClient: httpClient,
		})))
	}
	return &PaymentClient{client: stripe.NewClient(secretKey, opts...)}
}

func (c *PaymentClient) Name() string {
	return ProviderName
}

// CreateOrder creates a PaymentIntent for req.Amount minor units. The returned
// ClientSecret is handed to the browser to confirm the payment.
func (c *PaymentClient) CreateOrder(ctx context.Context, req models.PaymentOrderRequest) (*models.PaymentOrder, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}

	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		ReceiptEmail: stripe.String(req.CustomerEmail),
		Metadata: map[string]string{
			"order_id": req.OrderID.String(),
			"user_id":  req.UserID,
		},
	}

	// Stripe rejects an empty receipt email.
	if req.CustomerEmail == "" {
		params.ReceiptEmail = nil
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	intent, err := c.client.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &models.PaymentOrder{
		ID:           intent.ID,
		Amount:       intent.Amount,
		Currency:     string(intent.Currency),
		ClientSecret: intent.ClientSecret,
	}, nil
}

// VerifyPayment confirms with the API that the intent succeeded. Stripe has no
// client-side signature, so the intent's charge and id stand in for it.
func (c *PaymentClient) VerifyPayment(ctx context.Context, gatewayOrderID, paymentID, signature string) (*models.PaymentConfirmation, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}

	intent, err := c.client.V1PaymentIntents.Retrieve(ctx, gatewayOrderID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve payment intent: %w", err)
	}

	return ConfirmationFromIntent(intent, signature)
}

// ConfirmationFromIntent extracts the payment id of a succeeded intent.
// fallbackSignature is recorded as the signature, defaulting to the intent id.
func ConfirmationFromIntent(intent *stripe.PaymentIntent, fallbackSignature string) (*models.PaymentConfirmation, error) {
	if intent == nil {
		return nil, fmt.Errorf("payment intent is required")
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("%w: status %s", ErrPaymentNotSucceeded, intent.Status)
	}

	paymentID := intent.ID
	if intent.LatestCharge != nil && intent.LatestCharge.ID != "" {
		paymentID = intent.LatestCharge.ID
	}

	signature := fallbackSignature
	if signature == "" {
		signature = intent.ID
	}

	return &models.PaymentConfirmation{PaymentID: paymentID, Signature: signature}, nil
}

// OrderIDFromIntent returns the storefront order id stamped into the intent metadata.
func OrderIDFromIntent(intent *stripe.PaymentIntent) string {
	if intent == nil || intent.Metadata == nil {
		return ""
	}
	return strings.TrimSpace(intent.Metadata["order_id"])
}
