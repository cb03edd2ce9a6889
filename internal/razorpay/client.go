// Package razorpay opens Razorpay orders and verifies checkout signatures.
package razorpay

import (
	"context"
	"errors"
	"fmt"

	"github.com/getsentry/sentry-go"
	razorpaysdk "github.com/razorpay/razorpay-go"

	"github.com/beeboo/storefront/internal/models"
)

const ProviderName = "razorpay"

var (
	ErrSignatureMismatch = errors.New("razorpay signature mismatch")
	ErrMalformedResponse = errors.New("malformed razorpay response")
)

// orderAPI is the slice of the SDK order resource the client uses.
type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type Client struct {
	keyID     string
	keySecret string
	orders    orderAPI
}

func NewClient(keyID, keySecret string) *Client {
	sdk := razorpaysdk.NewClient(keyID, keySecret)
	return &Client{
		keyID:     keyID,
		keySecret: keySecret,
		orders:    sdk.Order,
	}
}

func (c *Client) Name() string {
	return ProviderName
}

// KeyID is the public key the checkout widget is opened with.
func (c *Client) KeyID() string {
	return c.keyID
}

// CreateOrder opens a Razorpay order for req.Amount minor units with the
// order id as receipt.
func (c *Client) CreateOrder(ctx context.Context, req models.PaymentOrderRequest) (*models.PaymentOrder, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	span := sentry.StartSpan(ctx, "razorpay.order.create",
		sentry.WithOpName("http.client"),
		sentry.WithDescription("POST /v1/orders"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()

	receipt := req.OrderID.String()
	data := map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  receipt,
		"notes": map[string]interface{}{
			"order_id": receipt,
			"user_id":  req.UserID,
		},
	}

	resp, err := c.orders.Create(data, nil)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, fmt.Errorf("failed to create razorpay order: %w", err)
	}

	id, _ := resp["id"].(string)
	if id == "" {
		span.Status = sentry.SpanStatusInternalError
		return nil, fmt.Errorf("%w: missing order id", ErrMalformedResponse)
	}

	order := &models.PaymentOrder{
		ID:       id,
		Amount:   req.Amount,
		Currency: req.Currency,
	}
	if amount, ok := resp["amount"].(float64); ok {
		order.Amount = int64(amount)
	}
	if currency, ok := resp["currency"].(string); ok && currency != "" {
		order.Currency = currency
	}

	span.Status = sentry.SpanStatusOK
	return order, nil
}

// VerifyPayment checks the checkout signature for gatewayOrderID and paymentID.
func (c *Client) VerifyPayment(ctx context.Context, gatewayOrderID, paymentID, signature string) (*models.PaymentConfirmation, error) {
	if gatewayOrderID == "" || paymentID == "" {
		return nil, fmt.Errorf("%w: order and payment ids are required", ErrSignatureMismatch)
	}
	if !VerifySignature(c.keySecret, gatewayOrderID, paymentID, signature) {
		return nil, ErrSignatureMismatch
	}
	return &models.PaymentConfirmation{PaymentID: paymentID, Signature: signature}, nil
}
