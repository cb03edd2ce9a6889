package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beeboo/storefront/internal/logging"
	"github.com/beeboo/storefront/internal/models"
)

func seedStripeOrder(t *testing.T, store *fakeOrderStore, intentID string) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:              uuid.New(),
		UserID:          "user-1",
		Total:           decimal.NewFromInt(1070),
		Status:          models.StatusPending,
		PaymentStatus:   models.PaymentPending,
		PaymentProvider: "stripe",
		GatewayOrderID:  intentID,
		ShippingAddress: validShipping(),
	}
	require.NoError(t, store.Create(context.Background(), order))
	return order
}

func intentPayload(t *testing.T, fields map[string]any) []byte {
	t.Helper()
	payload, err := json.Marshal(fields)
	require.NoError(t, err)
	return payload
}

func TestHandlePaymentIntentSucceeded(t *testing.T) {
	t.Parallel()
	store := newFakeOrderStore()
	notifier := newFakeNotifier()
	service := NewStripeService(store, notifier, logging.Discard())
	order := seedStripeOrder(t, store, "pi_123")

	payload := intentPayload(t, map[string]any{
		"id":            "pi_123",
		"status":        "succeeded",
		"latest_charge": "ch_456",
		"metadata":      map[string]string{"order_id": order.ID.String()},
	})

	require.NoError(t, service.HandlePaymentIntentSucceeded(context.Background(), payload, "evt_789"))

	updated := store.mustGet(order.ID)
	assert.Equal(t, models.StatusPlaced, updated.Status)
	assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)
	assert.Equal(t, "ch_456", updated.GatewayPaymentID)
	assert.Equal(t, "evt_789", updated.GatewaySignature)
	assert.Equal(t, []uuid.UUID{order.ID}, notifier.placed)

	require.NoError(t, service.HandlePaymentIntentSucceeded(context.Background(), payload, "evt_789"))
	assert.Len(t, notifier.placed, 1)
}

func TestHandlePaymentIntentSucceededIgnoresForeignIntents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fields func(orderID uuid.UUID) map[string]any
	}{
		{
			name: "missing metadata",
			fields: func(uuid.UUID) map[string]any {
				return map[string]any{"id": "pi_123", "status": "succeeded"}
			},
		},
		{
			name: "unknown order",
			fields: func(uuid.UUID) map[string]any {
				return map[string]any{"id": "pi_123", "status": "succeeded", "metadata": map[string]string{"order_id": uuid.NewString()}}
			},
		},
		{
			name: "intent of another order",
			fields: func(id uuid.UUID) map[string]any {
				return map[string]any{"id": "pi_other", "status": "succeeded", "metadata": map[string]string{"order_id": id.String()}}
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			store := newFakeOrderStore()
			service := NewStripeService(store, nil, logging.Discard())
			order := seedStripeOrder(t, store, "pi_123")

			err := service.HandlePaymentIntentSucceeded(context.Background(), intentPayload(t, tc.fields(order.ID)), "evt_1")
			require.NoError(t, err)
			assert.Equal(t, models.StatusPending, store.mustGet(order.ID).Status)
		})
	}
}

func TestHandlePaymentIntentSucceededRejectsBadPayload(t *testing.T) {
	t.Parallel()
	service := NewStripeService(newFakeOrderStore(), nil, logging.Discard())

	require.Error(t, service.HandlePaymentIntentSucceeded(context.Background(), []byte("{"), "evt_1"))
	require.Error(t, service.HandlePaymentIntentSucceeded(context.Background(), []byte(`{"status":"succeeded"}`), "evt_1"))
}

func TestHandlePaymentIntentFailed(t *testing.T) {
	t.Parallel()
	store := newFakeOrderStore()
	service := NewStripeService(store, nil, logging.Discard())
	order := seedStripeOrder(t, store, "pi_123")

	payload := intentPayload(t, map[string]any{
		"id":                 "pi_123",
		"status":             "requires_payment_method",
		"metadata":           map[string]string{"order_id": order.ID.String()},
		"last_payment_error": map[string]any{"message": "Your card was declined."},
	})

	require.NoError(t, service.HandlePaymentIntentFailed(context.Background(), payload))

	updated := store.mustGet(order.ID)
	assert.Equal(t, models.StatusFailed, updated.Status)
	assert.Equal(t, models.PaymentFailed, updated.PaymentStatus)
	assert.Equal(t, "Payment failed: Your card was declined.", updated.ErrorMessage)

	require.NoError(t, service.HandlePaymentIntentFailed(context.Background(), payload))
}
