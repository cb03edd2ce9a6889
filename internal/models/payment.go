package models

import "github.com/google/uuid"

// PaymentOrderRequest asks a gateway to open a payment for an order.
// Amount is in the currency's minor unit.
type PaymentOrderRequest struct {
	OrderID        uuid.UUID
	UserID         string
	Amount         int64
	Currency       string
	CustomerEmail  string
	IdempotencyKey string
}

type PaymentOrder struct {
	ID           string
	Amount       int64
	Currency     string
	ClientSecret string
}

// PaymentConfirmation is what a gateway vouches for once a payment is verified.
type PaymentConfirmation struct {
	PaymentID string
	Signature string
}
