package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPlaced    OrderStatus = "placed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
	StatusFailed    OrderStatus = "failed"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPlaced, StatusShipped, StatusDelivered, StatusCancelled, StatusFailed:
		return true
	default:
		return false
	}
}

type PaymentStatus string

const (
	PaymentPending            PaymentStatus = "pending"
	PaymentPaid               PaymentStatus = "paid"
	PaymentFailed             PaymentStatus = "failed"
	PaymentRefunded           PaymentStatus = "refunded"
	PaymentVerificationFailed PaymentStatus = "verification-failed"
)

// DirectGatewayOrderPrefix marks orders placed without a payment gateway.
const DirectGatewayOrderPrefix = "sim_"

type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
	Size      string          `json:"size,omitempty"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type ShippingAddress struct {
	Name         string `json:"name" validate:"required,min=2"`
	Phone        string `json:"phoneNumber" validate:"required,in_mobile"`
	Email        string `json:"email" validate:"required,email"`
	HouseNumber  string `json:"houseNumber" validate:"required"`
	BuildingName string `json:"buildingName" validate:"required"`
	Street       string `json:"street" validate:"required,min=3"`
	Landmark     string `json:"landmark,omitempty"`
	Pincode      string `json:"pincode" validate:"required,pincode"`
	City         string `json:"city" validate:"required,min=2"`
	State        string `json:"state" validate:"required,min=2"`
}

type Order struct {
	ID               uuid.UUID       `json:"id"`
	UserID           string          `json:"userId,omitempty"`
	Items            []OrderItem     `json:"products"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	ShippingFee      decimal.Decimal `json:"shippingFee"`
	Total            decimal.Decimal `json:"total"`
	ShippingAddress  ShippingAddress `json:"shippingAddress"`
	Status           OrderStatus     `json:"status"`
	PaymentStatus    PaymentStatus   `json:"paymentStatus"`
	PaymentProvider  string          `json:"paymentProvider,omitempty"`
	GatewayOrderID   string          `json:"razorpayOrderId,omitempty"`
	GatewayPaymentID string          `json:"razorpayPaymentId,omitempty"`
	GatewaySignature string          `json:"razorpaySignature,omitempty"`
	ErrorMessage     string          `json:"errorMessage,omitempty"`
	IdempotencyKey   string          `json:"-"`
	TrackingNumber   string          `json:"trackingNumber,omitempty"`
	Carrier          string          `json:"carrier,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	PaidAt           *time.Time      `json:"paidAt,omitempty"`
}

func (o *Order) IsPaid() bool {
	return o != nil && o.PaymentStatus == PaymentPaid
}

func (o *Order) IsDirect() bool {
	return o != nil && strings.HasPrefix(o.GatewayOrderID, DirectGatewayOrderPrefix)
}

// DashboardStats summarises orders and inventory for the admin dashboard.
type DashboardStats struct {
	TotalSales         decimal.Decimal `json:"totalSales"`
	SalesThisMonth     decimal.Decimal `json:"salesThisMonth"`
	TotalOrders        int             `json:"totalOrders"`
	PendingOrders      int             `json:"pendingOrders"`
	FailedOrders       int             `json:"failedOrders"`
	AwaitingPayment    int             `json:"awaitingPayment"`
	TotalProducts      int             `json:"totalProducts"`
	OutOfStockProducts int             `json:"outOfStockProducts"`
}
