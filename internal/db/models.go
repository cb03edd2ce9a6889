package db

import "github.com/beeboo/storefront/internal/models"

type (
	Order         = models.Order
	OrderItem     = models.OrderItem
	OrderStatus   = models.OrderStatus
	PaymentStatus = models.PaymentStatus
	Product       = models.Product
	Category      = models.Category
	ProductSort   = models.ProductSort
)

const (
	StatusPending   = models.StatusPending
	StatusPlaced    = models.StatusPlaced
	StatusShipped   = models.StatusShipped
	StatusDelivered = models.StatusDelivered
	StatusCancelled = models.StatusCancelled
	StatusFailed    = models.StatusFailed

	PaymentPending            = models.PaymentPending
	PaymentPaid               = models.PaymentPaid
	PaymentFailed             = models.PaymentFailed
	PaymentRefunded           = models.PaymentRefunded
	PaymentVerificationFailed = models.PaymentVerificationFailed
)
