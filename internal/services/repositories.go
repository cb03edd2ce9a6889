package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/beeboo/storefront/internal/db"
	"github.com/beeboo/storefront/internal/models"
)

// OrderRepository is the order persistence the services need. *db.OrderStore
// satisfies it.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.Order, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Order, error)
	AttachGatewayOrder(ctx context.Context, orderID uuid.UUID, provider, gatewayOrderID string) error
	MarkPaid(ctx context.Context, orderID uuid.UUID, paymentID, signature string) error
	MarkFailed(ctx context.Context, orderID uuid.UUID, paymentStatus models.PaymentStatus, message string) error
	ExpireStale(ctx context.Context, cutoff time.Time, message string) ([]uuid.UUID, error)
	MarkShipped(ctx context.Context, orderID uuid.UUID, trackingNumber, carrier string) error
	MarkDelivered(ctx context.Context, orderID uuid.UUID) error
	Cancel(ctx context.Context, orderID uuid.UUID) (models.PaymentStatus, error)
	Stats(ctx context.Context, monthStart time.Time) (db.OrderStats, error)
}

type ProductRepository interface {
	List(ctx context.Context, filter models.ProductFilter) (*models.ProductPage, error)
	ListAll(ctx context.Context, category string) ([]models.Product, error)
	ListFeatured(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, productID string) (*models.Product, error)
	GetMany(ctx context.Context, ids []string) (map[string]*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, productID string) error
	Counts(ctx context.Context) (total, outOfStock int, err error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
}

type SettingsRepository interface {
	Get(ctx context.Context, key string, dest any) error
	Put(ctx context.Context, key string, value any) error
}

var (
	_ OrderRepository    = (*db.OrderStore)(nil)
	_ ProductRepository  = (*db.ProductStore)(nil)
	_ CategoryRepository = (*db.CategoryStore)(nil)
	_ SettingsRepository = (*db.SettingsStore)(nil)
)

// PaymentGateway opens payments and verifies their completion.
type PaymentGateway interface {
	Name() string
	CreateOrder(ctx context.Context, req models.PaymentOrderRequest) (*models.PaymentOrder, error)
	VerifyPayment(ctx context.Context, gatewayOrderID, paymentID, signature string) (*models.PaymentConfirmation, error)
}

// publicKeyer is implemented by gateways whose browser widget needs a public key.
type publicKeyer interface {
	KeyID() string
}
