package services

import (
	"context"
	"fmt"

	"github.com/beeboo/storefront/internal/email"
	"github.com/beeboo/storefront/internal/models"
)

// OrderNotifier delivers order lifecycle notifications. Callers treat every
// error as non-fatal.
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, order *models.Order) error
	OrderShipped(ctx context.Context, order *models.Order) error
	OrderDelivered(ctx context.Context, order *models.Order) error
	OrderCancelled(ctx context.Context, order *models.Order, refunded bool) error
}

type EmailNotifierConfig struct {
	ShopName   string
	ShopURL    string
	AdminEmail string
}

// EmailNotifier sends customer and admin emails through an email.Provider.
type EmailNotifier struct {
	provider email.Provider
	config   EmailNotifierConfig
}

func NewEmailNotifier(provider email.Provider, config EmailNotifierConfig) *EmailNotifier {
	return &EmailNotifier{provider: provider, config: config}
}

// OrderPlaced mails the customer confirmation and the admin notice. Both are
// attempted; the first error is returned.
func (n *EmailNotifier) OrderPlaced(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}
	info := BuildOrderInfo(n.config.ShopName, n.config.ShopURL, order, OrderInfoOverrides{})

	var firstErr error
	if info.CustomerEmail != "" {
		if err := email.SendOrderConfirmation(ctx, n.provider, info); err != nil {
			firstErr = fmt.Errorf("customer confirmation: %w", err)
		}
	}
	if err := email.SendAdminNewOrder(ctx, n.provider, n.config.AdminEmail, info); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("admin notification: %w", err)
	}
	return firstErr
}

func (n *EmailNotifier) OrderShipped(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}
	info := BuildOrderInfo(n.config.ShopName, n.config.ShopURL, order, OrderInfoOverrides{
		TrackingNumber:  order.TrackingNumber,
		TrackingURL:     BuildTrackingURL(order.Carrier, order.TrackingNumber),
		TrackingCarrier: order.Carrier,
	})
	return email.SendOrderShipped(ctx, n.provider, info)
}

func (n *EmailNotifier) OrderDelivered(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}
	return email.SendOrderDelivered(ctx, n.provider, BuildOrderInfo(n.config.ShopName, n.config.ShopURL, order, OrderInfoOverrides{}))
}

func (n *EmailNotifier) OrderCancelled(ctx context.Context, order *models.Order, refunded bool) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}
	info := BuildOrderInfo(n.config.ShopName, n.config.ShopURL, order, OrderInfoOverrides{})
	info.Refunded = refunded
	return email.SendOrderCancelled(ctx, n.provider, info)
}

type noopOrderNotifier struct{}

func (noopOrderNotifier) OrderPlaced(context.Context, *models.Order) error { return nil }

func (noopOrderNotifier) OrderShipped(context.Context, *models.Order) error { return nil }

func (noopOrderNotifier) OrderDelivered(context.Context, *models.Order) error { return nil }

func (noopOrderNotifier) OrderCancelled(context.Context, *models.Order, bool) error { return nil }
