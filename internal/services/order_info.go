package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/beeboo/storefront/internal/email"
	"github.com/beeboo/storefront/internal/models"
)

// OrderInfoOverrides provides optional overrides when building order email data.
type OrderInfoOverrides struct {
	TrackingNumber  string
	TrackingURL     string
	TrackingCarrier string
	OrderDate       time.Time
}

// BuildOrderInfo builds a consistent OrderInfo payload for email templates.
func BuildOrderInfo(shopName, shopURL string, order *models.Order, overrides OrderInfoOverrides) *email.OrderInfo {
	info := &email.OrderInfo{
		ShopName:        shopName,
		ShopURL:         shopURL,
		TrackingNumber:  overrides.TrackingNumber,
		TrackingURL:     overrides.TrackingURL,
		TrackingCarrier: overrides.TrackingCarrier,
	}
	if order == nil {
		return info
	}

	orderDate := overrides.OrderDate
	if orderDate.IsZero() {
		orderDate = order.CreatedAt
	}
	if orderDate.IsZero() {
		orderDate = time.Now()
	}

	info.OrderID = order.ID.String()
	info.OrderNumber = OrderNumber(order)
	info.CustomerName = order.ShippingAddress.Name
	info.CustomerEmail = order.ShippingAddress.Email
	info.CustomerPhone = order.ShippingAddress.Phone
	info.ShippingAddress = FormatShippingAddress(order.ShippingAddress)
	info.OrderDate = orderDate.Format("January 2, 2006")
	info.PaymentMethod = paymentMethodLabel(order)
	info.Subtotal = email.FormatINR(order.Subtotal)
	info.Shipping = email.FormatINR(order.ShippingFee)
	info.Total = email.FormatINR(order.Total)
	if shopURL != "" {
		info.OrderURL = strings.TrimRight(shopURL, "/") + "/orders/" + order.ID.String()
	}

	info.Items = make([]email.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		info.Items = append(info.Items, email.OrderItem{
			Name:       item.Name,
			Size:       item.Size,
			Quantity:   item.Quantity,
			UnitPrice:  email.FormatINR(item.Price),
			TotalPrice: email.FormatINR(item.LineTotal()),
		})
	}

	return info
}

// OrderNumber is the short reference shown to customers: the first eight
// characters of the order id, upper-cased.
func OrderNumber(order *models.Order) string {
	if order == nil {
		return ""
	}
	id := strings.ReplaceAll(order.ID.String(), "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return "#" + strings.ToUpper(id)
}

// FormatShippingAddress renders an address as mailing-label lines.
func FormatShippingAddress(address models.ShippingAddress) string {
	var lines []string
	if address.Name != "" {
		lines = append(lines, address.Name)
	}

	first := strings.TrimSpace(strings.Trim(address.HouseNumber+", "+address.BuildingName, ", "))
	if first != "" {
		lines = append(lines, first)
	}
	if address.Street != "" {
		lines = append(lines, address.Street)
	}
	if address.Landmark != "" {
		lines = append(lines, "Near "+address.Landmark)
	}

	cityLine := strings.Trim(fmt.Sprintf("%s, %s %s", address.City, address.State, address.Pincode), ", ")
	if strings.TrimSpace(cityLine) != "" {
		lines = append(lines, strings.TrimSpace(cityLine))
	}
	if address.Phone != "" {
		lines = append(lines, "Phone: "+address.Phone)
	}

	return strings.Join(lines, "\n")
}

func paymentMethodLabel(order *models.Order) string {
	switch {
	case order.IsDirect():
		return "Direct order"
	case order.PaymentProvider == "stripe":
		return "Card (Stripe)"
	case order.PaymentProvider == "razorpay":
		return "Razorpay"
	default:
		return "Online payment"
	}
}
