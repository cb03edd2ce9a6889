package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/beeboo/storefront/internal/cart"
	"github.com/beeboo/storefront/internal/models"
)

var (
	indianMobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	pincodePattern      = regexp.MustCompile(`^\d{6}$`)
)

var shippingValidator = newShippingValidator()

func newShippingValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("in_mobile", func(fl validator.FieldLevel) bool {
		return indianMobilePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("pincode", func(fl validator.FieldLevel) bool {
		return pincodePattern.MatchString(fl.Field().String())
	})
	return v
}

var shippingFieldLabels = map[string]string{
	"name":         "Name",
	"phoneNumber":  "Phone number",
	"email":        "Email",
	"houseNumber":  "House number",
	"buildingName": "Building name",
	"street":       "Street",
	"pincode":      "PIN code",
	"city":         "City",
	"state":        "State",
}

// CheckoutRequest is the body of an order placement.
type CheckoutRequest struct {
	Cart            []cart.Item            `json:"cart"`
	ShippingDetails models.ShippingAddress `json:"shippingDetails"`
	Total           decimal.Decimal        `json:"total"`

	UserID         string `json:"-"`
	IdempotencyKey string `json:"-"`
}

// CheckoutResult is returned to the browser after an order is placed.
type CheckoutResult struct {
	ID              string `json:"id"`
	RazorpayOrderID string `json:"razorpayOrderId,omitempty"`
	Amount          int64  `json:"amount,omitempty"`
	Currency        string `json:"currency,omitempty"`
	Provider        string `json:"provider,omitempty"`
	KeyID           string `json:"keyId,omitempty"`
	ClientSecret    string `json:"clientSecret,omitempty"`
	IsDirectOrder   bool   `json:"isDirectOrder"`
}

func normalizeShipping(address models.ShippingAddress) models.ShippingAddress {
	trim := strings.TrimSpace
	address.Name = trim(address.Name)
	address.Phone = strings.ReplaceAll(trim(address.Phone), " ", "")
	address.Email = strings.ToLower(trim(address.Email))
	address.HouseNumber = trim(address.HouseNumber)
	address.BuildingName = trim(address.BuildingName)
	address.Street = trim(address.Street)
	address.Landmark = trim(address.Landmark)
	address.Pincode = trim(address.Pincode)
	address.City = trim(address.City)
	address.State = trim(address.State)
	return address
}

// validateShipping returns field name to message for each broken rule.
func validateShipping(address models.ShippingAddress) map[string]string {
	fields := make(map[string]string)

	err := shippingValidator.Struct(address)
	if err == nil {
		return fields
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		fields["shippingDetails"] = "Shipping details are invalid"
		return fields
	}

	for _, fe := range validationErrs {
		fields[fe.Field()] = shippingMessage(fe)
	}
	return fields
}

func shippingMessage(fe validator.FieldError) string {
	label := shippingFieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "email":
		return "Enter a valid email address"
	case "in_mobile":
		return "Enter a valid 10-digit mobile number"
	case "pincode":
		return "Enter a valid 6-digit PIN code"
	default:
		return label + " is invalid"
	}
}

// validateCartLines checks the raw request lines before they are merged.
func validateCartLines(items []cart.Item) map[string]string {
	fields := make(map[string]string)
	if len(items) == 0 {
		fields["cart"] = "Your cart is empty"
		return fields
	}

	for i, item := range items {
		key := fmt.Sprintf("cart[%d]", i)
		if strings.TrimSpace(item.ProductID) == "" {
			fields[key+".id"] = "Product is required"
		}
		if item.Quantity <= 0 {
			fields[key+".quantity"] = "Quantity must be at least 1"
		}
	}
	return fields
}

// priceLines resolves merged cart lines against the catalog. It returns the
// order items priced from the catalog plus any field problems.
func priceLines(lines []cart.Item, products map[string]*models.Product) ([]models.OrderItem, map[string]string) {
	fields := make(map[string]string)
	items := make([]models.OrderItem, 0, len(lines))

	for i, line := range lines {
		key := fmt.Sprintf("cart[%d]", i)
		product, ok := products[line.ProductID]
		if !ok || product == nil {
			fields[key+".id"] = "This product is no longer available"
			continue
		}
		if !product.InStock() {
			fields[key+".id"] = product.Title + " is out of stock"
			continue
		}
		if !product.HasSize(line.Size) {
			fields[key+".size"] = "Select a valid size for " + product.Title
			continue
		}
		if line.Quantity > product.Stock {
			fields[key+".quantity"] = fmt.Sprintf("Only %d left of %s", product.Stock, product.Title)
			continue
		}
		if !line.Price.IsZero() && !line.Price.Equal(product.Price) {
			fields[key+".price"] = "The price of " + product.Title + " has changed"
			continue
		}

		image := line.Image
		if len(product.Images) > 0 {
			image = product.Images[0]
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Title,
			Price:     product.Price,
			Quantity:  line.Quantity,
			Image:     image,
			Size:      line.Size,
		})
	}

	return items, fields
}

// AmountInMinorUnits converts rupees to paise, rounding half away from zero.
func AmountInMinorUnits(total decimal.Decimal) int64 {
	return total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
