// Package catalog derives display pricing and validates catalog entries.
package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/beeboo/storefront/internal/models"
)

var hundred = decimal.NewFromInt(100)

type Pricer struct{}

func NewPricer() *Pricer {
	return &Pricer{}
}

// Decorate fills the derived price fields of product in place.
func (p *Pricer) Decorate(product *models.Product) {
	if product == nil {
		return
	}
	product.FinalPrice = product.Price
	product.DiscountPercentage = DiscountPercentage(product.MRP, product.Price)
}

func (p *Pricer) DecorateAll(products []models.Product) {
	for i := range products {
		p.Decorate(&products[i])
	}
}

// DiscountPercentage is the whole-number markdown from mrp to price, or zero
// when there is no mrp or price is not below it.
func DiscountPercentage(mrp *decimal.Decimal, price decimal.Decimal) int {
	if mrp == nil || !mrp.IsPositive() || !mrp.GreaterThan(price) {
		return 0
	}
	return int(mrp.Sub(price).Div(*mrp).Mul(hundred).Round(0).IntPart())
}

// ReviewCount returns a stable pseudo review count in [10, 99] for a product id.
func ReviewCount(productID string) int {
	var hash int32
	for _, r := range productID {
		hash = (hash << 5) - hash + int32(r)
	}
	h := int64(hash)
	if h < 0 {
		h = -h
	}
	return int(h%90) + 10
}
