// Package cart models a shopping cart keyed by product and size.
package cart

import (
	"github.com/shopspring/decimal"
)

// DefaultShippingFee is the flat fee charged on any non-empty cart.
var DefaultShippingFee = decimal.NewFromInt(70)

type Item struct {
	ProductID string          `json:"id" validate:"required"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Size      string          `json:"size,omitempty"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
}

// Key identifies a cart line. The same product in two sizes is two lines.
type Key struct {
	ProductID string
	Size      string
}

func (i Item) Key() Key {
	return Key{ProductID: i.ProductID, Size: i.Size}
}

func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart keeps lines in insertion order. The zero value is not usable; call New.
type Cart struct {
	items       []Item
	shippingFee decimal.Decimal
}

func New(shippingFee decimal.Decimal) *Cart {
	return &Cart{shippingFee: shippingFee}
}

// FromItems builds a cart by adding each item in turn, merging duplicate keys.
func FromItems(shippingFee decimal.Decimal, items ...Item) *Cart {
	c := New(shippingFee)
	for _, item := range items {
		c.Add(item)
	}
	return c
}

// Add appends item or, when its key is already present, increments that line.
// A non-positive quantity counts as one.
func (c *Cart) Add(item Item) {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	if idx := c.index(item.Key()); idx >= 0 {
		c.items[idx].Quantity += item.Quantity
		return
	}
	c.items = append(c.items, item)
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (c *Cart) UpdateQuantity(productID, size string, quantity int) {
	if quantity <= 0 {
		c.Remove(productID, size)
		return
	}
	if idx := c.index(Key{ProductID: productID, Size: size}); idx >= 0 {
		c.items[idx].Quantity = quantity
	}
}

func (c *Cart) Remove(productID, size string) {
	idx := c.index(Key{ProductID: productID, Size: size})
	if idx < 0 {
		return
	}
	c.items = append(c.items[:idx], c.items[idx+1:]...)
}

func (c *Cart) Clear() {
	c.items = nil
}

func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int {
	return len(c.items)
}

// Count is the total number of units across lines.
func (c *Cart) Count() int {
	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

func (c *Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range c.items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return subtotal
}

// ShippingFee is zero for an empty cart.
func (c *Cart) ShippingFee() decimal.Decimal {
	if !c.Subtotal().IsPositive() {
		return decimal.Zero
	}
	return c.shippingFee
}

func (c *Cart) Total() decimal.Decimal {
	return c.Subtotal().Add(c.ShippingFee())
}

func (c *Cart) index(key Key) int {
	for i, item := range c.items {
		if item.Key() == key {
			return i
		}
	}
	return -1
}
