package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID                 string           `json:"id"`
	Title              string           `json:"title"`
	Description        string           `json:"description"`
	Images             []string         `json:"images"`
	MRP                *decimal.Decimal `json:"mrp,omitempty"`
	Price              decimal.Decimal  `json:"price"`
	FinalPrice         decimal.Decimal  `json:"finalPrice"`
	DiscountPercentage int              `json:"discountPercentage"`
	Category           string           `json:"category"`
	Featured           bool             `json:"featured"`
	Stock              int              `json:"stock"`
	Sizes              []string         `json:"sizes,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

func (p *Product) InStock() bool {
	return p != nil && p.Stock > 0
}

// HasSize reports whether size is offered. Products without sizes accept only an empty size.
func (p *Product) HasSize(size string) bool {
	if p == nil {
		return false
	}
	if len(p.Sizes) == 0 {
		return size == ""
	}
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

type ProductSort string

const (
	SortNewest    ProductSort = "newest"
	SortPriceAsc  ProductSort = "price-asc"
	SortPriceDesc ProductSort = "price-desc"
)

func (s ProductSort) Valid() bool {
	switch s {
	case SortNewest, SortPriceAsc, SortPriceDesc:
		return true
	default:
		return false
	}
}

type ProductFilter struct {
	Category   string
	Search     string
	Sort       ProductSort
	Limit      int
	StartAfter string
	EndBefore  string
}

type ProductPage struct {
	Products []Product `json:"products"`
	HasMore  bool      `json:"hasMore"`
}

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsApparel bool      `json:"isApparel"`
	CreatedAt time.Time `json:"createdAt"`
}
