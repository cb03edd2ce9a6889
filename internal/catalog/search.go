package catalog

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/beeboo/storefront/internal/models"
)

// Search keeps the products whose title, category or description contains
// term, ignoring case. A blank term keeps everything.
func Search(products []models.Product, term string) []models.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return products
	}

	matches := make([]models.Product, 0, len(products))
	for _, product := range products {
		if strings.Contains(strings.ToLower(product.Title), term) ||
			strings.Contains(strings.ToLower(product.Category), term) ||
			strings.Contains(strings.ToLower(product.Description), term) {
			matches = append(matches, product)
		}
	}
	return matches
}

// Sort orders products in place. Ties break on id so the order is stable
// across calls.
func Sort(products []models.Product, sort models.ProductSort) {
	slices.SortStableFunc(products, func(a, b models.Product) int {
		var c int
		switch sort {
		case models.SortPriceAsc:
			c = a.Price.Cmp(b.Price)
		case models.SortPriceDesc:
			c = b.Price.Cmp(a.Price)
		default:
			c = b.CreatedAt.Compare(a.CreatedAt)
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// Shuffle returns at most limit products in random order. limit <= 0 keeps all.
func Shuffle(products []models.Product, limit int) []models.Product {
	out := slices.Clone(products)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
