package catalog

import (
	"strings"

	"github.com/beeboo/storefront/internal/models"
)

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateProduct returns field name to message for every rule product breaks.
// An empty map means the product is valid.
func (v *Validator) ValidateProduct(product *models.Product) map[string]string {
	fields := make(map[string]string)

	if len(strings.TrimSpace(product.Title)) < 3 {
		fields["title"] = "Title must be at least 3 characters"
	}

	if len(strings.TrimSpace(product.Description)) < 10 {
		fields["description"] = "Description must be at least 10 characters"
	}

	if product.Price.IsNegative() {
		fields["price"] = "Price must be zero or positive"
	}

	if product.MRP != nil {
		if product.MRP.IsNegative() {
			fields["mrp"] = "MRP must be zero or positive"
		} else if product.Price.GreaterThan(*product.MRP) {
			fields["price"] = "Offer price cannot be greater than MRP"
		}
	}

	if product.Stock < 0 {
		fields["stock"] = "Stock must be zero or positive"
	}

	images := 0
	for _, image := range product.Images {
		if strings.TrimSpace(image) != "" {
			images++
		}
	}
	if images == 0 {
		fields["images"] = "At least one image is required"
	}

	if strings.TrimSpace(product.Category) == "" {
		fields["category"] = "Category is required"
	}

	seen := make(map[string]bool, len(product.Sizes))
	for _, size := range product.Sizes {
		size = strings.TrimSpace(size)
		if size == "" || seen[size] {
			fields["sizes"] = "Sizes must be unique and non-empty"
			break
		}
		seen[size] = true
	}

	return fields
}

func (v *Validator) ValidateCategory(category *models.Category) map[string]string {
	fields := make(map[string]string)
	if len(strings.TrimSpace(category.Name)) < 2 {
		fields["name"] = "Category name must be at least 2 characters"
	}
	return fields
}
