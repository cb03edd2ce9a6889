package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/beeboo/storefront/internal/catalog"
	"github.com/beeboo/storefront/internal/models"
)

// ImportFailure is a catalog entry that was rejected.
type ImportFailure struct {
	Title  string
	Reason string
}

type ImportResult struct {
	CategoriesCreated int
	ProductsCreated   int
	ProductsSkipped   int
	Failures          []ImportFailure
}

// ImportCatalog creates the categories and products of a catalog file.
// Existing categories and products whose title already exists in their
// category are skipped, so a file can be imported repeatedly. Invalid
// products are reported in the result; store errors abort the import.
func (s *CatalogService) ImportCatalog(ctx context.Context, file *catalog.CatalogFile) (*ImportResult, error) {
	if file == nil {
		return nil, fmt.Errorf("catalog file is required")
	}
	logger := s.loggerFromContext(ctx)
	result := &ImportResult{}

	for _, entry := range file.Categories {
		_, err := s.CreateCategory(ctx, &models.Category{Name: entry.Name, IsApparel: entry.Apparel})
		switch {
		case err == nil:
			result.CategoriesCreated++
		case errors.Is(err, ErrCategoryExists):
		default:
			var validationErr *ValidationError
			if errors.As(err, &validationErr) {
				result.Failures = append(result.Failures, ImportFailure{Title: entry.Name, Reason: describeFields(validationErr.Fields)})
				continue
			}
			return result, err
		}
	}

	existing := make(map[string]map[string]bool)
	for _, entry := range file.Products {
		categoryID := CategorySlug(entry.Category)
		product, err := entry.Product(categoryID)
		if err != nil {
			result.Failures = append(result.Failures, ImportFailure{Title: entry.Title, Reason: err.Error()})
			continue
		}

		titles, ok := existing[categoryID]
		if !ok {
			titles, err = s.titlesInCategory(ctx, categoryID)
			if err != nil {
				return result, err
			}
			existing[categoryID] = titles
		}
		key := strings.ToLower(strings.TrimSpace(product.Title))
		if titles[key] {
			result.ProductsSkipped++
			continue
		}

		if _, err := s.CreateProduct(ctx, product); err != nil {
			var validationErr *ValidationError
			if errors.As(err, &validationErr) {
				result.Failures = append(result.Failures, ImportFailure{Title: entry.Title, Reason: describeFields(validationErr.Fields)})
				continue
			}
			return result, err
		}
		titles[key] = true
		result.ProductsCreated++
	}

	logger.Info("catalog imported",
		"categories_created", result.CategoriesCreated,
		"products_created", result.ProductsCreated,
		"products_skipped", result.ProductsSkipped,
		"failures", len(result.Failures),
	)
	return result, nil
}

func (s *CatalogService) titlesInCategory(ctx context.Context, categoryID string) (map[string]bool, error) {
	titles := make(map[string]bool)
	if categoryID == "" {
		return titles, nil
	}
	products, err := s.productStore.ListAll(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	for _, product := range products {
		titles[strings.ToLower(strings.TrimSpace(product.Title))] = true
	}
	return titles, nil
}

func describeFields(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+fields[name])
	}
	return strings.Join(parts, "; ")
}
