package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/beeboo/storefront/internal/catalog"
	"github.com/beeboo/storefront/internal/db"
	"github.com/beeboo/storefront/internal/logging"
	"github.com/beeboo/storefront/internal/models"
)

const (
	defaultFeaturedLimit = 8
	maxPageSize          = 48
)

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// ProductDetail is a product plus the figures shown on its page.
type ProductDetail struct {
	models.Product
	ReviewCount int `json:"reviewCount"`
}

// CatalogService serves the storefront read path and admin catalog edits.
type CatalogService struct {
	productStore  ProductRepository
	categoryStore CategoryRepository
	pricer        *catalog.Pricer
	validator     *catalog.Validator
	logger        *slog.Logger
}

func NewCatalogService(productStore ProductRepository, categoryStore CategoryRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		productStore:  productStore,
		categoryStore: categoryStore,
		pricer:        catalog.NewPricer(),
		validator:     catalog.NewValidator(),
		logger:        logger,
	}
}

func (s *CatalogService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// ListProducts pages through products. A search term reads the whole
// (category-filtered) catalog, ignores cursors and never reports more pages.
func (s *CatalogService) ListProducts(ctx context.Context, filter models.ProductFilter) (*models.ProductPage, error) {
	if !filter.Sort.Valid() {
		filter.Sort = models.SortNewest
	}
	if filter.Limit <= 0 {
		filter.Limit = db.DefaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	filter.Search = strings.TrimSpace(filter.Search)

	if filter.Search != "" {
		all, err := s.productStore.ListAll(ctx, filter.Category)
		if err != nil {
			return nil, fmt.Errorf("failed to list products: %w", err)
		}
		matches := catalog.Search(all, filter.Search)
		catalog.Sort(matches, filter.Sort)
		s.pricer.DecorateAll(matches)
		return &models.ProductPage{Products: matches, HasMore: false}, nil
	}

	page, err := s.productStore.List(ctx, filter)
	if err != nil {
		if errors.Is(err, db.ErrInvalidCursor) {
			return nil, validationError(map[string]string{"cursor": "Unknown product in pagination cursor"})
		}
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if page.Products == nil {
		page.Products = []models.Product{}
	}
	s.pricer.DecorateAll(page.Products)
	return page, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, productID string) (*ProductDetail, error) {
	product, err := s.productStore.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	s.pricer.Decorate(product)
	return &ProductDetail{Product: *product, ReviewCount: catalog.ReviewCount(product.ID)}, nil
}

// FeaturedProducts returns a random selection of featured products, falling
// back to the whole catalog when nothing is featured.
func (s *CatalogService) FeaturedProducts(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = defaultFeaturedLimit
	}

	products, err := s.productStore.ListFeatured(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list featured products: %w", err)
	}
	if len(products) == 0 {
		products, err = s.productStore.ListAll(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("failed to list products: %w", err)
		}
	}

	selection := catalog.Shuffle(products, limit)
	s.pricer.DecorateAll(selection)
	return selection, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	normalizeProduct(product)
	if err := s.validateProduct(ctx, product); err != nil {
		return nil, err
	}

	if err := s.productStore.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.pricer.Decorate(product)
	s.loggerFromContext(ctx).Info("product created", "product_id", product.ID, "category", product.Category)
	return product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	normalizeProduct(product)
	if err := s.validateProduct(ctx, product); err != nil {
		return nil, err
	}

	if err := s.productStore.Update(ctx, product); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	s.pricer.Decorate(product)
	s.loggerFromContext(ctx).Info("product updated", "product_id", product.ID)
	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, productID string) error {
	if err := s.productStore.Delete(ctx, productID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	s.loggerFromContext(ctx).Info("product deleted", "product_id", productID)
	return nil
}

// validateProduct applies the catalog rules and checks the category exists.
func (s *CatalogService) validateProduct(ctx context.Context, product *models.Product) error {
	fields := s.validator.ValidateProduct(product)
	if _, ok := fields["category"]; !ok {
		if _, err := s.categoryStore.GetByID(ctx, product.Category); err != nil {
			if !errors.Is(err, db.ErrNotFound) {
				return fmt.Errorf("failed to get category: %w", err)
			}
			fields["category"] = "Unknown category"
		}
	}
	return validationError(fields)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categoryStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

// CreateCategory derives the category id from its name.
func (s *CatalogService) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	category.Name = strings.TrimSpace(category.Name)
	if err := validationError(s.validator.ValidateCategory(category)); err != nil {
		return nil, err
	}
	category.ID = CategorySlug(category.Name)
	if category.ID == "" {
		return nil, validationError(map[string]string{"name": "Name must contain letters or digits"})
	}

	if err := s.categoryStore.Create(ctx, category); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	category.Name = strings.TrimSpace(category.Name)
	if err := validationError(s.validator.ValidateCategory(category)); err != nil {
		return nil, err
	}

	if err := s.categoryStore.Update(ctx, category); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return category, nil
}

// CategorySlug lowercases name and joins its words with hyphens.
func CategorySlug(name string) string {
	slug := slugSeparators.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(slug, "-")
}

func normalizeProduct(product *models.Product) {
	product.Title = strings.TrimSpace(product.Title)
	product.Description = strings.TrimSpace(product.Description)
	product.Category = strings.TrimSpace(product.Category)

	images := product.Images[:0]
	for _, image := range product.Images {
		if image = strings.TrimSpace(image); image != "" {
			images = append(images, image)
		}
	}
	product.Images = images

	sizes := product.Sizes[:0]
	for _, size := range product.Sizes {
		if size = strings.TrimSpace(size); size != "" {
			sizes = append(sizes, size)
		}
	}
	product.Sizes = sizes
}
