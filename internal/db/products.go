package db

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/beeboo/storefront/internal/models"
)

var ErrInvalidCursor = errors.New("invalid pagination cursor")

const DefaultPageSize = 8

type ProductStore struct {
	pool *pgxpool.Pool
}

func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

const productColumns = `
	id, title, description, images, mrp, price, category, featured, stock, sizes,
	created_at, updated_at`

// sortSpec describes the keyset ordering for one sort mode.
type sortSpec struct {
	column string
	desc   bool
}

func sortSpecFor(sort models.ProductSort) sortSpec {
	switch sort {
	case models.SortPriceAsc:
		return sortSpec{column: "price", desc: false}
	case models.SortPriceDesc:
		return sortSpec{column: "price", desc: true}
	default:
		return sortSpec{column: "created_at", desc: true}
	}
}

// List returns one page ordered by filter.Sort. StartAfter pages forward from a
// product id, EndBefore pages backward; one extra row is read to compute HasMore.
func (s *ProductStore) List(ctx context.Context, filter models.ProductFilter) (*models.ProductPage, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}

	spec := sortSpecFor(filter.Sort)
	backward := filter.StartAfter == "" && filter.EndBefore != ""
	desc := spec.desc
	if backward {
		desc = !desc
	}

	var (
		where []string
		args  []any
	)
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}

	cursorID := filter.StartAfter
	if backward {
		cursorID = filter.EndBefore
	}
	if cursorID != "" {
		cursorValue, err := s.cursorValue(ctx, spec.column, cursorID)
		if err != nil {
			return nil, err
		}
		op := ">"
		if desc {
			op = "<"
		}
		args = append(args, cursorValue, cursorID)
		where = append(where, fmt.Sprintf("(%s, id) %s ($%d, $%d)", spec.column, op, len(args)-1, len(args)))
	}

	direction := "ASC"
	if desc {
		direction = "DESC"
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY %s %s, id %s LIMIT $%d", spec.column, direction, direction, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(products) > limit
	if hasMore {
		products = products[:limit]
	}
	if backward {
		slices.Reverse(products)
	}

	return &models.ProductPage{Products: products, HasMore: hasMore}, nil
}

func (s *ProductStore) cursorValue(ctx context.Context, column, productID string) (any, error) {
	var (
		price     decimal.Decimal
		createdAt time.Time
	)
	err := s.pool.QueryRow(ctx, `SELECT price, created_at FROM products WHERE id = $1`, productID).Scan(&price, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCursor, productID)
		}
		return nil, err
	}
	if column == "price" {
		return price, nil
	}
	return createdAt, nil
}

// ListAll returns every product, optionally restricted to one category.
func (s *ProductStore) ListAll(ctx context.Context, category string) ([]models.Product, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE ($1 = '' OR category = $1) ORDER BY created_at DESC, id DESC`, category)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (s *ProductStore) ListFeatured(ctx context.Context) ([]models.Product, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE featured ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (s *ProductStore) GetByID(ctx context.Context, productID string) (*models.Product, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, productID)
	product, err := scanProduct(row)
	if err != nil {
		return nil, notFound(err, "product "+productID)
	}
	return &product, nil
}

// GetMany returns the products found for ids keyed by id. Missing ids are absent.
func (s *ProductStore) GetMany(ctx context.Context, ids []string) (map[string]*models.Product, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return byID, nil
}

func (s *ProductStore) Create(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (title, description, images, mrp, price, category, featured, stock, sizes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	return s.pool.QueryRow(ctx, query,
		product.Title,
		product.Description,
		product.Images,
		nullDecimal(product.MRP),
		product.Price,
		product.Category,
		product.Featured,
		product.Stock,
		product.Sizes,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
}

func (s *ProductStore) Update(ctx context.Context, product *models.Product) error {
	query := `
		UPDATE products
		SET title = $1, description = $2, images = $3, mrp = $4, price = $5,
		    category = $6, featured = $7, stock = $8, sizes = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING created_at, updated_at
	`
	err := s.pool.QueryRow(ctx, query,
		product.Title,
		product.Description,
		product.Images,
		nullDecimal(product.MRP),
		product.Price,
		product.Category,
		product.Featured,
		product.Stock,
		product.Sizes,
		product.ID,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return notFound(err, "product "+product.ID)
	}
	return nil
}

func (s *ProductStore) Delete(ctx context.Context, productID string) error {
	cmdTag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	return nil
}

// Counts returns the total number of products and how many are out of stock.
func (s *ProductStore) Counts(ctx context.Context) (total, outOfStock int, err error) {
	err = s.pool.QueryRow(ctx, `SELECT COUNT(*), COUNT(*) FILTER (WHERE stock <= 0) FROM products`).Scan(&total, &outOfStock)
	return total, outOfStock, err
}

func collectProducts(rows pgx.Rows) ([]models.Product, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Product, error) {
		return scanProduct(row)
	})
}

func scanProduct(row pgx.Row) (models.Product, error) {
	var (
		product models.Product
		mrp     decimal.NullDecimal
	)
	err := row.Scan(
		&product.ID,
		&product.Title,
		&product.Description,
		&product.Images,
		&mrp,
		&product.Price,
		&product.Category,
		&product.Featured,
		&product.Stock,
		&product.Sizes,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return models.Product{}, err
	}
	if mrp.Valid {
		value := mrp.Decimal
		product.MRP = &value
	}
	return product, nil
}

func nullDecimal(value *decimal.Decimal) decimal.NullDecimal {
	if value == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *value, Valid: true}
}
