package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/beeboo/storefront/internal/models"
)

type CategoryStore struct {
	pool *pgxpool.Pool
}

func NewCategoryStore(pool *pgxpool.Pool) *CategoryStore {
	return &CategoryStore{pool: pool}
}

func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, is_apparel, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[models.Category])
}

func (s *CategoryStore) GetByID(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	err := s.pool.QueryRow(ctx, `SELECT id, name, is_apparel, created_at FROM categories WHERE id = $1`, id).
		Scan(&category.ID, &category.Name, &category.IsApparel, &category.CreatedAt)
	if err != nil {
		return nil, notFound(err, "category "+id)
	}
	return &category, nil
}

func (s *CategoryStore) Create(ctx context.Context, category *models.Category) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO categories (id, name, is_apparel) VALUES ($1, $2, $3) RETURNING created_at`,
		category.ID, category.Name, category.IsApparel,
	).Scan(&category.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("category %s: %w", category.ID, ErrDuplicate)
		}
		return err
	}
	return nil
}

func (s *CategoryStore) Update(ctx context.Context, category *models.Category) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE categories SET name = $1, is_apparel = $2 WHERE id = $3 RETURNING created_at`,
		category.Name, category.IsApparel, category.ID,
	).Scan(&category.CreatedAt)
	if err != nil {
		return notFound(err, "category "+category.ID)
	}
	return nil
}
