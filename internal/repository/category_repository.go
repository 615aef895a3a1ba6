package repository

import (
	"context"
	"fmt"

	"bulkmart/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// categoryRepository implements the CategoryRepository interface using PostgreSQL.
type categoryRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(pool *pgxpool.Pool, logger zerolog.Logger) CategoryRepository {
	return &categoryRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "category").Logger(),
	}
}

// ListCategories retrieves categories ordered for display.
func (r *categoryRepository) ListCategories(ctx context.Context, activeOnly bool) ([]model.Category, error) {
	query := `
		SELECT id, name, slug, description, image, is_active, sort_order
		FROM categories
		WHERE is_active OR NOT $1
		ORDER BY sort_order, name
	`

	rows, err := r.pool.Query(ctx, query, activeOnly)
	if err != nil {
		r.logger.Error().Err(err).Bool("active_only", activeOnly).Msg("failed to query categories")
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Image, &c.IsActive, &c.SortOrder); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan category row")
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating category rows")
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// Upsert inserts or replaces a category.
func (r *categoryRepository) Upsert(ctx context.Context, c *model.Category) error {
	query := `
		INSERT INTO categories (id, name, slug, description, image, is_active, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			description = EXCLUDED.description,
			image = EXCLUDED.image,
			is_active = EXCLUDED.is_active,
			sort_order = EXCLUDED.sort_order
	`

	_, err := r.pool.Exec(ctx, query, c.ID, c.Name, c.Slug, c.Description, c.Image, c.IsActive, c.SortOrder)
	if err != nil {
		r.logger.Error().Err(err).Str("category_id", c.ID).Msg("failed to upsert category")
		return fmt.Errorf("failed to upsert category: %w", err)
	}

	return nil
}
