package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bulkmart/internal/catalog"
	"bulkmart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const productColumns = `id, slug, name, brand, description, price, original_price, stock_quantity,
	min_order_quantity, bulk_pricing, material, condition, rating, review_count, category_id,
	images, is_featured, seller_id, seller_name, created_at, updated_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// keyset returns the WHERE clause, ORDER BY clause and arguments that continue
// a listing after key under the given ordering.
func keyset(sort catalog.SortKey, key catalog.ProductKey, hasKey bool) (string, string, []any) {
	var where, order string
	var args []any

	switch sort {
	case catalog.SortNewest:
		order = "created_at DESC, id DESC"
		if hasKey {
			where = "(created_at, id) < ($1, $2)"
			args = []any{key.CreatedAt, key.ID}
		}
	case catalog.SortPriceLow:
		order = "price ASC, id ASC"
		if hasKey {
			where = "(price, id) > ($1, $2)"
			args = []any{key.Price, key.ID}
		}
	case catalog.SortPriceHigh:
		order = "price DESC, id DESC"
		if hasKey {
			where = "(price, id) < ($1, $2)"
			args = []any{key.Price, key.ID}
		}
	case catalog.SortRating:
		order = "rating DESC, id DESC"
		if hasKey {
			where = "(rating, id) < ($1, $2)"
			args = []any{key.Rating, key.ID}
		}
	default:
		order = "is_featured DESC, created_at DESC, id DESC"
		if hasKey {
			where = "(is_featured::int, created_at, id) < ($1, $2, $3)"
			featured := 0
			if key.Featured {
				featured = 1
			}
			args = []any{featured, key.CreatedAt, key.ID}
		}
	}

	return where, order, args
}

// ListProducts retrieves one keyset page of the catalogue.
func (r *productRepository) ListProducts(ctx context.Context, cursor catalog.Cursor, pageSize int, sort catalog.SortKey) ([]model.Product, catalog.Cursor, error) {
	if pageSize <= 0 {
		pageSize = catalog.DefaultPageSize
	}
	sort = catalog.ParseSortKey(string(sort))

	key, hasKey, err := catalog.DecodeCursor(cursor, sort)
	if err != nil {
		r.logger.Warn().Err(err).Str("sort", string(sort)).Msg("rejected pagination cursor")
		return nil, "", err
	}

	where, order, args := keyset(sort, key, hasKey)

	var query strings.Builder
	query.WriteString("SELECT ")
	query.WriteString(productColumns)
	query.WriteString(" FROM products")
	if where != "" {
		query.WriteString(" WHERE ")
		query.WriteString(where)
	}
	query.WriteString(" ORDER BY ")
	query.WriteString(order)
	args = append(args, pageSize)
	fmt.Fprintf(&query, " LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		r.logger.Error().Err(err).
			Str("sort", string(sort)).
			Int("page_size", pageSize).
			Msg("failed to query products")
		return nil, "", fmt.Errorf("failed to query products: %w", err)
	}

	products, err := r.collect(rows)
	if err != nil {
		return nil, "", err
	}

	var next catalog.Cursor
	if len(products) == pageSize {
		next = catalog.EncodeCursor(catalog.KeyFor(products[len(products)-1], sort))
	}

	return products, next, nil
}

// ListFeatured retrieves the newest featured products.
func (r *productRepository) ListFeatured(ctx context.Context, limit int) ([]model.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE is_featured
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		r.logger.Error().Err(err).Int("limit", limit).Msg("failed to query featured products")
		return nil, fmt.Errorf("failed to query featured products: %w", err)
	}
	return r.collect(rows)
}

// GetBySlug retrieves a single product by its slug.
func (r *productRepository) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE slug = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, slug))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("slug", slug).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("slug", slug).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// GetByIDs retrieves multiple products by their IDs.
func (r *productRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) ORDER BY name`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query products by IDs")
		return nil, fmt.Errorf("failed to query products by IDs: %w", err)
	}
	return r.collect(rows)
}

// Upsert inserts or replaces a product.
func (r *productRepository) Upsert(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (id) DO UPDATE SET
			slug = EXCLUDED.slug,
			name = EXCLUDED.name,
			brand = EXCLUDED.brand,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			original_price = EXCLUDED.original_price,
			stock_quantity = EXCLUDED.stock_quantity,
			min_order_quantity = EXCLUDED.min_order_quantity,
			bulk_pricing = EXCLUDED.bulk_pricing,
			material = EXCLUDED.material,
			condition = EXCLUDED.condition,
			rating = EXCLUDED.rating,
			review_count = EXCLUDED.review_count,
			category_id = EXCLUDED.category_id,
			images = EXCLUDED.images,
			is_featured = EXCLUDED.is_featured,
			seller_id = EXCLUDED.seller_id,
			seller_name = EXCLUDED.seller_name,
			updated_at = EXCLUDED.updated_at
	`

	tiers := p.BulkPricing
	if tiers == nil {
		tiers = []model.BulkPriceTier{}
	}
	images := p.Images
	if images == nil {
		images = []string{}
	}
	condition := p.Condition
	if condition == "" {
		condition = model.ConditionNew
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	var original decimal.NullDecimal
	if p.OriginalPrice != nil {
		original = decimal.NewNullDecimal(*p.OriginalPrice)
	}

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Slug, p.Name, p.Brand, p.Description, p.Price, original, p.StockQuantity,
		p.MinOrder(), tiers, p.Material, string(condition), p.Rating, p.ReviewCount, p.CategoryID,
		images, p.IsFeatured, p.SellerID, p.SellerName, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ID).Msg("failed to upsert product")
		return fmt.Errorf("failed to upsert product: %w", err)
	}

	r.logger.Debug().Str("product_id", p.ID).Str("slug", p.Slug).Msg("product upserted")
	return nil
}

// UpdateStock sets the stock level of a product.
func (r *productRepository) UpdateStock(ctx context.Context, id string, stock int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET stock_quantity = $2, updated_at = NOW() WHERE id = $1`,
		id, stock,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to update stock")
		return fmt.Errorf("failed to update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) collect(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var (
		p         model.Product
		original  decimal.NullDecimal
		condition string
	)
	err := row.Scan(
		&p.ID, &p.Slug, &p.Name, &p.Brand, &p.Description, &p.Price, &original, &p.StockQuantity,
		&p.MinOrderQuantity, &p.BulkPricing, &p.Material, &condition, &p.Rating, &p.ReviewCount, &p.CategoryID,
		&p.Images, &p.IsFeatured, &p.SellerID, &p.SellerName, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return model.Product{}, err
	}
	if original.Valid {
		v := original.Decimal
		p.OriginalPrice = &v
	}
	p.Condition = model.Condition(condition)
	return p, nil
}
