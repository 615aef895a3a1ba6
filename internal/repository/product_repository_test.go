package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"bulkmart/internal/catalog"
	"bulkmart/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedProducts inserts test products into the database.
func seedProducts(t *testing.T, pool *pgxpool.Pool, products []model.Product) {
	t.Helper()
	repo := NewProductRepository(pool, zerolog.Nop())
	for i := range products {
		require.NoError(t, repo.Upsert(context.Background(), &products[i]))
	}
}

func testProduct(id string, price float64, created time.Time) model.Product {
	return model.Product{
		ID:               id,
		Slug:             "slug-" + id,
		Name:             "Product " + id,
		Brand:            "Acme",
		Price:            decimal.NewFromFloat(price),
		StockQuantity:    100,
		MinOrderQuantity: 10,
		Condition:        model.ConditionNew,
		Images:           []string{"https://img.example.com/" + id + ".jpg"},
		CreatedAt:        created,
	}
}

// catalogue builds n products with distinct creation times and a few ties in
// price and rating so that the id tie-breaker is exercised.
func catalogue(n int) []model.Product {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	products := make([]model.Product, 0, n)
	for i := 0; i < n; i++ {
		p := testProduct(fmt.Sprintf("P%03d", i), float64(10+(i%4)*5), base.Add(time.Duration(i)*time.Minute))
		p.Rating = float64(i%3) + 2
		p.IsFeatured = i%5 == 0
		products = append(products, p)
	}
	return products
}

func TestProductRepository_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	ctx := context.Background()

	original := decimal.NewFromInt(60)
	p := testProduct("P001", 50, time.Now().UTC().Truncate(time.Microsecond))
	p.OriginalPrice = &original
	p.BulkPricing = []model.BulkPriceTier{
		{Quantity: 50, Price: decimal.NewFromInt(45)},
		{Quantity: 100, Price: decimal.NewFromInt(40)},
	}
	p.Material = "Cotton"
	require.NoError(t, repo.Upsert(ctx, &p))

	tests := []struct {
		name   string
		lookup func() (*model.Product, error)
		found  bool
	}{
		{name: "By ID", lookup: func() (*model.Product, error) { return repo.GetByID(ctx, "P001") }, found: true},
		{name: "By slug", lookup: func() (*model.Product, error) { return repo.GetBySlug(ctx, "slug-P001") }, found: true},
		{name: "Unknown ID", lookup: func() (*model.Product, error) { return repo.GetByID(ctx, "P999") }},
		{name: "Unknown slug", lookup: func() (*model.Product, error) { return repo.GetBySlug(ctx, "nope") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.lookup()
			require.NoError(t, err)
			if !tt.found {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, p.Price.Equal(got.Price))
			require.NotNil(t, got.OriginalPrice)
			assert.True(t, original.Equal(*got.OriginalPrice))
			require.Len(t, got.BulkPricing, 2)
			assert.True(t, decimal.NewFromInt(40).Equal(got.BulkPricing[1].Price))
			assert.Equal(t, 10, got.MinOrderQuantity)
			assert.Equal(t, "Cotton", got.Material)
			assert.Equal(t, p.Images, got.Images)
		})
	}

	// Upsert replaces in place.
	p.StockQuantity = 7
	p.OriginalPrice = nil
	require.NoError(t, repo.Upsert(ctx, &p))
	got, err := repo.GetByID(ctx, "P001")
	require.NoError(t, err)
	assert.Equal(t, 7, got.StockQuantity)
	assert.Nil(t, got.OriginalPrice)
}

func TestProductRepository_ListProductsWalksEveryOrdering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	products := catalogue(25)
	seedProducts(t, pool, products)
	repo := NewProductRepository(pool, zerolog.Nop())

	tests := []struct {
		sort    catalog.SortKey
		ordered func(a, b model.Product) bool
	}{
		{sort: catalog.SortNewest, ordered: func(a, b model.Product) bool { return !a.CreatedAt.Before(b.CreatedAt) }},
		{sort: catalog.SortPriceLow, ordered: func(a, b model.Product) bool { return a.Price.LessThanOrEqual(b.Price) }},
		{sort: catalog.SortPriceHigh, ordered: func(a, b model.Product) bool { return a.Price.GreaterThanOrEqual(b.Price) }},
		{sort: catalog.SortRating, ordered: func(a, b model.Product) bool { return a.Rating >= b.Rating }},
		{sort: catalog.SortFeatured, ordered: func(a, b model.Product) bool { return a.IsFeatured || !b.IsFeatured }},
	}

	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			ctx := context.Background()
			var (
				all    []model.Product
				cursor catalog.Cursor
				pages  int
			)
			for {
				page, next, err := repo.ListProducts(ctx, cursor, 10, tt.sort)
				require.NoError(t, err)
				all = append(all, page...)
				pages++
				if next == "" {
					break
				}
				cursor = next
				require.Less(t, pages, 10, "pagination did not terminate")
			}

			assert.Equal(t, 3, pages)
			require.Len(t, all, len(products))

			seen := make(map[string]bool)
			for i, p := range all {
				assert.False(t, seen[p.ID], "duplicate %s", p.ID)
				seen[p.ID] = true
				if i > 0 {
					assert.True(t, tt.ordered(all[i-1], p), "%s before %s", all[i-1].ID, p.ID)
				}
			}
		})
	}
}

func TestProductRepository_ListProductsExactMultiple(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seedProducts(t, pool, catalogue(20))
	repo := NewProductRepository(pool, zerolog.Nop())
	ctx := context.Background()

	_, next, err := repo.ListProducts(ctx, "", 10, catalog.SortNewest)
	require.NoError(t, err)
	_, next, err = repo.ListProducts(ctx, next, 10, catalog.SortNewest)
	require.NoError(t, err)
	require.NotEmpty(t, next)

	last, next, err := repo.ListProducts(ctx, next, 10, catalog.SortNewest)
	require.NoError(t, err)
	assert.Empty(t, last)
	assert.Empty(t, next)
}

func TestProductRepository_ListProductsRejectsForeignCursor(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seedProducts(t, pool, catalogue(5))
	repo := NewProductRepository(pool, zerolog.Nop())
	ctx := context.Background()

	_, next, err := repo.ListProducts(ctx, "", 2, catalog.SortRating)
	require.NoError(t, err)

	_, _, err = repo.ListProducts(ctx, next, 2, catalog.SortPriceLow)
	assert.ErrorIs(t, err, model.ErrInvalidCursor)

	_, _, err = repo.ListProducts(ctx, "%%%", 2, catalog.SortRating)
	assert.ErrorIs(t, err, model.ErrInvalidCursor)
}

func TestProductRepository_GetByIDs(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seedProducts(t, pool, catalogue(3))
	repo := NewProductRepository(pool, zerolog.Nop())

	tests := []struct {
		name     string
		ids      []string
		expected int
	}{
		{name: "Get multiple products", ids: []string{"P000", "P001", "P002"}, expected: 3},
		{name: "Some products do not exist", ids: []string{"P001", "P999"}, expected: 1},
		{name: "No products exist", ids: []string{"P998", "P999"}, expected: 0},
		{name: "Empty ID list", ids: []string{}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := repo.GetByIDs(context.Background(), tt.ids)
			require.NoError(t, err)
			assert.Len(t, products, tt.expected)
		})
	}
}

func TestProductRepository_ListFeaturedAndUpdateStock(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seedProducts(t, pool, catalogue(11))
	repo := NewProductRepository(pool, zerolog.Nop())
	ctx := context.Background()

	featured, err := repo.ListFeatured(ctx, 10)
	require.NoError(t, err)
	require.Len(t, featured, 3)
	assert.Equal(t, "P010", featured[0].ID)

	require.NoError(t, repo.UpdateStock(ctx, "P000", 0))
	got, err := repo.GetByID(ctx, "P000")
	require.NoError(t, err)
	assert.False(t, got.InStock())

	assert.ErrorIs(t, repo.UpdateStock(ctx, "P999", 5), model.ErrProductNotFound)
}

func TestProductRepository_ErrorPaths(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	pool.Close()
	ctx := context.Background()

	t.Run("ListProducts with closed pool", func(t *testing.T) {
		products, next, err := repo.ListProducts(ctx, "", 10, catalog.SortFeatured)
		require.Error(t, err)
		assert.Nil(t, products)
		assert.Empty(t, next)
	})

	t.Run("GetBySlug with closed pool", func(t *testing.T) {
		product, err := repo.GetBySlug(ctx, "slug-P001")
		require.Error(t, err)
		assert.Nil(t, product)
	})

	t.Run("GetByIDs with closed pool", func(t *testing.T) {
		products, err := repo.GetByIDs(ctx, []string{"P001"})
		require.Error(t, err)
		assert.Nil(t, products)
	})
}
