package integration

import (
	"context"
	"testing"
	"time"

	"bulkmart/internal/config"
	"bulkmart/internal/database"
	"bulkmart/internal/model"
	"bulkmart/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
}

// SetupTestDB starts a PostgreSQL container, connects through the
// application's pool constructor and applies the schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := postgresContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "testuser",
		Password:        "testpass",
		Database:        "testdb",
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	pool, err := database.NewPool(ctx, dbConfig, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := repository.Migrate(ctx, pool); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
	}
}

// SeedCatalogue stores the categories and products used by the API tests
// through the repositories.
func SeedCatalogue(t *testing.T, pool *pgxpool.Pool) []model.Product {
	t.Helper()

	ctx := context.Background()
	logger := zerolog.Nop()
	categoryRepo := repository.NewCategoryRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)

	categories := []model.Category{
		{ID: "apparel", Name: "Apparel", Slug: "apparel", IsActive: true, SortOrder: 1},
		{ID: "electronics", Name: "Electronics", Slug: "electronics", IsActive: true, SortOrder: 2},
	}
	for i := range categories {
		if err := categoryRepo.Upsert(ctx, &categories[i]); err != nil {
			t.Fatalf("failed to seed category %s: %v", categories[i].ID, err)
		}
	}

	created := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	products := []model.Product{
		{
			ID: "p-tees", Slug: "cotton-tees", Name: "Cotton Tees", Brand: "Acme",
			Price:            decimal.RequireFromString("10.00"),
			StockQuantity:    500,
			MinOrderQuantity: 10,
			BulkPricing: []model.BulkPriceTier{
				{Quantity: 10, Price: decimal.RequireFromString("8.50")},
				{Quantity: 100, Price: decimal.RequireFromString("7.00")},
			},
			Material: "cotton", Condition: model.ConditionNew, CategoryID: "apparel",
			Images: []string{"/images/tees.jpg"}, IsFeatured: true,
			SellerID: "s-1", SellerName: "Acme Mills",
		},
		{
			ID: "p-hoodies", Slug: "fleece-hoodies", Name: "Fleece Hoodies", Brand: "Acme",
			Price:            decimal.RequireFromString("25.00"),
			StockQuantity:    120,
			MinOrderQuantity: 5,
			Material:         "fleece", Condition: model.ConditionNew, CategoryID: "apparel",
			Images: []string{"/images/hoodies.jpg"},
		},
		{
			ID: "p-phones", Slug: "refurbished-phones", Name: "Refurbished Phones", Brand: "Globex",
			Price:            decimal.RequireFromString("120.00"),
			StockQuantity:    3,
			MinOrderQuantity: 5,
			Condition:        model.ConditionRefurbished, CategoryID: "electronics",
			Images: []string{"/images/phones.jpg"},
		},
	}
	for i := range products {
		products[i].CreatedAt = created.Add(time.Duration(i) * time.Hour)
		if err := productRepo.Upsert(ctx, &products[i]); err != nil {
			t.Fatalf("failed to seed product %s: %v", products[i].ID, err)
		}
	}

	return products
}
