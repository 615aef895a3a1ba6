package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"bulkmart/internal/config"
	"bulkmart/internal/database"
	"bulkmart/internal/model"
	"bulkmart/internal/repository"

	"github.com/rs/zerolog"
)

// seedFile is the layout of data/catalog.json.
type seedFile struct {
	Categories []model.Category `json:"categories"`
	Products   []model.Product  `json:"products"`
}

// seed_catalog applies the schema and loads sample categories and products.
// Connection settings come from the same environment (or .env) as the API.
//
//	go run ./scripts/seed_catalog.go -file data/catalog.json
//	go run ./scripts/seed_catalog.go -check
func main() {
	file := flag.String("file", "data/catalog.json", "path to the catalogue seed file")
	check := flag.Bool("check", false, "only verify the database connection")
	flag.Parse()

	if err := run(*file, *check); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, checkOnly bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	var dbName string
	if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		return fmt.Errorf("failed to query current database: %w", err)
	}
	logger.Info().Str("database", dbName).Msg("connected")
	if checkOnly {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	if err := repository.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return load(ctx, seed,
		repository.NewCategoryRepository(pool, logger),
		repository.NewProductRepository(pool, logger),
		logger)
}

func load(ctx context.Context, seed seedFile, categories repository.CategoryRepository, products repository.ProductRepository, logger zerolog.Logger) error {
	for i := range seed.Categories {
		if err := categories.Upsert(ctx, &seed.Categories[i]); err != nil {
			return fmt.Errorf("failed to seed category %s: %w", seed.Categories[i].ID, err)
		}
	}

	for i := range seed.Products {
		p := &seed.Products[i]
		if err := p.Validate(); err != nil {
			return fmt.Errorf("invalid product %s: %w", p.Slug, err)
		}
		if err := products.Upsert(ctx, p); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.Slug, err)
		}
	}

	logger.Info().
		Int("categories", len(seed.Categories)).
		Int("products", len(seed.Products)).
		Msg("catalogue seeded")
	return nil
}
