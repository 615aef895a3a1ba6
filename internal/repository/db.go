package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the DDL of every table the repositories use. It is idempotent.
const Schema = `
	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		sort_order INT NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		brand TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
		original_price NUMERIC(12,2),
		stock_quantity INT NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
		min_order_quantity INT NOT NULL DEFAULT 1 CHECK (min_order_quantity >= 1),
		bulk_pricing JSONB NOT NULL DEFAULT '[]',
		material TEXT NOT NULL DEFAULT '',
		condition TEXT NOT NULL DEFAULT 'new',
		rating DOUBLE PRECISION NOT NULL DEFAULT 0,
		review_count INT NOT NULL DEFAULT 0,
		category_id TEXT NOT NULL DEFAULT '',
		images TEXT[] NOT NULL DEFAULT '{}',
		is_featured BOOLEAN NOT NULL DEFAULT FALSE,
		seller_id TEXT NOT NULL DEFAULT '',
		seller_name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_products_newest ON products(created_at DESC, id DESC);
	CREATE INDEX IF NOT EXISTS idx_products_featured ON products(is_featured DESC, created_at DESC, id DESC);
	CREATE INDEX IF NOT EXISTS idx_products_price ON products(price, id);
	CREATE INDEX IF NOT EXISTS idx_products_rating ON products(rating DESC, id DESC);
	CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'customer',
		disabled BOOLEAN NOT NULL DEFAULT FALSE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		order_number TEXT NOT NULL UNIQUE,
		user_email TEXT NOT NULL,
		status TEXT NOT NULL,
		total_amount NUMERIC(14,2) NOT NULL,
		shipping_address JSONB NOT NULL,
		payment_method TEXT NOT NULL DEFAULT '',
		payment_status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_orders_user_email ON orders(user_email, created_at DESC);

	CREATE TABLE IF NOT EXISTS order_items (
		order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		line_no INT NOT NULL,
		product_id TEXT NOT NULL,
		name TEXT NOT NULL,
		image TEXT NOT NULL DEFAULT '',
		quantity INT NOT NULL CHECK (quantity > 0),
		price NUMERIC(12,2) NOT NULL,
		seller_id TEXT NOT NULL DEFAULT '',
		seller_name TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (order_id, line_no)
	);

	CREATE TABLE IF NOT EXISTS return_requests (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		order_number TEXT NOT NULL,
		product_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		product_image TEXT NOT NULL DEFAULT '',
		quantity INT NOT NULL CHECK (quantity > 0),
		price NUMERIC(12,2) NOT NULL,
		seller_id TEXT NOT NULL DEFAULT '',
		seller_name TEXT NOT NULL DEFAULT '',
		customer_email TEXT NOT NULL,
		customer_name TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_returns_customer ON return_requests(customer_email, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_returns_order ON return_requests(order_id);
`

// Migrate creates any missing tables and indexes.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
