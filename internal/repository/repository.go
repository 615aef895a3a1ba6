package repository

import (
	"context"

	"bulkmart/internal/catalog"
	"bulkmart/internal/model"

	"github.com/jackc/pgx/v5"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// ListProducts returns up to pageSize products after cursor in the given
	// order, and the cursor of the next page (empty once the catalogue is exhausted).
	ListProducts(ctx context.Context, cursor catalog.Cursor, pageSize int, sort catalog.SortKey) ([]model.Product, catalog.Cursor, error)

	// ListFeatured returns up to limit featured products, newest first.
	ListFeatured(ctx context.Context, limit int) ([]model.Product, error)

	// GetBySlug retrieves a product by its URL slug.
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs. Unknown IDs are skipped.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// Upsert inserts a product or replaces the one with the same ID.
	Upsert(ctx context.Context, product *model.Product) error

	// UpdateStock sets the stock quantity of a product.
	UpdateStock(ctx context.Context, id string, stock int) error
}

// CategoryRepository defines the interface for category data access operations.
type CategoryRepository interface {
	// ListCategories returns categories by sort order, optionally only active ones.
	ListCategories(ctx context.Context, activeOnly bool) ([]model.Category, error)

	// Upsert inserts a category or replaces the one with the same ID.
	Upsert(ctx context.Context, category *model.Category) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts the lines of an order within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, orderID string, items []model.OrderItem) error

	// DecrementStock takes quantity units of a product within the provided
	// transaction, failing with ErrInsufficientStock if not enough remain.
	DecrementStock(ctx context.Context, tx pgx.Tx, productID string, quantity int) error

	// ListOrdersForUser returns a user's orders with their items, newest first.
	ListOrdersForUser(ctx context.Context, email string) ([]model.Order, error)

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id string) (*model.Order, error)

	// UpdateStatus changes the status of an order.
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error
}

// ReturnRepository defines the interface for return request data access operations.
type ReturnRepository interface {
	// Create stores a new return request and returns its ID.
	Create(ctx context.Context, req *model.ReturnRequest) (string, error)

	// ListForUser returns the return requests raised by a customer, newest first.
	ListForUser(ctx context.Context, email string) ([]model.ReturnRequest, error)

	// ListForOrder returns the return requests raised against an order.
	ListForOrder(ctx context.Context, orderID string) ([]model.ReturnRequest, error)

	// GetByID retrieves a return request by its ID.
	GetByID(ctx context.Context, id string) (*model.ReturnRequest, error)

	// UpdateStatus changes the status of a return request if it is still from.
	UpdateStatus(ctx context.Context, id string, from, to model.ReturnStatus) error
}

// UserRepository defines the interface for account data access operations.
type UserRepository interface {
	// GetByEmail retrieves a user by normalised email address.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// Create inserts a new user.
	Create(ctx context.Context, user *model.User) error
}
