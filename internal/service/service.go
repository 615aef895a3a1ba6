package service

import (
	"context"

	"bulkmart/internal/auth"
	"bulkmart/internal/cart"
	"bulkmart/internal/catalog"
	"bulkmart/internal/model"
	"bulkmart/internal/notify"
	"bulkmart/internal/orders"

	"github.com/shopspring/decimal"
)

// CatalogService defines read operations over the catalogue and homepage.
type CatalogService interface {
	// ListPage retrieves one keyset page of products.
	ListPage(ctx context.Context, cursor catalog.Cursor, pageSize int, sort catalog.SortKey) (*ProductPage, error)

	// ProductBySlug retrieves a single product for its detail page.
	ProductBySlug(ctx context.Context, slug string) (*model.Product, error)

	// Categories returns the categories, falling back to the built-in set when
	// the catalogue has none or cannot be reached.
	Categories(ctx context.Context, activeOnly bool) []model.Category

	// Featured returns the cached featured products.
	Featured(ctx context.Context) []model.Product

	// HomeContent returns the cached homepage content.
	HomeContent(ctx context.Context) model.HomeContent

	// FeedView renders a session's accumulated feed without fetching.
	FeedView(ctx context.Context, sessionID string, q FeedQuery) (*FeedView, error)

	// FeedLoadMore fetches the next page of a session's feed.
	FeedLoadMore(ctx context.Context, sessionID string, q FeedQuery) (*FeedView, error)

	// FeedReset discards a session's feed and loads its first page again.
	FeedReset(ctx context.Context, sessionID string, q FeedQuery) (*FeedView, error)

	// ReloadFeatured, ReloadCategories and ReloadContent refresh the caches.
	ReloadFeatured(ctx context.Context) error
	ReloadCategories(ctx context.Context) error
	ReloadContent(ctx context.Context) error

	// SubscribeContent registers for homepage content changes.
	SubscribeContent(fn func(model.HomeContent)) *notify.Subscription[model.HomeContent]

	// Close stops the cache hubs.
	Close()
}

// CartService defines operations on a session's cart and wishlist.
type CartService interface {
	View(ctx context.Context, sessionID string) *CartView
	Add(ctx context.Context, sessionID, productID string) (*model.CartItem, error)
	UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*model.CartItem, error)
	Step(ctx context.Context, sessionID, itemID string, up bool) (*model.CartItem, error)
	Remove(ctx context.Context, sessionID, itemID string) error
	Clear(ctx context.Context, sessionID string) error
	ToggleWishlist(ctx context.Context, sessionID, productID string) (bool, error)
	Wishlist(ctx context.Context, sessionID string) ([]model.Product, error)

	// Reconcile refreshes the cart against live product data.
	Reconcile(ctx context.Context, sessionID string) (*cart.ReconcileReport, error)
}

// AccountService defines sign-in and address book operations.
type AccountService interface {
	Login(ctx context.Context, sessionID, email, password string) (*auth.Session, error)
	Signup(ctx context.Context, sessionID string, req auth.SignupRequest) (*auth.Session, error)
	Logout(ctx context.Context, sessionID string) error

	// Restore binds a bearer token to the session's gate.
	Restore(ctx context.Context, sessionID, token string) (*model.User, error)

	// Me returns the signed-in user or ErrUnauthenticated.
	Me(ctx context.Context, sessionID string) (*model.User, error)

	Addresses(ctx context.Context, sessionID string) []model.Address
	AddAddress(ctx context.Context, sessionID string, a model.Address) (*model.Address, error)
	UpdateAddress(ctx context.Context, sessionID string, a model.Address) (*model.Address, error)
	DeleteAddress(ctx context.Context, sessionID, addressID string) error
	SetDefaultAddress(ctx context.Context, sessionID, addressID string) error
}

// OrderService defines checkout, order history and return operations.
type OrderService interface {
	// PlaceOrder turns the session cart into an order.
	PlaceOrder(ctx context.Context, sessionID string, req model.OrderRequest) (*model.Order, error)

	// ListOrders returns the signed-in user's orders with their display status.
	ListOrders(ctx context.Context, sessionID string) (*OrderHistory, error)

	// GetOrder returns one of the signed-in user's orders.
	GetOrder(ctx context.Context, sessionID, orderID string) (*OrderView, error)

	// CreateReturnRequest raises a return for one delivered order line.
	CreateReturnRequest(ctx context.Context, sessionID string, input model.ReturnRequestInput) (*model.ReturnRequest, error)
}

// AdminService defines back-office writes.
type AdminService interface {
	UpsertProduct(ctx context.Context, p *model.Product) error
	UpdateStock(ctx context.Context, productID string, stock int) error
	UpsertCategory(ctx context.Context, c *model.Category) error
	UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) error
	UpdateReturnStatus(ctx context.Context, returnID string, status model.ReturnStatus) error
	ReloadContent(ctx context.Context) error
}

// Signaler announces that cached data changed.
type Signaler interface {
	Signal(ctx context.Context, topic notify.Topic) error
}

// ProductPage is one page of a keyset listing.
type ProductPage struct {
	Products   []model.Product `json:"products"`
	NextCursor catalog.Cursor  `json:"nextCursor,omitempty"`
	HasMore    bool            `json:"hasMore"`
}

// FeedQuery selects the ordering and client-side filters of a feed.
type FeedQuery struct {
	Sort    catalog.SortKey
	Filters catalog.Filters
}

// FeedView is the rendered state of an infinite-scroll feed.
type FeedView struct {
	Products []model.Product `json:"products"`
	Loaded   int             `json:"loaded"`
	HasMore  bool            `json:"hasMore"`
	Loading  bool            `json:"loading"`
	Outcome  catalog.Outcome `json:"outcome,omitempty"`
	Facets   catalog.Facets  `json:"facets"`
	Error    string          `json:"error,omitempty"`
}

// CartView is the rendered state of a session cart.
type CartView struct {
	Items    []model.CartItem `json:"items"`
	Count    int              `json:"count"`
	Subtotal decimal.Decimal  `json:"subtotal"`
	Wishlist []string         `json:"wishlist"`
}

// OrderView pairs an order with its returns and display status.
type OrderView struct {
	Order   model.Order           `json:"order"`
	Returns []model.ReturnRequest `json:"returns"`
	Display orders.DisplayStatus  `json:"display"`
}

// OrderHistory is the signed-in user's order list. ReturnsUnavailable is set
// when returns could not be fetched and the statuses ignore them.
type OrderHistory struct {
	Orders             []OrderView `json:"orders"`
	ReturnsUnavailable bool        `json:"returnsUnavailable"`
}

// CartChangedError aborts a checkout whose cart no longer matched live data.
// The cart has already been refreshed.
type CartChangedError struct {
	Report cart.ReconcileReport
}

func (e *CartChangedError) Error() string {
	return model.ErrCartChanged.Message
}

// Unwrap exposes ErrCartChanged to errors.Is.
func (e *CartChangedError) Unwrap() error {
	return model.ErrCartChanged
}
