package router

import (
	"net/http"

	"bulkmart/internal/handler"
	"bulkmart/internal/middleware"

	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Catalog *handler.CatalogHandler
	Cart    *handler.CartHandler
	Account *handler.AccountHandler
	Order   *handler.OrderHandler
	Admin   *handler.AdminHandler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, restorer middleware.Restorer, apiKey string, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no session or authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Catalogue
	mux.HandleFunc("GET /api/products", h.Catalog.ListProducts)
	mux.HandleFunc("GET /api/products/{slug}", h.Catalog.GetBySlug)
	mux.HandleFunc("GET /api/featured", h.Catalog.Featured)
	mux.HandleFunc("GET /api/categories", h.Catalog.Categories)
	mux.HandleFunc("GET /api/content/home", h.Catalog.HomeContent)
	mux.HandleFunc("GET /api/content/stream", h.Catalog.ContentStream)
	mux.HandleFunc("GET /api/catalog/feed", h.Catalog.Feed)
	mux.HandleFunc("POST /api/catalog/feed/more", h.Catalog.FeedMore)
	mux.HandleFunc("POST /api/catalog/feed/reset", h.Catalog.FeedReset)

	// Cart and wishlist
	mux.HandleFunc("GET /api/cart", h.Cart.Get)
	mux.HandleFunc("DELETE /api/cart", h.Cart.Clear)
	mux.HandleFunc("POST /api/cart/items", h.Cart.Add)
	mux.HandleFunc("PUT /api/cart/items/{id}", h.Cart.UpdateQuantity)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.Cart.Remove)
	mux.HandleFunc("POST /api/cart/items/{id}/increment", h.Cart.Increment)
	mux.HandleFunc("POST /api/cart/items/{id}/decrement", h.Cart.Decrement)
	mux.HandleFunc("POST /api/cart/reconcile", h.Cart.Reconcile)
	mux.HandleFunc("GET /api/wishlist", h.Cart.Wishlist)
	mux.HandleFunc("POST /api/wishlist/{productId}", h.Cart.ToggleWishlist)

	// Account
	mux.HandleFunc("POST /api/auth/login", h.Account.Login)
	mux.HandleFunc("POST /api/auth/signup", h.Account.Signup)
	mux.HandleFunc("POST /api/auth/logout", h.Account.Logout)
	mux.HandleFunc("GET /api/auth/me", h.Account.Me)
	mux.HandleFunc("GET /api/addresses", h.Account.ListAddresses)
	mux.HandleFunc("POST /api/addresses", h.Account.AddAddress)
	mux.HandleFunc("PUT /api/addresses/{id}", h.Account.UpdateAddress)
	mux.HandleFunc("DELETE /api/addresses/{id}", h.Account.DeleteAddress)
	mux.HandleFunc("POST /api/addresses/{id}/default", h.Account.SetDefaultAddress)

	// Orders and returns (signed-in users)
	mux.HandleFunc("POST /api/orders", h.Order.Create)
	mux.HandleFunc("GET /api/orders", h.Order.List)
	mux.HandleFunc("GET /api/orders/{id}", h.Order.GetByID)
	mux.HandleFunc("POST /api/returns", h.Order.CreateReturn)

	// Back office, behind the API key
	admin := http.NewServeMux()
	admin.HandleFunc("PUT /api/admin/products", h.Admin.UpsertProduct)
	admin.HandleFunc("PUT /api/admin/products/{id}/stock", h.Admin.UpdateStock)
	admin.HandleFunc("PUT /api/admin/categories", h.Admin.UpsertCategory)
	admin.HandleFunc("PUT /api/admin/orders/{id}/status", h.Admin.UpdateOrderStatus)
	admin.HandleFunc("PUT /api/admin/returns/{id}/status", h.Admin.UpdateReturnStatus)
	admin.HandleFunc("POST /api/admin/content/reload", h.Admin.ReloadContent)
	mux.Handle("/api/admin/", middleware.APIKeyAuth(apiKey, logger)(admin))

	// Apply middleware in order: Recovery -> Logging -> CORS -> Session -> BearerAuth
	var handler http.Handler = mux
	handler = middleware.BearerAuth(restorer, logger)(handler)
	handler = middleware.Session(logger)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
