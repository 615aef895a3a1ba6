package service

import (
	"context"
	"fmt"

	"bulkmart/internal/cart"
	"bulkmart/internal/model"
	"bulkmart/internal/repository"
	"bulkmart/internal/session"

	"github.com/rs/zerolog"
)

// cartService implements CartService.
type cartService struct {
	productRepo repository.ProductRepository
	sessions    *session.Registry
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(productRepo repository.ProductRepository, sessions *session.Registry, logger zerolog.Logger) CartService {
	return &cartService{
		productRepo: productRepo,
		sessions:    sessions,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

func (s *cartService) store(ctx context.Context, sessionID string) *cart.Store {
	return s.sessions.Get(ctx, sessionID).Cart
}

// View returns the session's cart.
func (s *cartService) View(ctx context.Context, sessionID string) *CartView {
	c := s.store(ctx, sessionID)
	return &CartView{
		Items:    c.Items(),
		Count:    c.Count(),
		Subtotal: c.Subtotal(),
		Wishlist: c.Wishlist(),
	}
}

// Add looks the product up and adds it at its minimum order quantity.
func (s *cartService) Add(ctx context.Context, sessionID, productID string) (*model.CartItem, error) {
	if productID == "" {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "Product ID is required")
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", productID).Msg("failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	item, err := s.store(ctx, sessionID).AddToCart(ctx, *product)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateQuantity sets the quantity of a cart line.
func (s *cartService) UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*model.CartItem, error) {
	item, err := s.store(ctx, sessionID).UpdateQuantity(ctx, itemID, quantity)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Step moves a cart line up or down by its minimum order quantity.
func (s *cartService) Step(ctx context.Context, sessionID, itemID string, up bool) (*model.CartItem, error) {
	item, err := s.store(ctx, sessionID).StepQuantity(ctx, itemID, up)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Remove drops a cart line.
func (s *cartService) Remove(ctx context.Context, sessionID, itemID string) error {
	return s.store(ctx, sessionID).RemoveFromCart(ctx, itemID)
}

// Clear empties the cart.
func (s *cartService) Clear(ctx context.Context, sessionID string) error {
	return s.store(ctx, sessionID).Clear(ctx)
}

// ToggleWishlist adds or removes a product from the wishlist.
func (s *cartService) ToggleWishlist(ctx context.Context, sessionID, productID string) (bool, error) {
	if productID == "" {
		return false, model.NewDomainError(model.ErrCodeMissingField, "Product ID is required")
	}
	return s.store(ctx, sessionID).ToggleWishlist(ctx, productID)
}

// Wishlist resolves the wishlisted product IDs. Products that no longer exist
// are skipped.
func (s *cartService) Wishlist(ctx context.Context, sessionID string) ([]model.Product, error) {
	ids := s.store(ctx, sessionID).Wishlist()
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to get wishlist products")
		return nil, fmt.Errorf("failed to get wishlist products: %w", err)
	}

	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	ordered := make([]model.Product, 0, len(products))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// Reconcile refreshes the cart against live product data.
func (s *cartService) Reconcile(ctx context.Context, sessionID string) (*cart.ReconcileReport, error) {
	c := s.store(ctx, sessionID)
	report, err := reconcile(ctx, s.productRepo, c)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to reconcile cart")
		return nil, err
	}
	return &report, nil
}

// reconcile fetches the live products behind every cart line and refreshes the cart.
func reconcile(ctx context.Context, productRepo repository.ProductRepository, c *cart.Store) (cart.ReconcileReport, error) {
	items := c.Items()
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.Product.ID)
	}

	live, err := productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return cart.ReconcileReport{}, fmt.Errorf("failed to get live products: %w", err)
	}

	report, err := c.Reconcile(ctx, live)
	if err != nil {
		return report, fmt.Errorf("failed to reconcile cart: %w", err)
	}
	return report, nil
}
