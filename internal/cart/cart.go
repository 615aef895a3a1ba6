// Package cart holds a shopper's cart and wishlist for one session and keeps
// them persisted in the session store.
package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bulkmart/internal/localstore"
	"bulkmart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Store is the cart and wishlist of a single session. It is safe for
// concurrent use; mutations are serialised and each one is persisted before
// the next begins.
type Store struct {
	sessionID string
	persister localstore.Store
	logger    zerolog.Logger
	now       func() time.Time

	mu       sync.Mutex
	items    []model.CartItem
	wishlist []string
}

// Open rehydrates the cart and wishlist persisted for sessionID. Unreadable
// state is logged and replaced by an empty cart rather than failing the session.
func Open(ctx context.Context, sessionID string, persister localstore.Store, logger zerolog.Logger) *Store {
	s := &Store{
		sessionID: sessionID,
		persister: persister,
		logger:    logger.With().Str("component", "cart").Str("session_id", sessionID).Logger(),
		now:       time.Now,
	}

	var items []model.CartItem
	if _, err := persister.Load(ctx, sessionID, localstore.KeyCart, &items); err != nil {
		s.logger.Warn().Err(err).Msg("failed to restore cart, starting empty")
		items = nil
	}
	s.items = items

	var wishlist []string
	if _, err := persister.Load(ctx, sessionID, localstore.KeyWishlist, &wishlist); err != nil {
		s.logger.Warn().Err(err).Msg("failed to restore wishlist, starting empty")
		wishlist = nil
	}
	s.wishlist = dedupe(wishlist)

	return s
}

// AddToCart adds one product. A product already in the cart gains one unit up
// to its stock; a new product enters at its minimum order quantity.
func (s *Store) AddToCart(ctx context.Context, product model.Product) (model.CartItem, error) {
	if !product.InStock() {
		return model.CartItem{}, model.ErrOutOfStock
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexByProductLocked(product.ID); i >= 0 {
		item := &s.items[i]
		item.Product = product
		item.Quantity = clampQuantity(item.Quantity+1, product)
		return *item, s.saveCartLocked(ctx)
	}

	if product.StockQuantity < product.MinOrder() {
		return model.CartItem{}, model.ErrInsufficientStock
	}

	item := model.CartItem{
		ID:       uuid.New().String(),
		Product:  product,
		Quantity: product.MinOrder(),
		AddedAt:  s.now().UTC(),
	}
	s.items = append(s.items, item)

	s.logger.Debug().Str("product_id", product.ID).Int("quantity", item.Quantity).Msg("item added to cart")

	return item, s.saveCartLocked(ctx)
}

// UpdateQuantity sets an item's quantity. Values below one are rejected;
// anything else is clamped to the product's minimum order and stock.
func (s *Store) UpdateQuantity(ctx context.Context, itemID string, quantity int) (model.CartItem, error) {
	if quantity < 1 {
		return model.CartItem{}, model.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(itemID)
	if i < 0 {
		return model.CartItem{}, model.ErrCartItemNotFound
	}

	item := &s.items[i]
	item.Quantity = clampQuantity(quantity, item.Product)
	return *item, s.saveCartLocked(ctx)
}

// StepQuantity moves an item's quantity one minimum-order step up or down.
func (s *Store) StepQuantity(ctx context.Context, itemID string, up bool) (model.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(itemID)
	if i < 0 {
		return model.CartItem{}, model.ErrCartItemNotFound
	}

	item := &s.items[i]
	step := item.Product.MinOrder()
	if up {
		item.Quantity = clampQuantity(item.Quantity+step, item.Product)
	} else {
		item.Quantity = clampQuantity(item.Quantity-step, item.Product)
	}
	return *item, s.saveCartLocked(ctx)
}

// RemoveFromCart deletes an item. Removing an unknown item does nothing.
func (s *Store) RemoveFromCart(ctx context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(itemID)
	if i < 0 {
		return nil
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	return s.saveCartLocked(ctx)
}

// Clear empties the cart. The wishlist is kept.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	return s.saveCartLocked(ctx)
}

// ToggleWishlist flips membership of productID and reports whether it is now
// in the wishlist.
func (s *Store) ToggleWishlist(ctx context.Context, productID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, id := range s.wishlist {
		if id == productID {
			s.wishlist = append(s.wishlist[:i:i], s.wishlist[i+1:]...)
			return false, s.saveWishlistLocked(ctx)
		}
	}

	s.wishlist = append(s.wishlist, productID)
	return true, s.saveWishlistLocked(ctx)
}

// InWishlist reports whether productID is wishlisted.
func (s *Store) InWishlist(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.wishlist {
		if id == productID {
			return true
		}
	}
	return false
}

// Wishlist returns the wishlisted product IDs.
func (s *Store) Wishlist() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.wishlist))
	copy(out, s.wishlist)
	return out
}

// Items returns a copy of the cart lines in insertion order.
func (s *Store) Items() []model.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// Item returns the cart line with the given ID.
func (s *Store) Item(itemID string) (model.CartItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(itemID); i >= 0 {
		return s.items[i], true
	}
	return model.CartItem{}, false
}

// Count is the total number of units in the cart.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, item := range s.items {
		n += item.Quantity
	}
	return n
}

// Subtotal sums line totals with bulk pricing applied.
func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return subtotal(s.items)
}

func subtotal(items []model.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// clampQuantity bounds q below by the minimum order and above by stock.
// Stock wins when the two conflict.
func clampQuantity(q int, p model.Product) int {
	if q < p.MinOrder() {
		q = p.MinOrder()
	}
	if p.StockQuantity > 0 && q > p.StockQuantity {
		q = p.StockQuantity
	}
	return q
}

func (s *Store) indexLocked(itemID string) int {
	for i, item := range s.items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

func (s *Store) indexByProductLocked(productID string) int {
	for i, item := range s.items {
		if item.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) saveCartLocked(ctx context.Context) error {
	items := s.items
	if items == nil {
		items = []model.CartItem{}
	}
	if err := s.persister.Save(ctx, s.sessionID, localstore.KeyCart, items); err != nil {
		s.logger.Error().Err(err).Int("items", len(items)).Msg("failed to persist cart")
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	return nil
}

func (s *Store) saveWishlistLocked(ctx context.Context) error {
	ids := s.wishlist
	if ids == nil {
		ids = []string{}
	}
	if err := s.persister.Save(ctx, s.sessionID, localstore.KeyWishlist, ids); err != nil {
		s.logger.Error().Err(err).Int("items", len(ids)).Msg("failed to persist wishlist")
		return fmt.Errorf("failed to persist wishlist: %w", err)
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
