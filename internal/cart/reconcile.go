package cart

import (
	"context"

	"bulkmart/internal/model"

	"github.com/shopspring/decimal"
)

// ChangeKind classifies what reconciliation did to a cart line.
type ChangeKind string

const (
	ChangeUnavailable       ChangeKind = "unavailable"
	ChangeOutOfStock        ChangeKind = "out_of_stock"
	ChangeInsufficientStock ChangeKind = "insufficient_stock"
	ChangeQuantityAdjusted  ChangeKind = "quantity_adjusted"
	ChangePriceChanged      ChangeKind = "price_changed"
)

// ItemChange describes one difference between a cart line and live data.
type ItemChange struct {
	ItemID      string          `json:"itemId"`
	ProductID   string          `json:"productId"`
	Name        string          `json:"name"`
	Kind        ChangeKind      `json:"kind"`
	OldQuantity int             `json:"oldQuantity"`
	NewQuantity int             `json:"newQuantity"`
	OldPrice    decimal.Decimal `json:"oldPrice"`
	NewPrice    decimal.Decimal `json:"newPrice"`
}

// ReconcileReport is the outcome of checking the cart against live products.
type ReconcileReport struct {
	Changes          []ItemChange    `json:"changes"`
	OriginalSubtotal decimal.Decimal `json:"originalSubtotal"`
	CurrentSubtotal  decimal.Decimal `json:"currentSubtotal"`
}

// Changed reports whether reconciliation altered anything the shopper saw.
func (r ReconcileReport) Changed() bool {
	return len(r.Changes) > 0
}

// Reconcile refreshes every cart line from live product data. Lines whose
// product is gone or can no longer meet its minimum order are dropped,
// quantities are clamped to live stock and minimum order, and unit price
// changes are reported. The refreshed cart is persisted.
func (s *Store) Reconcile(ctx context.Context, live []model.Product) (ReconcileReport, error) {
	byID := make(map[string]model.Product, len(live))
	for _, p := range live {
		byID[p.ID] = p
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	report := ReconcileReport{
		Changes:          []ItemChange{},
		OriginalSubtotal: subtotal(s.items),
	}

	kept := make([]model.CartItem, 0, len(s.items))
	for _, item := range s.items {
		change := ItemChange{
			ItemID:      item.ID,
			ProductID:   item.Product.ID,
			Name:        item.Product.Name,
			OldQuantity: item.Quantity,
			OldPrice:    item.UnitPrice(),
		}

		product, ok := byID[item.Product.ID]
		switch {
		case !ok:
			change.Kind = ChangeUnavailable
		case !product.InStock():
			change.Kind = ChangeOutOfStock
		case product.StockQuantity < product.MinOrder():
			change.Kind = ChangeInsufficientStock
		}
		if change.Kind != "" {
			report.Changes = append(report.Changes, change)
			continue
		}

		refreshed := item
		refreshed.Product = product
		refreshed.Quantity = clampQuantity(item.Quantity, product)
		change.Name = product.Name
		change.NewQuantity = refreshed.Quantity
		change.NewPrice = refreshed.UnitPrice()

		if refreshed.Quantity != item.Quantity {
			change.Kind = ChangeQuantityAdjusted
			report.Changes = append(report.Changes, change)
		} else if !change.NewPrice.Equal(change.OldPrice) {
			change.Kind = ChangePriceChanged
			report.Changes = append(report.Changes, change)
		}

		kept = append(kept, refreshed)
	}

	s.items = kept
	report.CurrentSubtotal = subtotal(kept)

	if report.Changed() {
		s.logger.Info().
			Int("changes", len(report.Changes)).
			Str("original_subtotal", report.OriginalSubtotal.StringFixed(2)).
			Str("current_subtotal", report.CurrentSubtotal.StringFixed(2)).
			Msg("cart reconciled against live stock")
	}

	return report, s.saveCartLocked(ctx)
}
