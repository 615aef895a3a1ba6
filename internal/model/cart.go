package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem holds a copy of the product as it was when added; price and stock
// changes are only picked up on reconciliation.
type CartItem struct {
	ID       string    `json:"id"`
	Product  Product   `json:"product"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"addedAt"`
}

// UnitPrice is the per-unit price at the current quantity.
func (i CartItem) UnitPrice() decimal.Decimal {
	return i.Product.UnitPrice(i.Quantity)
}

// LineTotal is the unit price multiplied by quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}
