package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Condition describes the physical state of a listed product.
type Condition string

const (
	ConditionNew         Condition = "new"
	ConditionRefurbished Condition = "refurbished"
	ConditionUsed        Condition = "used"
)

// Valid reports whether c is one of the known conditions.
func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionRefurbished, ConditionUsed:
		return true
	}
	return false
}

// BulkPriceTier is a volume discount: orders of at least Quantity units pay Price per unit.
type BulkPriceTier struct {
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Product represents a wholesale listing in the catalogue.
type Product struct {
	ID               string           `json:"id" db:"id"`
	Slug             string           `json:"slug" db:"slug"`
	Name             string           `json:"name" db:"name"`
	Brand            string           `json:"brand" db:"brand"`
	Description      string           `json:"description,omitempty" db:"description"`
	Price            decimal.Decimal  `json:"price" db:"price"`
	OriginalPrice    *decimal.Decimal `json:"originalPrice,omitempty" db:"original_price"`
	StockQuantity    int              `json:"stockQuantity" db:"stock_quantity"`
	MinOrderQuantity int              `json:"minOrderQuantity" db:"min_order_quantity"`
	BulkPricing      []BulkPriceTier  `json:"bulkPricing,omitempty" db:"bulk_pricing"`
	Material         string           `json:"material" db:"material"`
	Condition        Condition        `json:"condition" db:"condition"`
	Rating           float64          `json:"rating" db:"rating"`
	ReviewCount      int              `json:"reviewCount" db:"review_count"`
	CategoryID       string           `json:"categoryId" db:"category_id"`
	Images           []string         `json:"images" db:"images"`
	IsFeatured       bool             `json:"isFeatured" db:"is_featured"`
	SellerID         string           `json:"sellerId,omitempty" db:"seller_id"`
	SellerName       string           `json:"sellerName,omitempty" db:"seller_name"`
	CreatedAt        time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time        `json:"updatedAt" db:"updated_at"`
}

// MinOrder returns the effective minimum order quantity, never less than one.
func (p Product) MinOrder() int {
	if p.MinOrderQuantity < 1 {
		return 1
	}
	return p.MinOrderQuantity
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.StockQuantity > 0
}

// PrimaryImage returns the first image, or an empty string.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// UnitPrice returns the per-unit price for qty units, applying the highest
// bulk tier whose threshold is reached. Tiers need not be sorted.
func (p Product) UnitPrice(qty int) decimal.Decimal {
	price := p.Price
	best := 0
	for _, tier := range p.BulkPricing {
		if tier.Quantity <= qty && tier.Quantity > best {
			best = tier.Quantity
			price = tier.Price
		}
	}
	return price
}

// ValidateBulkPricing checks that tier prices never increase as the quantity
// threshold grows and that thresholds are positive and distinct.
func (p Product) ValidateBulkPricing() error {
	seen := make(map[int]struct{}, len(p.BulkPricing))
	for _, tier := range p.BulkPricing {
		if tier.Quantity < 1 {
			return ErrInvalidBulkPricing
		}
		if _, dup := seen[tier.Quantity]; dup {
			return ErrInvalidBulkPricing
		}
		seen[tier.Quantity] = struct{}{}
	}
	for _, a := range p.BulkPricing {
		for _, b := range p.BulkPricing {
			if a.Quantity < b.Quantity && a.Price.LessThan(b.Price) {
				return ErrInvalidBulkPricing
			}
		}
	}
	return nil
}

// Validate checks the fields the admin surface must supply before a product is stored.
func (p Product) Validate() error {
	switch {
	case p.Slug == "":
		return NewDomainError(ErrCodeMissingField, "Product slug is required")
	case p.Name == "":
		return NewDomainError(ErrCodeMissingField, "Product name is required")
	case p.Price.IsNegative():
		return NewDomainError(ErrCodeInvalidField, "Product price cannot be negative")
	case p.StockQuantity < 0:
		return NewDomainError(ErrCodeInvalidField, "Stock quantity cannot be negative")
	case p.MinOrderQuantity < 1:
		return NewDomainError(ErrCodeInvalidField, "Minimum order quantity must be at least 1")
	case len(p.Images) == 0:
		return NewDomainError(ErrCodeMissingField, "At least one product image is required")
	case p.Condition != "" && !p.Condition.Valid():
		return NewDomainError(ErrCodeInvalidField, "Unknown product condition")
	}
	return p.ValidateBulkPricing()
}

// Category groups products for browsing.
type Category struct {
	ID          string `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Slug        string `json:"slug" db:"slug"`
	Description string `json:"description,omitempty" db:"description"`
	Image       string `json:"image,omitempty" db:"image"`
	IsActive    bool   `json:"isActive" db:"is_active"`
	SortOrder   int    `json:"sortOrder" db:"sort_order"`
}

// DefaultCategories is shown when the catalogue returns no categories.
func DefaultCategories() []Category {
	return []Category{
		{ID: "electronics", Name: "Electronics", Slug: "electronics", IsActive: true, SortOrder: 1},
		{ID: "fashion", Name: "Fashion", Slug: "fashion", IsActive: true, SortOrder: 2},
		{ID: "home-kitchen", Name: "Home & Kitchen", Slug: "home-kitchen", IsActive: true, SortOrder: 3},
		{ID: "industrial", Name: "Industrial Supplies", Slug: "industrial", IsActive: true, SortOrder: 4},
		{ID: "office", Name: "Office Supplies", Slug: "office", IsActive: true, SortOrder: 5},
		{ID: "packaging", Name: "Packaging", Slug: "packaging", IsActive: true, SortOrder: 6},
	}
}
