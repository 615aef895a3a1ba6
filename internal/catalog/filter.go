package catalog

import (
	"sort"
	"strings"

	"bulkmart/internal/model"

	"github.com/shopspring/decimal"
)

// SortKey selects the ordering of a product listing.
type SortKey string

const (
	SortFeatured  SortKey = "featured"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortRating    SortKey = "rating"
	SortNewest    SortKey = "newest"
)

// ParseSortKey maps a request value to a SortKey. Unknown or empty values
// fall back to SortFeatured.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortPriceLow, SortPriceHigh, SortRating, SortNewest, SortFeatured:
		return k
	}
	return SortFeatured
}

// Filters narrows a fetched product set. Empty selections do not filter.
type Filters struct {
	MinPrice   *decimal.Decimal `json:"minPrice,omitempty"`
	MaxPrice   *decimal.Decimal `json:"maxPrice,omitempty"`
	Brands     []string         `json:"brands,omitempty"`
	Conditions []string         `json:"conditions,omitempty"`
	Materials  []string         `json:"materials,omitempty"`
	CategoryID string           `json:"categoryId,omitempty"`
}

// Active reports whether any filter is set.
func (f Filters) Active() bool {
	return f.MinPrice != nil || f.MaxPrice != nil || len(f.Brands) > 0 ||
		len(f.Conditions) > 0 || len(f.Materials) > 0 || f.CategoryID != ""
}

// Apply filters and orders products. The input slice is never modified and the
// result is a function of the arguments only.
func Apply(products []model.Product, f Filters, key SortKey) []model.Product {
	brands := toSet(f.Brands)
	conditions := toSet(f.Conditions)
	materials := toSet(f.Materials)

	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		if !matches(brands, p.Brand) || !matches(conditions, string(p.Condition)) || !matches(materials, p.Material) {
			continue
		}
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			continue
		}
		out = append(out, p)
	}

	switch key {
	case SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	case SortRating:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	case SortNewest:
		// Arrival order is kept. Feeds fetched with SortNewest are already
		// ordered by creation time on the server.
	default:
		out = partitionFeatured(out)
	}

	return out
}

// partitionFeatured moves featured products ahead of the rest, keeping the
// relative order within each group.
func partitionFeatured(products []model.Product) []model.Product {
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if p.IsFeatured {
			out = append(out, p)
		}
	}
	for _, p := range products {
		if !p.IsFeatured {
			out = append(out, p)
		}
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[strings.ToLower(v)] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

func matches(set map[string]struct{}, value string) bool {
	if set == nil {
		return true
	}
	_, ok := set[strings.ToLower(value)]
	return ok
}

// Facets summarises the filterable attributes of a product set.
type Facets struct {
	Brands     []string         `json:"brands"`
	Materials  []string         `json:"materials"`
	Conditions []string         `json:"conditions"`
	MinPrice   *decimal.Decimal `json:"minPrice,omitempty"`
	MaxPrice   *decimal.Decimal `json:"maxPrice,omitempty"`
}

// BuildFacets collects the distinct brands, materials and conditions and the
// price bounds of products. Value lists are sorted.
func BuildFacets(products []model.Product) Facets {
	brands := map[string]struct{}{}
	materials := map[string]struct{}{}
	conditions := map[string]struct{}{}

	var facets Facets
	for _, p := range products {
		if p.Brand != "" {
			brands[p.Brand] = struct{}{}
		}
		if p.Material != "" {
			materials[p.Material] = struct{}{}
		}
		if p.Condition != "" {
			conditions[string(p.Condition)] = struct{}{}
		}
		price := p.Price
		if facets.MinPrice == nil || price.LessThan(*facets.MinPrice) {
			facets.MinPrice = &price
		}
		if facets.MaxPrice == nil || price.GreaterThan(*facets.MaxPrice) {
			facets.MaxPrice = &price
		}
	}

	facets.Brands = sortedKeys(brands)
	facets.Materials = sortedKeys(materials)
	facets.Conditions = sortedKeys(conditions)
	return facets
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
