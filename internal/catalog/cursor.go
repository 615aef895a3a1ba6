package catalog

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"bulkmart/internal/model"

	"github.com/shopspring/decimal"
)

// Cursor is an opaque continuation token. The empty cursor denotes the start
// of the collection when passed in, and the end of it when returned.
type Cursor string

// ProductKey is the keyset position of the last product on a page.
type ProductKey struct {
	Sort      SortKey         `json:"s"`
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"c"`
	Price     decimal.Decimal `json:"p"`
	Rating    float64         `json:"r"`
	Featured  bool            `json:"f"`
}

// KeyFor returns the keyset position of p under the given ordering.
func KeyFor(p model.Product, sort SortKey) ProductKey {
	return ProductKey{
		Sort:      sort,
		ID:        p.ID,
		CreatedAt: p.CreatedAt.UTC(),
		Price:     p.Price,
		Rating:    p.Rating,
		Featured:  p.IsFeatured,
	}
}

// EncodeCursor serialises a keyset position.
func EncodeCursor(key ProductKey) Cursor {
	data, err := json.Marshal(key)
	if err != nil {
		return ""
	}
	return Cursor(base64.RawURLEncoding.EncodeToString(data))
}

// DecodeCursor parses a cursor issued for the same ordering. An empty cursor
// yields a zero key and ok=false.
func DecodeCursor(c Cursor, sort SortKey) (key ProductKey, ok bool, err error) {
	if c == "" {
		return ProductKey{}, false, nil
	}

	data, err := base64.RawURLEncoding.DecodeString(string(c))
	if err != nil {
		return ProductKey{}, false, fmt.Errorf("%w: %v", model.ErrInvalidCursor, err)
	}

	if err := json.Unmarshal(data, &key); err != nil {
		return ProductKey{}, false, fmt.Errorf("%w: %v", model.ErrInvalidCursor, err)
	}

	if key.Sort != sort || key.ID == "" {
		return ProductKey{}, false, model.ErrInvalidCursor
	}

	return key, true, nil
}
