// Package localstore persists per-session state (cart, wishlist, saved
// addresses) as whole JSON values, the server-side counterpart of browser
// local storage.
package localstore

import (
	"context"
	"time"
)

// Keys under which session state is stored.
const (
	KeyCart      = "cart"
	KeyWishlist  = "wishlist"
	KeyAddresses = "user_addresses"
)

// Store is a session-scoped key/value store. Values are JSON encoded and
// overwritten wholesale on every Save.
type Store interface {
	// Load decodes the value stored under key into dst. It reports false when
	// nothing is stored.
	Load(ctx context.Context, sessionID, key string, dst any) (bool, error)

	// Save replaces the value stored under key.
	Save(ctx context.Context, sessionID, key string, value any) error

	// SaveUntil replaces the value stored under key and drops it at
	// expiresAt. A zero expiresAt behaves like Save.
	SaveUntil(ctx context.Context, sessionID, key string, value any, expiresAt time.Time) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, sessionID, key string) error
}
