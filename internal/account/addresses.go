// Package account manages a shopper's saved shipping addresses.
package account

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"bulkmart/internal/localstore"
	"bulkmart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AddressBook is the saved address set of one session. At most one address
// is the default, and exactly one whenever the book is non-empty.
type AddressBook struct {
	sessionID string
	persister localstore.Store
	logger    zerolog.Logger

	mu        sync.Mutex
	addresses []model.Address
}

// OpenAddressBook restores the addresses persisted for sessionID.
func OpenAddressBook(ctx context.Context, sessionID string, persister localstore.Store, logger zerolog.Logger) *AddressBook {
	b := &AddressBook{
		sessionID: sessionID,
		persister: persister,
		logger:    logger.With().Str("component", "address-book").Str("session_id", sessionID).Logger(),
	}

	var addresses []model.Address
	if _, err := persister.Load(ctx, sessionID, localstore.KeyAddresses, &addresses); err != nil {
		b.logger.Warn().Err(err).Msg("failed to restore addresses, starting empty")
		addresses = nil
	}
	b.addresses = addresses
	b.normaliseDefaultLocked()

	return b
}

// ValidateAddress checks the fields required before an address is saved.
func ValidateAddress(a model.Address) error {
	required := []struct {
		value, field string
	}{
		{a.FullName, "Full name"},
		{a.Phone, "Phone"},
		{a.AddressLine1, "Address line 1"},
		{a.City, "City"},
		{a.State, "State"},
		{a.Pincode, "Pincode"},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return model.NewDomainError(model.ErrCodeMissingField, r.field+" is required")
		}
	}
	return nil
}

// Add saves a new address. The first address, or one submitted with
// IsDefault set, becomes the default.
func (b *AddressBook) Add(ctx context.Context, a model.Address) (model.Address, error) {
	if err := ValidateAddress(a); err != nil {
		return model.Address{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	a.ID = uuid.New().String()
	if len(b.addresses) == 0 {
		a.IsDefault = true
	}
	if a.IsDefault {
		b.clearDefaultLocked()
	}
	b.addresses = append(b.addresses, a)

	return a, b.saveLocked(ctx)
}

// Update replaces the fields of an existing address. Setting IsDefault makes
// it the default; clearing it on the current default is ignored.
func (b *AddressBook) Update(ctx context.Context, a model.Address) (model.Address, error) {
	if err := ValidateAddress(a); err != nil {
		return model.Address{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexLocked(a.ID)
	if i < 0 {
		return model.Address{}, model.ErrAddressNotFound
	}

	if a.IsDefault {
		b.clearDefaultLocked()
	} else if b.addresses[i].IsDefault {
		a.IsDefault = true
	}
	b.addresses[i] = a

	return a, b.saveLocked(ctx)
}

// Delete removes an address. If it was the default the next remaining address
// is promoted.
func (b *AddressBook) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexLocked(id)
	if i < 0 {
		return model.ErrAddressNotFound
	}

	wasDefault := b.addresses[i].IsDefault
	b.addresses = append(b.addresses[:i:i], b.addresses[i+1:]...)
	if wasDefault && len(b.addresses) > 0 {
		next := i
		if next >= len(b.addresses) {
			next = 0
		}
		b.addresses[next].IsDefault = true
	}

	return b.saveLocked(ctx)
}

// SetDefault makes id the only default address.
func (b *AddressBook) SetDefault(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexLocked(id)
	if i < 0 {
		return model.ErrAddressNotFound
	}
	b.clearDefaultLocked()
	b.addresses[i].IsDefault = true

	return b.saveLocked(ctx)
}

// List returns a copy of the saved addresses.
func (b *AddressBook) List() []model.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Address, len(b.addresses))
	copy(out, b.addresses)
	return out
}

// Get returns the address with the given ID.
func (b *AddressBook) Get(id string) (model.Address, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexLocked(id); i >= 0 {
		return b.addresses[i], true
	}
	return model.Address{}, false
}

// Default returns the default address, if any.
func (b *AddressBook) Default() (model.Address, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.addresses {
		if a.IsDefault {
			return a, true
		}
	}
	return model.Address{}, false
}

func (b *AddressBook) indexLocked(id string) int {
	for i, a := range b.addresses {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (b *AddressBook) clearDefaultLocked() {
	for i := range b.addresses {
		b.addresses[i].IsDefault = false
	}
}

// normaliseDefaultLocked repairs persisted data that breaks the
// single-default rule: the first default wins, or the first address if none.
func (b *AddressBook) normaliseDefaultLocked() {
	found := false
	for i := range b.addresses {
		if b.addresses[i].IsDefault {
			if found {
				b.addresses[i].IsDefault = false
			}
			found = true
		}
	}
	if !found && len(b.addresses) > 0 {
		b.addresses[0].IsDefault = true
	}
}

func (b *AddressBook) saveLocked(ctx context.Context) error {
	addresses := b.addresses
	if addresses == nil {
		addresses = []model.Address{}
	}
	if err := b.persister.Save(ctx, b.sessionID, localstore.KeyAddresses, addresses); err != nil {
		b.logger.Error().Err(err).Int("addresses", len(addresses)).Msg("failed to persist addresses")
		return fmt.Errorf("failed to persist addresses: %w", err)
	}
	return nil
}
