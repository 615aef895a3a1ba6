package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// sweepInterval bounds how often Save scans for expired entries.
const sweepInterval = time.Minute

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// memoryStore implements Store in process memory. Values are held encoded so
// callers never share state with the store.
type memoryStore struct {
	mu        sync.RWMutex
	values    map[string]memoryEntry
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryStore creates a Store that lives as long as the process. Entries
// written with SaveUntil are dropped once they expire.
func NewMemoryStore() Store {
	return &memoryStore{values: make(map[string]memoryEntry), now: time.Now}
}

func memoryKey(sessionID, key string) string {
	return sessionID + "\x00" + key
}

// Load decodes the value stored under key into dst.
func (s *memoryStore) Load(_ context.Context, sessionID, key string, dst any) (bool, error) {
	k := memoryKey(sessionID, key)
	s.mu.RLock()
	entry, ok := s.values[k]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if entry.expired(s.now()) {
		s.mu.Lock()
		if current, ok := s.values[k]; ok && current.expired(s.now()) {
			delete(s.values, k)
		}
		s.mu.Unlock()
		return false, nil
	}
	if err := json.Unmarshal(entry.data, dst); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// Save replaces the value stored under key.
func (s *memoryStore) Save(ctx context.Context, sessionID, key string, value any) error {
	return s.SaveUntil(ctx, sessionID, key, value, time.Time{})
}

// SaveUntil replaces the value stored under key until expiresAt.
func (s *memoryStore) SaveUntil(_ context.Context, sessionID, key string, value any, expiresAt time.Time) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[memoryKey(sessionID, key)] = memoryEntry{data: data, expiresAt: expiresAt}
	s.sweepLocked()
	return nil
}

// Delete removes key.
func (s *memoryStore) Delete(_ context.Context, sessionID, key string) error {
	s.mu.Lock()
	delete(s.values, memoryKey(sessionID, key))
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) sweepLocked() {
	now := s.now()
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for k, entry := range s.values {
		if entry.expired(now) {
			delete(s.values, k)
		}
	}
}

func (s *memoryStore) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
