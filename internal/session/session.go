// Package session keeps the per-visitor state of the storefront: the sign-in
// gate, cart and wishlist, address book and infinite-scroll feeds.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"bulkmart/internal/account"
	"bulkmart/internal/auth"
	"bulkmart/internal/cart"
	"bulkmart/internal/catalog"
	"bulkmart/internal/localstore"

	"github.com/rs/zerolog"
)

// Config controls session lifetime and feed sizing.
type Config struct {
	PageSize int
	IdleTTL  time.Duration
}

// Session is the state held for one X-Session-ID.
type Session struct {
	ID        string
	Gate      *auth.Gate
	Cart      *cart.Store
	Addresses *account.AddressBook

	fetcher  catalog.PageFetcher
	pageSize int
	logger   zerolog.Logger
	lastSeen atomic.Int64

	mu    sync.Mutex
	feeds map[catalog.SortKey]*catalog.Pager
}

// Feed returns the pager for the given ordering, creating it on first use.
func (s *Session) Feed(sort catalog.SortKey) *catalog.Pager {
	sort = catalog.ParseSortKey(string(sort))

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.feeds[sort]
	if !ok {
		p = catalog.NewPager(s.fetcher, s.pageSize, sort, s.logger)
		s.feeds[sort] = p
	}
	return p
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

// Registry opens sessions lazily and sweeps idle ones.
type Registry struct {
	store    localstore.Store
	provider auth.Provider
	fetcher  catalog.PageFetcher
	cfg      Config
	logger   zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry(store localstore.Store, provider auth.Provider, fetcher catalog.PageFetcher, cfg Config, logger zerolog.Logger) *Registry {
	if cfg.PageSize <= 0 {
		cfg.PageSize = catalog.DefaultPageSize
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	return &Registry{
		store:    store,
		provider: provider,
		fetcher:  fetcher,
		cfg:      cfg,
		logger:   logger.With().Str("component", "session-registry").Logger(),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, opening it from the durable store if it is
// not held in memory.
func (r *Registry) Get(ctx context.Context, id string) *Session {
	now := r.now()

	r.mu.Lock()
	if s, ok := r.sessions[id]; ok {
		r.mu.Unlock()
		s.touch(now)
		return s
	}
	r.mu.Unlock()

	// Opening reads the durable store, so it happens outside the lock.
	opened := r.open(ctx, id)
	opened.touch(now)

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		opened.Gate.Close()
		s.touch(now)
		return s
	}
	r.sessions[id] = opened
	r.logger.Debug().Str("session_id", id).Int("active", len(r.sessions)).Msg("session opened")
	return opened
}

func (r *Registry) open(ctx context.Context, id string) *Session {
	logger := r.logger.With().Str("session_id", id).Logger()
	return &Session{
		ID:        id,
		Gate:      auth.NewGate(r.provider, logger),
		Cart:      cart.Open(ctx, id, r.store, logger),
		Addresses: account.OpenAddressBook(ctx, id, r.store, logger),
		fetcher:   r.fetcher,
		pageSize:  r.cfg.PageSize,
		logger:    logger,
		feeds:     make(map[catalog.SortKey]*catalog.Pager),
	}
}

// Len returns the number of sessions held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the configured TTL and returns how
// many were dropped. Their durable state stays in the store.
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if s.idleSince(now) > r.cfg.IdleTTL {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Gate.Close()
	}
	if len(idle) > 0 {
		r.logger.Info().Int("dropped", len(idle)).Msg("idle sessions swept")
	}
	return len(idle)
}

// Run sweeps periodically until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.IdleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close releases every held session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Gate.Close()
	}
}
