package catalog

import (
	"context"
	"fmt"
	"sync"

	"bulkmart/internal/model"

	"github.com/rs/zerolog"
)

// DefaultPageSize is the number of products requested per infinite-scroll page.
const DefaultPageSize = 12

// PageFetcher reads one page of the catalogue.
type PageFetcher interface {
	// ListProducts returns up to pageSize products after cursor, and the cursor
	// of the following page (empty when the store has nothing further).
	ListProducts(ctx context.Context, cursor Cursor, pageSize int, sort SortKey) ([]model.Product, Cursor, error)
}

// Outcome describes what a Pager call did.
type Outcome string

const (
	// OutcomeAppended means a page was fetched and merged.
	OutcomeAppended Outcome = "appended"
	// OutcomeDropped means another fetch was already in flight.
	OutcomeDropped Outcome = "dropped"
	// OutcomeExhausted means the end of the collection had already been reached.
	OutcomeExhausted Outcome = "exhausted"
	// OutcomeStale means the pager was reset while the fetch ran; its result was discarded.
	OutcomeStale Outcome = "stale"
	// OutcomeFailed means the fetch returned an error; held items are unchanged.
	OutcomeFailed Outcome = "failed"
)

// Result reports the effect of a LoadMore or Reset call.
type Result struct {
	Outcome Outcome `json:"outcome"`
	Added   int     `json:"added"`
	Total   int     `json:"total"`
	HasMore bool    `json:"hasMore"`
}

// Pager accumulates catalogue pages for one infinite-scroll listing.
// It is safe for concurrent use; at most one fetch runs at a time.
type Pager struct {
	fetcher  PageFetcher
	pageSize int
	sort     SortKey
	logger   zerolog.Logger

	mu         sync.Mutex
	items      []model.Product
	seen       map[string]struct{}
	cursor     Cursor
	hasMore    bool
	loading    bool
	generation uint64
	cancel     context.CancelFunc
	lastErr    error
}

// NewPager creates a pager positioned before the first page.
func NewPager(fetcher PageFetcher, pageSize int, sort SortKey, logger zerolog.Logger) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pager{
		fetcher:  fetcher,
		pageSize: pageSize,
		sort:     sort,
		logger:   logger.With().Str("component", "catalog-pager").Str("sort", string(sort)).Logger(),
		seen:     make(map[string]struct{}),
		hasMore:  true,
	}
}

// Sort returns the ordering requested from the fetcher.
func (p *Pager) Sort() SortKey {
	return p.sort
}

// LoadMore fetches the next page. A call made while a fetch is outstanding is
// dropped; a call after the last page does nothing.
func (p *Pager) LoadMore(ctx context.Context) (Result, error) {
	p.mu.Lock()
	if p.loading {
		res := p.resultLocked(OutcomeDropped, 0)
		p.mu.Unlock()
		p.logger.Debug().Msg("fetch already in flight, dropping request")
		return res, nil
	}
	if !p.hasMore {
		res := p.resultLocked(OutcomeExhausted, 0)
		p.mu.Unlock()
		return res, nil
	}
	gen, fetchCtx, cursor := p.beginLocked(ctx)
	p.mu.Unlock()

	return p.fetch(fetchCtx, gen, cursor)
}

// Reset discards all accumulated state, abandons any in-flight fetch and
// loads the first page again.
func (p *Pager) Reset(ctx context.Context) (Result, error) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.generation++
	p.items = nil
	p.seen = make(map[string]struct{})
	p.cursor = ""
	p.hasMore = true
	p.lastErr = nil
	gen, fetchCtx, cursor := p.beginLocked(ctx)
	p.mu.Unlock()

	p.logger.Debug().Uint64("generation", gen).Msg("pager reset")

	return p.fetch(fetchCtx, gen, cursor)
}

// beginLocked marks a fetch as in flight for the current generation.
func (p *Pager) beginLocked(ctx context.Context) (uint64, context.Context, Cursor) {
	fetchCtx, cancel := context.WithCancel(ctx)
	p.loading = true
	p.cancel = cancel
	return p.generation, fetchCtx, p.cursor
}

func (p *Pager) fetch(ctx context.Context, gen uint64, cursor Cursor) (Result, error) {
	products, next, err := p.fetcher.ListProducts(ctx, cursor, p.pageSize, p.sort)

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation {
		p.logger.Debug().
			Uint64("fetch_generation", gen).
			Uint64("current_generation", p.generation).
			Msg("discarding stale page")
		return p.resultLocked(OutcomeStale, 0), nil
	}

	p.loading = false
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}

	if err != nil {
		p.lastErr = err
		p.logger.Error().Err(err).Int("held", len(p.items)).Msg("failed to fetch catalogue page")
		return p.resultLocked(OutcomeFailed, 0), fmt.Errorf("failed to fetch products: %w", err)
	}

	p.lastErr = nil
	added := 0
	for _, product := range products {
		if _, dup := p.seen[product.ID]; dup {
			continue
		}
		p.seen[product.ID] = struct{}{}
		p.items = append(p.items, product)
		added++
	}

	p.cursor = next
	p.hasMore = len(products) >= p.pageSize && next != ""

	p.logger.Debug().
		Int("returned", len(products)).
		Int("added", added).
		Int("total", len(p.items)).
		Bool("has_more", p.hasMore).
		Msg("catalogue page merged")

	return p.resultLocked(OutcomeAppended, added), nil
}

func (p *Pager) resultLocked(outcome Outcome, added int) Result {
	return Result{
		Outcome: outcome,
		Added:   added,
		Total:   len(p.items),
		HasMore: p.hasMore,
	}
}

// Items returns a copy of the accumulated products in fetch order.
func (p *Pager) Items() []model.Product {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Product, len(p.items))
	copy(out, p.items)
	return out
}

// HasMore reports whether another page may exist.
func (p *Pager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

// Loading reports whether a fetch is in flight.
func (p *Pager) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Err returns the error of the most recent completed fetch, if it failed.
func (p *Pager) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

