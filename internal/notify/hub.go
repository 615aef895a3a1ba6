// Package notify delivers change snapshots to subscribers.
//
// A Hub holds the latest snapshot of some value (the product list, the
// category list, homepage content, an auth session) and pushes it to every
// subscriber. Callbacks run on a single dispatcher goroutine in subscribe
// order, so no two callbacks of the same hub ever run concurrently.
package notify

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Subscription is a handle returned by Hub.Subscribe.
type Subscription[T any] struct {
	hub    *Hub[T]
	fn     func(T)
	mu     sync.Mutex // held while fn runs
	closed atomic.Bool

	doneOnce sync.Once
	done     chan struct{}
}

func newSubscription[T any](h *Hub[T], fn func(T)) *Subscription[T] {
	return &Subscription[T]{hub: h, fn: fn, done: make(chan struct{})}
}

// Done is closed once the subscription ends, either through Close or Stop
// or because the hub itself was closed.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription[T]) end() {
	s.closed.Store(true)
	s.doneOnce.Do(func() { close(s.done) })
}

// Close unsubscribes and waits for a callback of this subscription that is
// already running. Once Close returns the callback is not running and will
// not start again. Close must not be called from the subscription's own
// callback; use Stop there. Close is idempotent.
func (s *Subscription[T]) Close() {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
}

// Stop unsubscribes without waiting. No callback starts after Stop returns,
// but one that is already running may still be in progress. Stop is safe to
// call from inside the subscription's own callback.
func (s *Subscription[T]) Stop() {
	if s.closed.Swap(true) {
		return
	}
	s.hub.remove(s)
	s.end()
}

type delivery[T any] struct {
	value   T
	targets []*Subscription[T]
}

// Hub fans a snapshot out to subscribers.
type Hub[T any] struct {
	logger zerolog.Logger

	mu      sync.Mutex
	subs    []*Subscription[T]
	current T
	hasData bool
	queue   []delivery[T]
	closed  bool

	wake chan struct{}
	done chan struct{}
}

// NewHub starts a hub with its dispatcher goroutine. Call Close to stop it.
func NewHub[T any](name string, logger zerolog.Logger) *Hub[T] {
	h := &Hub[T]{
		logger: logger.With().Str("component", "notify").Str("hub", name).Logger(),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go h.dispatch()
	return h
}

// Subscribe registers fn. If the hub already holds a snapshot, fn receives it
// first, before any later publication.
func (h *Hub[T]) Subscribe(fn func(T)) *Subscription[T] {
	sub := newSubscription(h, fn)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		sub.end()
		return sub
	}

	h.subs = append(h.subs, sub)
	if h.hasData {
		h.enqueueLocked(delivery[T]{value: h.current, targets: []*Subscription[T]{sub}})
	}
	return sub
}

// Publish replaces the current snapshot and delivers it to all subscribers.
// Publishing on a closed hub is a no-op.
func (h *Hub[T]) Publish(value T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	h.current = value
	h.hasData = true
	if len(h.subs) == 0 {
		return
	}
	targets := make([]*Subscription[T], len(h.subs))
	copy(targets, h.subs)
	h.enqueueLocked(delivery[T]{value: value, targets: targets})
}

// Current returns the latest published snapshot.
func (h *Hub[T]) Current() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current, h.hasData
}

// Close stops the hub after pending deliveries have been made. Subscriptions
// are closed and later Publish calls are ignored. Close must not be called
// from a subscriber callback.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		<-h.done
		return
	}
	h.closed = true
	h.mu.Unlock()

	h.signal()
	<-h.done

	h.mu.Lock()
	for _, sub := range h.subs {
		sub.end()
	}
	h.subs = nil
	h.mu.Unlock()
}

func (h *Hub[T]) enqueueLocked(d delivery[T]) {
	h.queue = append(h.queue, d)
	h.signal()
}

func (h *Hub[T]) signal() {
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *Hub[T]) remove(sub *Subscription[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, s := range h.subs {
		if s == sub {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			return
		}
	}
}

func (h *Hub[T]) dispatch() {
	defer close(h.done)

	for range h.wake {
		for {
			h.mu.Lock()
			if len(h.queue) == 0 {
				closed := h.closed
				h.mu.Unlock()
				if closed {
					return
				}
				break
			}
			d := h.queue[0]
			h.queue[0] = delivery[T]{}
			h.queue = h.queue[1:]
			h.mu.Unlock()

			for _, sub := range d.targets {
				h.deliver(sub, d.value)
			}
		}
	}
}

func (h *Hub[T]) deliver(sub *Subscription[T], value T) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed.Load() {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error().Interface("panic", r).Msg("subscriber callback panicked")
		}
	}()
	sub.fn(value)
}
