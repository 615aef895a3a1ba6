package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
	var zero T
	return zero
}

func TestHub_NewSubscriberGetsCurrentSnapshot(t *testing.T) {
	hub := NewHub[[]string]("categories", zerolog.Nop())
	defer hub.Close()

	hub.Publish([]string{"tools", "office"})

	got := make(chan []string, 1)
	sub := hub.Subscribe(func(v []string) { got <- v })
	defer sub.Close()

	assert.Equal(t, []string{"tools", "office"}, receive(t, got))

	current, ok := hub.Current()
	assert.True(t, ok)
	assert.Equal(t, []string{"tools", "office"}, current)
}

func TestHub_NoSnapshotNoInitialDelivery(t *testing.T) {
	hub := NewHub[int]("products", zerolog.Nop())
	defer hub.Close()

	got := make(chan int, 4)
	hub.Subscribe(func(v int) { got <- v })
	hub.Publish(7)

	assert.Equal(t, 7, receive(t, got))
	select {
	case v := <-got:
		t.Fatalf("unexpected extra delivery %d", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_DeliversInSubscribeOrderWithoutOverlap(t *testing.T) {
	hub := NewHub[int]("products", zerolog.Nop())

	var (
		mu      sync.Mutex
		order   []string
		running atomic.Int32
		overlap atomic.Bool
	)
	record := func(name string) func(int) {
		return func(v int) {
			if running.Add(1) > 1 {
				overlap.Store(true)
			}
			time.Sleep(time.Millisecond)
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			running.Add(-1)
		}
	}

	hub.Subscribe(record("first"))
	hub.Subscribe(record("second"))
	hub.Subscribe(record("third"))

	for i := 0; i < 3; i++ {
		hub.Publish(i)
	}
	hub.Close()

	assert.False(t, overlap.Load(), "callbacks must not run concurrently")
	assert.Equal(t, []string{
		"first", "second", "third",
		"first", "second", "third",
		"first", "second", "third",
	}, order)
}

func TestHub_ClosedSubscriptionReceivesNothing(t *testing.T) {
	hub := NewHub[int]("content", zerolog.Nop())
	defer hub.Close()

	var calls atomic.Int32
	sub := hub.Subscribe(func(int) { calls.Add(1) })
	sub.Close()
	sub.Close()

	other := make(chan int, 1)
	hub.Subscribe(func(v int) { other <- v })
	hub.Publish(1)

	assert.Equal(t, 1, receive(t, other))
	assert.Equal(t, int32(0), calls.Load())
}

func TestHub_SubscriptionCanStopItself(t *testing.T) {
	hub := NewHub[int]("content", zerolog.Nop())
	defer hub.Close()

	var (
		calls atomic.Int32
		sub   *Subscription[int]
		done  = make(chan struct{}, 1)
	)
	sub = hub.Subscribe(func(int) {
		calls.Add(1)
		sub.Stop()
		done <- struct{}{}
	})

	hub.Publish(1)
	receive(t, done)
	hub.Publish(2)

	later := make(chan int, 1)
	hub.Subscribe(func(v int) { later <- v })
	assert.Equal(t, 2, receive(t, later))
	assert.Equal(t, int32(1), calls.Load())
}

func TestHub_CloseWaitsForRunningCallback(t *testing.T) {
	hub := NewHub[int]("content", zerolog.Nop())
	defer hub.Close()

	var finished atomic.Bool
	started := make(chan struct{})
	sub := hub.Subscribe(func(int) {
		close(started)
		time.Sleep(200 * time.Millisecond)
		finished.Store(true)
	})

	hub.Publish(1)
	receive(t, started)
	sub.Close()

	assert.True(t, finished.Load(), "Close returned while the callback was running")
}

func TestHub_StopDoesNotWaitForRunningCallback(t *testing.T) {
	hub := NewHub[int]("content", zerolog.Nop())
	defer hub.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	sub := hub.Subscribe(func(int) {
		close(started)
		<-release
	})

	hub.Publish(1)
	receive(t, started)
	sub.Stop()
	close(release)
}

func TestHub_PanickingSubscriberDoesNotStopDispatch(t *testing.T) {
	hub := NewHub[int]("products", zerolog.Nop())
	defer hub.Close()

	hub.Subscribe(func(int) { panic("boom") })
	got := make(chan int, 1)
	hub.Subscribe(func(v int) { got <- v })

	hub.Publish(3)
	assert.Equal(t, 3, receive(t, got))
}

func TestHub_PublishAfterCloseIsIgnored(t *testing.T) {
	hub := NewHub[int]("products", zerolog.Nop())
	hub.Publish(1)
	hub.Close()
	hub.Close()

	hub.Publish(2)
	current, ok := hub.Current()
	assert.True(t, ok)
	assert.Equal(t, 1, current)

	sub := hub.Subscribe(func(int) { t.Fatal("closed hub delivered") })
	sub.Close()
}

func TestBridge_LocalSignalRunsReload(t *testing.T) {
	bridge := NewBridge(nil, "", 0, zerolog.Nop())
	assert.Equal(t, "bulkmart.categories", bridge.Subject(TopicCategories))

	var reloaded atomic.Int32
	bridge.Handle(TopicCategories, func(ctx context.Context) error {
		reloaded.Add(1)
		return nil
	})
	require.NoError(t, bridge.Start())

	require.NoError(t, bridge.Signal(context.Background(), TopicCategories))
	assert.Equal(t, int32(1), reloaded.Load())

	// Topics without a reload are ignored.
	require.NoError(t, bridge.Signal(context.Background(), TopicContent))
	bridge.Close()
}

func TestBridge_LocalReloadErrorIsReturned(t *testing.T) {
	bridge := NewBridge(nil, "shop", time.Second, zerolog.Nop())
	bridge.Handle(TopicProducts, func(ctx context.Context) error {
		return errors.New("database unavailable")
	})

	err := bridge.Signal(context.Background(), TopicProducts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reload products")
}
