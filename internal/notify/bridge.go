package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Topic names a kind of shared data whose snapshot can change.
type Topic string

const (
	TopicProducts   Topic = "products"
	TopicCategories Topic = "categories"
	TopicContent    Topic = "content"
)

// ReloadFunc refreshes the local snapshot for a topic, typically by reading
// the store and publishing the result on a Hub.
type ReloadFunc func(ctx context.Context) error

// Bridge propagates change signals between service instances. An admin write
// on one instance calls Signal; every instance (including the sender) then
// runs the reload registered for the topic. Without a NATS connection reloads
// run in-process only.
type Bridge struct {
	conn    *nats.Conn
	prefix  string
	timeout time.Duration
	logger  zerolog.Logger

	mu       sync.RWMutex
	reloads  map[Topic]ReloadFunc
	natsSubs []*nats.Subscription
}

// NATSConfig holds connection settings for the change bridge.
type NATSConfig struct {
	URL           string
	Name          string
	SubjectPrefix string
	ReloadTimeout time.Duration
}

// Connect dials NATS with unlimited reconnects.
func Connect(cfg NATSConfig, logger zerolog.Logger) (*nats.Conn, error) {
	log := logger.With().Str("component", "nats").Logger()

	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("reconnected to NATS")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("disconnected from NATS")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			ev := log.Error().Err(err)
			if sub != nil {
				ev = ev.Str("subject", sub.Subject)
			}
			ev.Msg("NATS async error")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return nc, nil
}

// NewBridge creates a bridge. conn may be nil.
func NewBridge(conn *nats.Conn, prefix string, reloadTimeout time.Duration, logger zerolog.Logger) *Bridge {
	if prefix == "" {
		prefix = "bulkmart"
	}
	if reloadTimeout <= 0 {
		reloadTimeout = 10 * time.Second
	}
	return &Bridge{
		conn:    conn,
		prefix:  prefix,
		timeout: reloadTimeout,
		logger:  logger.With().Str("component", "notify-bridge").Logger(),
		reloads: make(map[Topic]ReloadFunc),
	}
}

// Subject returns the NATS subject carrying signals for topic.
func (b *Bridge) Subject(topic Topic) string {
	return b.prefix + "." + string(topic)
}

// Handle registers the reload for topic, replacing any earlier one.
func (b *Bridge) Handle(topic Topic, reload ReloadFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reloads[topic] = reload
}

// Start subscribes to the subjects of all registered topics.
func (b *Bridge) Start() error {
	if b.conn == nil {
		b.logger.Info().Msg("NATS disabled, change signals stay local")
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for topic := range b.reloads {
		topic := topic
		sub, err := b.conn.Subscribe(b.Subject(topic), func(_ *nats.Msg) {
			b.reload(topic)
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", b.Subject(topic), err)
		}
		b.natsSubs = append(b.natsSubs, sub)
	}

	b.logger.Info().Int("topics", len(b.natsSubs)).Str("prefix", b.prefix).Msg("change bridge started")
	return nil
}

// Signal announces that topic changed.
func (b *Bridge) Signal(ctx context.Context, topic Topic) error {
	if b.conn == nil {
		return b.runReload(ctx, topic)
	}

	if err := b.conn.Publish(b.Subject(topic), []byte(time.Now().UTC().Format(time.RFC3339Nano))); err != nil {
		b.logger.Error().Err(err).Str("topic", string(topic)).Msg("failed to publish change signal")
		// Still refresh this instance so the writer sees its own change.
		if rerr := b.runReload(ctx, topic); rerr != nil {
			return rerr
		}
		return fmt.Errorf("failed to publish %s signal: %w", topic, err)
	}
	return nil
}

// Close drains NATS subscriptions.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.natsSubs {
		if err := sub.Unsubscribe(); err != nil {
			b.logger.Warn().Err(err).Str("subject", sub.Subject).Msg("failed to unsubscribe")
		}
	}
	b.natsSubs = nil
}

func (b *Bridge) reload(topic Topic) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	if err := b.runReload(ctx, topic); err != nil {
		b.logger.Error().Err(err).Str("topic", string(topic)).Msg("reload after change signal failed")
	}
}

func (b *Bridge) runReload(ctx context.Context, topic Topic) error {
	b.mu.RLock()
	reload, ok := b.reloads[topic]
	b.mu.RUnlock()
	if !ok {
		b.logger.Debug().Str("topic", string(topic)).Msg("no reload registered")
		return nil
	}
	if err := reload(ctx); err != nil {
		return fmt.Errorf("failed to reload %s: %w", topic, err)
	}
	return nil
}
