package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// redisStore implements Store on top of Redis string keys.
type redisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

// RedisConfig holds connection settings for the Redis-backed store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}

	return client, nil
}

// NewRedisStore creates a Store that keeps each value under
// "<prefix>:session:<sessionID>:<key>". A zero TTL keeps values forever.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration, logger zerolog.Logger) Store {
	if prefix == "" {
		prefix = "bulkmart"
	}
	return &redisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With().Str("component", "redis-localstore").Logger(),
	}
}

func (s *redisStore) key(sessionID, key string) string {
	return fmt.Sprintf("%s:session:%s:%s", s.prefix, sessionID, key)
}

// Load decodes the value stored under key into dst.
func (s *redisStore) Load(ctx context.Context, sessionID, key string, dst any) (bool, error) {
	data, err := s.client.Get(ctx, s.key(sessionID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Str("key", key).Msg("failed to read session value")
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Str("key", key).Msg("discarding corrupt session value")
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}

	return true, nil
}

// Save replaces the value stored under key and refreshes its TTL.
func (s *redisStore) Save(ctx context.Context, sessionID, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	if err := s.client.Set(ctx, s.key(sessionID, key), data, s.ttl).Err(); err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Str("key", key).Msg("failed to write session value")
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	return nil
}

// SaveUntil replaces the value stored under key and expires it at expiresAt,
// or after the store TTL if that comes first.
func (s *redisStore) SaveUntil(ctx context.Context, sessionID, key string, value any, expiresAt time.Time) error {
	if expiresAt.IsZero() {
		return s.Save(ctx, sessionID, key, value)
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return s.Delete(ctx, sessionID, key)
	}
	if s.ttl > 0 && s.ttl < ttl {
		ttl = s.ttl
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, s.key(sessionID, key), data, ttl).Err(); err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Str("key", key).Msg("failed to write session value")
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *redisStore) Delete(ctx context.Context, sessionID, key string) error {
	if err := s.client.Del(ctx, s.key(sessionID, key)).Err(); err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Str("key", key).Msg("failed to delete session value")
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
