package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/netpass/backend/internal/domain/shared"
	"github.com/netpass/backend/internal/infrastructure/config"
)

// notificationKeyPrefix namespaces dedup keys so the Redis instance can be
// shared with other consumers
const notificationKeyPrefix = "notification:dedup:"

// RedisDedupStore implements shared.IdempotencyStore on Redis.
// Required when more than one instance receives webhook deliveries, since
// the dedup decision must be shared.
type RedisDedupStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisDedupStore connects to Redis and verifies the connection
func NewRedisDedupStore(cfg config.RedisConfig) (*RedisDedupStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: connect to redis: %w", err)
	}

	return &RedisDedupStore{
		client:    client,
		keyPrefix: notificationKeyPrefix,
	}, nil
}

// NewRedisDedupStoreWithClient wraps an existing client, useful in tests
func NewRedisDedupStoreWithClient(client *redis.Client, keyPrefix string) *RedisDedupStore {
	if keyPrefix == "" {
		keyPrefix = notificationKeyPrefix
	}
	return &RedisDedupStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed remembers the key for ttl via SETNX, so the first delivery
// wins atomically across instances.
func (s *RedisDedupStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	set, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache: mark processed: %w", err)
	}
	return set, nil
}

// IsProcessed reports whether a live entry covers the key
func (s *RedisDedupStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	exists, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("cache: check processed: %w", err)
	}
	return exists > 0, nil
}

// Close closes the Redis client
func (s *RedisDedupStore) Close() error {
	return s.client.Close()
}

// Ensure RedisDedupStore implements IdempotencyStore
var _ shared.IdempotencyStore = (*RedisDedupStore)(nil)
