// Package cache provides the key reservation stores behind invoice number
// reservation and event de-duplication.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces every reservation key in Redis
const DefaultKeyPrefix = "expenseai:reservation:"

// RedisReservationStore implements shared.ReservationStore with Redis SETNX.
// Reservations are shared by every process pointing at the same Redis.
type RedisReservationStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisClient connects to Redis and verifies the connection with PING
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// NewRedisReservationStore wraps an existing client. An empty prefix uses DefaultKeyPrefix.
func NewRedisReservationStore(client redis.UniversalClient, keyPrefix string) *RedisReservationStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisReservationStore{client: client, keyPrefix: keyPrefix}
}

// Reserve claims key for ttl in a single SET NX PX round trip
func (s *RedisReservationStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve %q: %w", key, err)
	}
	return ok, nil
}

// IsReserved reports whether key is currently held
func (s *RedisReservationStore) IsReserved(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check reservation %q: %w", key, err)
	}
	return n > 0, nil
}

// Release drops the claim on key
func (s *RedisReservationStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying client
func (s *RedisReservationStore) Close() error {
	return s.client.Close()
}

var _ shared.ReservationStore = (*RedisReservationStore)(nil)
