package cache

import (
	"context"
	"fmt"
	"io"

	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ReservationStoreCloser is a reservation store owning resources that must be released
type ReservationStoreCloser interface {
	shared.ReservationStore
	io.Closer
}

// FactoryOption configures NewReservationStore
type FactoryOption func(*factory)

type factory struct {
	logger        *zap.Logger
	allowFallback bool
	keyPrefix     string
}

// WithLogger sets the logger used to report the chosen backend
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *factory) { f.logger = logger }
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the in-memory store. Fallback is on by default.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *factory) { f.allowFallback = allow }
}

// WithKeyPrefix overrides DefaultKeyPrefix for the Redis store
func WithKeyPrefix(prefix string) FactoryOption {
	return func(f *factory) { f.keyPrefix = prefix }
}

// NewReservationStore returns a Redis store when Redis is enabled and
// reachable, otherwise an in-memory store
func NewReservationStore(ctx context.Context, cfg config.RedisConfig, opts ...FactoryOption) (ReservationStoreCloser, error) {
	f := &factory{logger: zap.NewNop(), allowFallback: true}
	for _, opt := range opts {
		opt(f)
	}

	if !cfg.Enabled {
		f.logger.Info("Redis disabled, using in-memory reservation store")
		return NewInMemoryReservationStore(), nil
	}

	client, err := NewRedisClient(ctx, cfg)
	if err == nil {
		f.logger.Info("Using Redis reservation store", zap.String("addr", cfg.Addr()))
		return NewRedisReservationStore(client, f.keyPrefix), nil
	}
	if !f.allowFallback {
		return nil, fmt.Errorf("redis reservation store unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory reservation store; "+
		"invoice numbers and event de-duplication are not shared between instances",
		zap.Error(err))
	return NewInMemoryReservationStore(), nil
}
