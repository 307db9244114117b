// Package cache holds the idempotency key stores used to deduplicate goods
// payment commits.
package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tradeops/backend/internal/domain/shared"
	"github.com/tradeops/backend/internal/infrastructure/config"
)

type openOptions struct {
	log      *zap.Logger
	fallback bool
}

type OpenOption func(*openOptions)

func WithLogger(log *zap.Logger) OpenOption {
	return func(o *openOptions) { o.log = log }
}

// WithInMemoryFallback decides whether an unreachable Redis degrades to a
// process-local store instead of failing startup. It is on by default.
func WithInMemoryFallback(allow bool) OpenOption {
	return func(o *openOptions) { o.fallback = allow }
}

// OpenIdempotencyStore returns the Redis store when Redis is enabled and
// answers a ping, and the in-memory store otherwise.
func OpenIdempotencyStore(ctx context.Context, cfg config.RedisConfig, opts ...OpenOption) (shared.IdempotencyStore, error) {
	o := openOptions{log: zap.NewNop(), fallback: true}
	for _, opt := range opts {
		opt(&o)
	}

	if !cfg.Enabled {
		o.log.Info("Idempotency keys kept in memory", zap.String("reason", "redis disabled"))
		return NewInMemoryIdempotencyStore(0), nil
	}

	store, err := DialRedisIdempotencyStore(ctx, RedisOptions{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})
	switch {
	case err == nil:
		o.log.Info("Idempotency keys kept in Redis", zap.String("addr", cfg.Addr()))
		return store, nil
	case !o.fallback:
		return nil, fmt.Errorf("redis required for idempotency: %w", err)
	}

	// other instances will not see these keys; the unique index on
	// (tenant_id, idempotency_key) still rejects a duplicate commit
	o.log.Warn("Idempotency keys kept in memory", zap.String("reason", "redis unreachable"), zap.Error(err))
	return NewInMemoryIdempotencyStore(0), nil
}
