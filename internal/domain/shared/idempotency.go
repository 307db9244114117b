package shared

import (
	"context"
	"time"
)

// DefaultIdempotencyTTL is how long a claimed request key is remembered
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore claims request keys so a retried write is applied once.
// Keys are opaque to the store; callers scope them per tenant.
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl. It reports false when the key was
	// already claimed and has not expired.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	// Release drops a claim after the guarded write failed
	Release(ctx context.Context, key string) error
	Close() error
}
