package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tradeops/backend/internal/domain/shared"
)

const defaultSweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore is the single-instance fallback for Redis. Two
// replicas backed by it do not see each other's keys.
type InMemoryIdempotencyStore struct {
	mu      sync.RWMutex
	expires map[string]time.Time
	now     func() time.Time

	stop context.CancelFunc
	done chan struct{}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)

// NewInMemoryIdempotencyStore starts a sweeper that drops expired keys every
// sweepInterval. Close stops it.
func NewInMemoryIdempotencyStore(sweepInterval time.Duration) *InMemoryIdempotencyStore {
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &InMemoryIdempotencyStore{
		expires: make(map[string]time.Time),
		now:     time.Now,
		stop:    cancel,
		done:    make(chan struct{}),
	}
	go s.run(ctx, sweepInterval)
	return s
}

func (s *InMemoryIdempotencyStore) live(key string, at time.Time) bool {
	exp, ok := s.expires[key]
	return ok && at.Before(exp)
}

func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.now()
	if s.live(key, at) {
		return false, nil
	}
	s.expires[key] = at.Add(ttl)
	return true, nil
}

func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live(key, s.now()), nil
}

func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.expires, key)
	s.mu.Unlock()
	return nil
}

// Close is idempotent
func (s *InMemoryIdempotencyStore) Close() error {
	s.stop()
	<-s.done
	return nil
}

func (s *InMemoryIdempotencyStore) run(ctx context.Context, interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.now()
	for key := range s.expires {
		if !s.live(key, at) {
			delete(s.expires, key)
		}
	}
}

// Size counts expired keys until the next sweep
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.expires)
}
