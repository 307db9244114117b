package strategy

import (
	"fmt"
	"slices"
	"sync"

	"github.com/tradeops/backend/internal/domain/shared"
	"github.com/tradeops/backend/internal/domain/shared/strategy"
	"github.com/tradeops/backend/internal/domain/shipment"
)

// StrategyRegistry holds the allocation strategies a deployment offers and
// the one used when a request names none. Safe for concurrent use.
type StrategyRegistry struct {
	mu          sync.RWMutex
	strategies  map[string]shipment.AllocationStrategy
	defaultName string
}

func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{strategies: make(map[string]shipment.AllocationStrategy)}
}

// RegisterAllocationStrategy adds s under its name. Names must be valid and unique.
func (r *StrategyRegistry) RegisterAllocationStrategy(s shipment.AllocationStrategy) error {
	name := s.Name()
	if err := strategy.ValidateName(name); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.strategies[name]; exists {
		return fmt.Errorf("%w: allocation strategy '%s' already registered", shared.ErrAlreadyExists, name)
	}
	r.strategies[name] = s
	return nil
}

// GetAllocationStrategy looks a strategy up by name. The empty name selects
// the default.
func (r *StrategyRegistry) GetAllocationStrategy(name string) (shipment.AllocationStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		if r.defaultName == "" {
			return nil, fmt.Errorf("%w: no default allocation strategy set", shared.ErrNotFound)
		}
		name = r.defaultName
	}
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: allocation strategy '%s' not found", shared.ErrNotFound, name)
	}
	return s, nil
}

// ListAllocationStrategies returns registered names in lexical order
func (r *StrategyRegistry) ListAllocationStrategies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Describe lists every registered strategy with the default first and the
// rest in lexical order.
func (r *StrategyRegistry) Describe() []strategy.Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]strategy.Info, 0, len(r.strategies))
	for name, s := range r.strategies {
		infos = append(infos, strategy.Info{
			Name:        name,
			Description: s.Description(),
			Default:     name == r.defaultName,
		})
	}
	slices.SortFunc(infos, func(a, b strategy.Info) int {
		switch {
		case a.Default:
			return -1
		case b.Default:
			return 1
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return infos
}

// SetDefault selects the strategy used for requests without one
func (r *StrategyRegistry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.strategies[name]; !ok {
		return fmt.Errorf("%w: allocation strategy '%s' not found", shared.ErrNotFound, name)
	}
	r.defaultName = name
	return nil
}

func (r *StrategyRegistry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}

func (r *StrategyRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.strategies[name]
	return ok
}
