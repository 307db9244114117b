package strategy

import "github.com/tradeops/backend/internal/infrastructure/strategy/allocation"

// NewRegistryWithDefaults creates a registry with the built-in allocation
// strategies registered and proportional allocation as the default.
func NewRegistryWithDefaults() (*StrategyRegistry, error) {
	return NewRegistryWithDefault("")
}

// NewRegistryWithDefault registers the built-in strategies and makes
// defaultName the default. An empty name keeps proportional allocation.
func NewRegistryWithDefault(defaultName string) (*StrategyRegistry, error) {
	r := NewStrategyRegistry()

	proportional := allocation.NewProportionalAllocationStrategy()
	if err := r.RegisterAllocationStrategy(proportional); err != nil {
		return nil, err
	}

	sequential := allocation.NewSequentialAllocationStrategy()
	if err := r.RegisterAllocationStrategy(sequential); err != nil {
		return nil, err
	}

	if defaultName == "" {
		defaultName = proportional.Name()
	}
	if err := r.SetDefault(defaultName); err != nil {
		return nil, err
	}

	return r, nil
}
