package allocation

import (
	"github.com/shopspring/decimal"

	"github.com/tradeops/backend/internal/domain/shared/strategy"
	"github.com/tradeops/backend/internal/domain/shipment"
)

// ProportionalAllocationStrategy splits a goods payment in proportion to each
// supplier's goods total, redistributing what capped suppliers cannot absorb
type ProportionalAllocationStrategy struct {
	strategy.BaseStrategy
}

// NewProportionalAllocationStrategy creates a new proportional allocation strategy
func NewProportionalAllocationStrategy() *ProportionalAllocationStrategy {
	return &ProportionalAllocationStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			shipment.ProportionalStrategyName,
			"Split payments by each supplier's share of the shipment goods total",
		),
	}
}

// Distribute allocates payment proportionally within outstanding caps
func (s *ProportionalAllocationStrategy) Distribute(payment decimal.Decimal, totals shipment.GoodsTotals) []shipment.SupplierGoodsAllocation {
	return shipment.DistributeProportional(payment, totals)
}

var _ shipment.AllocationStrategy = (*ProportionalAllocationStrategy)(nil)
