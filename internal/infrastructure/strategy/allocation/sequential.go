package allocation

import (
	"github.com/shopspring/decimal"

	"github.com/tradeops/backend/internal/domain/shared/strategy"
	"github.com/tradeops/backend/internal/domain/shipment"
)

// SequentialStrategyName is the registry name of SequentialAllocationStrategy
const SequentialStrategyName = "sequential"

// SequentialAllocationStrategy settles suppliers one after another in the
// order they appear on the shipment, paying each in full before moving on
type SequentialAllocationStrategy struct {
	strategy.BaseStrategy
}

// NewSequentialAllocationStrategy creates a new sequential allocation strategy
func NewSequentialAllocationStrategy() *SequentialAllocationStrategy {
	return &SequentialAllocationStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			SequentialStrategyName,
			"Pay suppliers in shipment line order, settling each balance in full",
		),
	}
}

// Distribute allocates payment to suppliers in goods-line order
func (s *SequentialAllocationStrategy) Distribute(payment decimal.Decimal, totals shipment.GoodsTotals) []shipment.SupplierGoodsAllocation {
	remaining := payment
	allocations := make([]shipment.SupplierGoodsAllocation, 0, len(totals.Suppliers))

	for _, supplier := range totals.Suppliers {
		if !remaining.IsPositive() {
			break
		}
		if !supplier.Outstanding.IsPositive() {
			continue
		}

		amount := decimal.Min(remaining, supplier.Outstanding)
		allocations = append(allocations, shipment.SupplierGoodsAllocation{
			SupplierID:      supplier.SupplierID,
			AllocatedAmount: amount,
		})
		remaining = remaining.Sub(amount)
	}

	return allocations
}

var _ shipment.AllocationStrategy = (*SequentialAllocationStrategy)(nil)
