package allocation

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeops/backend/internal/domain/shared/valueobject"
	"github.com/tradeops/backend/internal/domain/shipment"
)

func supplierID(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}

func goods(n int, cost string) shipment.GoodsLine {
	id := supplierID(n)
	return shipment.GoodsLine{SupplierID: &id, GoodsCost: valueobject.AmountFromString(cost)}
}

func paid(n int, amount string) shipment.PriorAllocation {
	id := supplierID(n)
	return shipment.PriorAllocation{SupplierID: &id, AllocatedAmount: valueobject.AmountFromString(amount)}
}

func TestProportionalAllocationStrategy(t *testing.T) {
	s := NewProportionalAllocationStrategy()

	t.Run("metadata", func(t *testing.T) {
		assert.Equal(t, "proportional", s.Name())
		assert.NotEmpty(t, s.Description())
	})

	t.Run("matches the engine", func(t *testing.T) {
		items := []shipment.GoodsLine{goods(1, "100"), goods(2, "100")}
		priors := []shipment.PriorAllocation{paid(1, "90")}

		result, err := shipment.AllocateWith(s, decimal.NewFromInt(50), items, priors)
		require.NoError(t, err)

		require.Len(t, result.Allocations, 2)
		assert.True(t, result.Allocations[0].AllocatedAmount.Equal(decimal.NewFromInt(10)))
		assert.True(t, result.Allocations[1].AllocatedAmount.Equal(decimal.NewFromInt(40)))
	})
}

func TestSequentialAllocationStrategy(t *testing.T) {
	s := NewSequentialAllocationStrategy()
	items := []shipment.GoodsLine{goods(1, "100"), goods(2, "50"), goods(3, "80")}

	t.Run("settles suppliers in line order", func(t *testing.T) {
		result, err := shipment.AllocateWith(s, decimal.NewFromInt(120), items, nil)
		require.NoError(t, err)

		assert.Equal(t, SequentialStrategyName, result.Strategy)
		require.Len(t, result.Allocations, 2)
		assert.Equal(t, supplierID(1), result.Allocations[0].SupplierID)
		assert.True(t, result.Allocations[0].AllocatedAmount.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, supplierID(2), result.Allocations[1].SupplierID)
		assert.True(t, result.Allocations[1].AllocatedAmount.Equal(decimal.NewFromInt(20)))
	})

	t.Run("skips suppliers already paid in full", func(t *testing.T) {
		result, err := shipment.AllocateWith(s, decimal.NewFromInt(60), items, []shipment.PriorAllocation{paid(1, "100")})
		require.NoError(t, err)

		require.Len(t, result.Allocations, 2)
		assert.Equal(t, supplierID(2), result.Allocations[0].SupplierID)
		assert.True(t, result.Allocations[0].AllocatedAmount.Equal(decimal.NewFromInt(50)))
		assert.True(t, result.Allocations[1].AllocatedAmount.Equal(decimal.NewFromInt(10)))
	})

	t.Run("rejects overpayment", func(t *testing.T) {
		_, err := shipment.AllocateWith(s, decimal.NewFromInt(231), items, nil)
		assert.True(t, shipment.IsExceedsOutstanding(err))
	})
}
