package shipment

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradeops/backend/internal/domain/shared/valueobject"
)

// GoodsLine is a goods cost attributed to a supplier on a shipment. Lines
// without a supplier do not take part in allocation.
type GoodsLine struct {
	SupplierID *uuid.UUID
	GoodsCost  valueobject.RawAmount
}

// PriorAllocation is an amount already paid to a supplier from earlier
// payments against the same shipment's goods cost.
type PriorAllocation struct {
	SupplierID      *uuid.UUID
	AllocatedAmount valueobject.RawAmount
}

// SupplierGoodsTotal is the per-supplier view of goods cost and payments.
// Outstanding is never negative and never exceeds GoodsTotal.
type SupplierGoodsTotal struct {
	SupplierID  uuid.UUID
	GoodsTotal  decimal.Decimal
	GoodsPaid   decimal.Decimal
	Outstanding decimal.Decimal
}

// GoodsTotals holds the supplier table in order of first appearance in the
// goods lines, plus the shipment level sums.
type GoodsTotals struct {
	Suppliers          []SupplierGoodsTotal
	ShipmentGoodsTotal decimal.Decimal
	TotalOutstanding   decimal.Decimal
}

// Supplier looks up a supplier's totals
func (t GoodsTotals) Supplier(id uuid.UUID) (SupplierGoodsTotal, bool) {
	for _, s := range t.Suppliers {
		if s.SupplierID == id {
			return s, true
		}
	}
	return SupplierGoodsTotal{}, false
}

// BuildTotals aggregates goods lines and prior allocations into the
// per-supplier outstanding table. Malformed amounts count as zero; it never
// fails.
func BuildTotals(items []GoodsLine, priors []PriorAllocation) GoodsTotals {
	order := make([]uuid.UUID, 0, len(items))
	goods := make(map[uuid.UUID]decimal.Decimal, len(items))
	for _, line := range items {
		id, ok := supplierKey(line.SupplierID)
		if !ok {
			continue
		}
		if _, seen := goods[id]; !seen {
			order = append(order, id)
		}
		goods[id] = goods[id].Add(valueobject.ParseAmountOrZero(line.GoodsCost))
	}

	paid := make(map[uuid.UUID]decimal.Decimal, len(order))
	for _, prior := range priors {
		id, ok := supplierKey(prior.SupplierID)
		if !ok {
			continue
		}
		if _, tracked := goods[id]; !tracked {
			continue
		}
		paid[id] = paid[id].Add(valueobject.ParseAmountOrZero(prior.AllocatedAmount))
	}

	totals := GoodsTotals{
		Suppliers:          make([]SupplierGoodsTotal, 0, len(order)),
		ShipmentGoodsTotal: decimal.Zero,
		TotalOutstanding:   decimal.Zero,
	}
	for _, id := range order {
		goodsTotal := valueobject.RoundMoney(goods[id])
		goodsPaid := valueobject.RoundMoney(paid[id])
		outstanding := valueobject.RoundMoney(decimal.Max(decimal.Zero, goodsTotal.Sub(goodsPaid)))

		totals.Suppliers = append(totals.Suppliers, SupplierGoodsTotal{
			SupplierID:  id,
			GoodsTotal:  goodsTotal,
			GoodsPaid:   goodsPaid,
			Outstanding: outstanding,
		})
		totals.ShipmentGoodsTotal = totals.ShipmentGoodsTotal.Add(goodsTotal)
		totals.TotalOutstanding = totals.TotalOutstanding.Add(outstanding)
	}
	totals.ShipmentGoodsTotal = valueobject.RoundMoney(totals.ShipmentGoodsTotal)
	totals.TotalOutstanding = valueobject.RoundMoney(totals.TotalOutstanding)

	return totals
}

func supplierKey(id *uuid.UUID) (uuid.UUID, bool) {
	if id == nil || *id == uuid.Nil {
		return uuid.Nil, false
	}
	return *id, true
}
