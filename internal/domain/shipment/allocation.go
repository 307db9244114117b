package shipment

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradeops/backend/internal/domain/shared/strategy"
	"github.com/tradeops/backend/internal/domain/shared/valueobject"
)

var (
	// allocationTolerance absorbs sub-cent noise when comparing payment to capacity
	allocationTolerance = decimal.New(1, -4)
	oneCent             = decimal.New(1, -2)
)

// SupplierGoodsAllocation is the share of a payment granted to one supplier.
// AllocatedAmount is always positive.
type SupplierGoodsAllocation struct {
	SupplierID      uuid.UUID
	AllocatedAmount decimal.Decimal
}

// AllocationResult is the outcome of allocating one payment
type AllocationResult struct {
	Strategy           string
	PaymentAmount      decimal.Decimal
	Allocations        []SupplierGoodsAllocation
	SupplierTotals     []SupplierGoodsTotal
	ShipmentGoodsTotal decimal.Decimal
	TotalOutstanding   decimal.Decimal
}

// TotalAllocated sums the allocations
func (r *AllocationResult) TotalAllocated() decimal.Decimal {
	total := decimal.Zero
	for _, a := range r.Allocations {
		total = total.Add(a.AllocatedAmount)
	}
	return total
}

// AllocationStrategy splits a payment over the supplier table. It is only
// called once the payment is known to fit within TotalOutstanding and the
// shipment has a positive goods total. Implementations must not grant any
// supplier more than its Outstanding.
type AllocationStrategy interface {
	strategy.Strategy
	Distribute(payment decimal.Decimal, totals GoodsTotals) []SupplierGoodsAllocation
}

// ProportionalStrategyName is the name of the default allocation policy
const ProportionalStrategyName = "proportional"

// Allocate splits paymentAmount across the shipment's suppliers in proportion
// to their goods totals, capped by each supplier's outstanding balance.
func Allocate(paymentAmount decimal.Decimal, items []GoodsLine, priors []PriorAllocation) (*AllocationResult, error) {
	return allocate(ProportionalStrategyName, DistributeProportional, paymentAmount, items, priors)
}

// AllocateWith runs the same checks as Allocate but distributes the payment
// with the given strategy.
func AllocateWith(s AllocationStrategy, paymentAmount decimal.Decimal, items []GoodsLine, priors []PriorAllocation) (*AllocationResult, error) {
	return allocate(s.Name(), s.Distribute, paymentAmount, items, priors)
}

func allocate(
	name string,
	distribute func(decimal.Decimal, GoodsTotals) []SupplierGoodsAllocation,
	paymentAmount decimal.Decimal,
	items []GoodsLine,
	priors []PriorAllocation,
) (*AllocationResult, error) {
	totals := BuildTotals(items, priors)

	if !totals.ShipmentGoodsTotal.IsPositive() {
		return nil, newZeroBasisError(totals.ShipmentGoodsTotal)
	}
	// checked unrounded; cents matter only for the split
	if paymentAmount.Sub(totals.TotalOutstanding).GreaterThan(allocationTolerance) {
		return nil, newExceedsOutstandingError(paymentAmount, totals)
	}
	payment := valueobject.RoundMoney(paymentAmount)

	var granted []SupplierGoodsAllocation
	if payment.IsPositive() {
		granted = distribute(payment, totals)
	}

	allocations := make([]SupplierGoodsAllocation, 0, len(granted))
	for _, a := range granted {
		amount := valueobject.RoundMoney(a.AllocatedAmount)
		if !amount.IsPositive() {
			continue
		}
		allocations = append(allocations, SupplierGoodsAllocation{
			SupplierID:      a.SupplierID,
			AllocatedAmount: amount,
		})
	}

	return &AllocationResult{
		Strategy:           name,
		PaymentAmount:      payment,
		Allocations:        allocations,
		SupplierTotals:     totals.Suppliers,
		ShipmentGoodsTotal: totals.ShipmentGoodsTotal,
		TotalOutstanding:   totals.TotalOutstanding,
	}, nil
}

// supplierState tracks one supplier through the redistribution rounds
type supplierState struct {
	id          uuid.UUID
	weight      decimal.Decimal
	outstanding decimal.Decimal
	allocated   decimal.Decimal
}

// roundShare is one eligible supplier's proportional share in a round
type roundShare struct {
	state     *supplierState
	raw       decimal.Decimal
	candidate decimal.Decimal
}

// DistributeProportional is the iterative proportional rationing used by
// Allocate. Each round re-normalizes the remaining payment over the suppliers
// that still have outstanding balance, so whatever a capped supplier cannot
// absorb flows to the others in the next round. The returned amounts sum to
// payment whenever payment <= totals.TotalOutstanding.
func DistributeProportional(payment decimal.Decimal, totals GoodsTotals) []SupplierGoodsAllocation {
	states := make([]*supplierState, len(totals.Suppliers))
	for i, s := range totals.Suppliers {
		states[i] = &supplierState{
			id:          s.SupplierID,
			weight:      s.GoodsTotal,
			outstanding: s.Outstanding,
			allocated:   decimal.Zero,
		}
	}

	remaining := valueobject.RoundMoney(payment)
	for remaining.GreaterThan(allocationTolerance) {
		shares, basis := eligibleShares(states)
		if len(shares) == 0 || !basis.IsPositive() {
			break
		}

		sum := decimal.Zero
		for i := range shares {
			shares[i].raw = remaining.Mul(shares[i].state.weight).Div(basis)
			shares[i].candidate = valueobject.RoundMoney(shares[i].raw)
			sum = sum.Add(shares[i].candidate)
		}
		if delta := remaining.Sub(sum); delta.Abs().GreaterThanOrEqual(oneCent) {
			applyDrift(shares, delta)
		}

		grantedThisRound := decimal.Zero
		for _, sh := range shares {
			grant := decimal.Max(decimal.Zero, decimal.Min(sh.candidate, sh.state.outstanding))
			if grant.IsZero() {
				continue
			}
			sh.state.allocated = sh.state.allocated.Add(grant)
			sh.state.outstanding = valueobject.RoundMoney(sh.state.outstanding.Sub(grant))
			grantedThisRound = grantedThisRound.Add(grant)
		}
		if !grantedThisRound.IsPositive() {
			break
		}
		remaining = valueobject.RoundMoney(remaining.Sub(grantedThisRound))
	}

	if remaining.GreaterThan(allocationTolerance) {
		settleResidual(states, remaining)
	}

	out := make([]SupplierGoodsAllocation, 0, len(states))
	for _, st := range states {
		out = append(out, SupplierGoodsAllocation{
			SupplierID:      st.id,
			AllocatedAmount: valueobject.RoundMoney(st.allocated),
		})
	}
	return out
}

func eligibleShares(states []*supplierState) ([]roundShare, decimal.Decimal) {
	shares := make([]roundShare, 0, len(states))
	basis := decimal.Zero
	for _, st := range states {
		if !st.outstanding.IsPositive() {
			continue
		}
		shares = append(shares, roundShare{state: st})
		basis = basis.Add(st.weight)
	}
	return shares, basis
}

// applyDrift moves the rounding difference onto the largest raw share. Ties
// go to the supplier listed first. A negative drift that is larger than that
// candidate continues down the shares in descending raw order so no candidate
// drops below zero.
func applyDrift(shares []roundShare, delta decimal.Decimal) {
	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return shares[order[a]].raw.GreaterThan(shares[order[b]].raw)
	})

	if delta.IsPositive() {
		top := order[0]
		shares[top].candidate = shares[top].candidate.Add(delta)
		return
	}

	owed := delta.Neg()
	for _, idx := range order {
		if !owed.IsPositive() {
			return
		}
		take := decimal.Min(owed, shares[idx].candidate)
		shares[idx].candidate = shares[idx].candidate.Sub(take)
		owed = owed.Sub(take)
	}
}

// settleResidual places a leftover that the rounds could not grant on the
// suppliers with headroom, largest goods total first.
func settleResidual(states []*supplierState, remaining decimal.Decimal) {
	order := make([]*supplierState, len(states))
	copy(order, states)
	sort.SliceStable(order, func(a, b int) bool {
		return order[a].weight.GreaterThan(order[b].weight)
	})

	for _, st := range order {
		if !remaining.IsPositive() {
			return
		}
		take := decimal.Min(remaining, st.outstanding)
		if !take.IsPositive() {
			continue
		}
		st.allocated = st.allocated.Add(take)
		st.outstanding = st.outstanding.Sub(take)
		remaining = remaining.Sub(take)
	}
}
