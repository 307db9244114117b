package shipment

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradeops/backend/internal/domain/shared"
	"github.com/tradeops/backend/internal/domain/shared/valueobject"
)

// GoodsPayment is a committed payment against a shipment's goods cost
type GoodsPayment struct {
	shared.TenantEntity
	ShipmentID     uuid.UUID
	Amount         decimal.Decimal
	Currency       valueobject.Currency
	Strategy       string
	Reference      string
	IdempotencyKey string
	Allocations    []GoodsPaymentAllocation
}

// GoodsPaymentAllocation is the persisted share of a payment for one supplier
type GoodsPaymentAllocation struct {
	ID              uuid.UUID
	PaymentID       uuid.UUID
	ShipmentID      uuid.UUID
	SupplierID      uuid.UUID
	AllocatedAmount decimal.Decimal
}

// NewGoodsPayment records an allocation result as a payment
func NewGoodsPayment(s *Shipment, result *AllocationResult, reference, idempotencyKey string) (*GoodsPayment, error) {
	if result == nil || !result.PaymentAmount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Payment amount must be positive")
	}
	if !result.TotalAllocated().Equal(result.PaymentAmount) {
		return nil, shared.NewDomainError(shared.CodeAllocationMismatch, "Allocated amounts do not add up to the payment amount")
	}

	p := &GoodsPayment{
		TenantEntity:   shared.NewTenantEntity(s.TenantID),
		ShipmentID:     s.ID,
		Amount:         result.PaymentAmount,
		Currency:       s.Currency,
		Strategy:       result.Strategy,
		Reference:      strings.TrimSpace(reference),
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
		Allocations:    make([]GoodsPaymentAllocation, 0, len(result.Allocations)),
	}
	for _, a := range result.Allocations {
		p.Allocations = append(p.Allocations, GoodsPaymentAllocation{
			ID:              uuid.New(),
			PaymentID:       p.ID,
			ShipmentID:      s.ID,
			SupplierID:      a.SupplierID,
			AllocatedAmount: a.AllocatedAmount,
		})
	}
	return p, nil
}

// PriorAllocationsFrom converts persisted allocation rows into engine input
func PriorAllocationsFrom(rows []GoodsPaymentAllocation) []PriorAllocation {
	priors := make([]PriorAllocation, 0, len(rows))
	for i := range rows {
		supplierID := rows[i].SupplierID
		priors = append(priors, PriorAllocation{
			SupplierID:      &supplierID,
			AllocatedAmount: valueobject.AmountFromDecimal(rows[i].AllocatedAmount),
		})
	}
	return priors
}
