package shipment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradeops/backend/internal/domain/shared/valueobject"
	"github.com/tradeops/backend/internal/domain/shipment"
)

// PreviewRequest asks for an allocation without recording it.
// PaymentAmount accepts a JSON number or a numeric string.
type PreviewRequest struct {
	PaymentAmount valueobject.RawAmount `json:"paymentAmount" swaggertype:"string" example:"1000.00"`
	Strategy      string                `json:"strategy,omitempty" binding:"omitempty,max=50" example:"proportional"`
}

// CommitRequest records a goods payment. IdempotencyKey comes from the
// Idempotency-Key header, not the body.
type CommitRequest struct {
	PaymentAmount  valueobject.RawAmount `json:"paymentAmount" swaggertype:"string" example:"1000.00"`
	Strategy       string                `json:"strategy,omitempty" binding:"omitempty,max=50" example:"proportional"`
	Reference      string                `json:"reference,omitempty" binding:"omitempty,max=100" example:"TT-20240611-001"`
	IdempotencyKey string                `json:"-"`
}

// SupplierTotalResponse is one row of the per-supplier outstanding table
type SupplierTotalResponse struct {
	SupplierID  uuid.UUID       `json:"supplier_id"`
	GoodsTotal  decimal.Decimal `json:"goods_total"`
	GoodsPaid   decimal.Decimal `json:"goods_paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// TotalsResponse is the outstanding balance view of a shipment
type TotalsResponse struct {
	ShipmentID         uuid.UUID               `json:"shipment_id"`
	Currency           string                  `json:"currency"`
	Suppliers          []SupplierTotalResponse `json:"suppliers"`
	ShipmentGoodsTotal decimal.Decimal         `json:"shipment_goods_total"`
	TotalOutstanding   decimal.Decimal         `json:"total_outstanding"`
}

// AllocationLineResponse is one supplier's share in a preview, with the
// balance it had before and will have after the payment
type AllocationLineResponse struct {
	SupplierID        uuid.UUID       `json:"supplier_id"`
	AllocatedAmount   decimal.Decimal `json:"allocated_amount"`
	GoodsTotal        decimal.Decimal `json:"goods_total"`
	OutstandingBefore decimal.Decimal `json:"outstanding_before"`
	OutstandingAfter  decimal.Decimal `json:"outstanding_after"`
}

// AllocationResponse is the result of a preview
type AllocationResponse struct {
	ShipmentID           uuid.UUID                `json:"shipment_id"`
	Currency             string                   `json:"currency"`
	Strategy             string                   `json:"strategy"`
	PaymentAmount        decimal.Decimal          `json:"payment_amount"`
	Allocations          []AllocationLineResponse `json:"allocations"`
	ShipmentGoodsTotal   decimal.Decimal          `json:"shipment_goods_total"`
	TotalOutstanding     decimal.Decimal          `json:"total_outstanding"`
	RemainingOutstanding decimal.Decimal          `json:"remaining_outstanding"`
}

// PaymentAllocationResponse is a persisted allocation row
type PaymentAllocationResponse struct {
	SupplierID      uuid.UUID       `json:"supplier_id"`
	AllocatedAmount decimal.Decimal `json:"allocated_amount"`
}

// PaymentResponse is a committed goods payment. Replayed is true when the
// payment was returned for a repeated Idempotency-Key.
type PaymentResponse struct {
	ID             uuid.UUID                   `json:"id"`
	ShipmentID     uuid.UUID                   `json:"shipment_id"`
	Amount         decimal.Decimal             `json:"amount"`
	Currency       string                      `json:"currency"`
	Strategy       string                      `json:"strategy"`
	Reference      string                      `json:"reference,omitempty"`
	IdempotencyKey string                      `json:"idempotency_key,omitempty"`
	Allocations    []PaymentAllocationResponse `json:"allocations"`
	CreatedAt      time.Time                   `json:"created_at"`
	Replayed       bool                        `json:"replayed,omitempty"`
}

// SnapshotURLResponse is a time-limited link to a payment's audit snapshot
type SnapshotURLResponse struct {
	PaymentID uuid.UUID `json:"payment_id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StrategyResponse describes a registered allocation strategy
type StrategyResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsDefault   bool   `json:"is_default"`
}

// ToTotalsResponse converts a supplier table
func ToTotalsResponse(s *shipment.Shipment, totals shipment.GoodsTotals) TotalsResponse {
	suppliers := make([]SupplierTotalResponse, len(totals.Suppliers))
	for i, t := range totals.Suppliers {
		suppliers[i] = SupplierTotalResponse{
			SupplierID:  t.SupplierID,
			GoodsTotal:  t.GoodsTotal,
			GoodsPaid:   t.GoodsPaid,
			Outstanding: t.Outstanding,
		}
	}
	return TotalsResponse{
		ShipmentID:         s.ID,
		Currency:           s.Currency.String(),
		Suppliers:          suppliers,
		ShipmentGoodsTotal: totals.ShipmentGoodsTotal,
		TotalOutstanding:   totals.TotalOutstanding,
	}
}

// ToAllocationResponse converts an engine result. Lines follow the supplier
// table order and include suppliers that received nothing.
func ToAllocationResponse(s *shipment.Shipment, result *shipment.AllocationResult) AllocationResponse {
	granted := make(map[uuid.UUID]decimal.Decimal, len(result.Allocations))
	for _, a := range result.Allocations {
		granted[a.SupplierID] = a.AllocatedAmount
	}
	lines := make([]AllocationLineResponse, 0, len(result.SupplierTotals))
	for _, t := range result.SupplierTotals {
		amount := granted[t.SupplierID]
		lines = append(lines, AllocationLineResponse{
			SupplierID:        t.SupplierID,
			AllocatedAmount:   amount,
			GoodsTotal:        t.GoodsTotal,
			OutstandingBefore: t.Outstanding,
			OutstandingAfter:  t.Outstanding.Sub(amount),
		})
	}
	return AllocationResponse{
		ShipmentID:           s.ID,
		Currency:             s.Currency.String(),
		Strategy:             result.Strategy,
		PaymentAmount:        result.PaymentAmount,
		Allocations:          lines,
		ShipmentGoodsTotal:   result.ShipmentGoodsTotal,
		TotalOutstanding:     result.TotalOutstanding,
		RemainingOutstanding: result.TotalOutstanding.Sub(result.TotalAllocated()),
	}
}

// ToPaymentResponse converts a committed payment
func ToPaymentResponse(p *shipment.GoodsPayment) PaymentResponse {
	allocations := make([]PaymentAllocationResponse, len(p.Allocations))
	for i, a := range p.Allocations {
		allocations[i] = PaymentAllocationResponse{
			SupplierID:      a.SupplierID,
			AllocatedAmount: a.AllocatedAmount,
		}
	}
	return PaymentResponse{
		ID:             p.ID,
		ShipmentID:     p.ShipmentID,
		Amount:         p.Amount,
		Currency:       p.Currency.String(),
		Strategy:       p.Strategy,
		Reference:      p.Reference,
		IdempotencyKey: p.IdempotencyKey,
		Allocations:    allocations,
		CreatedAt:      p.CreatedAt,
	}
}
