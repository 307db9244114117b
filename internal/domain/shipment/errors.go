package shipment

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// AllocationErrorCode distinguishes the allocation failure modes
type AllocationErrorCode string

const (
	// ErrCodeZeroBasis means the shipment has no goods cost to allocate against
	ErrCodeZeroBasis AllocationErrorCode = "ZERO_BASIS"
	// ErrCodeExceedsOutstanding means the payment is larger than what is collectively owed
	ErrCodeExceedsOutstanding AllocationErrorCode = "EXCEEDS_OUTSTANDING"
)

// AllocationErrorDetails carries the figures the caller needs to render a
// message. PaymentAmount and TotalOutstanding are only set for
// ErrCodeExceedsOutstanding.
type AllocationErrorDetails struct {
	ShipmentGoodsTotal decimal.Decimal
	PaymentAmount      *decimal.Decimal
	TotalOutstanding   *decimal.Decimal
}

// Map renders the details as a flat payload
func (d AllocationErrorDetails) Map() map[string]string {
	m := map[string]string{
		"shipment_goods_total": d.ShipmentGoodsTotal.StringFixed(2),
	}
	if d.PaymentAmount != nil {
		m["payment_amount"] = amountString(*d.PaymentAmount)
	}
	if d.TotalOutstanding != nil {
		m["total_outstanding"] = d.TotalOutstanding.StringFixed(2)
	}
	return m
}

// amountString shows at least cents and any finer digits the caller sent
func amountString(d decimal.Decimal) string {
	return d.StringFixed(max(2, -d.Exponent()))
}

// AllocationError is returned when a payment cannot be allocated at all
type AllocationError struct {
	Code    AllocationErrorCode
	Message string
	Details AllocationErrorDetails
}

// Error implements the error interface
func (e *AllocationError) Error() string {
	return e.Message
}

func newZeroBasisError(shipmentGoodsTotal decimal.Decimal) *AllocationError {
	return &AllocationError{
		Code:    ErrCodeZeroBasis,
		Message: "Shipment has no goods cost to allocate against",
		Details: AllocationErrorDetails{ShipmentGoodsTotal: shipmentGoodsTotal},
	}
}

func newExceedsOutstandingError(payment decimal.Decimal, totals GoodsTotals) *AllocationError {
	outstanding := totals.TotalOutstanding
	return &AllocationError{
		Code: ErrCodeExceedsOutstanding,
		Message: fmt.Sprintf("Payment amount %s exceeds total outstanding goods balance %s",
			amountString(payment), outstanding.StringFixed(2)),
		Details: AllocationErrorDetails{
			ShipmentGoodsTotal: totals.ShipmentGoodsTotal,
			PaymentAmount:      &payment,
			TotalOutstanding:   &outstanding,
		},
	}
}

// IsZeroBasis reports whether err is a zero-basis allocation error
func IsZeroBasis(err error) bool {
	return hasCode(err, ErrCodeZeroBasis)
}

// IsExceedsOutstanding reports whether err is an exceeds-outstanding allocation error
func IsExceedsOutstanding(err error) bool {
	return hasCode(err, ErrCodeExceedsOutstanding)
}

func hasCode(err error, code AllocationErrorCode) bool {
	var allocErr *AllocationError
	return errors.As(err, &allocErr) && allocErr.Code == code
}
