package shipment

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradeops/backend/internal/domain/shared"
	"github.com/tradeops/backend/internal/domain/shared/valueobject"
)

// Status represents the lifecycle state of a shipment
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// IsValid returns true if the status is known
func (s Status) IsValid() bool {
	return s == StatusOpen || s == StatusClosed
}

// Shipment is the aggregate goods payments are made against
type Shipment struct {
	shared.TenantEntity
	ReferenceNo string
	Currency    valueobject.Currency
	Status      Status
	GoodsLines  []ShipmentGoodsLine
}

// ShipmentGoodsLine is a persisted goods line. SupplierID is nil for lines
// that are not attributed to a supplier (freight, duties and the like).
type ShipmentGoodsLine struct {
	ID          uuid.UUID
	ShipmentID  uuid.UUID
	SupplierID  *uuid.UUID
	Description string
	GoodsCost   decimal.Decimal
}

// NewShipment creates an open shipment
func NewShipment(tenantID uuid.UUID, referenceNo string, currency valueobject.Currency) (*Shipment, error) {
	referenceNo = strings.TrimSpace(referenceNo)
	if referenceNo == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidReference, "Shipment reference number cannot be empty")
	}
	currency = valueobject.CurrencyOrDefault(currency)
	if !currency.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidCurrency, "Unsupported currency: "+currency.String())
	}
	return &Shipment{
		TenantEntity: shared.NewTenantEntity(tenantID),
		ReferenceNo:  referenceNo,
		Currency:     currency,
		Status:       StatusOpen,
		GoodsLines:   make([]ShipmentGoodsLine, 0),
	}, nil
}

// AddGoodsLine appends a goods line to the shipment
func (s *Shipment) AddGoodsLine(supplierID *uuid.UUID, description string, goodsCost decimal.Decimal) error {
	if s.Status != StatusOpen {
		return shared.NewDomainError(shared.CodeShipmentClosed, "Cannot change goods lines of a closed shipment")
	}
	if goodsCost.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidAmount, "Goods cost cannot be negative")
	}
	s.GoodsLines = append(s.GoodsLines, ShipmentGoodsLine{
		ID:          uuid.New(),
		ShipmentID:  s.ID,
		SupplierID:  supplierID,
		Description: description,
		GoodsCost:   goodsCost,
	})
	s.Touch()
	return nil
}

// Close marks the shipment as closed for further goods payments
func (s *Shipment) Close() {
	s.Status = StatusClosed
	s.Touch()
}

// EnsureAcceptsPayment returns an error if goods payments can no longer be
// recorded against the shipment
func (s *Shipment) EnsureAcceptsPayment() error {
	if s.Status == StatusClosed {
		return shared.NewDomainError(shared.CodeShipmentClosed, "Shipment is closed for goods payments")
	}
	return nil
}

// AllocationLines returns the goods lines in the form the allocation engine reads
func (s *Shipment) AllocationLines() []GoodsLine {
	lines := make([]GoodsLine, 0, len(s.GoodsLines))
	for _, l := range s.GoodsLines {
		lines = append(lines, GoodsLine{
			SupplierID: l.SupplierID,
			GoodsCost:  valueobject.AmountFromDecimal(l.GoodsCost),
		})
	}
	return lines
}
