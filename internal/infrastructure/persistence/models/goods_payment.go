package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradeops/backend/internal/domain/shared/valueobject"
	"github.com/tradeops/backend/internal/domain/shipment"
)

// GoodsPaymentModel is the persistence model for a committed goods payment.
type GoodsPaymentModel struct {
	TenantModel
	ShipmentID     uuid.UUID                     `gorm:"type:uuid;not null;index"`
	Amount         decimal.Decimal               `gorm:"type:decimal(18,2);not null"`
	Currency       string                        `gorm:"type:varchar(3);not null;default:'CNY'"`
	Strategy       string                        `gorm:"type:varchar(50);not null"`
	Reference      string                        `gorm:"type:varchar(100);not null;default:''"`
	IdempotencyKey string                        `gorm:"type:varchar(128);not null;default:''"`
	Allocations    []GoodsPaymentAllocationModel `gorm:"foreignKey:PaymentID;references:ID"`
}

// TableName returns the table name for GORM
func (GoodsPaymentModel) TableName() string {
	return "goods_payments"
}

// ToDomain converts the model, including loaded allocations, to the entity.
func (m *GoodsPaymentModel) ToDomain() *shipment.GoodsPayment {
	p := &shipment.GoodsPayment{
		TenantEntity:   m.toDomain(),
		ShipmentID:     m.ShipmentID,
		Amount:         m.Amount,
		Currency:       valueobject.Currency(m.Currency),
		Strategy:       m.Strategy,
		Reference:      m.Reference,
		IdempotencyKey: m.IdempotencyKey,
		Allocations:    make([]shipment.GoodsPaymentAllocation, len(m.Allocations)),
	}
	for i := range m.Allocations {
		p.Allocations[i] = m.Allocations[i].ToDomain()
	}
	return p
}

// GoodsPaymentModelFromDomain builds the model with its allocation rows.
func GoodsPaymentModelFromDomain(p *shipment.GoodsPayment) *GoodsPaymentModel {
	m := &GoodsPaymentModel{
		TenantModel:    tenantModelFromDomain(p.TenantEntity),
		ShipmentID:     p.ShipmentID,
		Amount:         p.Amount,
		Currency:       p.Currency.String(),
		Strategy:       p.Strategy,
		Reference:      p.Reference,
		IdempotencyKey: p.IdempotencyKey,
		Allocations:    make([]GoodsPaymentAllocationModel, len(p.Allocations)),
	}
	for i, a := range p.Allocations {
		m.Allocations[i] = GoodsPaymentAllocationModel{
			ID:              a.ID,
			TenantID:        p.TenantID,
			PaymentID:       p.ID,
			ShipmentID:      a.ShipmentID,
			SupplierID:      a.SupplierID,
			AllocatedAmount: a.AllocatedAmount,
			CreatedAt:       p.CreatedAt,
		}
	}
	return m
}

// GoodsPaymentAllocationModel is one supplier's share of a payment. TenantID
// and ShipmentID are denormalized so prior allocations load without a join.
type GoodsPaymentAllocationModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_allocations_shipment,priority:1"`
	PaymentID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ShipmentID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_allocations_shipment,priority:2"`
	SupplierID      uuid.UUID       `gorm:"type:uuid;not null"`
	AllocatedAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (GoodsPaymentAllocationModel) TableName() string {
	return "goods_payment_allocations"
}

// ToDomain converts the model to a domain allocation row.
func (m *GoodsPaymentAllocationModel) ToDomain() shipment.GoodsPaymentAllocation {
	return shipment.GoodsPaymentAllocation{
		ID:              m.ID,
		PaymentID:       m.PaymentID,
		ShipmentID:      m.ShipmentID,
		SupplierID:      m.SupplierID,
		AllocatedAmount: m.AllocatedAmount,
	}
}
