package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradeops/backend/internal/domain/shared/valueobject"
	"github.com/tradeops/backend/internal/domain/shipment"
)

// ShipmentModel is the persistence model for the Shipment aggregate.
type ShipmentModel struct {
	TenantModel
	ReferenceNo string                   `gorm:"type:varchar(50);not null"`
	Currency    string                   `gorm:"type:varchar(3);not null;default:'CNY'"`
	Status      shipment.Status          `gorm:"type:varchar(20);not null;default:'OPEN'"`
	GoodsLines  []ShipmentGoodsLineModel `gorm:"foreignKey:ShipmentID;references:ID"`
}

// TableName returns the table name for GORM
func (ShipmentModel) TableName() string {
	return "shipments"
}

// ToDomain converts the model, including loaded goods lines, to the entity.
func (m *ShipmentModel) ToDomain() *shipment.Shipment {
	s := &shipment.Shipment{
		TenantEntity: m.toDomain(),
		ReferenceNo:  m.ReferenceNo,
		Currency:     valueobject.Currency(m.Currency),
		Status:       m.Status,
		GoodsLines:   make([]shipment.ShipmentGoodsLine, len(m.GoodsLines)),
	}
	for i := range m.GoodsLines {
		s.GoodsLines[i] = m.GoodsLines[i].ToDomain()
	}
	return s
}

// ShipmentModelFromDomain builds the model; goods lines are numbered in slice order.
func ShipmentModelFromDomain(s *shipment.Shipment) *ShipmentModel {
	m := &ShipmentModel{
		TenantModel: tenantModelFromDomain(s.TenantEntity),
		ReferenceNo: s.ReferenceNo,
		Currency:    s.Currency.String(),
		Status:      s.Status,
		GoodsLines:  make([]ShipmentGoodsLineModel, len(s.GoodsLines)),
	}
	for i, l := range s.GoodsLines {
		m.GoodsLines[i] = ShipmentGoodsLineModel{
			ID:          l.ID,
			ShipmentID:  s.ID,
			LineNo:      i + 1,
			SupplierID:  l.SupplierID,
			Description: l.Description,
			GoodsCost:   l.GoodsCost,
			CreatedAt:   s.CreatedAt,
			UpdatedAt:   s.UpdatedAt,
		}
	}
	return m
}

// ShipmentGoodsLineModel is the persistence model for a goods line. LineNo
// preserves entry order, which decides supplier ordering in allocations.
type ShipmentGoodsLineModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	ShipmentID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_goods_lines_shipment_line,priority:1"`
	LineNo      int             `gorm:"not null;uniqueIndex:idx_goods_lines_shipment_line,priority:2"`
	SupplierID  *uuid.UUID      `gorm:"type:uuid;index"`
	Description string          `gorm:"type:varchar(500);not null;default:''"`
	GoodsCost   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ShipmentGoodsLineModel) TableName() string {
	return "shipment_goods_lines"
}

// ToDomain converts the model to a domain goods line.
func (m *ShipmentGoodsLineModel) ToDomain() shipment.ShipmentGoodsLine {
	return shipment.ShipmentGoodsLine{
		ID:          m.ID,
		ShipmentID:  m.ShipmentID,
		SupplierID:  m.SupplierID,
		Description: m.Description,
		GoodsCost:   m.GoodsCost,
	}
}
