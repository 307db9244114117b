package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradeops/backend/internal/domain/shipment"
	"github.com/tradeops/backend/internal/infrastructure/persistence/models"
)

// GormShipmentRepository implements ShipmentRepository using GORM
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewGormShipmentRepository creates a new GormShipmentRepository
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// FindByIDForTenant loads a shipment with its goods lines in entry order
func (r *GormShipmentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*shipment.Shipment, error) {
	return findShipment(r.db.WithContext(ctx), tenantID, id)
}

// Save upserts the shipment and replaces its goods lines
func (r *GormShipmentRepository) Save(ctx context.Context, s *shipment.Shipment) error {
	m := models.ShipmentModelFromDomain(s)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("GoodsLines").Save(m).Error; err != nil {
			return translateError(err)
		}
		if err := tx.Where("shipment_id = ?", m.ID).Delete(&models.ShipmentGoodsLineModel{}).Error; err != nil {
			return err
		}
		if len(m.GoodsLines) == 0 {
			return nil
		}
		return translateError(tx.Create(&m.GoodsLines).Error)
	})
}

func findShipment(db *gorm.DB, tenantID, id uuid.UUID) (*shipment.Shipment, error) {
	var m models.ShipmentModel
	err := db.Scopes(tenantScope(tenantID)).
		Preload("GoodsLines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		}).
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// Ensure GormShipmentRepository implements ShipmentRepository
var _ shipment.ShipmentRepository = (*GormShipmentRepository)(nil)
