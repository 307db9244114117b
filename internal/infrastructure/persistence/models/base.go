package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tradeops/backend/internal/domain/shared"
)

// BaseModel mirrors shared.BaseEntity
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TenantModel mirrors shared.TenantEntity; every tenant-owned row embeds it
type TenantModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
}

func tenantModelFromDomain(e shared.TenantEntity) TenantModel {
	return TenantModel{
		BaseModel: BaseModel{ID: e.ID, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt},
		TenantID:  e.TenantID,
	}
}

func (m *TenantModel) toDomain() shared.TenantEntity {
	return shared.TenantEntity{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		TenantID:   m.TenantID,
	}
}
