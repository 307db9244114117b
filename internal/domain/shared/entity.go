package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and audit timestamps. Timestamps are UTC at
// microsecond precision so they survive a round trip through PostgreSQL.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewBaseEntity() BaseEntity {
	now := now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// Touch records a mutation
func (e *BaseEntity) Touch() {
	e.UpdatedAt = now()
}

// TenantEntity is a BaseEntity owned by one tenant
type TenantEntity struct {
	BaseEntity
	TenantID uuid.UUID
}

func NewTenantEntity(tenantID uuid.UUID) TenantEntity {
	return TenantEntity{BaseEntity: NewBaseEntity(), TenantID: tenantID}
}

func (e *TenantEntity) BelongsTo(tenantID uuid.UUID) bool {
	return e.TenantID == tenantID
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
