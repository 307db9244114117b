package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradeops/backend/internal/domain/shared"
	"github.com/tradeops/backend/internal/domain/shipment"
	"github.com/tradeops/backend/internal/infrastructure/persistence/models"
)

// GormGoodsPaymentRepository implements GoodsPaymentRepository using GORM
type GormGoodsPaymentRepository struct {
	db *gorm.DB
}

// NewGormGoodsPaymentRepository creates a new GormGoodsPaymentRepository
func NewGormGoodsPaymentRepository(db *gorm.DB) *GormGoodsPaymentRepository {
	return &GormGoodsPaymentRepository{db: db}
}

// ListAllocations returns every allocation row recorded against the shipment
func (r *GormGoodsPaymentRepository) ListAllocations(ctx context.Context, tenantID, shipmentID uuid.UUID) ([]shipment.GoodsPaymentAllocation, error) {
	return listAllocations(r.db.WithContext(ctx), tenantID, shipmentID)
}

// ListByShipment returns a page of payments with their allocation rows
func (r *GormGoodsPaymentRepository) ListByShipment(ctx context.Context, tenantID, shipmentID uuid.UUID, filter shared.Filter) ([]shipment.GoodsPayment, int64, error) {
	filter = filter.Normalize()
	query := r.db.WithContext(ctx).
		Model(&models.GoodsPaymentModel{}).
		Scopes(tenantScope(tenantID)).
		Where("shipment_id = ?", shipmentID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.GoodsPaymentModel
	err := query.
		Preload("Allocations").
		Order("created_at " + strings.ToUpper(filter.OrderDir)).
		Order("id").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	payments := make([]shipment.GoodsPayment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments, total, nil
}

// FindByIDForTenant loads one payment with its allocation rows
func (r *GormGoodsPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*shipment.GoodsPayment, error) {
	var m models.GoodsPaymentModel
	err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Preload("Allocations").
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByIdempotencyKey returns the payment committed under key
func (r *GormGoodsPaymentRepository) FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*shipment.GoodsPayment, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, shared.ErrNotFound
	}
	var m models.GoodsPaymentModel
	err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Preload("Allocations").
		Where("idempotency_key = ?", key).
		First(&m).Error
	if err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// Commit locks the shipment row, hands its prior allocations to fn, and
// inserts the returned payment. Concurrent commits on the same shipment
// serialize on the row lock, so each sees the other's allocations.
func (r *GormGoodsPaymentRepository) Commit(ctx context.Context, tenantID, shipmentID uuid.UUID, fn shipment.CommitFunc) (*shipment.GoodsPayment, error) {
	var payment *shipment.GoodsPayment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := findShipment(tx.Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, shipmentID)
		if err != nil {
			return err
		}
		prior, err := listAllocations(tx, tenantID, shipmentID)
		if err != nil {
			return err
		}
		p, err := fn(s, prior)
		if err != nil {
			return err
		}
		if err := tx.Create(models.GoodsPaymentModelFromDomain(p)).Error; err != nil {
			return translateError(err)
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func listAllocations(db *gorm.DB, tenantID, shipmentID uuid.UUID) ([]shipment.GoodsPaymentAllocation, error) {
	var rows []models.GoodsPaymentAllocationModel
	err := db.Scopes(tenantScope(tenantID)).
		Where("shipment_id = ?", shipmentID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	allocations := make([]shipment.GoodsPaymentAllocation, len(rows))
	for i := range rows {
		allocations[i] = rows[i].ToDomain()
	}
	return allocations, nil
}

// Ensure GormGoodsPaymentRepository implements GoodsPaymentRepository
var _ shipment.GoodsPaymentRepository = (*GormGoodsPaymentRepository)(nil)
