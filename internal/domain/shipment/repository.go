package shipment

import (
	"context"

	"github.com/google/uuid"

	"github.com/tradeops/backend/internal/domain/shared"
)

// ShipmentRepository persists shipments with their goods lines
type ShipmentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Shipment, error)
	Save(ctx context.Context, s *Shipment) error
}

// CommitFunc builds the payment to persist from the locked shipment and the
// allocations already recorded against it
type CommitFunc func(s *Shipment, prior []GoodsPaymentAllocation) (*GoodsPayment, error)

// GoodsPaymentRepository persists goods payments and their allocation rows
type GoodsPaymentRepository interface {
	// ListAllocations returns every allocation row recorded for the shipment
	ListAllocations(ctx context.Context, tenantID, shipmentID uuid.UUID) ([]GoodsPaymentAllocation, error)
	// ListByShipment returns a page of payments, newest first by default
	ListByShipment(ctx context.Context, tenantID, shipmentID uuid.UUID, filter shared.Filter) ([]GoodsPayment, int64, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*GoodsPayment, error)
	FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*GoodsPayment, error)
	// Commit locks the shipment, reads its prior allocations, and saves the
	// payment returned by fn in a single transaction
	Commit(ctx context.Context, tenantID, shipmentID uuid.UUID, fn CommitFunc) (*GoodsPayment, error)
}
