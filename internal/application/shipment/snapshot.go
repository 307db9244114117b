package shipment

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradeops/backend/internal/domain/shipment"
)

// SnapshotStorage stores archived payment snapshots
type SnapshotStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// PaymentSnapshot is the audit record written for every committed payment:
// the payment itself plus the supplier table it was allocated against.
type PaymentSnapshot struct {
	Payment            PaymentResponse         `json:"payment"`
	SuppliersBefore    []SupplierTotalResponse `json:"suppliers_before"`
	ShipmentGoodsTotal decimal.Decimal         `json:"shipment_goods_total"`
	TotalOutstanding   decimal.Decimal         `json:"total_outstanding_before"`
	ArchivedAt         time.Time               `json:"archived_at"`
}

// SnapshotArchiver writes payment snapshots to object storage under
// <prefix>/<tenant>/<shipment>/<payment>.json
type SnapshotArchiver struct {
	storage   SnapshotStorage
	prefix    string
	urlExpiry time.Duration
	now       func() time.Time
}

// NewSnapshotArchiver creates a SnapshotArchiver. A zero urlExpiry means 15 minutes.
func NewSnapshotArchiver(storage SnapshotStorage, prefix string, urlExpiry time.Duration) *SnapshotArchiver {
	if urlExpiry <= 0 {
		urlExpiry = 15 * time.Minute
	}
	return &SnapshotArchiver{storage: storage, prefix: prefix, urlExpiry: urlExpiry, now: time.Now}
}

// Key returns the storage key of a payment's snapshot
func (a *SnapshotArchiver) Key(p *shipment.GoodsPayment) string {
	return path.Join(a.prefix, p.TenantID.String(), p.ShipmentID.String(), p.ID.String()+".json")
}

// Archive uploads the snapshot of a freshly committed payment
func (a *SnapshotArchiver) Archive(ctx context.Context, p *shipment.GoodsPayment, result *shipment.AllocationResult) error {
	snapshot := PaymentSnapshot{
		Payment:    ToPaymentResponse(p),
		ArchivedAt: a.now().UTC(),
	}
	if result != nil {
		snapshot.SuppliersBefore = make([]SupplierTotalResponse, len(result.SupplierTotals))
		for i, t := range result.SupplierTotals {
			snapshot.SuppliersBefore[i] = SupplierTotalResponse{
				SupplierID:  t.SupplierID,
				GoodsTotal:  t.GoodsTotal,
				GoodsPaid:   t.GoodsPaid,
				Outstanding: t.Outstanding,
			}
		}
		snapshot.ShipmentGoodsTotal = result.ShipmentGoodsTotal
		snapshot.TotalOutstanding = result.TotalOutstanding
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return a.storage.Upload(ctx, a.Key(p), data, "application/json")
}

// URL signs a download link for a payment's snapshot
func (a *SnapshotArchiver) URL(ctx context.Context, p *shipment.GoodsPayment) (string, time.Time, error) {
	return a.storage.GenerateDownloadURL(ctx, a.Key(p), a.urlExpiry)
}
