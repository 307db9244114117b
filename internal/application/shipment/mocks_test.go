package shipment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/tradeops/backend/internal/domain/shared"
	"github.com/tradeops/backend/internal/domain/shipment"
)

// MockShipmentRepository is a mock implementation of shipment.ShipmentRepository
type MockShipmentRepository struct {
	mock.Mock
}

func (m *MockShipmentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*shipment.Shipment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipment.Shipment), args.Error(1)
}

func (m *MockShipmentRepository) Save(ctx context.Context, s *shipment.Shipment) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// MockGoodsPaymentRepository is a mock implementation of
// shipment.GoodsPaymentRepository. Commit is stubbed with the locked shipment
// and the prior rows to hand to the callback.
type MockGoodsPaymentRepository struct {
	mock.Mock
}

func (m *MockGoodsPaymentRepository) ListAllocations(ctx context.Context, tenantID, shipmentID uuid.UUID) ([]shipment.GoodsPaymentAllocation, error) {
	args := m.Called(ctx, tenantID, shipmentID)
	return args.Get(0).([]shipment.GoodsPaymentAllocation), args.Error(1)
}

func (m *MockGoodsPaymentRepository) ListByShipment(ctx context.Context, tenantID, shipmentID uuid.UUID, filter shared.Filter) ([]shipment.GoodsPayment, int64, error) {
	args := m.Called(ctx, tenantID, shipmentID, filter)
	return args.Get(0).([]shipment.GoodsPayment), args.Get(1).(int64), args.Error(2)
}

func (m *MockGoodsPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*shipment.GoodsPayment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipment.GoodsPayment), args.Error(1)
}

func (m *MockGoodsPaymentRepository) FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*shipment.GoodsPayment, error) {
	args := m.Called(ctx, tenantID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipment.GoodsPayment), args.Error(1)
}

func (m *MockGoodsPaymentRepository) Commit(ctx context.Context, tenantID, shipmentID uuid.UUID, fn shipment.CommitFunc) (*shipment.GoodsPayment, error) {
	args := m.Called(ctx, tenantID, shipmentID)
	if err := args.Error(2); err != nil {
		return nil, err
	}
	return fn(args.Get(0).(*shipment.Shipment), args.Get(1).([]shipment.GoodsPaymentAllocation))
}

// fakeSnapshotStorage keeps uploads in memory
type fakeSnapshotStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
}

func newFakeSnapshotStorage() *fakeSnapshotStorage {
	return &fakeSnapshotStorage{objects: make(map[string][]byte)}
}

func (f *fakeSnapshotStorage) Upload(_ context.Context, key string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.objects[key] = data
	return nil
}

func (f *fakeSnapshotStorage) GenerateDownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[key]; !ok {
		return "", time.Time{}, errors.New("no such object")
	}
	return "https://snapshots.test/" + key, time.Now().Add(expiresIn), nil
}

func (f *fakeSnapshotStorage) object(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	return data, ok
}
