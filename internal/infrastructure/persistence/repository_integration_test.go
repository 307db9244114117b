//go:build integration

package persistence

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"

	_ "github.com/lib/pq"

	"github.com/tradeops/backend/internal/domain/shipment"
	"github.com/tradeops/backend/internal/infrastructure/migration"
)

func migrationsDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
}

func setupPostgres(t *testing.T) *Database {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("tradeops_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	migrationDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	migrator, err := migration.New(migrationDB, migrationsDir(t), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	require.NoError(t, migrator.Close())

	db, err := Open(postgres.Open(dsn), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestIntegration_ConcurrentCommitsNeverOverpay(t *testing.T) {
	db := setupPostgres(t)
	shipments := NewGormShipmentRepository(db.DB)
	repo := NewGormGoodsPaymentRepository(db.DB)
	ctx := context.Background()
	tenantID := uuid.New()
	supplierA, supplierB := uuid.New(), uuid.New()

	s := newTestShipment(t, tenantID, line(&supplierA, "100"), line(&supplierB, "200"))
	require.NoError(t, shipments.Save(ctx, s))

	const workers = 4
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Commit(ctx, tenantID, s.ID, allocateProportional("200"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				committed++
			case shipment.IsExceedsOutstanding(err):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, committed)
	assert.Equal(t, workers-1, rejected)

	rows, err := repo.ListAllocations(ctx, tenantID, s.ID)
	require.NoError(t, err)
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.AllocatedAmount)
	}
	assert.True(t, total.Equal(decimal.NewFromInt(200)), "got %s", total)
}

func TestIntegration_DuplicateIdempotencyKey(t *testing.T) {
	db := setupPostgres(t)
	shipments := NewGormShipmentRepository(db.DB)
	repo := NewGormGoodsPaymentRepository(db.DB)
	ctx := context.Background()
	tenantID := uuid.New()
	supplier := uuid.New()

	s := newTestShipment(t, tenantID, line(&supplier, "100"))
	require.NoError(t, shipments.Save(ctx, s))

	commit := func(s *shipment.Shipment, prior []shipment.GoodsPaymentAllocation) (*shipment.GoodsPayment, error) {
		result, err := shipment.Allocate(decimal.NewFromInt(5), s.AllocationLines(), shipment.PriorAllocationsFrom(prior))
		if err != nil {
			return nil, err
		}
		return shipment.NewGoodsPayment(s, result, "", "dup")
	}

	_, err := repo.Commit(ctx, tenantID, s.ID, commit)
	require.NoError(t, err)
	_, err = repo.Commit(ctx, tenantID, s.ID, commit)
	assert.Error(t, err)

	found, err := repo.FindByIdempotencyKey(ctx, tenantID, "dup")
	require.NoError(t, err)
	assert.True(t, found.Amount.Equal(decimal.NewFromInt(5)))
}
