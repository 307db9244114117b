package shipment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/tradeops/backend/internal/domain/shared"
	"github.com/tradeops/backend/internal/domain/shared/strategy"
	"github.com/tradeops/backend/internal/domain/shared/valueobject"
	"github.com/tradeops/backend/internal/domain/shipment"
	"github.com/tradeops/backend/internal/infrastructure/logger"
	"github.com/tradeops/backend/internal/infrastructure/telemetry"
)

// Profiling operation names
const (
	operationPreview = "preview_allocation"
	operationCommit  = "commit_allocation"
)

// StrategyProvider resolves allocation strategies by name
type StrategyProvider interface {
	GetAllocationStrategy(name string) (shipment.AllocationStrategy, error)
	Describe() []strategy.Info
}

// AllocationService previews and commits goods payments against shipments
type AllocationService struct {
	shipmentRepo shipment.ShipmentRepository
	paymentRepo  shipment.GoodsPaymentRepository
	strategies   StrategyProvider

	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	snapshots      *SnapshotArchiver
	metrics        *telemetry.AllocationMetrics
	logger         *zap.Logger
}

// Option configures optional collaborators of the AllocationService
type Option func(*AllocationService)

// WithIdempotencyStore deduplicates in-flight commits sharing an
// Idempotency-Key. A non-positive ttl keeps the 24 hour default.
func WithIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) Option {
	return func(s *AllocationService) {
		s.idempotency = store
		if ttl > 0 {
			s.idempotencyTTL = ttl
		}
	}
}

// WithSnapshotArchiver archives every committed payment
func WithSnapshotArchiver(a *SnapshotArchiver) Option {
	return func(s *AllocationService) {
		s.snapshots = a
	}
}

// WithMetrics records allocation outcomes
func WithMetrics(m *telemetry.AllocationMetrics) Option {
	return func(s *AllocationService) {
		s.metrics = m
	}
}

// WithLogger sets the service logger
func WithLogger(l *zap.Logger) Option {
	return func(s *AllocationService) {
		s.logger = l
	}
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(
	shipmentRepo shipment.ShipmentRepository,
	paymentRepo shipment.GoodsPaymentRepository,
	strategies StrategyProvider,
	opts ...Option,
) *AllocationService {
	s := &AllocationService{
		shipmentRepo:   shipmentRepo,
		paymentRepo:    paymentRepo,
		strategies:     strategies,
		idempotencyTTL: shared.DefaultIdempotencyTTL,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetTotals returns the per-supplier outstanding table of a shipment
func (s *AllocationService) GetTotals(ctx context.Context, tenantID, shipmentID uuid.UUID) (*TotalsResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "goods_payment", "get_totals",
		telemetry.AttrShipmentID.String(shipmentID.String()))
	defer span.End()

	sh, totals, err := s.loadTotals(ctx, tenantID, shipmentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetOK(span)
	resp := ToTotalsResponse(sh, totals)
	return &resp, nil
}

// PreviewAllocation runs the allocation engine without recording anything
func (s *AllocationService) PreviewAllocation(ctx context.Context, tenantID, shipmentID uuid.UUID, req PreviewRequest) (*AllocationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "goods_payment", "preview_allocation",
		telemetry.AttrShipmentID.String(shipmentID.String()))
	defer span.End()

	amount, err := parsePaymentAmount(req.PaymentAmount)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	strat, err := s.resolveStrategy(req.Strategy)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(telemetry.AttrStrategy.String(strat.Name()))

	sh, err := s.shipmentRepo.FindByIDForTenant(ctx, tenantID, shipmentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, wrapNotFound(err, "Shipment not found")
	}
	prior, err := s.paymentRepo.ListAllocations(ctx, tenantID, shipmentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load prior allocations: %w", err)
	}

	var result *shipment.AllocationResult
	telemetry.WithProfilingLabels(ctx, telemetry.AllocationLabels(operationPreview, strat.Name(), tenantID.String()), func(context.Context) {
		result, err = shipment.AllocateWith(strat, amount, sh.AllocationLines(), shipment.PriorAllocationsFrom(prior))
	})
	if err != nil {
		s.metrics.RecordOutcome(ctx, strat.Name(), telemetry.OutcomeRejected, errorCode(err))
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.RecordOutcome(ctx, strat.Name(), telemetry.OutcomePreviewed, "")
	telemetry.SetOK(span)
	resp := ToAllocationResponse(sh, result)
	return &resp, nil
}

// CommitAllocation allocates the payment and records it with its allocation
// rows. A repeated IdempotencyKey returns the payment recorded the first time.
func (s *AllocationService) CommitAllocation(ctx context.Context, tenantID, shipmentID uuid.UUID, req CommitRequest) (*PaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "goods_payment", "commit_allocation",
		telemetry.AttrShipmentID.String(shipmentID.String()))
	defer span.End()
	log := logger.L(ctx).With(
		zap.String("shipment_id", shipmentID.String()),
		zap.String("idempotency_key", req.IdempotencyKey),
	)
	started := time.Now()

	amount, err := parsePaymentAmount(req.PaymentAmount)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	strat, err := s.resolveStrategy(req.Strategy)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(telemetry.AttrStrategy.String(strat.Name()))

	var release func()
	if req.IdempotencyKey != "" {
		replay, err := s.findReplay(ctx, tenantID, shipmentID, req.IdempotencyKey, amount)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if replay != nil {
			s.metrics.RecordOutcome(ctx, strat.Name(), telemetry.OutcomeReplayed, "")
			telemetry.SetOK(span)
			return replay, nil
		}
		if release, err = s.claimKey(ctx, tenantID, req.IdempotencyKey); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	payment, result, err := s.commit(ctx, tenantID, shipmentID, strat, amount, req)
	if err != nil {
		if release != nil {
			release()
		}
		if errors.Is(err, shared.ErrAlreadyExists) && req.IdempotencyKey != "" {
			// lost a race with a commit carrying the same key
			if replay, findErr := s.findReplay(ctx, tenantID, shipmentID, req.IdempotencyKey, amount); findErr == nil && replay != nil {
				s.metrics.RecordOutcome(ctx, strat.Name(), telemetry.OutcomeReplayed, "")
				telemetry.SetOK(span)
				return replay, nil
			}
		}
		s.metrics.RecordOutcome(ctx, strat.Name(), telemetry.OutcomeRejected, errorCode(err))
		telemetry.RecordError(span, err)
		return nil, wrapNotFound(err, "Shipment not found")
	}

	s.metrics.RecordCommitted(ctx, strat.Name(), len(payment.Allocations), payment.Amount.InexactFloat64(), time.Since(started))
	span.SetAttributes(attribute.String("payment.id", payment.ID.String()))
	log.Info("Goods payment committed",
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount", payment.Amount.StringFixed(2)),
		zap.String("strategy", payment.Strategy),
		zap.Int("suppliers", len(payment.Allocations)),
	)

	if s.snapshots != nil {
		if archiveErr := s.snapshots.Archive(ctx, payment, result); archiveErr != nil {
			log.Warn("Failed to archive goods payment snapshot",
				zap.String("payment_id", payment.ID.String()),
				zap.Error(archiveErr),
			)
		}
	}

	telemetry.SetOK(span)
	resp := ToPaymentResponse(payment)
	return &resp, nil
}

func (s *AllocationService) commit(
	ctx context.Context,
	tenantID, shipmentID uuid.UUID,
	strat shipment.AllocationStrategy,
	amount decimal.Decimal,
	req CommitRequest,
) (*shipment.GoodsPayment, *shipment.AllocationResult, error) {
	var result *shipment.AllocationResult
	payment, err := s.paymentRepo.Commit(ctx, tenantID, shipmentID, func(sh *shipment.Shipment, prior []shipment.GoodsPaymentAllocation) (*shipment.GoodsPayment, error) {
		if err := sh.EnsureAcceptsPayment(); err != nil {
			return nil, err
		}
		var allocErr error
		telemetry.WithProfilingLabels(ctx, telemetry.AllocationLabels(operationCommit, strat.Name(), tenantID.String()), func(context.Context) {
			result, allocErr = shipment.AllocateWith(strat, amount, sh.AllocationLines(), shipment.PriorAllocationsFrom(prior))
		})
		if allocErr != nil {
			return nil, allocErr
		}
		return shipment.NewGoodsPayment(sh, result, req.Reference, req.IdempotencyKey)
	})
	if err != nil {
		return nil, nil, err
	}
	return payment, result, nil
}

// ListPayments returns a page of committed payments for a shipment
func (s *AllocationService) ListPayments(ctx context.Context, tenantID, shipmentID uuid.UUID, filter shared.Filter) ([]PaymentResponse, int64, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "goods_payment", "list_payments",
		telemetry.AttrShipmentID.String(shipmentID.String()))
	defer span.End()

	if _, err := s.shipmentRepo.FindByIDForTenant(ctx, tenantID, shipmentID); err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, wrapNotFound(err, "Shipment not found")
	}
	payments, total, err := s.paymentRepo.ListByShipment(ctx, tenantID, shipmentID, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, fmt.Errorf("failed to list goods payments: %w", err)
	}

	items := make([]PaymentResponse, len(payments))
	for i := range payments {
		items[i] = ToPaymentResponse(&payments[i])
	}
	telemetry.SetOK(span)
	return items, total, nil
}

// SnapshotURL returns a presigned link to the archived snapshot of a payment
func (s *AllocationService) SnapshotURL(ctx context.Context, tenantID, shipmentID, paymentID uuid.UUID) (*SnapshotURLResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "goods_payment", "snapshot_url",
		telemetry.AttrShipmentID.String(shipmentID.String()))
	defer span.End()

	if s.snapshots == nil {
		err := shared.NewDomainError(shared.CodeSnapshotsDisabled, "Goods payment snapshots are not archived")
		telemetry.RecordError(span, err)
		return nil, err
	}
	payment, err := s.paymentRepo.FindByIDForTenant(ctx, tenantID, paymentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, wrapNotFound(err, "Goods payment not found")
	}
	if payment.ShipmentID != shipmentID {
		telemetry.RecordError(span, shared.ErrNotFound)
		return nil, shared.NewDomainError(shared.CodeNotFound, "Goods payment not found")
	}

	url, expiresAt, err := s.snapshots.URL(ctx, payment)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to sign snapshot url: %w", err)
	}
	telemetry.SetOK(span)
	return &SnapshotURLResponse{PaymentID: payment.ID, URL: url, ExpiresAt: expiresAt}, nil
}

// ListStrategies returns the registered allocation strategies, default first
func (s *AllocationService) ListStrategies() []StrategyResponse {
	infos := s.strategies.Describe()
	out := make([]StrategyResponse, len(infos))
	for i, info := range infos {
		out[i] = StrategyResponse{Name: info.Name, Description: info.Description, IsDefault: info.Default}
	}
	return out
}

func (s *AllocationService) loadTotals(ctx context.Context, tenantID, shipmentID uuid.UUID) (*shipment.Shipment, shipment.GoodsTotals, error) {
	sh, err := s.shipmentRepo.FindByIDForTenant(ctx, tenantID, shipmentID)
	if err != nil {
		return nil, shipment.GoodsTotals{}, wrapNotFound(err, "Shipment not found")
	}
	prior, err := s.paymentRepo.ListAllocations(ctx, tenantID, shipmentID)
	if err != nil {
		return nil, shipment.GoodsTotals{}, fmt.Errorf("failed to load prior allocations: %w", err)
	}
	return sh, shipment.BuildTotals(sh.AllocationLines(), shipment.PriorAllocationsFrom(prior)), nil
}

func (s *AllocationService) resolveStrategy(name string) (shipment.AllocationStrategy, error) {
	strat, err := s.strategies.GetAllocationStrategy(name)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeUnknownStrategy, fmt.Sprintf("Unknown allocation strategy: %s", name))
	}
	return strat, nil
}

// findReplay returns the payment already committed under key. A key reused
// for another shipment or another amount is a conflict.
func (s *AllocationService) findReplay(ctx context.Context, tenantID, shipmentID uuid.UUID, key string, amount decimal.Decimal) (*PaymentResponse, error) {
	existing, err := s.paymentRepo.FindByIdempotencyKey(ctx, tenantID, key)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
	}
	if existing.ShipmentID != shipmentID {
		return nil, shared.NewDomainError(shared.CodeIdempotencyKeyReused,
			"Idempotency-Key was already used for a payment on another shipment")
	}
	if !existing.Amount.Equal(valueobject.RoundMoney(amount)) {
		return nil, shared.NewDomainError(shared.CodeIdempotencyKeyReused,
			fmt.Sprintf("Idempotency-Key was already used for a payment of %s", existing.Amount.StringFixed(2)))
	}
	resp := ToPaymentResponse(existing)
	resp.Replayed = true
	return &resp, nil
}

// claimKey marks key as in flight. The returned func releases the claim and
// is nil when no store is configured.
func (s *AllocationService) claimKey(ctx context.Context, tenantID uuid.UUID, key string) (func(), error) {
	if s.idempotency == nil {
		return nil, nil
	}
	storeKey := tenantID.String() + ":" + key
	fresh, err := s.idempotency.MarkProcessed(ctx, storeKey, s.idempotencyTTL)
	if err != nil {
		// the unique index still guards duplicates when the store is down
		logger.L(ctx).Warn("Idempotency store unavailable", zap.Error(err))
		return nil, nil
	}
	if !fresh {
		return nil, shared.NewDomainError(shared.CodeRequestInProgress,
			"A payment with this Idempotency-Key is already being processed")
	}
	return func() {
		if err := s.idempotency.Release(context.WithoutCancel(ctx), storeKey); err != nil {
			logger.L(ctx).Warn("Failed to release idempotency key", zap.Error(err))
		}
	}, nil
}

func wrapNotFound(err error, message string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewDomainError(shared.CodeNotFound, message)
	}
	return err
}

// parsePaymentAmount returns the amount as sent. It must still be positive
// once rounded to cents; the engine checks and rounds it again.
func parsePaymentAmount(raw valueobject.RawAmount) (decimal.Decimal, error) {
	amount := valueobject.ParseAmountOrZero(raw)
	if !valueobject.RoundMoney(amount).IsPositive() {
		return decimal.Zero, shared.NewDomainError(shared.CodeInvalidAmount, "Payment amount must be a positive number")
	}
	return amount, nil
}

func errorCode(err error) string {
	var allocErr *shipment.AllocationError
	if errors.As(err, &allocErr) {
		return string(allocErr.Code)
	}
	return shared.CodeOf(err)
}
