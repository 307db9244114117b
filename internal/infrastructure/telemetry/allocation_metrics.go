package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Allocation outcomes recorded on goods_payment_allocations_total.
const (
	OutcomeCommitted = "committed"
	OutcomeReplayed  = "replayed"
	OutcomeRejected  = "rejected"
	OutcomePreviewed = "previewed"
)

// AllocationMetrics records goods payment allocation activity.
type AllocationMetrics struct {
	allocations metric.Int64Counter
	duration    metric.Float64Histogram
	amount      metric.Float64Histogram
}

// NewAllocationMetrics registers the allocation instruments on meter.
func NewAllocationMetrics(meter metric.Meter) (*AllocationMetrics, error) {
	if meter == nil {
		return nil, fmt.Errorf("NewAllocationMetrics: meter cannot be nil")
	}

	allocations, err := NewCounter(meter,
		"goods_payment_allocations_total",
		"Goods payment allocation requests by strategy and outcome",
		"{allocation}",
	)
	if err != nil {
		return nil, err
	}

	duration, err := NewHistogram(meter,
		"goods_payment_allocation_duration_seconds",
		"Time spent computing and persisting an allocation",
		"s",
		ServiceLatencyBuckets...,
	)
	if err != nil {
		return nil, err
	}

	amount, err := NewHistogram(meter,
		"goods_payment_amount",
		"Committed goods payment amounts",
		"{currency}",
	)
	if err != nil {
		return nil, err
	}

	return &AllocationMetrics{allocations: allocations, duration: duration, amount: amount}, nil
}

// RecordCommitted records a newly committed payment.
func (m *AllocationMetrics) RecordCommitted(ctx context.Context, strategy string, suppliers int, amount float64, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(AttrStrategy.String(strategy), AttrOutcome.String(OutcomeCommitted))
	m.allocations.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
	m.amount.Record(ctx, amount, metric.WithAttributes(AttrStrategy.String(strategy), AttrSuppliers.Int(suppliers)))
}

// RecordOutcome counts an allocation request that did not create a payment.
// code is empty unless outcome is OutcomeRejected.
func (m *AllocationMetrics) RecordOutcome(ctx context.Context, strategy, outcome, code string) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{AttrStrategy.String(strategy), AttrOutcome.String(outcome)}
	if code != "" {
		attrs = append(attrs, AttrErrorCode.String(code))
	}
	m.allocations.Add(ctx, 1, metric.WithAttributes(attrs...))
}
