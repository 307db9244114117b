package telemetry

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var attrPoolState = attribute.Key("state")

// PoolStatsFunc snapshots a database/sql pool
type PoolStatsFunc func() (sql.DBStats, error)

// RegisterPoolMetrics exposes connection pool gauges read on every metric
// collection. Unregister the returned registration before closing the pool.
func RegisterPoolMetrics(meter metric.Meter, stats PoolStatsFunc) (metric.Registration, error) {
	conns, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create gauge db_pool_connections: %w", err)
	}
	maxConns, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections allowed"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create gauge db_pool_connections_max: %w", err)
	}
	waits, err := meter.Int64ObservableCounter("db_pool_wait_total",
		metric.WithDescription("Connections waited for because the pool was exhausted"),
		metric.WithUnit("{wait}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter db_pool_wait_total: %w", err)
	}

	idle := metric.WithAttributes(attrPoolState.String("idle"))
	inUse := metric.WithAttributes(attrPoolState.String("in_use"))

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s, err := stats()
		if err != nil {
			return err
		}
		o.ObserveInt64(conns, int64(s.Idle), idle)
		o.ObserveInt64(conns, int64(s.InUse), inUse)
		o.ObserveInt64(maxConns, int64(s.MaxOpenConnections))
		o.ObserveInt64(waits, s.WaitCount)
		return nil
	}, conns, maxConns, waits)
}
