package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Exporter holds the OTLP/gRPC settings shared by traces, metrics and logs
type Exporter struct {
	Endpoint    string
	Insecure    bool
	ServiceName string
}

// pipeline is the lifecycle of one signal's export pipeline. stop is nil
// while the signal is disabled.
type pipeline struct {
	signal string
	log    *zap.Logger
	stop   func(context.Context) error
}

func newPipeline(signal string, log *zap.Logger) pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return pipeline{signal: signal, log: log}
}

func (p *pipeline) installed(stop func(context.Context) error, fields ...zap.Field) {
	p.stop = stop
	p.log.Info("Telemetry pipeline started", append([]zap.Field{zap.String("signal", p.signal)}, fields...)...)
}

func (p *pipeline) skipped() {
	p.log.Info("Telemetry pipeline disabled", zap.String("signal", p.signal))
}

// Shutdown flushes buffered telemetry and stops the exporter. It waits at
// most ten seconds on top of ctx.
func (p *pipeline) Shutdown(ctx context.Context) error {
	if p == nil || p.stop == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := p.stop(ctx); err != nil {
		return fmt.Errorf("shutdown %s pipeline: %w", p.signal, err)
	}
	p.log.Info("Telemetry pipeline stopped", zap.String("signal", p.signal))
	return nil
}

func (p *pipeline) running() bool {
	return p != nil && p.stop != nil
}
