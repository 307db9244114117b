package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func installSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func TestDisabledProviders(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	tp, err := NewTracerProvider(ctx, TracingConfig{Enabled: false}, log)
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	tp.EnableSpanProfiles()
	assert.False(t, tp.IsSpanProfilesEnabled())
	assert.NoError(t, tp.Shutdown(ctx))

	mp, err := NewMeterProvider(ctx, MetricsConfig{Enabled: false}, log)
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(ctx))

	lp, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false}, log)
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.Shutdown(ctx))
}

func TestPipelineShutdown(t *testing.T) {
	p := newPipeline("traces", nil)
	assert.False(t, p.running())
	assert.NoError(t, p.Shutdown(context.Background()))

	calls := 0
	p.installed(func(ctx context.Context) error {
		calls++
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	})
	assert.True(t, p.running())
	require.NoError(t, p.Shutdown(context.Background()))
	assert.Equal(t, 1, calls)

	p.installed(func(context.Context) error { return errors.New("exporter unreachable") })
	assert.EqualError(t, p.Shutdown(context.Background()), "shutdown traces pipeline: exporter unreachable")
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestStartServiceSpan(t *testing.T) {
	recorder := installSpanRecorder(t)

	_, span := StartServiceSpan(context.Background(), "goods_payment", "commit", AttrStrategy.String("proportional"))
	RecordError(span, errors.New("payment exceeds outstanding"))
	span.End()

	_, ok := StartServiceSpan(context.Background(), "goods_payment", "preview")
	RecordError(ok, nil)
	SetOK(ok)
	ok.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "goods_payment.commit", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("service.method", "commit"))
	assert.Contains(t, spans[0].Attributes(), AttrStrategy.String("proportional"))
	require.Len(t, spans[0].Events(), 1)

	assert.Equal(t, "goods_payment.preview", spans[1].Name())
	assert.Equal(t, codes.Ok, spans[1].Status().Code)
}

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Sum[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok)
				return sum
			}
		}
	}
	t.Fatalf("metric %s not collected", name)
	return metricdata.Sum[int64]{}
}

func TestAllocationMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	m, err := NewAllocationMetrics(meter)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordCommitted(ctx, "proportional", 3, 100, 20*time.Millisecond)
	m.RecordCommitted(ctx, "proportional", 2, 50, 10*time.Millisecond)
	m.RecordOutcome(ctx, "proportional", OutcomeRejected, "ALLOCATION_ZERO_BASIS")

	sum := collectSum(t, reader, "goods_payment_allocations_total")
	var committed, rejected int64
	for _, dp := range sum.DataPoints {
		outcome, _ := dp.Attributes.Value(AttrOutcome)
		switch outcome.AsString() {
		case OutcomeCommitted:
			committed += dp.Value
		case OutcomeRejected:
			rejected += dp.Value
			code, ok := dp.Attributes.Value(AttrErrorCode)
			require.True(t, ok)
			assert.Equal(t, "ALLOCATION_ZERO_BASIS", code.AsString())
		}
	}
	assert.EqualValues(t, 2, committed)
	assert.EqualValues(t, 1, rejected)
}

func TestAllocationMetrics_NilSafe(t *testing.T) {
	_, err := NewAllocationMetrics(nil)
	require.Error(t, err)

	var m *AllocationMetrics
	assert.NotPanics(t, func() {
		m.RecordCommitted(context.Background(), "proportional", 1, 1, time.Millisecond)
		m.RecordOutcome(context.Background(), "proportional", OutcomePreviewed, "")
	})
}

func TestNewZapOTELCore(t *testing.T) {
	disabled := NewZapOTELCore(nil, zapcore.InfoLevel)
	assert.False(t, disabled.Enabled(zapcore.ErrorLevel))

	sdk := sdklog.NewLoggerProvider()
	lp := &LoggerProvider{pipeline: newPipeline("logs", zap.NewNop()), sdk: sdk, scope: "tradeops-backend"}
	lp.installed(sdk.Shutdown)
	require.True(t, lp.IsEnabled())
	t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })

	core := NewZapOTELCore(lp, zapcore.WarnLevel)
	require.IsType(t, &minLevelCore{}, core)
	assert.False(t, core.Enabled(zapcore.InfoLevel))

	withFields := core.With([]zapcore.Field{zap.String("tenant_id", "t-1")})
	assert.False(t, withFields.Enabled(zapcore.DebugLevel))
	assert.Nil(t, withFields.Check(zapcore.Entry{Level: zapcore.InfoLevel}, nil))
}

func TestProfiler(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())

	_, err = NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "tradeops"}, zap.NewNop())
	assert.ErrorContains(t, err, "server address")

	_, err = NewProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"}, zap.NewNop())
	assert.ErrorContains(t, err, "application name")
}

func TestSanitizeLabels(t *testing.T) {
	long := make([]byte, MaxLabelValueLength+10)
	for i := range long {
		long[i] = 'x'
	}

	pairs := sanitizeLabels(map[string]string{
		"Tenant-ID":   "t-1",
		"strategy":    "proportional",
		"request_id":  "req-1",
		"shipment_id": "s-1",
		"operation":   string(long),
		"empty":       "",
		"!!!":         "dropped",
	})

	assert.Equal(t, []string{
		"operation", string(long[:MaxLabelValueLength]),
		"strategy", "proportional",
		"tenant_id", "t-1",
	}, pairs)
	assert.Nil(t, sanitizeLabels(nil))
}

func TestWithProfilingLabels_RunsFn(t *testing.T) {
	ran := 0
	WithProfilingLabels(context.Background(), nil, func(context.Context) { ran++ })
	WithProfilingLabels(context.Background(), AllocationLabels("preview", "proportional", "t-1"), func(context.Context) { ran++ })
	assert.Equal(t, 2, ran)
}
