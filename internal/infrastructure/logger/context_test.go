package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	l := zap.NewExample()
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))

	assert.NotNil(t, FromContext(context.Background()))
	wrong := context.WithValue(context.Background(), loggerKey, "not a logger")
	assert.NotNil(t, FromContext(wrong))
}

func TestWithRequestAndTenantID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	ctx, l := WithRequestID(context.Background(), zap.New(core), "req-1")
	ctx, _ = WithTenantID(ctx, l, "tenant-9")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "tenant-9", GetTenantID(ctx))

	FromContext(ctx).Info("allocating")
	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "tenant-9", fields["tenant_id"])
}

func TestGetIDs_Empty(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
	assert.Empty(t, GetTenantID(context.Background()))
}

func testSpanContext(t *testing.T) trace.SpanContext {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
}

func TestL_AddsTraceCorrelation(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx = trace.ContextWithSpanContext(ctx, testSpanContext(t))

	L(ctx).Info("with trace")

	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
}

func TestL_WithoutSpan(t *testing.T) {
	l := zap.NewNop()
	assert.Same(t, l, L(WithContext(context.Background(), l)))
}

func TestScopeFields(t *testing.T) {
	assert.Empty(t, ScopeFields(context.Background()))

	ctx, l := WithRequestID(context.Background(), zap.NewNop(), "req-1")
	ctx, _ = WithTenantID(ctx, l, "tenant-9")
	ctx = trace.ContextWithSpanContext(ctx, testSpanContext(t))

	core, recorded := observer.New(zapcore.InfoLevel)
	zap.New(core).Info("scoped", ScopeFields(ctx)...)

	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "tenant-9", fields["tenant_id"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
}
