package middleware

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/tradeops/backend/internal/infrastructure/telemetry"
)

// responseSizeBuckets reach 5MB for workbook exports
var responseSizeBuckets = []float64{100, 500, 1e3, 5e3, 1e4, 5e4, 1e5, 5e5, 1e6, 5e6}

type HTTPMetricsConfig struct {
	MeterProvider *telemetry.MeterProvider
	Enabled       bool
}

type httpRecorder struct {
	requests metric.Int64Counter
	latency  metric.Float64Histogram
	size     metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
}

func newHTTPRecorder(meter metric.Meter) (*httpRecorder, error) {
	var r httpRecorder
	var errs []error
	var err error

	r.requests, err = telemetry.NewCounter(meter,
		"http_server_request_total", "Total number of HTTP requests", "{request}")
	errs = append(errs, err)
	r.latency, err = telemetry.NewHistogram(meter,
		"http_server_request_duration_seconds", "HTTP request latency distribution in seconds", "s",
		telemetry.HTTPLatencyBuckets...)
	errs = append(errs, err)
	r.size, err = telemetry.NewHistogram(meter,
		"http_server_response_size_bytes", "HTTP response body size distribution in bytes", "By",
		responseSizeBuckets...)
	errs = append(errs, err)
	r.inFlight, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("Number of currently active HTTP requests"),
		metric.WithUnit("{request}"))
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &r, nil
}

// observe records one finished request. Series are keyed by route pattern,
// never by raw path.
func (r *httpRecorder) observe(c *gin.Context, elapsed time.Duration) {
	ctx := c.Request.Context()
	route := []attribute.KeyValue{
		telemetry.AttrHTTPMethod.String(c.Request.Method),
		telemetry.AttrHTTPRoute.String(routePattern(c)),
	}

	counted := append(route, telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))
	if tenantID := GetTenantID(c); tenantID != "" {
		counted = append(counted, telemetry.AttrTenantID.String(tenantID))
	}
	r.requests.Add(ctx, 1, metric.WithAttributes(counted...))

	byRoute := metric.WithAttributes(route...)
	r.latency.Record(ctx, elapsed.Seconds(), byRoute)
	if size := c.Writer.Size(); size > 0 {
		r.size.Record(ctx, float64(size), byRoute)
	}
}

// HTTPMetrics collects request count, latency, response size and in-flight
// requests from the provider's "http.server" meter
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.MeterProvider == nil || !cfg.MeterProvider.IsEnabled() {
		return passthrough
	}
	return HTTPMetricsWithMeter(cfg.MeterProvider.Meter("http.server"), true)
}

func HTTPMetricsWithMeter(meter metric.Meter, enabled bool) gin.HandlerFunc {
	if !enabled {
		return passthrough
	}
	rec, err := newHTTPRecorder(meter)
	if err != nil {
		return passthrough
	}

	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()
		rec.inFlight.Add(ctx, 1)
		defer rec.inFlight.Add(ctx, -1)

		c.Next()
		rec.observe(c, time.Since(start))
	}
}

func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}

func passthrough(c *gin.Context) {
	c.Next()
}
