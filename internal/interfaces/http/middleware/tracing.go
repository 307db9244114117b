package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tradeops/backend/internal/infrastructure/telemetry"
)

type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// TracingWithConfig opens the otelgin server span, named after the route
// pattern: "GET /api/v1/shipments/:id/goods-totals".
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passthrough
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// TracingAttributeInjector goes after RequestID and TenantMiddleware
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		if span := trace.SpanFromContext(c.Request.Context()); span.IsRecording() {
			var attrs []attribute.KeyValue
			if id := getRequestID(c); id != "" {
				attrs = append(attrs, telemetry.AttrRequestID.String(id))
			}
			if id := GetTenantID(c); id != "" {
				attrs = append(attrs, telemetry.AttrTenantID.String(id))
			}
			span.SetAttributes(attrs...)
		}
		c.Next()
	}
}

var spanErrorDescriptions = map[int]string{
	http.StatusNotFound:            "Not Found",
	http.StatusConflict:            "Conflict",
	http.StatusUnprocessableEntity: "Unprocessable Entity",
}

func spanErrorDescription(status int) string {
	if status >= http.StatusInternalServerError {
		return "Internal Server Error"
	}
	if d, ok := spanErrorDescriptions[status]; ok {
		return d
	}
	return "Client Error"
}

// SpanErrorMarker fails the span of any 4xx or 5xx response. otelgin alone
// only flags 5xx.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		span := trace.SpanFromContext(c.Request.Context())
		if status < http.StatusBadRequest || !span.IsRecording() {
			return
		}
		span.SetStatus(codes.Error, spanErrorDescription(status))
		span.SetAttributes(telemetry.AttrHTTPStatusCode.Int(status))
	}
}
