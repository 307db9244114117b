package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ginRequestIDKey is where the RequestID middleware leaves the request ID
const ginRequestIDKey = "request_id"

type ginOptions struct {
	skip map[string]struct{}
}

type GinOption func(*ginOptions)

// WithSkipPaths suppresses the access log line for the given paths, e.g.
// health probes. The request logger is still installed for them.
func WithSkipPaths(paths ...string) GinOption {
	return func(o *ginOptions) {
		for _, p := range paths {
			o.skip[p] = struct{}{}
		}
	}
}

// GinMiddleware installs a request-scoped logger in the request context and
// writes one access log line per request: info below 400, warn for 4xx and
// error for 5xx. Register it after the RequestID middleware.
func GinMiddleware(base *zap.Logger, opts ...GinOption) gin.HandlerFunc {
	o := ginOptions{skip: make(map[string]struct{})}
	for _, opt := range opts {
		opt(&o)
	}

	return func(c *gin.Context) {
		start := time.Now()
		req := c.Request

		ctx := req.Context()
		reqLog := base
		if id := c.GetString(ginRequestIDKey); id != "" {
			ctx, reqLog = WithRequestID(ctx, base, id)
		}
		c.Request = req.WithContext(WithContext(ctx, reqLog))

		c.Next()

		if _, skip := o.skip[req.URL.Path]; skip {
			return
		}
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.String("route", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if req.URL.RawQuery != "" {
			fields = append(fields, zap.String("query", req.URL.RawQuery))
		}
		if ua := req.UserAgent(); ua != "" {
			fields = append(fields, zap.String("user_agent", ua))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		// the handler may have added tenant scope to the request logger
		access := L(c.Request.Context())
		switch {
		case status >= http.StatusInternalServerError:
			access.Error("HTTP Request", fields...)
		case status >= http.StatusBadRequest:
			access.Warn("HTTP Request", fields...)
		default:
			access.Info("HTTP Request", fields...)
		}
	}
}

// Recovery turns a panic into a 500 and logs it with its stack
func Recovery(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			log := base.With(ScopeFields(c.Request.Context())...)
			if GetRequestID(c.Request.Context()) == "" {
				log = log.With(zap.String("request_id", c.GetString(ginRequestIDKey)))
			}
			log.Error("Panic recovered",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("panic", rec),
				zap.Stack("stacktrace"),
			)
			c.AbortWithStatus(http.StatusInternalServerError)
		}()
		c.Next()
	}
}
