package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tradeops/backend/internal/infrastructure/telemetry"
)

type ProfilingConfig struct {
	Enabled bool
	// SkipPaths match exactly, SkipPathPrefixes by prefix
	SkipPaths        []string
	SkipPathPrefixes []string
}

// DefaultProfilingConfig leaves probes and the docs unlabelled
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:          true,
		SkipPaths:        []string{"/health", "/health/ready", "/metrics"},
		SkipPathPrefixes: []string{"/swagger"},
	}
}

func Profiling() gin.HandlerFunc {
	return ProfilingWithConfig(DefaultProfilingConfig())
}

// ProfilingWithConfig runs the rest of the chain under pprof labels for the
// method, the matched route and the tenant, so CPU samples can be sliced per
// endpoint in Pyroscope. Register it after TenantMiddleware.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passthrough
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	prefixes := cfg.SkipPathPrefixes

	skipped := func(path string) bool {
		if _, ok := skip[path]; ok {
			return true
		}
		for _, prefix := range prefixes {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		}
		return false
	}

	return func(c *gin.Context) {
		if skipped(c.Request.URL.Path) {
			c.Next()
			return
		}
		telemetry.WithProfilingLabels(c.Request.Context(), requestLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// requestLabels omits empty values; unmatched routes have no FullPath
func requestLabels(c *gin.Context) map[string]string {
	labels := map[string]string{}
	put := func(k, v string) {
		if v != "" {
			labels[k] = v
		}
	}
	put(telemetry.ProfilingLabelMethod, c.Request.Method)
	put(telemetry.ProfilingLabelRoute, c.FullPath())
	put(telemetry.ProfilingLabelTenantID, GetTenantID(c))
	return labels
}
