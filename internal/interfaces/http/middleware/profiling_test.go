package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDefaultProfilingConfig(t *testing.T) {
	cfg := DefaultProfilingConfig()
	assert.True(t, cfg.Enabled)
	assert.Contains(t, cfg.SkipPaths, "/health")
	assert.Contains(t, cfg.SkipPathPrefixes, "/swagger")
}

func TestProfilingMiddleware_Labels(t *testing.T) {
	tenantID := uuid.NewString()
	labels := map[string]string{}

	router := gin.New()
	router.Use(TenantMiddleware(), Profiling())
	router.POST("/api/v1/shipments/:id/goods-payments", func(c *gin.Context) {
		pprof.ForLabels(c.Request.Context(), func(key, value string) bool {
			labels[key] = value
			return true
		})
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipments/"+uuid.NewString()+"/goods-payments", nil)
	req.Header.Set(TenantHeaderKey, tenantID)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, http.MethodPost, labels["method"])
	assert.Equal(t, "/api/v1/shipments/:id/goods-payments", labels["route"])
	assert.Equal(t, tenantID, labels["tenant_id"])
}

func TestProfilingMiddleware_SkipsAndDisabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  ProfilingConfig
		path string
	}{
		{"skip path", DefaultProfilingConfig(), "/health"},
		{"skip prefix", DefaultProfilingConfig(), "/swagger/index.html"},
		{"disabled", ProfilingConfig{Enabled: false}, "/api/v1/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var labelled bool
			router := gin.New()
			router.Use(ProfilingWithConfig(tt.cfg))
			router.GET(tt.path, func(c *gin.Context) {
				pprof.ForLabels(c.Request.Context(), func(string, string) bool {
					labelled = true
					return false
				})
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.False(t, labelled)
		})
	}
}

func TestProfilingMiddleware_ContextPreserved(t *testing.T) {
	type key struct{}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), key{}, "kept"))
		c.Next()
	}, Profiling())

	var got any
	router.GET("/api/v1/x", func(c *gin.Context) {
		got = c.Request.Context().Value(key{})
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/x", nil))
	assert.Equal(t, "kept", got)
}
