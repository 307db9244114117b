package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func swaggerRouter(cfg SwaggerConfig) *gin.Engine {
	router := gin.New()
	router.GET("/swagger/*any", SwaggerProtection(cfg), func(c *gin.Context) {
		c.String(http.StatusOK, "docs")
	})
	return router
}

func swaggerRequest(remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	req.RemoteAddr = remoteAddr
	return req
}

func TestSwaggerProtection(t *testing.T) {
	tests := []struct {
		name       string
		cfg        SwaggerConfig
		remoteAddr string
		expected   int
	}{
		{"disabled", SwaggerConfig{Enabled: false}, "10.0.0.1:1234", http.StatusNotFound},
		{"no restrictions", SwaggerConfig{Enabled: true}, "10.0.0.1:1234", http.StatusOK},
		{"ip allowed", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1"}}, "10.0.0.1:1234", http.StatusOK},
		{"ip denied", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1"}}, "10.0.0.2:1234", http.StatusForbidden},
		{"cidr allowed", SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.168.0.0/16"}}, "192.168.4.7:80", http.StatusOK},
		{"only malformed entries", SwaggerConfig{Enabled: true, AllowedIPs: []string{"bogus"}}, "10.0.0.1:1234", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			swaggerRouter(tt.cfg).ServeHTTP(w, swaggerRequest(tt.remoteAddr))
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestAllowlist(t *testing.T) {
	allow := parseAllowlist([]string{"127.0.0.1", " 10.1.0.7/24 ", "not-an-ip", "::1"})
	assert.Len(t, allow, 3)

	assert.True(t, allow.admits("127.0.0.1"))
	assert.True(t, allow.admits("::ffff:127.0.0.1"))
	assert.True(t, allow.admits("10.1.0.200"))
	assert.True(t, allow.admits("::1"))
	assert.False(t, allow.admits("10.1.1.1"))
	assert.False(t, allow.admits(""))
}
