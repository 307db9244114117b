package middleware

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tradeops/backend/internal/interfaces/http/dto"
)

type SwaggerConfig struct {
	Enabled bool
	// AllowedIPs holds addresses or CIDR prefixes; empty admits every client
	AllowedIPs []string
}

// SwaggerProtection answers 404 while the docs are disabled and 403 to
// clients outside the allowlist. Malformed allowlist entries are ignored.
func SwaggerProtection(cfg SwaggerConfig) gin.HandlerFunc {
	allow := parseAllowlist(cfg.AllowedIPs)
	restricted := len(cfg.AllowedIPs) > 0

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.AbortWithStatusJSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeNotFound, "API documentation is not available", getRequestID(c),
			))
			return
		}
		if restricted && !allow.admits(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Access to API documentation is restricted", getRequestID(c),
			))
			return
		}
		c.Next()
	}
}

type allowlist []netip.Prefix

// parseAllowlist turns bare addresses into single-host prefixes
func parseAllowlist(entries []string) allowlist {
	var out allowlist
	for _, raw := range entries {
		raw = strings.TrimSpace(raw)
		if strings.Contains(raw, "/") {
			if p, err := netip.ParsePrefix(raw); err == nil {
				out = append(out, p.Masked())
			}
			continue
		}
		if addr, err := netip.ParseAddr(raw); err == nil {
			addr = addr.Unmap()
			out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return out
}

func (a allowlist) admits(clientIP string) bool {
	addr, err := netip.ParseAddr(clientIP)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range a {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
