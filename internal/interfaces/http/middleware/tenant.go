package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tradeops/backend/internal/infrastructure/logger"
	"github.com/tradeops/backend/internal/interfaces/http/dto"
)

const (
	// TenantIDKey holds the resolved tenant ID string in the gin context
	TenantIDKey     = "tenant_id"
	TenantHeaderKey = "X-Tenant-ID"
)

type TenantMiddlewareConfig struct {
	// SubdomainEnabled reads the tenant from <tenant>.<BaseDomain> when the
	// header is absent
	SubdomainEnabled bool
	BaseDomain       string
	// SkipPaths match exactly or as a path prefix
	SkipPaths []string
	// Required rejects requests that name no tenant; otherwise handlers fall
	// back to the default tenant
	Required bool
	Logger   *zap.Logger
}

func DefaultTenantConfig() TenantMiddlewareConfig {
	return TenantMiddlewareConfig{SkipPaths: []string{"/health", "/metrics", "/swagger"}}
}

func TenantMiddleware() gin.HandlerFunc {
	return TenantMiddlewareWithConfig(DefaultTenantConfig())
}

// tenantSource names where a tenant came from, for the debug log
type tenantSource struct {
	name    string
	resolve func(c *gin.Context) string
}

// TenantMiddlewareWithConfig resolves the tenant from the X-Tenant-ID header,
// then the subdomain if enabled. The value must be a UUID. The tenant is
// stored under TenantIDKey and added to the request logger.
func TenantMiddlewareWithConfig(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	sources := []tenantSource{{"header", func(c *gin.Context) string { return c.GetHeader(TenantHeaderKey) }}}
	if cfg.SubdomainEnabled && cfg.BaseDomain != "" {
		sources = append(sources, tenantSource{"subdomain", func(c *gin.Context) string {
			return extractTenantFromSubdomain(c.Request.Host, cfg.BaseDomain)
		}})
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if skipTenant(c.Request.URL.Path, cfg.SkipPaths) {
			c.Next()
			return
		}

		var tenantID, source string
		for _, s := range sources {
			if tenantID = s.resolve(c); tenantID != "" {
				source = s.name
				break
			}
		}
		switch {
		case tenantID == "" && cfg.Required:
			respondBadTenant(c, "Tenant identification required")
			return
		case tenantID == "":
			c.Next()
			return
		case uuid.Validate(tenantID) != nil:
			respondBadTenant(c, "Invalid tenant ID format")
			return
		}

		c.Set(TenantIDKey, tenantID)
		ctx := c.Request.Context()
		ctx, _ = logger.WithTenantID(ctx, logger.FromContext(ctx), tenantID)
		c.Request = c.Request.WithContext(ctx)
		log.Debug("Tenant identified", zap.String("tenant_id", tenantID), zap.String("source", source))

		c.Next()
	}
}

func skipTenant(path string, skip []string) bool {
	for _, p := range skip {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// extractTenantFromSubdomain returns the leftmost label of a host under
// baseDomain, e.g. "acme" for "acme.tradeops.io:8080". "www" is not a tenant.
func extractTenantFromSubdomain(host, baseDomain string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	sub, ok := strings.CutSuffix(host, "."+baseDomain)
	if !ok || sub == "" {
		return ""
	}
	label, _, _ := strings.Cut(sub, ".")
	if label == "www" {
		return ""
	}
	return label
}

func respondBadTenant(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeBadRequest, message, getRequestID(c),
	))
}

// GetTenantID returns the resolved tenant, or "" when none was sent
func GetTenantID(c *gin.Context) string {
	return c.GetString(TenantIDKey)
}

// GetTenantUUID returns uuid.Nil and no error when no tenant was sent
func GetTenantUUID(c *gin.Context) (uuid.UUID, error) {
	raw := GetTenantID(c)
	if raw == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(raw)
}
