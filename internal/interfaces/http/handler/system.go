package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tradeops/backend/internal/interfaces/http/dto"
)

// readyTimeout bounds the dependency checks of the readiness probe
const readyTimeout = 2 * time.Second

// Pinger is a dependency checked by the readiness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves liveness, readiness and build information
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	startTime time.Time
	db        Pinger
}

// NewSystemHandler creates a new SystemHandler. db may be nil, in which
// case readiness only reports the process as up.
func NewSystemHandler(name, version string, db Pinger) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		startTime: time.Now(),
		db:        db,
	}
}

// HealthResponse represents the liveness/readiness response
// @name HandlerHealthResponse
type HealthResponse struct {
	Status    string            `json:"status" example:"healthy"`
	Name      string            `json:"name" example:"TradeOps Backend"`
	Version   string            `json:"version" example:"1.0.0"`
	GoVersion string            `json:"go_version" example:"go1.25.5"`
	Uptime    string            `json:"uptime" example:"1h30m45s"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Health godoc
// @ID           getHealth
// @Summary      Liveness probe
// @Description  Reports that the process is serving requests
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthResponse]
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	h.Success(c, h.status("healthy", nil))
}

// Ready godoc
// @ID           getReadiness
// @Summary      Readiness probe
// @Description  Checks the database connection; returns 503 while it is unreachable
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthResponse]
// @Failure      503 {object} APIResponse[HealthResponse]
// @Router       /health/ready [get]
func (h *SystemHandler) Ready(c *gin.Context) {
	if h.db == nil {
		h.Success(c, h.status("ready", nil))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		_ = c.Error(err)
		resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeInternal, "Database is unreachable", getRequestID(c))
		resp.Data = h.status("unavailable", map[string]string{"database": err.Error()})
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	h.Success(c, h.status("ready", map[string]string{"database": "ok"}))
}

func (h *SystemHandler) status(status string, checks map[string]string) HealthResponse {
	return HealthResponse{
		Status:    status,
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    checks,
	}
}
