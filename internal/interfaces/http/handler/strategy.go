package handler

import (
	"github.com/gin-gonic/gin"

	shipmentapp "github.com/tradeops/backend/internal/application/shipment"
)

// StrategyLister lists the registered allocation strategies
type StrategyLister interface {
	ListStrategies() []shipmentapp.StrategyResponse
}

// StrategyHandler handles strategy-related API endpoints
type StrategyHandler struct {
	BaseHandler
	lister StrategyLister
}

// NewStrategyHandler creates a new StrategyHandler
func NewStrategyHandler(lister StrategyLister) *StrategyHandler {
	return &StrategyHandler{lister: lister}
}

// ListStrategies godoc
// @ID           listAllocationStrategies
// @Summary      List allocation strategies
// @Description  Returns the registered goods payment allocation strategies, default first
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[[]shipmentapp.StrategyResponse]
// @Router       /allocation-strategies [get]
func (h *StrategyHandler) ListStrategies(c *gin.Context) {
	h.Success(c, h.lister.ListStrategies())
}
