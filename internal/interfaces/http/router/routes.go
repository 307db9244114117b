package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/tradeops/backend/internal/interfaces/http/handler"
	"github.com/tradeops/backend/internal/interfaces/http/middleware"
)

// ShipmentRoutes groups the goods payment endpoints nested under a shipment
func ShipmentRoutes(h *handler.GoodsPaymentHandler) *Group {
	shipments := NewGroup("/shipments/:id")
	shipments.GET("/goods-totals", h.GetTotals)
	shipments.POST("/goods-allocations/preview", h.Preview)

	payments := shipments.Group("/goods-payments")
	payments.POST("", h.Commit)
	payments.GET("", h.ListPayments)
	payments.GET("/export", h.Export)
	payments.GET("/:paymentId/snapshot", h.SnapshotURL)

	return shipments
}

// StrategyRoutes exposes the allocation strategy catalogue
func StrategyRoutes(h *handler.StrategyHandler) *Group {
	return NewGroup("/allocation-strategies").
		GET("", h.ListStrategies)
}

// RegisterSystemRoutes mounts the probes outside API versioning
func RegisterSystemRoutes(engine *gin.Engine, h *handler.SystemHandler) {
	engine.GET("/health", h.Health)
	engine.GET("/health/ready", h.Ready)
}

// RegisterSwagger mounts the API documentation behind SwaggerProtection.
func RegisterSwagger(engine *gin.Engine, cfg middleware.SwaggerConfig) {
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)
}
