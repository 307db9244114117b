package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shipmentapp "github.com/tradeops/backend/internal/application/shipment"
	"github.com/tradeops/backend/internal/interfaces/http/handler"
	"github.com/tradeops/backend/internal/interfaces/http/middleware"
)

type strategyList []shipmentapp.StrategyResponse

func (l strategyList) ListStrategies() []shipmentapp.StrategyResponse { return l }

func routeSet(engine *gin.Engine) map[string]bool {
	set := make(map[string]bool)
	for _, route := range engine.Routes() {
		set[route.Method+" "+route.Path] = true
	}
	return set
}

func TestShipmentRoutes(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.Register(ShipmentRoutes(handler.NewGoodsPaymentHandler(nil)))
	r.Setup()

	routes := routeSet(engine)
	for _, want := range []string{
		"GET /api/v1/shipments/:id/goods-totals",
		"POST /api/v1/shipments/:id/goods-allocations/preview",
		"POST /api/v1/shipments/:id/goods-payments",
		"GET /api/v1/shipments/:id/goods-payments",
		"GET /api/v1/shipments/:id/goods-payments/export",
		"GET /api/v1/shipments/:id/goods-payments/:paymentId/snapshot",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}
	assert.Len(t, routes, 6)
}

func TestStrategyRoutes(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.Register(StrategyRoutes(handler.NewStrategyHandler(strategyList{
		{Name: "proportional", IsDefault: true},
	})))
	r.Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/allocation-strategies", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool                           `json:"success"`
		Data    []shipmentapp.StrategyResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "proportional", body.Data[0].Name)
}

func TestRegisterSystemRoutes(t *testing.T) {
	engine := gin.New()
	RegisterSystemRoutes(engine, handler.NewSystemHandler("TradeOps Backend", "test", nil))

	for _, path := range []string{"/health", "/health/ready"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRegisterSwagger_Disabled(t *testing.T) {
	engine := gin.New()
	RegisterSwagger(engine, middleware.SwaggerConfig{Enabled: false})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
