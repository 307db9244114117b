package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeops/backend/internal/domain/shared"
	"github.com/tradeops/backend/internal/domain/shipment"
	"github.com/tradeops/backend/internal/interfaces/http/dto"
	"github.com/tradeops/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name: "from context",
			setup: func(c *gin.Context) {
				c.Set(middleware.RequestIDContextKey, "ctx-request-id")
			},
			expectedID: "ctx-request-id",
		},
		{
			name: "from header when context empty",
			setup: func(c *gin.Context) {
				c.Request.Header.Set(RequestIDKey, "header-request-id")
			},
			expectedID: "header-request-id",
		},
		{
			name:       "empty when not set",
			setup:      func(c *gin.Context) {},
			expectedID: "",
		},
		{
			name: "context takes precedence over header",
			setup: func(c *gin.Context) {
				c.Set(middleware.RequestIDContextKey, "ctx-id")
				c.Request.Header.Set(RequestIDKey, "header-id")
			},
			expectedID: "ctx-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext()
			tt.setup(c)
			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestGetTenantID(t *testing.T) {
	fromMiddleware := uuid.New()
	fromHeader := uuid.New()

	tests := []struct {
		name     string
		setup    func(*gin.Context)
		expected uuid.UUID
		wantErr  bool
	}{
		{
			name: "from tenant middleware",
			setup: func(c *gin.Context) {
				c.Set(middleware.TenantIDKey, fromMiddleware.String())
				c.Request.Header.Set(middleware.TenantHeaderKey, fromHeader.String())
			},
			expected: fromMiddleware,
		},
		{
			name: "from header",
			setup: func(c *gin.Context) {
				c.Request.Header.Set(middleware.TenantHeaderKey, fromHeader.String())
			},
			expected: fromHeader,
		},
		{
			name:     "default tenant",
			setup:    func(c *gin.Context) {},
			expected: DefaultTenantID,
		},
		{
			name: "malformed header",
			setup: func(c *gin.Context) {
				c.Request.Header.Set(middleware.TenantHeaderKey, "not-a-uuid")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext()
			tt.setup(c)
			got, err := getTenantID(c)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestBaseHandler_HandleError(t *testing.T) {
	payment := decimal.NewFromInt(500)
	outstanding := decimal.NewFromInt(400)

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
		expectDetails  map[string]any
	}{
		{
			name:           "not found",
			err:            fmt.Errorf("load shipment: %w", shared.ErrNotFound),
			expectedStatus: http.StatusNotFound,
			expectedCode:   dto.ErrCodeNotFound,
		},
		{
			name:           "invalid amount",
			err:            shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be a positive number"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrCodeInvalidAmount,
		},
		{
			name:           "shipment closed",
			err:            shared.NewDomainError("SHIPMENT_CLOSED", "Shipment is closed"),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   dto.ErrCodeShipmentClosed,
		},
		{
			name:           "idempotency key reused",
			err:            shared.NewDomainError("IDEMPOTENCY_KEY_REUSED", "reused"),
			expectedStatus: http.StatusConflict,
			expectedCode:   dto.ErrCodeIdempotencyKeyReused,
		},
		{
			name: "exceeds outstanding",
			err: &shipment.AllocationError{
				Code:    shipment.ErrCodeExceedsOutstanding,
				Message: "Payment exceeds the total outstanding goods balance",
				Details: shipment.AllocationErrorDetails{
					ShipmentGoodsTotal: decimal.NewFromInt(440),
					PaymentAmount:      &payment,
					TotalOutstanding:   &outstanding,
				},
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   dto.ErrCodeAllocationExceedsOutstanding,
			expectDetails: map[string]any{
				"shipment_goods_total": "440.00",
				"payment_amount":       "500.00",
				"total_outstanding":    "400.00",
			},
		},
		{
			name: "zero basis wrapped",
			err: fmt.Errorf("allocate: %w", &shipment.AllocationError{
				Code:    shipment.ErrCodeZeroBasis,
				Message: "Shipment has no goods cost to allocate against",
			}),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   dto.ErrCodeAllocationZeroBasis,
			expectDetails:  map[string]any{"shipment_goods_total": "0.00"},
		},
		{
			name:           "unknown error",
			err:            errors.New("connection reset"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   dto.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext()
			c.Set(middleware.RequestIDContextKey, "req-1")
			h := &BaseHandler{}

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)
			body := decodeResponse(t, w)
			assert.Equal(t, false, body["success"])
			errInfo := body["error"].(map[string]any)
			assert.Equal(t, tt.expectedCode, errInfo["code"])
			assert.Equal(t, "req-1", errInfo["request_id"])
			if tt.expectDetails != nil {
				assert.Equal(t, tt.expectDetails, errInfo["details"])
			} else {
				assert.NotContains(t, errInfo, "details")
			}
		})
	}
}

func TestBaseHandler_HandleError_Nil(t *testing.T) {
	c, w := newTestContext()
	h := &BaseHandler{}
	h.HandleError(c, nil)
	assert.Equal(t, 0, w.Body.Len())
}

func TestBaseHandler_SuccessWithMeta(t *testing.T) {
	c, w := newTestContext()
	h := &BaseHandler{}

	h.SuccessWithMeta(c, []string{"a"}, 41, 2, 20)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeResponse(t, w)
	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(41), meta["total"])
	assert.Equal(t, float64(3), meta["total_pages"])
}

func TestBaseHandler_BindError(t *testing.T) {
	t.Run("oversized body", func(t *testing.T) {
		c, w := newTestContext()
		(&BaseHandler{}).BindError(c, fmt.Errorf("decode: %w", &http.MaxBytesError{Limit: 1024}))

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		body := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodePayloadTooLarge, body["error"].(map[string]any)["code"])
	})

	t.Run("malformed json", func(t *testing.T) {
		c, w := newTestContext()
		(&BaseHandler{}).BindError(c, errors.New("unexpected EOF"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeInvalidJSON, body["error"].(map[string]any)["code"])
	})
}
