package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	shipmentapp "github.com/tradeops/backend/internal/application/shipment"
	"github.com/tradeops/backend/internal/domain/shared"
	"github.com/tradeops/backend/internal/interfaces/http/dto"
)

// IdempotencyKeyHeader carries the client-chosen deduplication key for commits
const IdempotencyKeyHeader = "Idempotency-Key"

// maxIdempotencyKeyLength matches goods_payments.idempotency_key VARCHAR(128)
const maxIdempotencyKeyLength = 128

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GoodsPaymentService is the application surface used by GoodsPaymentHandler
type GoodsPaymentService interface {
	GetTotals(ctx context.Context, tenantID, shipmentID uuid.UUID) (*shipmentapp.TotalsResponse, error)
	PreviewAllocation(ctx context.Context, tenantID, shipmentID uuid.UUID, req shipmentapp.PreviewRequest) (*shipmentapp.AllocationResponse, error)
	CommitAllocation(ctx context.Context, tenantID, shipmentID uuid.UUID, req shipmentapp.CommitRequest) (*shipmentapp.PaymentResponse, error)
	ListPayments(ctx context.Context, tenantID, shipmentID uuid.UUID, filter shared.Filter) ([]shipmentapp.PaymentResponse, int64, error)
	ExportPayments(ctx context.Context, tenantID, shipmentID uuid.UUID) ([]byte, error)
	SnapshotURL(ctx context.Context, tenantID, shipmentID, paymentID uuid.UUID) (*shipmentapp.SnapshotURLResponse, error)
}

// GoodsPaymentHandler serves the shipment goods payment endpoints
type GoodsPaymentHandler struct {
	BaseHandler
	service GoodsPaymentService
}

// NewGoodsPaymentHandler creates a new GoodsPaymentHandler
func NewGoodsPaymentHandler(service GoodsPaymentService) *GoodsPaymentHandler {
	return &GoodsPaymentHandler{service: service}
}

// GetTotals godoc
// @ID           getShipmentGoodsTotals
// @Summary      Get goods outstanding per supplier
// @Description  Returns each supplier's goods total, amount already paid and outstanding balance
// @Tags         goods-payments
// @Produce      json
// @Param        id          path   string true  "Shipment ID" format(uuid)
// @Param        X-Tenant-ID header string false "Tenant ID"
// @Success      200 {object} APIResponse[shipmentapp.TotalsResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /shipments/{id}/goods-totals [get]
func (h *GoodsPaymentHandler) GetTotals(c *gin.Context) {
	tenantID, shipmentID, ok := h.scope(c)
	if !ok {
		return
	}

	totals, err := h.service.GetTotals(c.Request.Context(), tenantID, shipmentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, totals)
}

// Preview godoc
// @ID           previewShipmentGoodsAllocation
// @Summary      Preview a goods payment allocation
// @Description  Splits a payment across the shipment's suppliers without recording anything
// @Tags         goods-payments
// @Accept       json
// @Produce      json
// @Param        id          path   string                     true  "Shipment ID" format(uuid)
// @Param        X-Tenant-ID header string                     false "Tenant ID"
// @Param        request     body   shipmentapp.PreviewRequest true  "Payment to allocate"
// @Success      200 {object} APIResponse[shipmentapp.AllocationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /shipments/{id}/goods-allocations/preview [post]
func (h *GoodsPaymentHandler) Preview(c *gin.Context) {
	tenantID, shipmentID, ok := h.scope(c)
	if !ok {
		return
	}

	var req shipmentapp.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.service.PreviewAllocation(c.Request.Context(), tenantID, shipmentID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Commit godoc
// @ID           commitShipmentGoodsPayment
// @Summary      Record a goods payment
// @Description  Allocates a payment across the shipment's suppliers and records it.
// @Description  Repeating a request with the same Idempotency-Key returns the stored payment with 200.
// @Tags         goods-payments
// @Accept       json
// @Produce      json
// @Param        id              path   string                    true  "Shipment ID" format(uuid)
// @Param        X-Tenant-ID     header string                    false "Tenant ID"
// @Param        Idempotency-Key header string                    false "Client deduplication key"
// @Param        request         body   shipmentapp.CommitRequest true  "Payment to record"
// @Success      201 {object} APIResponse[shipmentapp.PaymentResponse]
// @Success      200 {object} APIResponse[shipmentapp.PaymentResponse] "Replayed payment"
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /shipments/{id}/goods-payments [post]
func (h *GoodsPaymentHandler) Commit(c *gin.Context) {
	tenantID, shipmentID, ok := h.scope(c)
	if !ok {
		return
	}

	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLength {
		h.ValidationError(c, []dto.ValidationDetail{{
			Field:   IdempotencyKeyHeader,
			Message: fmt.Sprintf("must be at most %d characters", maxIdempotencyKeyLength),
		}})
		return
	}

	var req shipmentapp.CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.IdempotencyKey = key

	payment, err := h.service.CommitAllocation(c.Request.Context(), tenantID, shipmentID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if payment.Replayed {
		h.Success(c, payment)
		return
	}
	h.Created(c, payment)
}

// ListPayments godoc
// @ID           listShipmentGoodsPayments
// @Summary      List goods payments of a shipment
// @Description  Returns committed goods payments with their per-supplier allocations
// @Tags         goods-payments
// @Produce      json
// @Param        id          path   string true  "Shipment ID" format(uuid)
// @Param        X-Tenant-ID header string false "Tenant ID"
// @Param        page        query  int    false "Page number" default(1)
// @Param        page_size   query  int    false "Page size" default(20) maximum(100)
// @Param        order_dir   query  string false "Sort by creation time" Enums(asc, desc) default(desc)
// @Success      200 {object} PaymentPageResponse
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /shipments/{id}/goods-payments [get]
func (h *GoodsPaymentHandler) ListPayments(c *gin.Context) {
	tenantID, shipmentID, ok := h.scope(c)
	if !ok {
		return
	}

	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	filter := req.Filter()

	payments, total, err := h.service.ListPayments(c.Request.Context(), tenantID, shipmentID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, payments, total, filter.Page, filter.PageSize)
}

// Export godoc
// @ID           exportShipmentGoodsPayments
// @Summary      Export goods payments as a spreadsheet
// @Description  Returns an XLSX workbook with one row per supplier allocation and a per-supplier summary
// @Tags         goods-payments
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id          path   string true  "Shipment ID" format(uuid)
// @Param        X-Tenant-ID header string false "Tenant ID"
// @Success      200 {file} binary
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /shipments/{id}/goods-payments/export [get]
func (h *GoodsPaymentHandler) Export(c *gin.Context) {
	tenantID, shipmentID, ok := h.scope(c)
	if !ok {
		return
	}

	data, err := h.service.ExportPayments(c.Request.Context(), tenantID, shipmentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("goods-payments-%s-%s.xlsx", shipmentID, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// SnapshotURL godoc
// @ID           getGoodsPaymentSnapshotURL
// @Summary      Get a download link for a payment's audit snapshot
// @Description  Returns a time-limited URL to the JSON snapshot archived when the payment was committed
// @Tags         goods-payments
// @Produce      json
// @Param        id          path   string true  "Shipment ID" format(uuid)
// @Param        paymentId   path   string true  "Payment ID" format(uuid)
// @Param        X-Tenant-ID header string false "Tenant ID"
// @Success      200 {object} APIResponse[shipmentapp.SnapshotURLResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /shipments/{id}/goods-payments/{paymentId}/snapshot [get]
func (h *GoodsPaymentHandler) SnapshotURL(c *gin.Context) {
	tenantID, shipmentID, ok := h.scope(c)
	if !ok {
		return
	}
	paymentID, err := uuid.Parse(c.Param("paymentId"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	resp, err := h.service.SnapshotURL(c.Request.Context(), tenantID, shipmentID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// scope resolves the tenant and the :id shipment path parameter, writing
// a 400 and returning false when either is malformed
func (h *GoodsPaymentHandler) scope(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return uuid.Nil, uuid.Nil, false
	}
	shipmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid shipment ID format")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, shipmentID, true
}
