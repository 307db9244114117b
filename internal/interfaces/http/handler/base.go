package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tradeops/backend/internal/domain/shared"
	"github.com/tradeops/backend/internal/domain/shipment"
	"github.com/tradeops/backend/internal/interfaces/http/dto"
	"github.com/tradeops/backend/internal/interfaces/http/middleware"
)

// RequestIDKey is the header read when the RequestID middleware did not run
const RequestIDKey = "X-Request-ID"

// DefaultTenantID owns requests that name no tenant
var DefaultTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// BaseHandler writes the response envelope shared by every endpoint
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDContextKey); id != "" {
		return id
	}
	return c.GetHeader(RequestIDKey)
}

// getTenantID prefers the tenant resolved by TenantMiddleware, then the raw
// header, then DefaultTenantID. A malformed header is an error.
func getTenantID(c *gin.Context) (uuid.UUID, error) {
	if id, err := middleware.GetTenantUUID(c); err == nil && id != uuid.Nil {
		return id, nil
	}
	raw := c.GetHeader(middleware.TenantHeaderKey)
	if raw == "" {
		return DefaultTenantID, nil
	}
	return uuid.Parse(raw)
}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error writes an error envelope tagged with the request ID
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("Request validation failed", getRequestID(c), details))
}

// BindError reports a failed ShouldBind*: field errors are listed, an
// oversized body is 413 and anything else is malformed input.
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	if details := middleware.ValidationDetails(err); details != nil {
		h.ValidationError(c, details)
		return
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Request body exceeds maximum allowed size")
		return
	}
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, err.Error())
}

// HandleError picks status and code from the error. Allocation errors carry
// their figures in error.details; errors that are not domain errors are
// attached to the gin context for the access log and answered with a
// generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := getRequestID(c)

	var allocErr *shipment.AllocationError
	if errors.As(err, &allocErr) {
		code := dto.NormalizeErrorCode(string(allocErr.Code))
		c.JSON(dto.GetHTTPStatus(code),
			dto.NewErrorResponseWithDetails(code, allocErr.Message, requestID, allocErr.Details.Map()))
		return
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID))
		return
	}

	_ = c.Error(err)
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}
