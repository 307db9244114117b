package dto

import (
	"time"

	"github.com/tradeops/backend/internal/domain/shared"
)

// Response is the envelope of every JSON answer
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo.Details holds the figures of an allocation failure;
// Validation lists the request fields that failed binding.
type ErrorInfo struct {
	Code       string             `json:"code" example:"ERR_NOT_FOUND"`
	Message    string             `json:"message" example:"Shipment not found"`
	RequestID  string             `json:"request_id,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Details    map[string]string  `json:"details,omitempty"`
	Validation []ValidationDetail `json:"validation,omitempty"`
}

type ValidationDetail struct {
	Field   string `json:"field" example:"paymentAmount"`
	Message string `json:"message" example:"is required"`
}

type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// ErrorResponse documents the failure envelope for swag
type ErrorResponse struct {
	Success bool       `json:"success" example:"false"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// NewSuccessResponseWithMeta reports a non-positive pageSize as the
// default page size
func NewSuccessResponseWithMeta(data any, total int64, page, pageSize int) Response {
	if pageSize <= 0 {
		pageSize = shared.DefaultPageSize
	}
	size := int64(pageSize)
	return Response{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: int((total + size - 1) / size),
		},
	}
}

// NewErrorResponseWithRequestID normalizes code before writing it
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	return Response{
		Error: &ErrorInfo{
			Code:      NormalizeErrorCode(code),
			Message:   message,
			RequestID: requestID,
			Timestamp: time.Now().UTC(),
		},
	}
}

func NewErrorResponseWithDetails(code, message, requestID string, details map[string]string) Response {
	r := NewErrorResponseWithRequestID(code, message, requestID)
	r.Error.Details = details
	return r
}

func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	r := NewErrorResponseWithRequestID(ErrCodeValidation, message, requestID)
	r.Error.Validation = details
	return r
}
