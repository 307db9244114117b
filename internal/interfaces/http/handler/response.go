package handler

import (
	shipmentapp "github.com/tradeops/backend/internal/application/shipment"
	"github.com/tradeops/backend/internal/interfaces/http/dto"
)

// Response envelopes below only describe payloads for the OpenAPI document.
// Handlers write dto.Response directly.

// APIResponse wraps a single typed payload
// @Description Envelope with a typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// PaymentPageResponse is one page of committed goods payments
// @Description Paginated goods payments, meta carries total and page
type PaymentPageResponse struct {
	Success bool                          `json:"success" example:"true"`
	Data    []shipmentapp.PaymentResponse `json:"data"`
	Meta    *dto.Meta                     `json:"meta"`
}

// ErrorResponse is returned for every failed request. Allocation failures
// fill error.details with the offending supplier and amounts.
// @Description Error envelope
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}
