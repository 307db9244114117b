package dto

import (
	"net/http"

	"github.com/tradeops/backend/internal/domain/shared"
	"github.com/tradeops/backend/internal/domain/shipment"
)

// API error codes, ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeInvalidAmount   = "ERR_INVALID_AMOUNT"
	ErrCodeUnknownStrategy = "ERR_UNKNOWN_STRATEGY"
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"
	ErrCodeForbidden       = "ERR_FORBIDDEN"

	ErrCodeNotFound             = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists        = "ERR_ALREADY_EXISTS"
	ErrCodeIdempotencyKeyReused = "ERR_IDEMPOTENCY_KEY_REUSED"
	// ErrCodeRequestInProgress answers a retry that races the original request
	ErrCodeRequestInProgress = "ERR_REQUEST_IN_PROGRESS"
	ErrCodeSnapshotsDisabled = "ERR_SNAPSHOTS_DISABLED"

	ErrCodeInvalidState                 = "ERR_INVALID_STATE"
	ErrCodeShipmentClosed               = "ERR_SHIPMENT_CLOSED"
	ErrCodeAllocationZeroBasis          = "ERR_ALLOCATION_ZERO_BASIS"
	ErrCodeAllocationExceedsOutstanding = "ERR_ALLOCATION_EXCEEDS_OUTSTANDING"
)

// ErrorCodeHTTPStatus is the status every API code is served with
var ErrorCodeHTTPStatus = map[string]int{}

// DomainErrorCodeMapping translates domain and allocation codes to API codes
var DomainErrorCodeMapping = map[string]string{}

func init() {
	byStatus := map[int][]string{
		http.StatusBadRequest: {
			ErrCodeBadRequest, ErrCodeValidation, ErrCodeInvalidInput, ErrCodeInvalidJSON,
			ErrCodeInvalidAmount, ErrCodeUnknownStrategy,
		},
		http.StatusForbidden: {ErrCodeForbidden},
		http.StatusNotFound:  {ErrCodeNotFound, ErrCodeSnapshotsDisabled},
		http.StatusConflict: {
			ErrCodeAlreadyExists, ErrCodeIdempotencyKeyReused, ErrCodeRequestInProgress,
		},
		http.StatusRequestEntityTooLarge: {ErrCodePayloadTooLarge},
		http.StatusUnprocessableEntity: {
			ErrCodeInvalidState, ErrCodeShipmentClosed,
			ErrCodeAllocationZeroBasis, ErrCodeAllocationExceedsOutstanding,
		},
		http.StatusInternalServerError: {ErrCodeUnknown, ErrCodeInternal},
	}
	for status, codes := range byStatus {
		for _, code := range codes {
			ErrorCodeHTTPStatus[code] = status
		}
	}

	for domain, api := range map[string]string{
		shared.CodeNotFound:                        ErrCodeNotFound,
		shared.CodeAlreadyExists:                   ErrCodeAlreadyExists,
		shared.CodeInvalidInput:                    ErrCodeInvalidInput,
		shared.CodeInvalidState:                    ErrCodeInvalidState,
		shared.CodeInvalidAmount:                   ErrCodeInvalidAmount,
		shared.CodeInvalidReference:                ErrCodeInvalidInput,
		shared.CodeInvalidCurrency:                 ErrCodeInvalidInput,
		shared.CodeUnknownStrategy:                 ErrCodeUnknownStrategy,
		shared.CodeShipmentClosed:                  ErrCodeShipmentClosed,
		shared.CodeIdempotencyKeyReused:            ErrCodeIdempotencyKeyReused,
		shared.CodeRequestInProgress:               ErrCodeRequestInProgress,
		shared.CodeSnapshotsDisabled:               ErrCodeSnapshotsDisabled,
		shared.CodeAllocationMismatch:              ErrCodeInternal,
		shared.CodeInternal:                        ErrCodeInternal,
		string(shipment.ErrCodeZeroBasis):          ErrCodeAllocationZeroBasis,
		string(shipment.ErrCodeExceedsOutstanding): ErrCodeAllocationExceedsOutstanding,
		"VALIDATION_ERROR":                         ErrCodeValidation,
		"BAD_REQUEST":                              ErrCodeBadRequest,
	} {
		DomainErrorCodeMapping[domain] = api
	}
}

// GetHTTPStatus falls back to 500 for codes it does not know
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode passes API codes and unknown codes through unchanged
func NormalizeErrorCode(code string) string {
	if api, ok := DomainErrorCodeMapping[code]; ok {
		return api
	}
	return code
}
