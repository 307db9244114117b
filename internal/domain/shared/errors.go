package shared

import "errors"

// Error codes carried by DomainError. The HTTP layer maps them to statuses.
const (
	CodeNotFound             = "NOT_FOUND"
	CodeAlreadyExists        = "ALREADY_EXISTS"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeInvalidState         = "INVALID_STATE"
	CodeInvalidAmount        = "INVALID_AMOUNT"
	CodeInvalidReference     = "INVALID_REFERENCE"
	CodeInvalidCurrency      = "INVALID_CURRENCY"
	CodeUnknownStrategy      = "UNKNOWN_STRATEGY"
	CodeShipmentClosed       = "SHIPMENT_CLOSED"
	CodeIdempotencyKeyReused = "IDEMPOTENCY_KEY_REUSED"
	CodeRequestInProgress    = "REQUEST_IN_PROGRESS"
	CodeSnapshotsDisabled    = "SNAPSHOTS_DISABLED"
	CodeAllocationMismatch   = "ALLOCATION_MISMATCH"
	CodeInternal             = "INTERNAL"
)

// DomainError is a business rule violation identified by a stable code
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is reports a match on Code, so errors.Is(err, ErrNotFound) holds for any
// NOT_FOUND error regardless of its message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a domain error with the given code
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// CodeOf returns the code of the first DomainError in err's chain, or
// CodeInternal when there is none.
func CodeOf(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

var (
	ErrNotFound      = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput  = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrInvalidState  = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
)
