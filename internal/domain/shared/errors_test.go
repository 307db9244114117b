package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	err := fmt.Errorf("load shipment: %w", NewDomainError(CodeNotFound, "Shipment not found"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrAlreadyExists))
	assert.False(t, errors.Is(err, errors.New("Shipment not found")))
	assert.Equal(t, "load shipment: Shipment not found", err.Error())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeShipmentClosed, CodeOf(NewDomainError(CodeShipmentClosed, "closed")))
	assert.Equal(t, CodeNotFound, CodeOf(fmt.Errorf("wrapped: %w", ErrNotFound)))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Equal(t, CodeInternal, CodeOf(nil))
}
