package middleware

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validationSample struct {
	Reference string `json:"reference" binding:"omitempty,max=5"`
	OrderDir  string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Strategy  string `json:"strategy" binding:"required"`
	Items     []int  `json:"items" binding:"omitempty,max=2"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
}

func TestValidationDetails(t *testing.T) {
	SetupValidator()

	SetupValidator()

	err := binding.Validator.ValidateStruct(validationSample{Reference: "too-long", OrderDir: "up", Items: []int{1, 2, 3}, Page: -1})
	require.Error(t, err)

	details := ValidationDetails(err)
	require.Len(t, details, 5)

	byField := map[string]string{}
	for _, d := range details {
		byField[d.Field] = d.Message
	}
	assert.Equal(t, "Must be at most 5 characters", byField["reference"])
	assert.Equal(t, "Must be one of: asc desc", byField["order_dir"])
	assert.Equal(t, "This field is required", byField["strategy"])
	assert.Equal(t, "Must contain at most 2 items", byField["items"])
	assert.Equal(t, "Must be at least 1", byField["page"])
}

func TestValidationDetails_OtherError(t *testing.T) {
	assert.Nil(t, ValidationDetails(errors.New("unexpected EOF")))
}
