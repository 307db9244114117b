package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tradeops/backend/internal/domain/shared"
)

func TestListRequest_Filter(t *testing.T) {
	assert.Equal(t, shared.DefaultFilter(), DefaultListRequest().Filter())

	f := ListRequest{Page: 3, PageSize: 500, OrderDir: "asc"}.Filter()
	assert.Equal(t, shared.Filter{Page: 3, PageSize: shared.MaxPageSize, OrderDir: shared.OrderAsc}, f)
}
