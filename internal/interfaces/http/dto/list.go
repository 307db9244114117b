package dto

import "github.com/tradeops/backend/internal/domain/shared"

// ListRequest binds the paging query of list endpoints
type ListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func DefaultListRequest() ListRequest {
	f := shared.DefaultFilter()
	return ListRequest{Page: f.Page, PageSize: f.PageSize, OrderDir: f.OrderDir}
}

// Filter converts the request into a normalized repository filter
func (r ListRequest) Filter() shared.Filter {
	return shared.Filter{Page: r.Page, PageSize: r.PageSize, OrderDir: r.OrderDir}.Normalize()
}
