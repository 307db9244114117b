package shared

// Paging bounds for list queries
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Sort directions accepted by Filter.OrderDir
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Filter selects one page of a list ordered by creation time
type Filter struct {
	Page     int
	PageSize int
	OrderDir string
}

// DefaultFilter is the first page, newest first
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: DefaultPageSize, OrderDir: OrderDesc}
}

// Normalize clamps out-of-range values. Anything but "asc" sorts descending.
func (f Filter) Normalize() Filter {
	f.Page = max(f.Page, 1)
	switch {
	case f.PageSize < 1:
		f.PageSize = DefaultPageSize
	case f.PageSize > MaxPageSize:
		f.PageSize = MaxPageSize
	}
	if f.OrderDir != OrderAsc {
		f.OrderDir = OrderDesc
	}
	return f
}

// Offset is the number of rows before the page; call it on a normalized filter
func (f Filter) Offset() int {
	return (f.Page - 1) * f.PageSize
}
