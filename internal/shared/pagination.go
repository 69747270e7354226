package shared

import "math"

// Page is the envelope returned by every list endpoint. CurrentPage is 1-based.
type Page[T any] struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalResults int `json:"totalResults"`
	Results      []T `json:"results"`
}

// NewPage assembles a page envelope. An exact multiple of pageSize never
// produces a trailing empty page.
func NewPage[T any](results []T, page, pageSize, total int) Page[T] {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	if results == nil {
		results = []T{}
	}
	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))
	return Page[T]{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalResults: total,
		Results:      results,
	}
}

// PageParams carries the standard list query parameters.
type PageParams struct {
	Page        int
	PageSize    int
	Search      string
	SortBy      string
	IsAscending bool
	IsExact     bool
}

// Normalize applies the listing defaults in place.
func (p *PageParams) Normalize() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
}

// Offset returns the row offset for the current page.
func (p PageParams) Offset() int {
	offset := (p.Page - 1) * p.PageSize
	if offset < 0 {
		return 0
	}
	return offset
}
