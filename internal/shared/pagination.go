package shared

import (
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

// Pagination describes a page window for list queries.
type Pagination struct {
	Page     int
	PageSize int
}

// ParsePagination reads page and page_size query parameters with sane bounds.
func ParsePagination(r *http.Request) Pagination {
	p := Pagination{Page: 1, PageSize: defaultPageSize}

	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.Page = v
		}
	}
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.PageSize = min(v, maxPageSize)
		}
	}
	return p
}

// Offset returns the SQL offset for the window.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit returns the SQL limit for the window.
func (p Pagination) Limit() int {
	return p.PageSize
}

// TotalPages computes the page count for a total row count.
func (p Pagination) TotalPages(total int) int {
	if total <= 0 || p.PageSize <= 0 {
		return 1
	}
	pages := total / p.PageSize
	if total%p.PageSize != 0 {
		pages++
	}
	return pages
}
