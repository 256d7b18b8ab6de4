package utils

// Pagination is the paging envelope returned by the admin list endpoints.
type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewPagination clamps the requested page into range and computes the
// page count for total records.
func NewPagination(page, perPage int, total int64) Pagination {
	if perPage < 1 {
		perPage = 20
	}
	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the record offset for the clamped page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}
