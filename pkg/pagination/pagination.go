package pagination

// Meta describes one page of a paginated result.
type Meta struct {
	Total       int `json:"total"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
}

// Offset returns the number of items preceding page. Pages start at 1.
func Offset(page, perPage int) int {
	if page < 1 || perPage < 1 {
		return 0
	}
	return (page - 1) * perPage
}

// TotalPages returns ceil(total / perPage), or 0 when there is nothing to page.
func TotalPages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// NewMeta builds pagination metadata for a result of total items.
func NewMeta(total, page, perPage int) Meta {
	return Meta{
		Total:       total,
		TotalPages:  TotalPages(total, perPage),
		CurrentPage: page,
		PerPage:     perPage,
	}
}
