package query

// Meta is the page metadata of a paginated response.
type Meta struct {
	Page      int `json:"page"`
	PageSize  int `json:"page_size"`
	PageCount int `json:"page_count"`
	Total     int `json:"total"`
}

// PaginatedResult is the envelope every list endpoint returns.
type PaginatedResult[T any] struct {
	Data []T `json:"data"`
	Meta Meta `json:"meta"`
}

// ComputeMeta derives the page metadata. page and pageSize are validated
// upstream (page >= 1, pageSize >= 1).
//
// page_count is ceil(total/pageSize) everywhere, so an empty collection has
// page_count 0.
func ComputeMeta(page, pageSize, total int) Meta {
	pageCount := 0
	if pageSize > 0 {
		pageCount = (total + pageSize - 1) / pageSize
	}

	return Meta{
		Page:      page,
		PageSize:  pageSize,
		PageCount: pageCount,
		Total:     total,
	}
}
