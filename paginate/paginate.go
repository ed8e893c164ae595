package paginate

// DefaultPerPage is used when a caller passes a non-positive page size.
const DefaultPerPage = 25

// Page is one slice of a larger result set plus the metadata list views need
// to render pager controls.
type Page[T any] struct {
	Items      []T
	Number     int
	PerPage    int
	TotalItems int
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// Paginate slices items for the requested 1-based page. Out-of-range pages
// clamp to the nearest valid page rather than erroring, so stale pager links
// still render something sensible.
func Paginate[T any](items []T, page, perPage int) Page[T] {
	if perPage < 1 {
		perPage = DefaultPerPage
	}

	total := len(items)
	totalPages := (total + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	return Page[T]{
		Items:      items[start:end],
		Number:     page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
}
