// Package pagination slices ordered collections into fixed-size pages.
//
// Every listing surface in the system uses the same page size. An
// out-of-range page number clamps to the nearest valid page instead of
// erroring, so "?page=999" renders the last page and "?page=0" the first.
package pagination

// PageSize is the fixed number of posts per listing page.
const PageSize = 10

// Page describes one slice of an ordered collection.
type Page struct {
	Number      int  `json:"number"`
	PageSize    int  `json:"page_size"`
	TotalItems  int  `json:"total_items"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// Paginate computes the page metadata for the requested page number.
// The requested number is clamped into [1, TotalPages]. An empty
// collection still has one (empty) page.
func Paginate(totalItems, pageSize, requested int) Page {
	if pageSize <= 0 {
		pageSize = PageSize
	}

	totalPages := (totalItems + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	number := requested
	if number < 1 {
		number = 1
	}
	if number > totalPages {
		number = totalPages
	}

	return Page{
		Number:      number,
		PageSize:    pageSize,
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		HasNext:     number < totalPages,
		HasPrevious: number > 1,
	}
}

// Offset returns the collection offset of the page's first item.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PageSize
}
