package pagination

const (
	// DefaultPerPage is the standard page size when one is not provided.
	DefaultPerPage = 10
	// MaxPerPage caps how many rows a page request can ask for.
	MaxPerPage = 100
)

// Params holds page-based pagination inputs.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// Pagination describes the page the server returned.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NormalizePerPage enforces the configured default and maximum page sizes.
func NormalizePerPage(perPage int) int {
	if perPage <= 0 {
		return DefaultPerPage
	}
	if perPage > MaxPerPage {
		return MaxPerPage
	}
	return perPage
}

// NormalizePage clamps page numbers to start at 1.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// Normalize applies both page and per-page normalization.
func (p Params) Normalize() Params {
	return Params{Page: NormalizePage(p.Page), PerPage: NormalizePerPage(p.PerPage)}
}

// HasNext reports whether another page follows the current one.
func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}

// HasPrev reports whether a page precedes the current one.
func (p Pagination) HasPrev() bool {
	return p.Page > 1
}
