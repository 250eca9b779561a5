package query

// Params are the raw, caller-supplied inputs to one query evaluation.
type Params struct {
	// Filters maps "<Field><Operator>" keys to raw string values,
	// e.g. {"Title~=": "ring", "PageCount>=": "300"}.
	Filters map[string]string

	// SortBy names the sort field; empty means the identity field.
	SortBy string

	// SortDescending flips the sort direction.
	SortDescending bool

	// Page is the 1-based page index.
	Page int

	// PageSize is the number of items per page.
	PageSize int
}

// Default pagination applied when the transport supplies nothing.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// DefaultParams returns Params with default pagination and no
// constraints.
func DefaultParams() Params {
	return Params{Page: DefaultPage, PageSize: DefaultPageSize}
}

// Page is one slice of a larger ordered result set. It is built once at
// the end of the pipeline and not mutated afterwards.
type Page[T any] struct {
	Items      []T `json:"items"`
	Index      int `json:"page"`
	TotalPages int `json:"total_pages"`
}

// HasPrevious reports whether a page precedes this one.
func (p Page[T]) HasPrevious() bool {
	return p.Index > 1
}

// HasNext reports whether a page follows this one.
func (p Page[T]) HasNext() bool {
	return p.Index < p.TotalPages
}
