package query

import (
	"context"
)

// Run evaluates one query against a source. The pipeline is parse →
// coerce → sort resolution → page validation → count → slice, failing
// fast with the first typed error it hits; no partial results are ever
// produced.
//
// Each invocation is an independent, stateless computation: the only
// shared structure is the registry, which is immutable, so concurrent
// calls need no coordination.
func Run[T any](ctx context.Context, reg *Registry[T], src Source[T], p Params) (Page[T], error) {
	clauses, err := ParseFilters(reg, p.Filters)
	if err != nil {
		return Page[T]{}, err
	}

	typed, err := CoerceClauses(clauses)
	if err != nil {
		return Page[T]{}, err
	}

	orders, err := ResolveSort(reg, p.SortBy, p.SortDescending)
	if err != nil {
		return Page[T]{}, err
	}

	if p.Page < 1 || p.PageSize < 1 {
		return Page[T]{}, &InvalidPageParametersError{Page: p.Page, PageSize: p.PageSize}
	}

	total, err := src.Count(ctx, typed)
	if err != nil {
		return Page[T]{}, err
	}

	totalPages := int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	if totalPages == 0 {
		// Legitimate filters can match nothing; an empty first page is
		// success, not an out-of-range request.
		return Page[T]{Items: []T{}, Index: p.Page, TotalPages: 0}, nil
	}
	if p.Page > totalPages {
		return Page[T]{}, &PageOutOfRangeError{Requested: p.Page, TotalPages: totalPages}
	}

	offset := (p.Page - 1) * p.PageSize
	items, err := src.Select(ctx, typed, orders, offset, p.PageSize)
	if err != nil {
		return Page[T]{}, err
	}

	return Page[T]{Items: items, Index: p.Page, TotalPages: totalPages}, nil
}
