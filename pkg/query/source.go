package query

import (
	"context"
	"sort"
)

// Source is the storage contract the engine runs against. A source only
// has to count and slice under a set of coerced clauses; the engine
// owns validation, page arithmetic and bounds checking.
//
// Count and Select are two separate reads. If the underlying data
// changes between them, the reported page arithmetic and the returned
// slice may reflect slightly different snapshots. That weak-consistency
// tradeoff is accepted; no snapshot isolation is assumed.
type Source[T any] interface {
	// Count returns the number of entities matching the clauses.
	Count(ctx context.Context, clauses []TypedClause[T]) (int64, error)

	// Select returns up to limit matching entities starting at offset,
	// ordered by the given sort keys.
	Select(ctx context.Context, clauses []TypedClause[T], orders []Order[T], offset, limit int) ([]T, error)
}

// MemorySource evaluates queries over an in-process slice using the
// engine's own predicate and comparison functions. It backs unit tests
// and small fixed data sets; the items slice is treated as read-only
// after construction.
type MemorySource[T any] struct {
	items []T
}

// NewMemorySource builds a source over the given items.
func NewMemorySource[T any](items ...T) *MemorySource[T] {
	return &MemorySource[T]{items: items}
}

// Count implements Source.
func (s *MemorySource[T]) Count(_ context.Context, clauses []TypedClause[T]) (int64, error) {
	match := Predicate(clauses)
	var n int64
	for _, item := range s.items {
		if match(item) {
			n++
		}
	}
	return n, nil
}

// Select implements Source.
func (s *MemorySource[T]) Select(_ context.Context, clauses []TypedClause[T], orders []Order[T], offset, limit int) ([]T, error) {
	match := Predicate(clauses)
	matched := make([]T, 0, len(s.items))
	for _, item := range s.items {
		if match(item) {
			matched = append(matched, item)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return Less(orders, matched[i], matched[j])
	})

	if offset >= len(matched) {
		return []T{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}

	page := make([]T, end-offset)
	copy(page, matched[offset:end])
	return page, nil
}
