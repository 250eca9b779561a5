package query

import (
	"fmt"
	"strings"
)

// The engine's error taxonomy is closed: every rejected request maps to
// exactly one of the types below. All are synchronous validation
// failures suitable for a 400-class response; none are transient. The
// pipeline stops at the first invalid clause it encounters rather than
// collecting every violation.

// MalformedFilterKeyError reports a filter key that does not end in a
// recognized operator token, or whose identifier portion is empty or
// contains non-letters.
type MalformedFilterKeyError struct {
	Key string
}

func (e *MalformedFilterKeyError) Error() string {
	return fmt.Sprintf("malformed filter key %q: expected <field><op> with op one of %s", e.Key, operatorTokenList())
}

// UnknownFilterFieldError reports a filter on a field the entity does
// not expose. Allowed carries the full allow-list for diagnostics.
type UnknownFilterFieldError struct {
	Field   string
	Allowed []string
}

func (e *UnknownFilterFieldError) Error() string {
	return fmt.Sprintf("unknown filter field %q: allowed fields are %s", e.Field, strings.Join(e.Allowed, ", "))
}

// InvalidFilterValueError reports a raw value that cannot be coerced to
// the field's declared type.
type InvalidFilterValueError struct {
	Field string
	Value string
	Want  ValueType
}

func (e *InvalidFilterValueError) Error() string {
	return fmt.Sprintf("invalid value %q for field %q: expected %s", e.Value, e.Field, e.Want)
}

// UnsupportedOperatorError reports an operator that is not meaningful
// for the field's type. Today the only case is Contains on a non-text
// field: substring matching has no meaning for numbers, dates or
// booleans.
type UnsupportedOperatorError struct {
	Field    string
	Operator Operator
	Type     ValueType
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("operator %q is not supported on field %q of type %s", e.Operator.Token(), e.Field, e.Type)
}

// UnknownSortFieldError reports a sort key outside the entity's
// allow-list. The same registry governs filtering and sorting.
type UnknownSortFieldError struct {
	Field   string
	Allowed []string
}

func (e *UnknownSortFieldError) Error() string {
	return fmt.Sprintf("unknown sort field %q: allowed fields are %s", e.Field, strings.Join(e.Allowed, ", "))
}

// InvalidPageParametersError reports a page index or page size below 1.
// It is raised before any data access.
type InvalidPageParametersError struct {
	Page     int
	PageSize int
}

func (e *InvalidPageParametersError) Error() string {
	return fmt.Sprintf("invalid page parameters: page %d, page size %d (both must be >= 1)", e.Page, e.PageSize)
}

// PageOutOfRangeError reports a page index beyond the last page of a
// non-empty result set. An empty result set never raises this: page 1
// of zero pages is an empty success.
type PageOutOfRangeError struct {
	Requested  int
	TotalPages int
}

func (e *PageOutOfRangeError) Error() string {
	return fmt.Sprintf("page %d is out of range: result set has %d page(s)", e.Requested, e.TotalPages)
}
