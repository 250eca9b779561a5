package query

import (
	"strings"
	"time"
)

// Clause evaluation is deliberately conjunctive-only: every clause
// narrows the result set and there is no OR, negation or grouping. That
// is a design constraint carried over intentionally, not a missing
// feature.
//
// Relational operators are permitted on every type, including Text
// (lexicographic byte order) and Boolean (false < true); only Contains
// is type-restricted, and that restriction is enforced during coercion.
// Contains is case-insensitive, matching the common expectation for
// user-facing search.

// Matches reports whether a single entity satisfies the clause.
func (c TypedClause[T]) Matches(item T) bool {
	have := c.Field.Value(item)

	if c.Operator == Contains {
		haystack, _ := have.(string)
		needle, _ := c.Value.(string)
		return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
	}

	cmp := compareValues(c.Field.Type, have, c.Value)
	switch c.Operator {
	case Equals:
		return cmp == 0
	case GreaterOrEqual:
		return cmp >= 0
	case LessOrEqual:
		return cmp <= 0
	case GreaterThan:
		return cmp > 0
	case LessThan:
		return cmp < 0
	default:
		return false
	}
}

// Predicate folds the clauses into a single conjunctive test. An empty
// clause list matches everything.
func Predicate[T any](clauses []TypedClause[T]) func(T) bool {
	return func(item T) bool {
		for _, c := range clauses {
			if !c.Matches(item) {
				return false
			}
		}
		return true
	}
}

// compareValues three-way compares two scalars of the same declared
// type. Both sides are produced by the registry's typed getters and the
// coercer respectively, so the type assertions cannot fail for
// registries built with the typed field constructors.
func compareValues(t ValueType, a, b any) int {
	switch t {
	case Text:
		return strings.Compare(a.(string), b.(string))
	case Integer:
		return compareOrdered(a.(int64), b.(int64))
	case Decimal:
		return compareOrdered(a.(float64), b.(float64))
	case Date:
		at, bt := a.(time.Time), b.(time.Time)
		switch {
		case at.Before(bt):
			return -1
		case at.After(bt):
			return 1
		default:
			return 0
		}
	case Boolean:
		return compareOrdered(boolRank(a.(bool)), boolRank(b.(bool)))
	default:
		return 0
	}
}

func compareOrdered[V int | int64 | float64](a, b V) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
