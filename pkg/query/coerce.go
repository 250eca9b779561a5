package query

import (
	"strconv"
	"time"
)

// dateOnlyLayout accepts calendar dates without a time component, the
// common shape for user-facing filters. Full RFC3339 timestamps are
// accepted as well.
const dateOnlyLayout = "2006-01-02"

// TypedClause is the terminal, fully-coerced form of a filter
// constraint. Value holds the scalar matching the field's type: string,
// int64, float64, time.Time or bool.
type TypedClause[T any] struct {
	Field    Field[T]
	Operator Operator
	Value    any
}

// CoerceClause converts a clause's raw string value into the scalar the
// field's declared type mandates. It also rejects Contains on non-text
// fields, the one operator/type combination that has no meaning.
func CoerceClause[T any](c Clause[T]) (TypedClause[T], error) {
	if c.Operator == Contains && c.Field.Type != Text {
		return TypedClause[T]{}, &UnsupportedOperatorError{
			Field:    c.Field.Name,
			Operator: c.Operator,
			Type:     c.Field.Type,
		}
	}

	value, err := coerceValue(c.Field.Type, c.RawValue)
	if err != nil {
		return TypedClause[T]{}, &InvalidFilterValueError{
			Field: c.Field.Name,
			Value: c.RawValue,
			Want:  c.Field.Type,
		}
	}

	return TypedClause[T]{Field: c.Field, Operator: c.Operator, Value: value}, nil
}

// CoerceClauses coerces a parsed clause list, stopping at the first
// failure.
func CoerceClauses[T any](clauses []Clause[T]) ([]TypedClause[T], error) {
	if len(clauses) == 0 {
		return nil, nil
	}
	typed := make([]TypedClause[T], 0, len(clauses))
	for _, c := range clauses {
		tc, err := CoerceClause(c)
		if err != nil {
			return nil, err
		}
		typed = append(typed, tc)
	}
	return typed, nil
}

func coerceValue(t ValueType, raw string) (any, error) {
	switch t {
	case Text:
		return raw, nil
	case Integer:
		return strconv.ParseInt(raw, 10, 64)
	case Decimal:
		return strconv.ParseFloat(raw, 64)
	case Date:
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			return ts, nil
		}
		return time.Parse(dateOnlyLayout, raw)
	case Boolean:
		return strconv.ParseBool(raw)
	default:
		return nil, &InvalidFilterValueError{Value: raw, Want: t}
	}
}
