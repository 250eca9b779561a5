// Package query implements a constrained query engine: callers supply a
// map of raw filter expressions, an optional sort field, and pagination
// parameters, and the engine produces a validated, sorted, paginated
// result set over any entity type. Which fields may be filtered or
// sorted on is declared per entity type through an immutable allow-list
// registry; everything else is rejected with a typed error.
package query

import (
	"fmt"
	"sort"
	"time"
)

// ValueType identifies the scalar type a field's raw filter values are
// coerced into.
type ValueType int

// Supported field value types.
const (
	Text ValueType = iota
	Integer
	Decimal
	Date
	Boolean
)

// String returns a human-readable name for the value type, used in
// error messages.
func (t ValueType) String() string {
	switch t {
	case Text:
		return "text"
	case Integer:
		return "integer"
	case Decimal:
		return "decimal"
	case Date:
		return "date"
	case Boolean:
		return "boolean"
	default:
		return fmt.Sprintf("valuetype(%d)", int(t))
	}
}

// Field describes one filterable/sortable field of an entity type.
// Name is the caller-facing identifier, Column the storage column a SQL
// source maps it to, and Value the projection used when clauses are
// evaluated in process.
//
// Value must return the scalar matching Type: string for Text, int64
// for Integer, float64 for Decimal, time.Time for Date and bool for
// Boolean. The typed constructors (TextField, IntField, ...) enforce
// this at compile time; prefer them over struct literals.
type Field[T any] struct {
	Name   string
	Type   ValueType
	Column string
	Value  func(T) any
}

// TextField declares a Text field backed by a string getter.
func TextField[T any](name, column string, value func(T) string) Field[T] {
	return Field[T]{Name: name, Type: Text, Column: column, Value: func(e T) any { return value(e) }}
}

// IntField declares an Integer field backed by an int64 getter.
func IntField[T any](name, column string, value func(T) int64) Field[T] {
	return Field[T]{Name: name, Type: Integer, Column: column, Value: func(e T) any { return value(e) }}
}

// DecimalField declares a Decimal field backed by a float64 getter.
func DecimalField[T any](name, column string, value func(T) float64) Field[T] {
	return Field[T]{Name: name, Type: Decimal, Column: column, Value: func(e T) any { return value(e) }}
}

// DateField declares a Date field backed by a time.Time getter.
func DateField[T any](name, column string, value func(T) time.Time) Field[T] {
	return Field[T]{Name: name, Type: Date, Column: column, Value: func(e T) any { return value(e) }}
}

// BoolField declares a Boolean field backed by a bool getter.
func BoolField[T any](name, column string, value func(T) bool) Field[T] {
	return Field[T]{Name: name, Type: Boolean, Column: column, Value: func(e T) any { return value(e) }}
}

// Registry is the immutable allow-list of filterable/sortable fields
// for one entity type. It is built once at startup and read thereafter,
// so concurrent use requires no synchronization. Field names that do
// not appear in the registry cannot be filtered or sorted on; the
// registry is a strict subset of the entity's fields, which is what
// keeps internal fields unreachable from caller input.
//
// Every registry designates exactly one identity field. It supplies the
// default sort key and the secondary tie-break key for explicit sorts.
type Registry[T any] struct {
	fields   map[string]Field[T]
	names    []string
	identity Field[T]
}

// NewRegistry builds a registry from an identity field and the
// remaining allowed fields. It fails on empty or duplicate field names;
// the identity field is itself filterable and sortable and must not be
// re-declared in fields.
func NewRegistry[T any](identity Field[T], fields ...Field[T]) (*Registry[T], error) {
	if identity.Name == "" {
		return nil, fmt.Errorf("query: identity field has no name")
	}
	if identity.Value == nil {
		return nil, fmt.Errorf("query: identity field %q has no value getter", identity.Name)
	}

	all := make(map[string]Field[T], len(fields)+1)
	all[identity.Name] = identity
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("query: field with empty name")
		}
		if f.Value == nil {
			return nil, fmt.Errorf("query: field %q has no value getter", f.Name)
		}
		if _, exists := all[f.Name]; exists {
			return nil, fmt.Errorf("query: duplicate field %q", f.Name)
		}
		all[f.Name] = f
	}

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	return &Registry[T]{
		fields:   all,
		names:    names,
		identity: identity,
	}, nil
}

// MustRegistry is like NewRegistry but panics on a malformed
// declaration. Registries are static configuration wired at startup, so
// a panic here is a programming error, not a runtime condition.
func MustRegistry[T any](identity Field[T], fields ...Field[T]) *Registry[T] {
	r, err := NewRegistry(identity, fields...)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve looks up a field by its caller-facing name. Matching is
// case-sensitive and exact.
func (r *Registry[T]) Resolve(name string) (Field[T], bool) {
	f, ok := r.fields[name]
	return f, ok
}

// Identity returns the designated identity field.
func (r *Registry[T]) Identity() Field[T] {
	return r.identity
}

// FieldNames returns the allowed field names in sorted order. The slice
// is a copy; callers may retain it.
func (r *Registry[T]) FieldNames() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}
