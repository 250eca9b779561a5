// Package repository provides a generic SQL-backed repository that
// combines plain CRUD with the query engine's Source contract. Entity
// types supply a field registry (the filter/sort allow-list) and a row
// mapper; everything else is shared plumbing.
package repository

import (
	"context"
	"database/sql"

	"github.com/bookfolio/bookfolio/pkg/query"
)

// Reader provides read operations for entities.
type Reader[T any, ID comparable] interface {
	FindByID(ctx context.Context, id ID) (*T, error)
	FindPage(ctx context.Context, p query.Params) (query.Page[T], error)
}

// Writer provides write operations for entities.
type Writer[T any, ID comparable] interface {
	Create(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id ID) error
}

// Repository combines Reader and Writer for complete CRUD.
type Repository[T any, ID comparable] interface {
	Reader[T, ID]
	Writer[T, ID]
}

// SQLExecutor is the subset of *sql.DB (or *sql.Tx) the repository
// needs.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Mapper defines how an entity maps to and from its table row.
type Mapper[T any, ID comparable] interface {
	// Columns returns the non-identity column names used for INSERT and
	// UPDATE, in the same order Values returns them.
	Columns() []string

	// Values returns the entity's values for Columns.
	Values(entity *T) []interface{}

	// Scan reads one row produced by SelectColumns into an entity.
	Scan(rows *sql.Rows) (*T, error)

	// SelectColumns returns the full column list SELECT queries fetch,
	// in the order Scan expects them.
	SelectColumns() []string

	// ID extracts the identity value from an entity.
	ID(entity *T) ID
}
