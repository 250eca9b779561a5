package repository

import "strconv"

// Dialect selects the SQL placeholder style. Column names never come
// from callers (they are drawn from the field registry), so the dialect
// only has to vary parameter syntax.
type Dialect int

// Supported dialects.
const (
	Postgres Dialect = iota
	MySQL
)

// Placeholder returns the n-th (1-based) parameter placeholder.
func (d Dialect) Placeholder(n int) string {
	if d == MySQL {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

// DialectForDriver maps a database/sql driver name to its dialect.
func DialectForDriver(driver string) Dialect {
	if driver == "mysql" {
		return MySQL
	}
	return Postgres
}
