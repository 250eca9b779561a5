package catalog

import (
	"database/sql"

	"github.com/bookfolio/bookfolio/pkg/observability/logger"
	"github.com/bookfolio/bookfolio/pkg/query"
	"github.com/bookfolio/bookfolio/pkg/repository"
)

// Author is a catalog entry for one writer.
type Author struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Country   string `json:"country"`
	BirthYear int64  `json:"birth_year"`
	Biography string `json:"biography"`
}

// AuthorFields is the author allow-list. Biography is long-form prose
// and stays off the list; it is returned in responses but cannot be
// filtered or sorted on.
var AuthorFields = query.MustRegistry(
	query.IntField("ID", "id", func(a Author) int64 { return a.ID }),
	query.TextField("Name", "name", func(a Author) string { return a.Name }),
	query.TextField("Country", "country", func(a Author) string { return a.Country }),
	query.IntField("BirthYear", "birth_year", func(a Author) int64 { return a.BirthYear }),
)

type authorMapper struct{}

func (authorMapper) Columns() []string {
	return []string{"name", "country", "birth_year", "biography"}
}

func (authorMapper) Values(a *Author) []interface{} {
	return []interface{}{a.Name, a.Country, a.BirthYear, a.Biography}
}

func (authorMapper) SelectColumns() []string {
	return []string{"id", "name", "country", "birth_year", "biography"}
}

func (authorMapper) Scan(rows *sql.Rows) (*Author, error) {
	var a Author
	if err := rows.Scan(&a.ID, &a.Name, &a.Country, &a.BirthYear, &a.Biography); err != nil {
		return nil, err
	}
	return &a, nil
}

func (authorMapper) ID(a *Author) int64 { return a.ID }

// NewAuthorRepository builds the author repository.
func NewAuthorRepository(executor repository.SQLExecutor, dialect repository.Dialect, log logger.Logger) *repository.SQLRepository[Author, int64] {
	return repository.NewSQLRepository[Author, int64](executor, "authors", dialect, AuthorFields, authorMapper{}, log.With("repository", "authors"))
}
