package catalog

import (
	"database/sql"

	"github.com/bookfolio/bookfolio/pkg/observability/logger"
	"github.com/bookfolio/bookfolio/pkg/query"
	"github.com/bookfolio/bookfolio/pkg/repository"
)

// Genre is a catalog classification.
type Genre struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GenreFields is the genre allow-list.
var GenreFields = query.MustRegistry(
	query.IntField("ID", "id", func(g Genre) int64 { return g.ID }),
	query.TextField("Name", "name", func(g Genre) string { return g.Name }),
)

type genreMapper struct{}

func (genreMapper) Columns() []string { return []string{"name", "description"} }

func (genreMapper) Values(g *Genre) []interface{} {
	return []interface{}{g.Name, g.Description}
}

func (genreMapper) SelectColumns() []string { return []string{"id", "name", "description"} }

func (genreMapper) Scan(rows *sql.Rows) (*Genre, error) {
	var g Genre
	if err := rows.Scan(&g.ID, &g.Name, &g.Description); err != nil {
		return nil, err
	}
	return &g, nil
}

func (genreMapper) ID(g *Genre) int64 { return g.ID }

// NewGenreRepository builds the genre repository.
func NewGenreRepository(executor repository.SQLExecutor, dialect repository.Dialect, log logger.Logger) *repository.SQLRepository[Genre, int64] {
	return repository.NewSQLRepository[Genre, int64](executor, "genres", dialect, GenreFields, genreMapper{}, log.With("repository", "genres"))
}
