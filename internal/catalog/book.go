// Package catalog defines the catalog entities (books, authors,
// genres, reviews), their filter/sort allow-lists and their
// repositories. The allow-lists are declarative tables built once at
// startup; fields absent from a table cannot be filtered or sorted on
// through the API at all.
package catalog

import (
	"database/sql"
	"time"

	"github.com/bookfolio/bookfolio/pkg/observability/logger"
	"github.com/bookfolio/bookfolio/pkg/query"
	"github.com/bookfolio/bookfolio/pkg/repository"
)

// Book is a catalog entry for one published work.
type Book struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	OriginalLanguage string    `json:"original_language"`
	PublicationYear  int64     `json:"publication_year"`
	PageCount        int64     `json:"page_count"`
	Description      string    `json:"description"`
	AuthorID         int64     `json:"author_id"`
	GenreID          int64     `json:"genre_id"`
	Available        bool      `json:"available"`
	AddedAt          time.Time `json:"added_at"`
}

// BookFields is the book allow-list. AuthorID, GenreID and AddedAt are
// deliberately not exposed: relationships are filtered through their
// own resources and AddedAt is bookkeeping.
var BookFields = query.MustRegistry(
	query.IntField("ID", "id", func(b Book) int64 { return b.ID }),
	query.TextField("Title", "title", func(b Book) string { return b.Title }),
	query.TextField("OriginalLanguage", "original_language", func(b Book) string { return b.OriginalLanguage }),
	query.IntField("PublicationYear", "publication_year", func(b Book) int64 { return b.PublicationYear }),
	query.IntField("PageCount", "page_count", func(b Book) int64 { return b.PageCount }),
	query.TextField("Description", "description", func(b Book) string { return b.Description }),
	query.BoolField("Available", "available", func(b Book) bool { return b.Available }),
)

type bookMapper struct{}

func (bookMapper) Columns() []string {
	return []string{
		"title", "original_language", "publication_year", "page_count",
		"description", "author_id", "genre_id", "available", "added_at",
	}
}

func (bookMapper) Values(b *Book) []interface{} {
	return []interface{}{
		b.Title, b.OriginalLanguage, b.PublicationYear, b.PageCount,
		b.Description, b.AuthorID, b.GenreID, b.Available, b.AddedAt,
	}
}

func (bookMapper) SelectColumns() []string {
	return []string{
		"id", "title", "original_language", "publication_year", "page_count",
		"description", "author_id", "genre_id", "available", "added_at",
	}
}

func (bookMapper) Scan(rows *sql.Rows) (*Book, error) {
	var b Book
	err := rows.Scan(
		&b.ID, &b.Title, &b.OriginalLanguage, &b.PublicationYear, &b.PageCount,
		&b.Description, &b.AuthorID, &b.GenreID, &b.Available, &b.AddedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (bookMapper) ID(b *Book) int64 { return b.ID }

// NewBookRepository builds the book repository over the given executor.
func NewBookRepository(executor repository.SQLExecutor, dialect repository.Dialect, log logger.Logger) *repository.SQLRepository[Book, int64] {
	return repository.NewSQLRepository[Book, int64](executor, "books", dialect, BookFields, bookMapper{}, log.With("repository", "books"))
}
