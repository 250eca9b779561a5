package catalog

import (
	"database/sql"
	"time"

	"github.com/bookfolio/bookfolio/pkg/observability/logger"
	"github.com/bookfolio/bookfolio/pkg/query"
	"github.com/bookfolio/bookfolio/pkg/repository"
)

// Review is one reader's review of a book.
type Review struct {
	ID          int64     `json:"id"`
	BookID      int64     `json:"book_id"`
	Reviewer    string    `json:"reviewer"`
	Rating      float64   `json:"rating"`
	Body        string    `json:"body"`
	Recommended bool      `json:"recommended"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReviewFields is the review allow-list. Body is kept off the list;
// free-text review bodies are not a useful filter surface and would
// make expensive LIKE scans trivially reachable.
var ReviewFields = query.MustRegistry(
	query.IntField("ID", "id", func(r Review) int64 { return r.ID }),
	query.IntField("BookID", "book_id", func(r Review) int64 { return r.BookID }),
	query.TextField("Reviewer", "reviewer", func(r Review) string { return r.Reviewer }),
	query.DecimalField("Rating", "rating", func(r Review) float64 { return r.Rating }),
	query.BoolField("Recommended", "recommended", func(r Review) bool { return r.Recommended }),
	query.DateField("CreatedAt", "created_at", func(r Review) time.Time { return r.CreatedAt }),
)

type reviewMapper struct{}

func (reviewMapper) Columns() []string {
	return []string{"book_id", "reviewer", "rating", "body", "recommended", "created_at"}
}

func (reviewMapper) Values(r *Review) []interface{} {
	return []interface{}{r.BookID, r.Reviewer, r.Rating, r.Body, r.Recommended, r.CreatedAt}
}

func (reviewMapper) SelectColumns() []string {
	return []string{"id", "book_id", "reviewer", "rating", "body", "recommended", "created_at"}
}

func (reviewMapper) Scan(rows *sql.Rows) (*Review, error) {
	var r Review
	err := rows.Scan(&r.ID, &r.BookID, &r.Reviewer, &r.Rating, &r.Body, &r.Recommended, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (reviewMapper) ID(r *Review) int64 { return r.ID }

// NewReviewRepository builds the review repository.
func NewReviewRepository(executor repository.SQLExecutor, dialect repository.Dialect, log logger.Logger) *repository.SQLRepository[Review, int64] {
	return repository.NewSQLRepository[Review, int64](executor, "reviews", dialect, ReviewFields, reviewMapper{}, log.With("repository", "reviews"))
}
