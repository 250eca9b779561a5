package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/bookfolio/bookfolio/pkg/observability/logger"
	"github.com/bookfolio/bookfolio/pkg/query"
)

// likeEscape is the LIKE escape character used for substring filters.
// It sidesteps backslash handling differences between dialects.
const likeEscape = "!"

// SQLRepository is a generic CRUD repository over one table that also
// implements query.Source, compiling coerced filter clauses into
// parameterized SQL. Every column name it emits comes from the field
// registry or the mapper, never from caller input, so dynamically
// built WHERE clauses carry no injection surface.
type SQLRepository[T any, ID comparable] struct {
	executor SQLExecutor
	table    string
	dialect  Dialect
	registry *query.Registry[T]
	mapper   Mapper[T, ID]
	log      logger.Logger
}

// NewSQLRepository creates a repository for one entity type.
func NewSQLRepository[T any, ID comparable](
	executor SQLExecutor,
	table string,
	dialect Dialect,
	registry *query.Registry[T],
	mapper Mapper[T, ID],
	log logger.Logger,
) *SQLRepository[T, ID] {
	return &SQLRepository[T, ID]{
		executor: executor,
		table:    table,
		dialect:  dialect,
		registry: registry,
		mapper:   mapper,
		log:      log,
	}
}

// Registry returns the entity's field registry.
func (r *SQLRepository[T, ID]) Registry() *query.Registry[T] {
	return r.registry
}

// FindPage runs the full query pipeline against this repository.
func (r *SQLRepository[T, ID]) FindPage(ctx context.Context, p query.Params) (query.Page[T], error) {
	return query.Run[T](ctx, r.registry, r, p)
}

// Count implements query.Source.
func (r *SQLRepository[T, ID]) Count(ctx context.Context, clauses []query.TypedClause[T]) (int64, error) {
	where, args := r.whereClause(clauses)
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", r.table, where)

	var count int64
	if err := r.executor.QueryRowContext(ctx, q, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", r.table, err)
	}
	return count, nil
}

// Select implements query.Source.
func (r *SQLRepository[T, ID]) Select(ctx context.Context, clauses []query.TypedClause[T], orders []query.Order[T], offset, limit int) ([]T, error) {
	where, args := r.whereClause(clauses)

	q := fmt.Sprintf(
		"SELECT %s FROM %s%s ORDER BY %s LIMIT %s OFFSET %s",
		strings.Join(r.mapper.SelectColumns(), ", "),
		r.table,
		where,
		r.orderBy(orders),
		r.dialect.Placeholder(len(args)+1),
		r.dialect.Placeholder(len(args)+2),
	)
	args = append(args, limit, offset)

	rows, err := r.executor.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select rows from %s: %w", r.table, err)
	}
	defer rows.Close()

	entities := []T{}
	for rows.Next() {
		entity, err := r.mapper.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", r.table, err)
		}
		entities = append(entities, *entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows from %s: %w", r.table, err)
	}

	return entities, nil
}

// whereClause compiles coerced clauses into a conjunctive WHERE clause.
// Substring filters compare case-insensitively via LOWER on both sides.
func (r *SQLRepository[T, ID]) whereClause(clauses []query.TypedClause[T]) (string, []interface{}) {
	if len(clauses) == 0 {
		return "", nil
	}

	predicates := make([]string, 0, len(clauses))
	args := make([]interface{}, 0, len(clauses))

	for _, c := range clauses {
		ph := r.dialect.Placeholder(len(args) + 1)
		if c.Operator == query.Contains {
			predicates = append(predicates, fmt.Sprintf("LOWER(%s) LIKE %s ESCAPE '%s'", c.Field.Column, ph, likeEscape))
			args = append(args, "%"+escapeLikePattern(strings.ToLower(c.Value.(string)))+"%")
			continue
		}
		predicates = append(predicates, fmt.Sprintf("%s %s %s", c.Field.Column, sqlOperator(c.Operator), ph))
		args = append(args, c.Value)
	}

	return " WHERE " + strings.Join(predicates, " AND "), args
}

func (r *SQLRepository[T, ID]) orderBy(orders []query.Order[T]) string {
	keys := make([]string, len(orders))
	for i, o := range orders {
		direction := "ASC"
		if o.Descending {
			direction = "DESC"
		}
		keys[i] = o.Field.Column + " " + direction
	}
	return strings.Join(keys, ", ")
}

func sqlOperator(op query.Operator) string {
	switch op {
	case query.Equals:
		return "="
	case query.GreaterOrEqual:
		return ">="
	case query.LessOrEqual:
		return "<="
	case query.GreaterThan:
		return ">"
	case query.LessThan:
		return "<"
	default:
		return "="
	}
}

func escapeLikePattern(s string) string {
	replacer := strings.NewReplacer(
		likeEscape, likeEscape+likeEscape,
		"%", likeEscape+"%",
		"_", likeEscape+"_",
	)
	return replacer.Replace(s)
}

// FindByID retrieves one entity by its identity value.
func (r *SQLRepository[T, ID]) FindByID(ctx context.Context, id ID) (*T, error) {
	q := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = %s",
		strings.Join(r.mapper.SelectColumns(), ", "),
		r.table,
		r.idColumn(),
		r.dialect.Placeholder(1),
	)

	rows, err := r.executor.QueryContext(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s by id: %w", r.table, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error reading %s by id: %w", r.table, err)
		}
		return nil, sql.ErrNoRows
	}

	entity, err := r.mapper.Scan(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s row: %w", r.table, err)
	}
	return entity, nil
}

// Create inserts a new entity.
func (r *SQLRepository[T, ID]) Create(ctx context.Context, entity *T) error {
	if entity == nil {
		return errors.New("entity cannot be nil")
	}

	columns := append([]string{r.idColumn()}, r.mapper.Columns()...)
	values := append([]interface{}{r.mapper.ID(entity)}, r.mapper.Values(entity)...)

	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = r.dialect.Placeholder(i + 1)
	}

	q := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		r.table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	if _, err := r.executor.ExecContext(ctx, q, values...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", r.table, err)
	}

	r.log.Debug("entity created", "table", r.table, "id", r.mapper.ID(entity))
	return nil
}

// Update rewrites an existing entity. Returns sql.ErrNoRows when the
// identity does not exist.
func (r *SQLRepository[T, ID]) Update(ctx context.Context, entity *T) error {
	if entity == nil {
		return errors.New("entity cannot be nil")
	}

	columns := r.mapper.Columns()
	values := r.mapper.Values(entity)

	setClauses := make([]string, len(columns))
	for i, col := range columns {
		setClauses[i] = fmt.Sprintf("%s = %s", col, r.dialect.Placeholder(i+1))
	}

	q := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = %s",
		r.table,
		strings.Join(setClauses, ", "),
		r.idColumn(),
		r.dialect.Placeholder(len(values)+1),
	)
	values = append(values, r.mapper.ID(entity))

	result, err := r.executor.ExecContext(ctx, q, values...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", r.table, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for %s: %w", r.table, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	r.log.Debug("entity updated", "table", r.table, "id", r.mapper.ID(entity))
	return nil
}

// Delete removes an entity by identity. Returns sql.ErrNoRows when the
// identity does not exist.
func (r *SQLRepository[T, ID]) Delete(ctx context.Context, id ID) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", r.table, r.idColumn(), r.dialect.Placeholder(1))

	result, err := r.executor.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", r.table, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for %s: %w", r.table, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	r.log.Debug("entity deleted", "table", r.table, "id", id)
	return nil
}

func (r *SQLRepository[T, ID]) idColumn() string {
	return r.registry.Identity().Column
}
