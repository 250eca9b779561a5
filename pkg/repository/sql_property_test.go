package repository

import (
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/bookfolio/bookfolio/pkg/observability/logger"
	"github.com/bookfolio/bookfolio/pkg/query"
)

// Property: the WHERE compiler always emits exactly one placeholder per
// clause, placeholders are numbered sequentially, and LIKE patterns
// never contain an unescaped wildcard from user input.

func TestProperty_WhereClauseCompilation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	repo := NewSQLRepository[volume, int64](nil, "volumes", Postgres, volumeRegistry, volumeMapper{}, logger.NewNop())

	properties.Property("placeholders and args stay aligned", prop.ForAll(
		func(pages int64, needle string) bool {
			clauses, err := query.ParseFilters(volumeRegistry, map[string]string{
				"Pages>=": strconv.FormatInt(pages, 10),
				"Title~=": needle,
			})
			if err != nil {
				return false
			}
			typed, err := query.CoerceClauses(clauses)
			if err != nil {
				return false
			}

			where, args := repo.whereClause(typed)
			if len(args) != len(typed) {
				t.Logf("args = %d, clauses = %d", len(args), len(typed))
				return false
			}
			for i := range args {
				if !strings.Contains(where, "$"+strconv.Itoa(i+1)) {
					t.Logf("missing placeholder $%d in %q", i+1, where)
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.AnyString(),
	))

	properties.Property("user input cannot smuggle LIKE wildcards", prop.ForAll(
		func(needle string) bool {
			escaped := escapeLikePattern(needle)
			for i := 0; i < len(escaped); i++ {
				switch escaped[i] {
				case '%', '_':
					// Must be preceded by the escape character.
					if i == 0 || escaped[i-1] != likeEscape[0] {
						t.Logf("unescaped wildcard in %q", escaped)
						return false
					}
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
