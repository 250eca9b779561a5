// Package httpapi exposes the catalog over HTTP. It is a thin
// collaborator around the query engine: handlers lift query-string
// parameters into engine inputs, hand the resulting page or typed
// error back to the client, and leave all validation to the engine.
package httpapi

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bookfolio/bookfolio/pkg/apperror"
	"github.com/bookfolio/bookfolio/pkg/query"
)

// Reserved query-string keys. Every other pair is treated as a filter
// expression of the form <Field><Operator><Value>.
const (
	paramSortBy   = "sortBy"
	paramSortDesc = "sortDesc"
	paramPage     = "page"
	paramPageSize = "pageSize"
)

// ParamsFromQuery lifts a request's raw query string into engine
// parameters. The raw string is parsed here rather than through
// url.Values because the standard parser splits each pair at the first
// "=", which lands inside two-character operator tokens like "~=".
//
// Repeated keys collapse to their first value; that collapsing is this
// transport's documented behavior, not the engine's.
func ParamsFromQuery(rawQuery string) (query.Params, error) {
	p := query.DefaultParams()
	filters := make(map[string]string)

	for _, segment := range strings.Split(rawQuery, "&") {
		if segment == "" {
			continue
		}
		decoded, err := url.QueryUnescape(segment)
		if err != nil {
			return query.Params{}, invalidParam(segment, segment, "well-formed query parameter")
		}

		if name, value, found := strings.Cut(decoded, "="); found {
			handled, err := applyReserved(&p, name, value)
			if err != nil {
				return query.Params{}, err
			}
			if handled {
				continue
			}
		}

		key, value, ok := query.CutExpression(decoded)
		if !ok {
			// Not a recognizable filter expression. Hand the pair to the
			// engine as-is so its malformed-key error names the culprit.
			key, value, _ = strings.Cut(decoded, "=")
		}
		if _, seen := filters[key]; !seen {
			filters[key] = value
		}
	}

	if len(filters) > 0 {
		p.Filters = filters
	}
	return p, nil
}

// applyReserved handles the reserved keys, reporting whether name was
// one of them. Later occurrences of a reserved key overwrite earlier
// ones.
func applyReserved(p *query.Params, name, value string) (bool, error) {
	switch name {
	case paramSortBy:
		p.SortBy = value
	case paramSortDesc:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return true, invalidParam(paramSortDesc, value, "boolean")
		}
		p.SortDescending = b
	case paramPage:
		n, err := strconv.Atoi(value)
		if err != nil {
			return true, invalidParam(paramPage, value, "integer")
		}
		p.Page = n
	case paramPageSize:
		n, err := strconv.Atoi(value)
		if err != nil {
			return true, invalidParam(paramPageSize, value, "integer")
		}
		p.PageSize = n
	default:
		return false, nil
	}
	return true, nil
}

func invalidParam(name, value, want string) *apperror.AppError {
	return apperror.NewValidation(
		"request.invalid_parameter",
		fmt.Sprintf("parameter %q must be a %s, got %q", name, want, value),
		map[string]interface{}{"parameter": name, "value": value},
	)
}
