package query

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Operator is one of the six comparison operators a filter key may
// carry as its suffix.
type Operator int

// Filter operators. Contains is valid only on Text fields.
const (
	Equals Operator = iota
	GreaterOrEqual
	LessOrEqual
	GreaterThan
	LessThan
	Contains
)

// operatorTokens maps each operator to its key suffix. Two-character
// tokens are listed before their one-character prefixes so that suffix
// matching never mistakes ">=" for ">".
var operatorTokens = []struct {
	token string
	op    Operator
}{
	{"==", Equals},
	{">=", GreaterOrEqual},
	{"<=", LessOrEqual},
	{"~=", Contains},
	{">", GreaterThan},
	{"<", LessThan},
}

// Token returns the operator's key suffix, e.g. ">=".
func (op Operator) Token() string {
	for _, t := range operatorTokens {
		if t.op == op {
			return t.token
		}
	}
	return "?"
}

func operatorTokenList() string {
	tokens := make([]string, len(operatorTokens))
	for i, t := range operatorTokens {
		tokens[i] = t.token
	}
	return strings.Join(tokens, ", ")
}

// Clause is one parsed, registry-validated filter constraint. The value
// is still the caller's raw string; coercion happens in a separate
// step.
type Clause[T any] struct {
	Field    Field[T]
	Operator Operator
	RawValue string
}

// ParseFilters turns a raw filter map into validated clauses. Each key
// must have the shape <identifier><operator-token> where the identifier
// is a non-empty run of letters and the operator token is one of
// ==, >=, <=, >, <, ~=. The identifier must resolve through the
// registry.
//
// Clauses are conjunctive and order-independent, so map iteration order
// does not affect results; keys are still visited in sorted order so
// that the first error reported is deterministic. Duplicate keys cannot
// occur in a map — collapsing repeated keys is the transport's concern,
// not ours.
func ParseFilters[T any](reg *Registry[T], filters map[string]string) ([]Clause[T], error) {
	if len(filters) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	clauses := make([]Clause[T], 0, len(keys))
	for _, key := range keys {
		clause, err := parseClause(reg, key, filters[key])
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	return clauses, nil
}

func parseClause[T any](reg *Registry[T], key, value string) (Clause[T], error) {
	name, op, ok := splitFilterKey(key)
	if !ok {
		return Clause[T]{}, &MalformedFilterKeyError{Key: key}
	}

	field, found := reg.Resolve(name)
	if !found {
		return Clause[T]{}, &UnknownFilterFieldError{Field: name, Allowed: reg.FieldNames()}
	}

	return Clause[T]{Field: field, Operator: op, RawValue: value}, nil
}

// splitFilterKey separates the identifier from the trailing operator
// token. The identifier must be non-empty and consist only of letters.
func splitFilterKey(key string) (string, Operator, bool) {
	for _, t := range operatorTokens {
		name, found := strings.CutSuffix(key, t.token)
		if !found {
			continue
		}
		if !isIdentifier(name) {
			return "", 0, false
		}
		return name, t.op, true
	}
	return "", 0, false
}

// CutExpression splits a raw "<Field><Op><Value>" expression into its
// key ("<Field><Op>") and value. It exists for transports whose framing
// would otherwise cut the expression in the wrong place: query strings,
// for example, split each pair at the first "=", which lands inside
// two-character operator tokens. ok is false when no operator token
// follows the leading identifier.
func CutExpression(expr string) (key, value string, ok bool) {
	i := 0
	for i < len(expr) {
		r, size := utf8.DecodeRuneInString(expr[i:])
		if !unicode.IsLetter(r) {
			break
		}
		i += size
	}
	if i == 0 {
		return "", "", false
	}
	for _, t := range operatorTokens {
		if strings.HasPrefix(expr[i:], t.token) {
			return expr[:i+len(t.token)], expr[i+len(t.token):], true
		}
	}
	return "", "", false
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
