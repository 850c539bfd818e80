package crud

import (
	"strings"

	"github.com/code19m/errx"
	"github.com/samber/lo"

	"github.com/nicolaspearson/grpc.typeorm.infrastructure/sorter"
)

// defaultOperator is used when a search term carries no operator.
const defaultOperator = "="

// SearchTerm is a single user-supplied predicate fragment.
type SearchTerm struct {
	Field    string `json:"field"`
	Operator string `json:"operator"` // defaults to "=" when empty
	Value    string `json:"value"`
}

// clause renders the term as a SQL comparison fragment.
func (t SearchTerm) clause() string {
	op := t.Operator
	if op == "" {
		op = defaultOperator
	}
	return t.Field + " " + op + " " + quoteValue(t.Value)
}

// quoteValue single-quotes a literal value. A value wrapped in literal
// parentheses is treated as a raw sub-expression and passed through
// unquoted. No escaping is applied: a value that already contains quotes is
// interpolated verbatim, so callers must not feed untrusted input to raw
// query-builder paths without their own sanitization.
func quoteValue(v string) string {
	if strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")") {
		return v
	}
	return "'" + v + "'"
}

// QueryBuilderOptions is a compiled query predicate: one primary clause plus
// zero or more conjunctive clauses, bounded by a result-count limit. Order
// is optional and is not produced by BuildSearchFilter.
type QueryBuilderOptions struct {
	Where    string
	AndWhere []string
	Limit    int
	Order    sorter.SortOpts
}

// BuildSearchFilter compiles user-supplied search terms into
// QueryBuilderOptions. The first term becomes the primary Where clause and
// every subsequent term is appended to AndWhere; the split is positional,
// not semantic. A negative limit or an empty term list is rejected with a
// validation error.
func BuildSearchFilter(limit int, terms []SearchTerm) (QueryBuilderOptions, error) {
	if limit < 0 {
		return QueryBuilderOptions{}, errx.New(
			"search limit must not be negative",
			errx.WithCode(CodeInvalidSearchFilter),
			errx.WithType(errx.T_Validation),
		)
	}

	if len(terms) == 0 {
		return QueryBuilderOptions{}, errx.New(
			"at least one search term is required",
			errx.WithCode(CodeInvalidSearchFilter),
			errx.WithType(errx.T_Validation),
		)
	}

	clauses := lo.Map(terms, func(t SearchTerm, _ int) string {
		return t.clause()
	})

	return QueryBuilderOptions{
		Where:    clauses[0],
		AndWhere: clauses[1:],
		Limit:    limit,
	}, nil
}
