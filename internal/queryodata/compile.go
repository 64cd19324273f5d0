// Package queryodata renders queryir collections as OData system query
// options ($filter, $top, $skip, $count).
package queryodata

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/roach88/hrsync/internal/ir"
	"github.com/roach88/hrsync/internal/queryir"
)

// Compiler turns queryir queries into request paths and query strings.
//
// Output is deterministic: predicates render in declaration order and
// url.Values.Encode sorts keys.
type Compiler struct{}

// NewCompiler creates a Compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile validates q and returns its collection path and query options.
func (c *Compiler) Compile(q queryir.Query) (string, url.Values, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}
	if result := queryir.Validate(q); !result.Valid {
		return "", nil, fmt.Errorf("invalid query: %s", strings.Join(result.Problems, "; "))
	}

	switch query := q.(type) {
	case queryir.Collection:
		return c.compileCollection(query)
	case *queryir.Collection:
		return c.compileCollection(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *Compiler) compileCollection(q queryir.Collection) (string, url.Values, error) {
	values := url.Values{}
	if q.Filter != nil {
		filter, err := c.Filter(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		if filter != "" {
			values.Set("$filter", filter)
		}
	}
	if q.Top > 0 {
		values.Set("$top", strconv.Itoa(q.Top))
	}
	if q.Skip > 0 {
		values.Set("$skip", strconv.Itoa(q.Skip))
	}
	if q.Count {
		values.Set("$count", "true")
	}
	return q.Path, values, nil
}

// Filter renders a predicate as a $filter expression. An empty And renders
// as the empty string.
func (c *Compiler) Filter(p queryir.Predicate) (string, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return c.compileComparison(pred.Field, "eq", pred.Value)
	case *queryir.Equals:
		return c.compileComparison(pred.Field, "eq", pred.Value)
	case queryir.GreaterOrEqual:
		return c.compileComparison(pred.Field, "ge", pred.Value)
	case *queryir.GreaterOrEqual:
		return c.compileComparison(pred.Field, "ge", pred.Value)
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *Compiler) compileComparison(field, op string, value queryir.Literal) (string, error) {
	lit, err := literal(value)
	if err != nil {
		return "", fmt.Errorf("field %s: %w", field, err)
	}
	return field + " " + op + " " + lit, nil
}

// compileAnd flattens nested conjunctions without parentheses.
func (c *Compiler) compileAnd(and queryir.And) (string, error) {
	parts := make([]string, 0, len(and.Predicates))
	for _, sub := range and.Predicates {
		s, err := c.Filter(sub)
		if err != nil {
			return "", err
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " and "), nil
}

func literal(v queryir.Literal) (string, error) {
	switch lit := v.(type) {
	case queryir.String:
		return "'" + strings.ReplaceAll(string(lit), "'", "''") + "'", nil
	case queryir.Bool:
		return strconv.FormatBool(bool(lit)), nil
	case queryir.Date:
		return ir.Date(lit).String(), nil
	case queryir.Null:
		return "null", nil
	default:
		return "", fmt.Errorf("unsupported literal type: %T", v)
	}
}
