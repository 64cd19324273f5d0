package queryir

import (
	"fmt"
	"regexp"

	"github.com/roach88/hrsync/internal/ir"
)

// ValidationResult reports whether a query can be sent as written.
type ValidationResult struct {
	Valid    bool
	Problems []string
}

// fieldPattern accepts OData property paths such as "EmployeeId" and
// "workers/workAssignments/assignmentStatus/statusCode/codeValue".
var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(/[A-Za-z_][A-Za-z0-9_]*)*$`)

// Validate checks paging bounds, field names and literal placement.
// It is pure and collects every problem rather than stopping at the first.
func Validate(query Query) ValidationResult {
	v := &validator{}
	v.validateQuery(query)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addProblem("nil query")
	case Collection:
		v.validateCollection(query)
	case *Collection:
		v.validateCollection(*query)
	default:
		v.addProblem("unknown query type: %T", q)
	}
}

func (v *validator) validateCollection(c Collection) {
	if c.Path == "" {
		v.addProblem("collection path is empty")
	}
	if c.Top < 0 {
		v.addProblem("negative $top: %d", c.Top)
	}
	if c.Skip < 0 {
		v.addProblem("negative $skip: %d", c.Skip)
	}
	if c.Filter != nil {
		v.validatePredicate(c.Filter)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		v.addProblem("nil predicate")
	case Equals:
		v.validateComparison("eq", pred.Field, pred.Value, true)
	case *Equals:
		v.validateComparison("eq", pred.Field, pred.Value, true)
	case GreaterOrEqual:
		v.validateComparison("ge", pred.Field, pred.Value, false)
	case *GreaterOrEqual:
		v.validateComparison("ge", pred.Field, pred.Value, false)
	case And:
		v.validateAnd(pred)
	case *And:
		v.validateAnd(*pred)
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}

func (v *validator) validateComparison(op, field string, value Literal, nullOK bool) {
	if !fieldPattern.MatchString(field) {
		v.addProblem("invalid field name %q in %s", field, op)
	}
	switch val := value.(type) {
	case nil:
		v.addProblem("field %q: %s without a value", field, op)
	case Null:
		if !nullOK {
			v.addProblem("field %q: null is only comparable with eq", field)
		}
	case Date:
		if ir.Date(val).IsZero() {
			v.addProblem("field %q: zero date", field)
		}
	case Bool:
		if op != "eq" {
			v.addProblem("field %q: booleans are only comparable with eq", field)
		}
	}
}

func (v *validator) validateAnd(and And) {
	for _, sub := range and.Predicates {
		v.validatePredicate(sub)
	}
}
