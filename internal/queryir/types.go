package queryir

import "github.com/roach88/hrsync/internal/ir"

// Query is a read against one upstream collection.
type Query interface {
	queryNode()
}

// Predicate is a $filter condition.
type Predicate interface {
	predicateNode()
}

// Literal is a right-hand side value in a comparison.
type Literal interface {
	literalNode()
}

// Collection reads a page of an entity set.
//
//	GET <Path>?$filter=<Filter>&$top=<Top>&$skip=<Skip>&$count=true
//
// Top of zero means "server default" and omits $top. Skip of zero omits $skip.
type Collection struct {
	Path   string    // e.g. "employees", "hr/v2/workers"
	Filter Predicate // nil = no $filter
	Top    int
	Skip   int
	Count  bool
}

func (Collection) queryNode() {}

// Page returns a copy of c positioned at the given page.
func (c Collection) Page(skip int) Collection {
	c.Skip = skip
	return c
}

// Equals compares a field to a literal.
//
//	EmploymentLeftDate eq null
//	parentId eq 'node-1'
type Equals struct {
	Field string
	Value Literal
}

func (Equals) predicateNode() {}

// GreaterOrEqual compares a field to a lower bound.
//
//	startDate ge 2026-07-18
type GreaterOrEqual struct {
	Field string
	Value Literal
}

func (GreaterOrEqual) predicateNode() {}

// And is a conjunction. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// String is a quoted text literal.
type String string

func (String) literalNode() {}

// Bool renders as true/false.
type Bool bool

func (Bool) literalNode() {}

// Date renders as a bare ISO date.
type Date ir.Date

func (Date) literalNode() {}

// Null renders as null. Only valid on the right of Equals.
type Null struct{}

func (Null) literalNode() {}

// Eq is shorthand for Equals{Field: field, Value: String(value)}.
func Eq(field, value string) Equals {
	return Equals{Field: field, Value: String(value)}
}

// IsNull is shorthand for Equals{Field: field, Value: Null{}}.
func IsNull(field string) Equals {
	return Equals{Field: field, Value: Null{}}
}

// AllOf builds an And from its arguments.
func AllOf(predicates ...Predicate) And {
	return And{Predicates: predicates}
}
