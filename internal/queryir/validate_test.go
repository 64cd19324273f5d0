package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/hrsync/internal/ir"
)

func TestValidate_HierarchyChildren(t *testing.T) {
	q := Collection{
		Path:   "hierarchy",
		Filter: AllOf(Eq("parentId", "root"), Equals{Field: "disabled", Value: Bool(false)}),
	}

	result := Validate(q)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Problems)
}

func TestValidate_PointerVariants(t *testing.T) {
	q := &Collection{
		Path:   "absences",
		Filter: &And{Predicates: []Predicate{&Equals{Field: "EmployeeId", Value: String("e1")}}},
	}

	assert.True(t, Validate(q).Valid)
}

func TestValidate_NilQuery(t *testing.T) {
	result := Validate(nil)

	assert.False(t, result.Valid)
	assert.Contains(t, result.Problems[0], "nil query")
}

func TestValidate_PagingBounds(t *testing.T) {
	result := Validate(Collection{Path: "jobs", Top: -1, Skip: -5})

	assert.False(t, result.Valid)
	assert.Len(t, result.Problems, 2)
}

func TestValidate_EmptyPath(t *testing.T) {
	result := Validate(Collection{})

	assert.False(t, result.Valid)
	assert.Contains(t, result.Problems[0], "path is empty")
}

func TestValidate_FieldNames(t *testing.T) {
	tests := []struct {
		field string
		valid bool
	}{
		{"EmployeeId", true},
		{"workers/workAssignments/assignmentStatus/statusCode/codeValue", true},
		{"_private", true},
		{"", false},
		{"Employee Id", false},
		{"a//b", false},
		{"x' or 1 eq 1", false},
		{"1abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			result := Validate(Collection{Path: "p", Filter: Eq(tt.field, "v")})
			assert.Equal(t, tt.valid, result.Valid, result.Problems)
		})
	}
}

func TestValidate_NullOnlyWithEquals(t *testing.T) {
	assert.True(t, Validate(Collection{Path: "employees", Filter: IsNull("EmploymentLeftDate")}).Valid)

	result := Validate(Collection{Path: "employees", Filter: GreaterOrEqual{Field: "EmploymentLeftDate", Value: Null{}}})
	assert.False(t, result.Valid)
	assert.Contains(t, result.Problems[0], "null")
}

func TestValidate_BoolOnlyWithEquals(t *testing.T) {
	result := Validate(Collection{Path: "hierarchy", Filter: GreaterOrEqual{Field: "disabled", Value: Bool(true)}})

	assert.False(t, result.Valid)
}

func TestValidate_MissingAndZeroValues(t *testing.T) {
	result := Validate(Collection{
		Path: "absences",
		Filter: AllOf(
			Equals{Field: "EmployeeId"},
			GreaterOrEqual{Field: "startDate", Value: Date(ir.Date{})},
		),
	})

	assert.False(t, result.Valid)
	assert.Len(t, result.Problems, 2)
}

func TestValidate_CollectsNestedProblems(t *testing.T) {
	result := Validate(Collection{
		Path:   "x",
		Filter: AllOf(AllOf(Eq("bad field", "v")), nil),
	})

	assert.False(t, result.Valid)
	assert.Len(t, result.Problems, 2)
}

func TestValidate_EmptyAndIsValid(t *testing.T) {
	assert.True(t, Validate(Collection{Path: "x", Filter: And{}}).Valid)
}
