package ir

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"null", nil, "null"},
		{"bool", true, "true"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"html not escaped", "<a&b>", `"<a&b>"`},
		{"trailing zero dropped", decimal.RequireFromString("40.0"), "40"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := map[string]any{
		"zebra": 1,
		"alpha": map[string]any{"b": 1, "a": 2},
		"beta":  3,
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":{"a":2,"b":1},"beta":3,"zebra":1}`, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	decomposed, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	composed, err := MarshalCanonical("\u00e9")
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestMarshalCanonicalLineSeparatorsLiteral(t *testing.T) {
	result, err := MarshalCanonical("a\u2028b")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(result))
}

func TestCanonicalEqual_PersonalRecords(t *testing.T) {
	a := PersonalRecord{
		DisplayId:     StringPtr("1001"),
		FirstName:     StringPtr("Ada"),
		WorkingStatus: StringPtr(StatusCurrent),
		DateOfBirth:   DatePtr(MustParseDate("1990-01-02")),
	}
	b := a
	b.DateOfBirth = DatePtr(MustParseDate("1990-01-02T00:00:00Z"))

	assert.True(t, CanonicalEqual(a, b))

	b.FirstName = StringPtr("Ada ")
	assert.False(t, CanonicalEqual(a, b))
}

func TestCanonicalEqual_SalaryScale(t *testing.T) {
	a := JobRecord{Salary: decimal.RequireFromString("25000.50")}
	b := JobRecord{Salary: decimal.RequireFromString("25000.5")}
	assert.True(t, CanonicalEqual(a, b))
}
