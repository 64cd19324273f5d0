package harness

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/hrsync/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Calls    []string // Every call of the run for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Calls) > 0 {
		fmt.Fprintf(&buf, "\nCalls:\n")
		for i, call := range e.Calls {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, call)
		}
	}

	return buf.String()
}

func assertCallContains(calls []string, assertion Assertion) error {
	for _, call := range calls {
		if call == assertion.Call {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertCallContains,
		Expected: assertion.Call,
		Actual:   "not sent",
		Calls:    calls,
	}
}

// assertCallOrder checks that calls appear in the specified order.
// Calls don't need to be consecutive (intervening calls are allowed).
func assertCallOrder(calls []string, assertion Assertion) error {
	positions := make(map[string]int)
	for i, call := range calls {
		if _, seen := positions[call]; !seen {
			positions[call] = i + 1 // 1-indexed for readability
		}
	}

	for _, call := range assertion.Calls {
		if positions[call] == 0 {
			return &AssertionError{
				Type:     AssertCallOrder,
				Expected: fmt.Sprintf("all calls present: %v", assertion.Calls),
				Actual:   fmt.Sprintf("missing call: %s", call),
				Calls:    calls,
			}
		}
	}

	for i := 1; i < len(assertion.Calls); i++ {
		prev, curr := assertion.Calls[i-1], assertion.Calls[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertCallOrder,
				Expected: fmt.Sprintf("calls in order: %v", assertion.Calls),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Calls: calls,
			}
		}
	}
	return nil
}

func assertCallCount(calls []string, assertion Assertion) error {
	count := 0
	for _, call := range calls {
		if call == assertion.Call {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertCallCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Call),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Calls:    calls,
		}
	}
	return nil
}

// assertCounts checks the report tally of one kind. A kind with no ledger
// rows counts as all zeros.
func assertCounts(result *Result, assertion Assertion) error {
	actual := map[string]any{}
	if c, ok := result.Counts[ir.RecordKind(assertion.Kind)]; ok && c != nil {
		var err error
		if actual, err = toMap(c); err != nil {
			return err
		}
	}

	for key, want := range assertion.Expect {
		got, ok := actual[key]
		if !ok {
			got = 0
		}
		if !valuesEqual(got, want) {
			return &AssertionError{
				Type:     AssertCounts,
				Expected: fmt.Sprintf("%s %s = %v", assertion.Kind, key, want),
				Actual:   fmt.Sprintf("%s %s = %v", assertion.Kind, key, got),
			}
		}
	}
	return nil
}

// assertLedgerContains checks that at least one ledger entry carries every
// field of the match (subset semantics).
func assertLedgerContains(ledger []LedgerEntry, assertion Assertion) error {
	rows := make([]string, 0, len(ledger))
	for _, entry := range ledger {
		m, err := toMap(entry)
		if err != nil {
			return err
		}
		if matchFields(m, assertion.Match) {
			return nil
		}
		rows = append(rows, fmt.Sprintf("%v", m))
	}
	return &AssertionError{
		Type:     AssertLedgerContains,
		Expected: fmt.Sprintf("ledger entry matching %v", assertion.Match),
		Actual:   fmt.Sprintf("no match in %d entries: %s", len(ledger), strings.Join(rows, "; ")),
	}
}

func assertStatus(result *Result, assertion Assertion) error {
	if result.Status != assertion.Status {
		return &AssertionError{
			Type:     AssertStatus,
			Expected: assertion.Status,
			Actual:   fmt.Sprintf("%q (error: %s)", result.Status, result.RunError),
		}
	}
	return nil
}

func assertRunError(result *Result, assertion Assertion) error {
	if !strings.Contains(result.RunError, assertion.Error) {
		return &AssertionError{
			Type:     AssertRunError,
			Expected: fmt.Sprintf("run error containing %q", assertion.Error),
			Actual:   fmt.Sprintf("%q", result.RunError),
		}
	}
	return nil
}

// toMap converts v to its JSON object form so fields can be matched by
// their JSON names.
func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode for assertion: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode for assertion: %w", err)
	}
	return m, nil
}

// matchFields checks if actual contains all expected fields (subset match).
// A missing field matches an expected zero value, since the ledger JSON
// omits empty target ids, reasons and statuses.
func matchFields(actual, expected map[string]any) bool {
	for key, want := range expected {
		got, ok := actual[key]
		if !ok {
			got = zeroLike(want)
		}
		if !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

func zeroLike(v any) any {
	switch v.(type) {
	case string:
		return ""
	case int, int64, float64:
		return 0
	}
	return nil
}

// valuesEqual compares two values by canonical JSON, so 1 and 1.0 (YAML
// int, JSON float) are equal.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	return ir.CanonicalEqual(actual, expected)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertCallContains:
			err = assertCallContains(result.Calls, assertion)
		case AssertCallOrder:
			err = assertCallOrder(result.Calls, assertion)
		case AssertCallCount:
			err = assertCallCount(result.Calls, assertion)
		case AssertCounts:
			err = assertCounts(result, assertion)
		case AssertLedgerContains:
			err = assertLedgerContains(result.Ledger, assertion)
		case AssertStatus:
			err = assertStatus(result, assertion)
		case AssertRunError:
			err = assertRunError(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
