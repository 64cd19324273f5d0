// Package country captures the per-country differences in the source
// system's field layout behind a single Profile interface, selected once
// per run.
package country

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/roach88/hrsync/internal/feed"
	"github.com/roach88/hrsync/internal/ir"
)

// ErrNoJobCode is returned when an assignment lacks the organizational
// unit that carries the job code.
var ErrNoJobCode = errors.New("assignment has no job code")

// HoursPerDay converts day-denominated time off to hours.
var HoursPerDay = decimal.NewFromInt(8)

// Profile extracts country-specific fields from source records.
type Profile interface {
	Code() ir.Country

	// JobCode returns the code (and, where the country keys on it, the job
	// title) used to resolve the hierarchy node.
	JobCode(a feed.WorkAssignment) (code, name string, err error)

	// DisplayID returns the destination display id stored at the source.
	DisplayID(w feed.Worker) string

	// Contract returns the destination contract kind for a.
	Contract(a feed.WorkAssignment) string

	// ResolveHierarchy maps a job code to a destination hierarchy node id.
	ResolveHierarchy(code, name string, t ir.CountryTables, nodes []feed.HierarchyNode) *string

	// AbsenceReason maps a time-off entry to a destination reason id.
	AbsenceReason(e feed.TimeOffEntry, t ir.CountryTables) (string, bool)

	// EntryMinutes normalizes an entry's booked quantity to minutes and days.
	EntryMinutes(q *feed.Quantity) (minutes int, days decimal.Decimal)

	// CustomFieldItemID is the source custom field holding the display id.
	CustomFieldItemID(t ir.CountryTables) string
}

// ForCode returns the profile for c.
func ForCode(c ir.Country) (Profile, error) {
	switch c {
	case ir.CountryUSA:
		return usa{}, nil
	case ir.CountryCAN:
		return can{}, nil
	default:
		return nil, fmt.Errorf("no profile for country %q", c)
	}
}

// Default custom field item ids when the tables do not set one.
const (
	usaCustomFieldItemID = "9200019333951_24129"
	canCustomFieldItemID = "9200820366120_1"
)

var fullTimeCodes = map[string]bool{
	"Full Time":         true,
	"FT":                true,
	"Regular Full-Time": true,
}

func contractFor(code string) string {
	if fullTimeCodes[code] {
		return ir.ContractPermanent
	}
	return ir.ContractTemporary
}

func unitCode(a feed.WorkAssignment, i int) (string, error) {
	if i >= len(a.HomeOrganizationalUnits) {
		return "", fmt.Errorf("%w: homeOrganizationalUnits[%d] missing", ErrNoJobCode, i)
	}
	code := a.HomeOrganizationalUnits[i].NameCode.Code()
	if code == "" {
		return "", fmt.Errorf("%w: homeOrganizationalUnits[%d] has no codeValue", ErrNoJobCode, i)
	}
	return code, nil
}

func hours(q *feed.Quantity) decimal.Decimal {
	if q == nil {
		return decimal.Zero
	}
	return q.ValueNumber
}

func minutesOf(h decimal.Decimal) int {
	return int(h.Mul(decimal.NewFromInt(60)).IntPart())
}

// foldEqual compares unit codes case-insensitively. Casers hold state, so
// each call gets its own.
func foldEqual(a, b string) bool {
	c := cases.Fold()
	return c.String(a) == c.String(b)
}

func trimmed(s string) string { return strings.TrimSpace(s) }
