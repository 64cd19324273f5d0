package country

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/hrsync/internal/feed"
	"github.com/roach88/hrsync/internal/ir"
)

// can keys the hierarchy on the first organizational unit plus the job
// title, and absences on the policy name. Time off is booked in days or
// hours depending on the unit code.
type can struct{}

func (can) Code() ir.Country { return ir.CountryCAN }

func (can) JobCode(a feed.WorkAssignment) (string, string, error) {
	code, err := unitCode(a, 0)
	return code, ir.Deref(a.JobTitle), err
}

func (can) DisplayID(w feed.Worker) string {
	return w.CustomFieldGroup.StringAt(0)
}

func (can) Contract(a feed.WorkAssignment) string {
	return contractFor(a.WorkerTypeCode.Code())
}

// ResolveHierarchy runs an exact pass over rows carrying a name (code equal
// and name contained in the job title), then a fallback pass over rows
// without one. The table value is the node id.
func (can) ResolveHierarchy(code, name string, t ir.CountryTables, _ []feed.HierarchyNode) *string {
	for _, row := range t.Hierarchy {
		if row.Name != nil && row.Code == code && strings.Contains(name, *row.Name) {
			return ir.StringPtr(row.Node)
		}
	}
	for _, row := range t.Hierarchy {
		if row.Name == nil && row.Code == code {
			return ir.StringPtr(row.Node)
		}
	}
	return nil
}

func (can) AbsenceReason(e feed.TimeOffEntry, t ir.CountryTables) (string, bool) {
	policy := e.PaidTimeOffPolicy.Name()
	reason, ok := "", false
	for _, row := range t.AbsenceReasons {
		if row.Policy == policy {
			reason, ok = row.ReasonID, true
		}
	}
	return reason, ok
}

func (can) EntryMinutes(q *feed.Quantity) (int, decimal.Decimal) {
	v := hours(q)
	if q != nil && q.UnitTimeCode != nil && foldEqual(trimmed(*q.UnitTimeCode), "day") {
		return minutesOf(v.Mul(HoursPerDay)), v
	}
	return minutesOf(v), v.Div(HoursPerDay)
}

func (can) CustomFieldItemID(t ir.CountryTables) string {
	if t.CustomFieldItemID != "" {
		return t.CustomFieldItemID
	}
	return canCustomFieldItemID
}
