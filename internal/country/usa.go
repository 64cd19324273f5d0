package country

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/hrsync/internal/feed"
	"github.com/roach88/hrsync/internal/ir"
)

// usa keys the hierarchy on the second organizational unit and absences on
// (policy, earning type). Time off is booked in hours.
type usa struct{}

func (usa) Code() ir.Country { return ir.CountryUSA }

func (usa) JobCode(a feed.WorkAssignment) (string, string, error) {
	code, err := unitCode(a, 1)
	return code, "", err
}

func (usa) DisplayID(w feed.Worker) string {
	if w.Person == nil {
		return ""
	}
	return w.Person.CustomFieldGroup.StringAt(2)
}

func (usa) Contract(a feed.WorkAssignment) string {
	code := ""
	if len(a.WorkerGroups) > 0 {
		code = a.WorkerGroups[0].GroupCode.Code()
	}
	return contractFor(code)
}

// ResolveHierarchy maps the code to a source system id through the table,
// then to the node carrying that source system id. When several nodes
// share it the last one wins.
func (usa) ResolveHierarchy(code, _ string, t ir.CountryTables, nodes []feed.HierarchyNode) *string {
	var sourceSystemID string
	found := false
	for _, row := range t.Hierarchy {
		if row.Code == code {
			sourceSystemID = row.Node
			found = true
			break
		}
	}
	if !found {
		return nil
	}
	var id *string
	for _, n := range nodes {
		if n.SourceSystemId != nil && *n.SourceSystemId == sourceSystemID {
			id = ir.StringPtr(n.Id)
		}
	}
	return id
}

func (usa) AbsenceReason(e feed.TimeOffEntry, t ir.CountryTables) (string, bool) {
	policy := e.PaidTimeOffPolicy.Name()
	earning := e.EarningType.Name()
	reason, ok := "", false
	for _, row := range t.AbsenceReasons {
		if row.Policy == policy && ir.Deref(row.EarningType) == earning {
			reason, ok = row.ReasonID, true
		}
	}
	return reason, ok
}

func (usa) EntryMinutes(q *feed.Quantity) (int, decimal.Decimal) {
	h := hours(q)
	return minutesOf(h), h.Div(HoursPerDay)
}

func (usa) CustomFieldItemID(t ir.CountryTables) string {
	if t.CustomFieldItemID != "" {
		return t.CustomFieldItemID
	}
	return usaCustomFieldItemID
}
