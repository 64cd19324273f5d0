package reconcile

import "github.com/roach88/hrsync/internal/ir"

// JobPlan partitions projected job lines.
type JobPlan struct {
	Unchanged []ir.JobRecord `json:"unchanged"`
	Update    []ir.JobRecord `json:"update"`
	Create    []ir.JobRecord `json:"create"`
	Skipped   []Skip         `json:"skipped"`
}

// Jobs classifies each source job line against the first destination line
// of the same employee:
//
//   - equal in every field: unchanged
//   - same start date: update in place
//   - different start date: a new line, since a dated change is never an
//     in-place start-date edit
//
// A source line whose employee has no destination line is created. Lines
// to create never carry an Id.
func Jobs(source, destination []ir.JobRecord) JobPlan {
	plan := JobPlan{
		Unchanged: []ir.JobRecord{},
		Update:    []ir.JobRecord{},
		Create:    []ir.JobRecord{},
		Skipped:   []Skip{},
	}

	first := make(map[string]ir.JobRecord, len(destination))
	for _, d := range destination {
		if d.EmployeeId == nil {
			continue
		}
		if _, ok := first[*d.EmployeeId]; !ok {
			first[*d.EmployeeId] = d
		}
	}

	for _, s := range source {
		if s.EmployeeId == nil {
			plan.Skipped = append(plan.Skipped, Skip{Reason: ReasonNoInternalID})
			continue
		}
		d, ok := first[*s.EmployeeId]
		switch {
		case !ok:
			s.Id = nil
			plan.Create = append(plan.Create, s)
		case ir.CanonicalEqual(s, d):
			plan.Unchanged = append(plan.Unchanged, s)
		case s.StartDate.Equal(d.StartDate):
			if s.Id == nil {
				s.Id = d.Id
			}
			plan.Update = append(plan.Update, s)
		default:
			s.Id = nil
			plan.Create = append(plan.Create, s)
		}
	}
	return plan
}
