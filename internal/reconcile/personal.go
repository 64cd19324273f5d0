package reconcile

import (
	"github.com/roach88/hrsync/internal/ir"
)

// Skip is a record left out of a plan, with the reason.
type Skip struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// Skip reasons.
const (
	ReasonNotAtDestination = "display id not found at destination"
	ReasonNoInternalID     = "no destination id"
	ReasonDuplicateKey     = "duplicate display id in source"
	ReasonAwaitingPushBack = "matched at destination but source has no display id yet"
)

// PersonalPlan partitions projected personal records.
type PersonalPlan struct {
	Unchanged []ir.PersonalRecord `json:"unchanged"`
	Update    []ir.PersonalRecord `json:"update"`
	Create    []ir.PersonalRecord `json:"create"`
	Skipped   []Skip              `json:"skipped"`
}

// Personal matches source records to destination records by display id.
//
// A source record without a display id is a new starter, unless the
// destination already holds its national identifier: then it waits for the
// display id to be pushed back to the source rather than being created a
// second time. A matched record with differing fields is an update and
// takes its Id from the destination when the source lacks one.
func Personal(source, destination []ir.PersonalRecord) PersonalPlan {
	plan := PersonalPlan{
		Unchanged: []ir.PersonalRecord{},
		Update:    []ir.PersonalRecord{},
		Create:    []ir.PersonalRecord{},
		Skipped:   []Skip{},
	}

	byKey := make(map[string]ir.PersonalRecord, len(destination))
	byNI := make(map[string]bool, len(destination))
	for _, d := range destination {
		if k := d.Key(); k != "" {
			if _, dup := byKey[k]; !dup {
				byKey[k] = d
			}
		}
		if ni := ir.Deref(d.NationalInsuranceNumber); ni != "" {
			byNI[ni] = true
		}
	}

	seen := make(map[string]bool, len(source))
	for _, s := range source {
		key := s.Key()
		if key == "" {
			if ni := ir.Deref(s.NationalInsuranceNumber); ni != "" && byNI[ni] {
				plan.Skipped = append(plan.Skipped, Skip{Key: ni, Reason: ReasonAwaitingPushBack})
				continue
			}
			s.DisplayId = nil
			s.Id = nil
			plan.Create = append(plan.Create, s)
			continue
		}
		if seen[key] {
			plan.Skipped = append(plan.Skipped, Skip{Key: key, Reason: ReasonDuplicateKey})
			continue
		}
		seen[key] = true

		d, ok := byKey[key]
		if !ok {
			plan.Skipped = append(plan.Skipped, Skip{Key: key, Reason: ReasonNotAtDestination})
			continue
		}
		if s.Id == nil {
			s.Id = d.Id
		}
		if s.Id == nil {
			plan.Skipped = append(plan.Skipped, Skip{Key: key, Reason: ReasonNoInternalID})
			continue
		}
		if ir.CanonicalEqual(s, d) {
			plan.Unchanged = append(plan.Unchanged, s)
		} else {
			plan.Update = append(plan.Update, s)
		}
	}
	return plan
}

// Reactivation is a leaver still current at the destination.
type Reactivation struct {
	Record ir.PersonalRecord `json:"record"`
	// DaysSinceLeaving is measured from the leaving date to today.
	DaysSinceLeaving int `json:"days_since_leaving"`
}

// Reactivations selects leavers terminated more than 0 and fewer than
// ir.ReactivationMaxDays days before today whose destination record has no
// last working date. The returned records carry the termination fields;
// the caller must refresh Id and ContinuousServiceDate from the
// destination before writing them.
func Reactivations(leavers, destination []ir.PersonalRecord, today ir.Date) []Reactivation {
	byKey := make(map[string]ir.PersonalRecord, len(destination))
	for _, d := range destination {
		if k := d.Key(); k != "" {
			if _, dup := byKey[k]; !dup {
				byKey[k] = d
			}
		}
	}

	out := []Reactivation{}
	for _, l := range leavers {
		if l.EmploymentLeftDate == nil || l.Key() == "" {
			continue
		}
		days := today.DaysSince(*l.EmploymentLeftDate)
		if days <= 0 || days >= ir.ReactivationMaxDays {
			continue
		}
		d, ok := byKey[l.Key()]
		if !ok || d.LastWorkingDate != nil {
			continue
		}
		out = append(out, Reactivation{Record: l, DaysSinceLeaving: days})
	}
	return out
}
