package reconcile

import (
	"fmt"
	"sort"

	"github.com/roach88/hrsync/internal/ir"
)

// AbsenceUpdate pairs a destination absence id with its new payload.
type AbsenceUpdate struct {
	AbsenceID string           `json:"absence_id"`
	Payload   ir.AbsenceUpdate `json:"payload"`
	Source    ir.AbsenceRecord `json:"-"`
}

// AbsencePlan partitions source absences and destination absence ids.
//
// UnchangedIDs, UpdateIDs and Delete partition the destination ids:
// every id is in exactly one of them.
type AbsencePlan struct {
	Unchanged    []ir.AbsenceRecord `json:"unchanged"`
	UnchangedIDs []string           `json:"unchanged_ids"`
	Update       []AbsenceUpdate    `json:"update"`
	UpdateIDs    []string           `json:"update_ids"`
	Create       []ir.AbsenceRecord `json:"create"`
	Delete       []string           `json:"delete"`
}

// Absences runs the three-way compare of start date, end date and reason.
//
// Every source absence is first matched against an unclaimed destination
// absence of the same employee agreeing on all three fields (unchanged).
// Only then are the remaining source absences matched against what is
// still unclaimed on two of the three fields (update). A source absence
// that claims nothing is created unless another source absence with the
// same (employee, start, end) key was already matched or created.
// Destination ids left unclaimed are deleted.
func Absences(source, destination []ir.AbsenceRecord) AbsencePlan {
	plan := AbsencePlan{
		Unchanged:    []ir.AbsenceRecord{},
		UnchangedIDs: []string{},
		Update:       []AbsenceUpdate{},
		UpdateIDs:    []string{},
		Create:       []ir.AbsenceRecord{},
		Delete:       []string{},
	}

	claimed := make([]bool, len(destination))
	matched := make([]bool, len(source))
	processed := make(map[ir.AbsenceKey]bool, len(source))

	for j, s := range source {
		if i := findAbsence(s, destination, claimed, 3); i >= 0 {
			claimed[i] = true
			matched[j] = true
			processed[s.Key()] = true
			plan.Unchanged = append(plan.Unchanged, s)
			plan.UnchangedIDs = append(plan.UnchangedIDs, *destination[i].Id)
		}
	}

	for j, s := range source {
		if matched[j] {
			continue
		}
		if i := findAbsence(s, destination, claimed, 2); i >= 0 {
			claimed[i] = true
			processed[s.Key()] = true
			id := *destination[i].Id
			plan.Update = append(plan.Update, AbsenceUpdate{
				AbsenceID: id,
				Payload: ir.AbsenceUpdate{
					Narrative: s.Narrative,
					StartDate: s.StartDate,
					EndDate:   s.EndDate,
					Id:        s.AbsenceReasonId,
				},
				Source: s,
			})
			plan.UpdateIDs = append(plan.UpdateIDs, id)
		}
	}

	for _, s := range source {
		if processed[s.Key()] {
			continue
		}
		processed[s.Key()] = true
		plan.Create = append(plan.Create, s)
	}

	for i, d := range destination {
		if !claimed[i] && d.Id != nil {
			plan.Delete = append(plan.Delete, *d.Id)
		}
	}
	return plan
}

// findAbsence returns the index of the first unclaimed destination absence
// of s's employee agreeing with s on exactly want of the three compared
// fields, or -1. Destination absences without an id are never matched.
func findAbsence(s ir.AbsenceRecord, destination []ir.AbsenceRecord, claimed []bool, want int) int {
	for i, d := range destination {
		if claimed[i] || d.Id == nil || d.EmployeeId != s.EmployeeId {
			continue
		}
		n := 0
		if s.StartDate.Equal(d.StartDate) {
			n++
		}
		if s.EndDate.Equal(d.EndDate) {
			n++
		}
		if s.AbsenceReasonId == d.AbsenceReasonId {
			n++
		}
		if n == want {
			return i
		}
	}
	return -1
}

// CheckPartition verifies that the plan's destination ids are pairwise
// disjoint and together cover every destination id.
func CheckPartition(plan AbsencePlan, destination []ir.AbsenceRecord) error {
	owner := make(map[string]string)
	for _, set := range []struct {
		name string
		ids  []string
	}{
		{"unchanged", plan.UnchangedIDs},
		{"update", plan.UpdateIDs},
		{"delete", plan.Delete},
	} {
		for _, id := range set.ids {
			if prev, ok := owner[id]; ok {
				return fmt.Errorf("absence %s classified as both %s and %s", id, prev, set.name)
			}
			owner[id] = set.name
		}
	}

	var missing []string
	seen := make(map[string]bool, len(destination))
	for _, d := range destination {
		if d.Id == nil || seen[*d.Id] {
			continue
		}
		seen[*d.Id] = true
		if _, ok := owner[*d.Id]; !ok {
			missing = append(missing, *d.Id)
		}
		delete(owner, *d.Id)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("absences left unclassified: %v", missing)
	}
	if len(owner) > 0 {
		extra := make([]string, 0, len(owner))
		for id := range owner {
			extra = append(extra, id)
		}
		sort.Strings(extra)
		return fmt.Errorf("plan references unknown absences: %v", extra)
	}
	return nil
}
