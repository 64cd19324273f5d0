// Package identity builds the per-run cross-reference between source
// workers and destination employees.
//
// A Library is built once per country run and is read-only afterwards;
// concurrent readers need no synchronization.
package identity

import (
	"fmt"
	"log/slog"

	"github.com/roach88/hrsync/internal/country"
	"github.com/roach88/hrsync/internal/feed"
	"github.com/roach88/hrsync/internal/ir"
)

// Library is the ID Library for one country run.
type Library struct {
	entries     []ir.IdentityEntry
	bySource    map[string]int
	byDisplay   map[string]int
	byPosition  map[string]int
	diagnostics Diagnostics
}

// Diagnostics records data-quality findings made while building.
type Diagnostics struct {
	// MultiMatch counts workers whose position id matched more than one
	// destination record. The first match is kept.
	MultiMatch int `json:"multi_match"`

	// PrimaryViolations lists workers flagged primary on more than one
	// assignment. The last flagged assignment is used.
	PrimaryViolations []string `json:"primary_violations"`

	// Skipped lists workers left out of the library.
	Skipped []Skipped `json:"skipped"`
}

// Skipped is a worker that could not be indexed.
type Skipped struct {
	WorkerID string `json:"worker_id"`
	Reason   string `json:"reason"`
}

// Input holds everything Build reads.
type Input struct {
	Profile     country.Profile
	Tables      ir.CountryTables
	Workers     []feed.Worker
	Destination []ir.PersonalRecord
	Nodes       []feed.HierarchyNode
}

// Build produces one entry per source worker. A worker with a malformed
// assignment or hire date is skipped and recorded in Diagnostics; it never
// fails the batch.
func Build(in Input, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	lib := &Library{
		entries:    make([]ir.IdentityEntry, 0, len(in.Workers)),
		bySource:   make(map[string]int, len(in.Workers)),
		byDisplay:  make(map[string]int, len(in.Workers)),
		byPosition: make(map[string]int, len(in.Workers)),
		diagnostics: Diagnostics{
			PrimaryViolations: []string{},
			Skipped:           []Skipped{},
		},
	}

	for _, w := range in.Workers {
		entry, err := lib.entryFor(in, w)
		if err != nil {
			logger.Warn("skipping worker", "worker", w.AssociateOID, "error", err)
			lib.diagnostics.Skipped = append(lib.diagnostics.Skipped, Skipped{
				WorkerID: w.AssociateOID,
				Reason:   err.Error(),
			})
			continue
		}
		lib.add(entry)
	}

	logger.Debug("identity library built",
		"country", in.Profile.Code(),
		"entries", len(lib.entries),
		"skipped", len(lib.diagnostics.Skipped),
		"multi_match", lib.diagnostics.MultiMatch,
	)
	return lib
}

func (l *Library) entryFor(in Input, w feed.Worker) (ir.IdentityEntry, error) {
	idx, primaries, err := ActiveAssignment(w)
	if err != nil {
		return ir.IdentityEntry{}, err
	}
	if primaries > 1 {
		l.diagnostics.PrimaryViolations = append(l.diagnostics.PrimaryViolations, w.AssociateOID)
	}
	active := w.WorkAssignments[idx]

	hire := w.WorkAssignments[0].HireDate
	if hire == nil {
		return ir.IdentityEntry{}, fmt.Errorf("workAssignments[0].hireDate missing")
	}
	sourceStart, err := ir.ParseDate(*hire)
	if err != nil {
		return ir.IdentityEntry{}, fmt.Errorf("workAssignments[0].hireDate: %w", err)
	}

	entry := ir.IdentityEntry{
		SourceWorkerID:        w.AssociateOID,
		PositionID:            active.PositionID,
		SourceManagerID:       active.ManagerID(),
		ActiveAssignmentIndex: idx,
		SourceServiceStart:    sourceStart,
		EffectiveServiceStart: sourceStart,
	}

	if code, name, err := in.Profile.JobCode(active); err == nil {
		entry.JobCode = code
		entry.JobName = name
		entry.HierarchyNodeID = in.Profile.ResolveHierarchy(code, name, in.Tables, in.Nodes)
	}

	match, n := matchDestination(active.PositionID, in.Destination)
	if n > 1 {
		l.diagnostics.MultiMatch++
	}
	if match != nil && match.DisplayId != nil {
		entry.DestinationDisplayID = match.DisplayId
		entry.DestinationInternalID = match.Id
		entry.DestinationServiceStart = match.ContinuousServiceDate
		if match.ContinuousServiceDate != nil {
			entry.EffectiveServiceStart = ir.MinDate(*match.ContinuousServiceDate, sourceStart)
		}
	}
	return entry, nil
}

// ActiveAssignment returns the index of the last assignment flagged primary
// (an absent flag counts as primary) and how many were flagged. When none
// is flagged the last index is returned.
func ActiveAssignment(w feed.Worker) (index, primaries int, err error) {
	if len(w.WorkAssignments) == 0 {
		return 0, 0, fmt.Errorf("worker has no work assignments")
	}
	index = len(w.WorkAssignments) - 1
	last := -1
	for i, a := range w.WorkAssignments {
		if a.IsPrimary() {
			last = i
			primaries++
		}
	}
	if last >= 0 {
		index = last
	}
	return index, primaries, nil
}

// matchDestination returns the first destination record whose national
// identifier equals positionID, and the number of records that matched.
func matchDestination(positionID string, dest []ir.PersonalRecord) (*ir.PersonalRecord, int) {
	var first *ir.PersonalRecord
	n := 0
	for i := range dest {
		if dest[i].NationalInsuranceNumber == nil || *dest[i].NationalInsuranceNumber != positionID {
			continue
		}
		if first == nil {
			first = &dest[i]
		}
		n++
	}
	return first, n
}

func (l *Library) add(e ir.IdentityEntry) {
	i := len(l.entries)
	l.entries = append(l.entries, e)
	if _, ok := l.bySource[e.SourceWorkerID]; !ok {
		l.bySource[e.SourceWorkerID] = i
	}
	if e.PositionID != "" {
		if _, ok := l.byPosition[e.PositionID]; !ok {
			l.byPosition[e.PositionID] = i
		}
	}
	if e.DestinationDisplayID != nil && *e.DestinationDisplayID != "" {
		if _, ok := l.byDisplay[*e.DestinationDisplayID]; !ok {
			l.byDisplay[*e.DestinationDisplayID] = i
		}
	}
}

// Entries returns every entry in source order.
func (l *Library) Entries() []ir.IdentityEntry {
	return l.entries
}

// Len returns the number of entries.
func (l *Library) Len() int { return len(l.entries) }

// BySourceID looks up an entry by source worker id.
func (l *Library) BySourceID(id string) (ir.IdentityEntry, bool) {
	return l.lookup(l.bySource, id)
}

// ByDisplayID looks up an entry by destination display id.
func (l *Library) ByDisplayID(id string) (ir.IdentityEntry, bool) {
	return l.lookup(l.byDisplay, id)
}

// ByPositionID looks up an entry by source position id.
func (l *Library) ByPositionID(id string) (ir.IdentityEntry, bool) {
	return l.lookup(l.byPosition, id)
}

// Diagnostics returns the findings recorded during Build.
func (l *Library) Diagnostics() Diagnostics {
	return l.diagnostics
}

// ForWorker finds the entry for a source worker: by the display id the
// source holds when that is known at the destination, otherwise by the
// active position id.
func (l *Library) ForWorker(displayID, positionID string) (ir.IdentityEntry, bool) {
	if displayID != "" {
		if e, ok := l.ByDisplayID(displayID); ok {
			return e, true
		}
	}
	return l.ByPositionID(positionID)
}

// InternalIDOf resolves a source worker id to a destination internal id.
func (l *Library) InternalIDOf(sourceWorkerID string) *string {
	if sourceWorkerID == "" {
		return nil
	}
	e, ok := l.BySourceID(sourceWorkerID)
	if !ok {
		return nil
	}
	return e.DestinationInternalID
}

func (l *Library) lookup(m map[string]int, id string) (ir.IdentityEntry, bool) {
	if l == nil || id == "" {
		return ir.IdentityEntry{}, false
	}
	i, ok := m[id]
	if !ok {
		return ir.IdentityEntry{}, false
	}
	return l.entries[i], true
}
