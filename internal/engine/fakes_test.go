package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/hrsync/internal/client"
	"github.com/roach88/hrsync/internal/feed"
	"github.com/roach88/hrsync/internal/ir"
)

// fakeSource serves a fixed worker feed and records pushes.
type fakeSource struct {
	mu         sync.Mutex
	workers    client.Workers
	workersErr error
	timeOff    map[string]*feed.TimeOffResponse
	timeOffErr map[string]error
	pushes     []string
}

func (f *fakeSource) Workers(_ context.Context, exclude func(string) bool) (*client.Workers, error) {
	if f.workersErr != nil {
		return nil, f.workersErr
	}
	out := &client.Workers{Failed: f.workers.Failed}
	for _, w := range f.workers.Current {
		if !exclude(w.WorkerID.IDValue) {
			out.Current = append(out.Current, w)
		}
	}
	for _, w := range f.workers.Terminated {
		if !exclude(w.WorkerID.IDValue) {
			out.Terminated = append(out.Terminated, w)
		}
	}
	return out, nil
}

func (f *fakeSource) TimeOff(_ context.Context, aoid string) client.Result[*feed.TimeOffResponse] {
	if err := f.timeOffErr[aoid]; err != nil {
		return client.Failed[*feed.TimeOffResponse](err)
	}
	if resp, ok := f.timeOff[aoid]; ok {
		return client.Some(resp)
	}
	return client.Empty[*feed.TimeOffResponse]()
}

func (f *fakeSource) PushDisplayID(_ context.Context, aoid, itemID, displayID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, fmt.Sprintf("%s %s=%s", aoid, itemID, displayID))
	return nil
}

// fakeDestination serves fixed reads and records every write as
// "METHOD collection id".
type fakeDestination struct {
	mu           sync.Mutex
	employees    []ir.PersonalRecord
	employeesErr error
	byDisplayID  map[string]ir.PersonalRecord
	jobs         []ir.JobRecord
	nodes        []feed.HierarchyNode
	absences     map[string][]feed.DestinationAbsence
	writeErr     map[string]error

	calls  []string
	days   []ir.AbsenceDay
	nextID int
}

func (f *fakeDestination) Employees(context.Context, bool) (client.Listing[feed.DestinationEmployee], error) {
	if f.employeesErr != nil {
		return client.Listing[feed.DestinationEmployee]{}, f.employeesErr
	}
	return client.Listing[feed.DestinationEmployee]{Items: f.employees}, nil
}

func (f *fakeDestination) EmployeeByDisplayID(_ context.Context, id string) client.Result[feed.DestinationEmployee] {
	if e, ok := f.byDisplayID[id]; ok {
		return client.Some(e)
	}
	return client.Empty[feed.DestinationEmployee]()
}

func (f *fakeDestination) Jobs(context.Context) (client.Listing[feed.DestinationJob], error) {
	return client.Listing[feed.DestinationJob]{Items: f.jobs}, nil
}

func (f *fakeDestination) Hierarchy(context.Context, string) (client.Listing[feed.HierarchyNode], error) {
	return client.Listing[feed.HierarchyNode]{Items: f.nodes}, nil
}

func (f *fakeDestination) Absences(_ context.Context, employeeID string, _ ir.Date) client.Result[[]feed.DestinationAbsence] {
	if list, ok := f.absences[employeeID]; ok && len(list) > 0 {
		return client.Some(list)
	}
	return client.Empty[[]feed.DestinationAbsence]()
}

func (f *fakeDestination) write(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.writeErr[call]; err != nil {
		return err
	}
	f.calls = append(f.calls, call)
	return nil
}

func (f *fakeDestination) create(collection string) (string, error) {
	f.mu.Lock()
	f.nextID++
	id := fmt.Sprintf("%s-new-%d", collection, f.nextID)
	f.mu.Unlock()
	if err := f.write("POST " + collection); err != nil {
		return "", err
	}
	return id, nil
}

func (f *fakeDestination) UpdateEmployee(_ context.Context, id string, _ ir.PersonalRecord) error {
	return f.write("PUT employees " + id)
}

func (f *fakeDestination) CreateEmployee(context.Context, ir.PersonalRecord) (string, error) {
	return f.create("employees")
}

func (f *fakeDestination) UpdateJob(_ context.Context, id string, _ ir.JobRecord) error {
	return f.write("PUT jobs " + id)
}

func (f *fakeDestination) CreateJob(context.Context, ir.JobRecord) (string, error) {
	return f.create("jobs")
}

func (f *fakeDestination) CreateAbsence(context.Context, ir.AbsenceRecord) (string, error) {
	return f.create("absences")
}

func (f *fakeDestination) UpdateAbsence(_ context.Context, id string, _ ir.AbsenceUpdate) error {
	return f.write("PUT absences " + id)
}

func (f *fakeDestination) DeleteAbsence(_ context.Context, id string) error {
	return f.write("DELETE absences " + id)
}

func (f *fakeDestination) CreateAbsenceDay(_ context.Context, day ir.AbsenceDay) error {
	if err := f.write("POST days " + day.Date); err != nil {
		return err
	}
	f.mu.Lock()
	f.days = append(f.days, day)
	f.mu.Unlock()
	return nil
}
