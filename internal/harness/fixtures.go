package harness

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/roach88/hrsync/internal/client"
	"github.com/roach88/hrsync/internal/engine"
	"github.com/roach88/hrsync/internal/feed"
	"github.com/roach88/hrsync/internal/ir"
	"github.com/roach88/hrsync/internal/testutil"
)

// WorkerFixture is the compact form of a source worker. Unset fields keep
// the testutil.NewWorker defaults.
type WorkerFixture struct {
	AOID       string              `yaml:"aoid"`
	Position   string              `yaml:"position"`
	DisplayID  string              `yaml:"display_id,omitempty"`
	Name       []string            `yaml:"name,omitempty"`
	Status     string              `yaml:"status,omitempty"`
	Hired      string              `yaml:"hired,omitempty"`
	JobTitle   string              `yaml:"job_title,omitempty"`
	Units      []string            `yaml:"units,omitempty"`
	Annual     string              `yaml:"annual,omitempty"`
	Hourly     string              `yaml:"hourly,omitempty"`
	ReportsTo  string              `yaml:"reports_to,omitempty"`
	Email      string              `yaml:"email,omitempty"`
	Terminated *TerminationFixture `yaml:"terminated,omitempty"`
}

// TerminationFixture marks a worker as terminated.
type TerminationFixture struct {
	Date   string `yaml:"date"`
	Reason string `yaml:"reason,omitempty"`
}

// Build returns the source worker.
func (f WorkerFixture) Build() feed.Worker {
	b := testutil.NewWorker(f.AOID, f.Position)
	if f.DisplayID != "" {
		b.DisplayID(f.DisplayID)
	}
	if len(f.Name) == 2 {
		b.Name(f.Name[0], f.Name[1])
	}
	if f.Status != "" {
		b.Status(f.Status)
	}
	if f.Hired != "" {
		b.Hired(f.Hired)
	}
	if f.JobTitle != "" {
		b.JobTitle(f.JobTitle)
	}
	if len(f.Units) > 0 {
		b.Units(f.Units...)
	}
	if f.Annual != "" {
		b.Annual(f.Annual)
	}
	if f.Hourly != "" {
		b.Hourly(f.Hourly)
	}
	if f.ReportsTo != "" {
		b.ReportsTo(f.ReportsTo)
	}
	if f.Email != "" {
		b.Email(f.Email)
	}
	if f.Terminated != nil {
		b.Terminated(f.Terminated.Date, f.Terminated.Reason)
	}
	return b.Build()
}

// SectionFixture is one time-off section (a request status and its requests).
type SectionFixture struct {
	Status   string           `yaml:"status"`
	Requests []RequestFixture `yaml:"requests"`
}

// RequestFixture is one time-off request.
type RequestFixture struct {
	Policy      string       `yaml:"policy"`
	EarningType string       `yaml:"earning_type,omitempty"`
	Days        []DayFixture `yaml:"days"`
}

// DayFixture is one time-off entry.
type DayFixture struct {
	Date      string `yaml:"date"`
	StartTime string `yaml:"start_time,omitempty"`
	Value     string `yaml:"value"`
	Unit      string `yaml:"unit,omitempty"`
	Status    string `yaml:"status,omitempty"`
}

func buildTimeOff(sections []SectionFixture) *feed.TimeOffResponse {
	out := make([]testutil.TimeOffSection, len(sections))
	for i, s := range sections {
		out[i].Status = s.Status
		for _, r := range s.Requests {
			req := testutil.TimeOffRequest{Policy: r.Policy, EarningType: r.EarningType}
			for _, d := range r.Days {
				req.Days = append(req.Days, testutil.TimeOffDay(d))
			}
			out[i].Requests = append(out[i].Requests, req)
		}
	}
	return testutil.TimeOff(out...)
}

// EmployeeFixture is a destination employee.
type EmployeeFixture struct {
	ID           string `yaml:"id"`
	DisplayID    string `yaml:"display_id,omitempty"`
	Position     string `yaml:"position,omitempty"`
	ServiceStart string `yaml:"service_start,omitempty"`
}

// Build returns the destination record.
func (f EmployeeFixture) Build() ir.PersonalRecord {
	r := testutil.Employee(f.ID, f.DisplayID, f.Position, f.ServiceStart)
	if f.DisplayID == "" {
		r.DisplayId = nil
	}
	return r
}

// JobFixture is a destination job line.
type JobFixture struct {
	ID       string `yaml:"id"`
	Employee string `yaml:"employee"`
	Title    string `yaml:"title,omitempty"`
	Start    string `yaml:"start"`
}

// Build returns the destination job.
func (f JobFixture) Build() ir.JobRecord {
	j := ir.JobRecord{
		Id:         ir.StringPtr(f.ID),
		EmployeeId: ir.StringPtr(f.Employee),
		StartDate:  ir.MustParseDate(f.Start),
	}
	if f.Title != "" {
		j.JobTitle = ir.StringPtr(f.Title)
	}
	return j
}

// NodeFixture is a destination hierarchy node.
type NodeFixture struct {
	ID       string `yaml:"id"`
	Parent   string `yaml:"parent,omitempty"`
	Title    string `yaml:"title,omitempty"`
	SourceID string `yaml:"source_id,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// Build returns the hierarchy node.
func (f NodeFixture) Build() feed.HierarchyNode {
	n := feed.HierarchyNode{Id: f.ID, Disabled: f.Disabled}
	if f.Parent != "" {
		n.ParentId = ir.StringPtr(f.Parent)
	}
	if f.Title != "" {
		n.Title = ir.StringPtr(f.Title)
	}
	if f.SourceID != "" {
		n.SourceSystemId = ir.StringPtr(f.SourceID)
	}
	return n
}

// AbsenceFixture is a destination absence.
type AbsenceFixture struct {
	ID        string `yaml:"id"`
	Reason    string `yaml:"reason"`
	Narrative string `yaml:"narrative,omitempty"`
	Start     string `yaml:"start"`
	End       string `yaml:"end"`
}

func (f AbsenceFixture) build(employee string) feed.DestinationAbsence {
	a := feed.DestinationAbsence{
		Id:              f.ID,
		EmployeeId:      employee,
		AbsenceReasonId: f.Reason,
		StartDate:       ir.MustParseDate(f.Start),
		EndDate:         ir.MustParseDate(f.End),
	}
	if f.Narrative != "" {
		a.Narrative = ir.StringPtr(f.Narrative)
	}
	return a
}

// callLog records every call either fixture system receives, in order.
// A call listed in fail is recorded and then answered with that status.
type callLog struct {
	mu     sync.Mutex
	calls  []string
	nextID int
}

func (l *callLog) record(call string, fail map[string]int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
	if status, ok := fail[call]; ok {
		return &client.StatusError{Status: status, Method: "FIXTURE", URL: call, Body: http.StatusText(status)}
	}
	return nil
}

func (l *callLog) newID(collection string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	return fmt.Sprintf("%s-new-%d", collection, l.nextID)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.calls...)
}

// Systems is a fixture source and destination sharing one call log. It
// lets other packages drive the engine without HTTP.
type Systems struct {
	Source      engine.Source
	Destination engine.Destination
	log         *callLog
}

// NewSystems builds both fixture systems.
func NewSystems(src SourceFixture, dst DestinationFixture) *Systems {
	log := &callLog{}
	return &Systems{
		Source:      newFixtureSource(log, src),
		Destination: newFixtureDestination(log, dst),
		log:         log,
	}
}

// Calls returns the writes received so far, in order.
func (s *Systems) Calls() []string {
	return s.log.snapshot()
}

// fixtureSource serves a SourceFixture. Reads are not logged; pushes are.
type fixtureSource struct {
	log        *callLog
	fail       map[string]int
	current    []feed.Worker
	terminated []feed.Worker
	timeOff    map[string]*feed.TimeOffResponse
}

func newFixtureSource(log *callLog, f SourceFixture) *fixtureSource {
	s := &fixtureSource{log: log, fail: f.Fail, timeOff: make(map[string]*feed.TimeOffResponse)}
	for _, w := range f.Workers {
		s.current = append(s.current, w.Build())
	}
	for _, w := range f.Terminated {
		s.terminated = append(s.terminated, w.Build())
	}
	for aoid, sections := range f.TimeOff {
		s.timeOff[aoid] = buildTimeOff(sections)
	}
	return s
}

func (s *fixtureSource) failure(call string) error {
	if status, ok := s.fail[call]; ok {
		return &client.StatusError{Status: status, Method: "FIXTURE", URL: call, Body: http.StatusText(status)}
	}
	return nil
}

func (s *fixtureSource) Workers(_ context.Context, exclude func(string) bool) (*client.Workers, error) {
	if err := s.failure("GET workers"); err != nil {
		return nil, err
	}
	out := &client.Workers{}
	for _, w := range s.current {
		if !exclude(w.WorkerID.IDValue) {
			out.Current = append(out.Current, w)
		}
	}
	for _, w := range s.terminated {
		if !exclude(w.WorkerID.IDValue) {
			out.Terminated = append(out.Terminated, w)
		}
	}
	return out, nil
}

func (s *fixtureSource) TimeOff(_ context.Context, aoid string) client.Result[*feed.TimeOffResponse] {
	if err := s.failure("GET timeoff " + aoid); err != nil {
		return client.Failed[*feed.TimeOffResponse](err)
	}
	if resp, ok := s.timeOff[aoid]; ok {
		return client.Some(resp)
	}
	return client.Empty[*feed.TimeOffResponse]()
}

func (s *fixtureSource) PushDisplayID(_ context.Context, aoid, _, displayID string) error {
	return s.log.record(fmt.Sprintf("PUSH %s %s", aoid, displayID), s.fail)
}

// fixtureDestination serves a DestinationFixture. Writes are logged as
// "METHOD collection [id]"; created records get "<collection>-new-N" ids.
type fixtureDestination struct {
	log       *callLog
	fail      map[string]int
	employees []ir.PersonalRecord
	jobs      []ir.JobRecord
	nodes     []feed.HierarchyNode
	absences  map[string][]feed.DestinationAbsence
}

func newFixtureDestination(log *callLog, f DestinationFixture) *fixtureDestination {
	d := &fixtureDestination{log: log, fail: f.Fail, absences: make(map[string][]feed.DestinationAbsence)}
	for _, e := range f.Employees {
		d.employees = append(d.employees, e.Build())
	}
	for _, j := range f.Jobs {
		d.jobs = append(d.jobs, j.Build())
	}
	for _, n := range f.Hierarchy {
		d.nodes = append(d.nodes, n.Build())
	}
	for emp, list := range f.Absences {
		for _, a := range list {
			d.absences[emp] = append(d.absences[emp], a.build(emp))
		}
	}
	return d
}

func (d *fixtureDestination) failure(call string) error {
	if status, ok := d.fail[call]; ok {
		return &client.StatusError{Status: status, Method: "FIXTURE", URL: call, Body: http.StatusText(status)}
	}
	return nil
}

func (d *fixtureDestination) Employees(context.Context, bool) (client.Listing[feed.DestinationEmployee], error) {
	if err := d.failure("GET employees"); err != nil {
		return client.Listing[feed.DestinationEmployee]{}, err
	}
	return client.Listing[feed.DestinationEmployee]{Items: d.employees}, nil
}

func (d *fixtureDestination) EmployeeByDisplayID(_ context.Context, displayID string) client.Result[feed.DestinationEmployee] {
	if err := d.failure("GET employees " + displayID); err != nil {
		return client.Failed[feed.DestinationEmployee](err)
	}
	for _, e := range d.employees {
		if e.Key() == displayID {
			return client.Some(e)
		}
	}
	return client.Empty[feed.DestinationEmployee]()
}

func (d *fixtureDestination) Jobs(context.Context) (client.Listing[feed.DestinationJob], error) {
	if err := d.failure("GET jobs"); err != nil {
		return client.Listing[feed.DestinationJob]{}, err
	}
	return client.Listing[feed.DestinationJob]{Items: d.jobs}, nil
}

func (d *fixtureDestination) Hierarchy(context.Context, string) (client.Listing[feed.HierarchyNode], error) {
	if err := d.failure("GET hierarchy"); err != nil {
		return client.Listing[feed.HierarchyNode]{}, err
	}
	return client.Listing[feed.HierarchyNode]{Items: d.nodes}, nil
}

func (d *fixtureDestination) Absences(_ context.Context, employeeID string, _ ir.Date) client.Result[[]feed.DestinationAbsence] {
	if err := d.failure("GET absences " + employeeID); err != nil {
		return client.Failed[[]feed.DestinationAbsence](err)
	}
	if list := d.absences[employeeID]; len(list) > 0 {
		return client.Some(list)
	}
	return client.Empty[[]feed.DestinationAbsence]()
}

func (d *fixtureDestination) create(collection string) (string, error) {
	if err := d.log.record("POST "+collection, d.fail); err != nil {
		return "", err
	}
	return d.log.newID(collection), nil
}

func (d *fixtureDestination) UpdateEmployee(_ context.Context, id string, _ ir.PersonalRecord) error {
	return d.log.record("PUT employees "+id, d.fail)
}

func (d *fixtureDestination) CreateEmployee(context.Context, ir.PersonalRecord) (string, error) {
	return d.create("employees")
}

func (d *fixtureDestination) UpdateJob(_ context.Context, id string, _ ir.JobRecord) error {
	return d.log.record("PUT jobs "+id, d.fail)
}

func (d *fixtureDestination) CreateJob(context.Context, ir.JobRecord) (string, error) {
	return d.create("jobs")
}

func (d *fixtureDestination) CreateAbsence(context.Context, ir.AbsenceRecord) (string, error) {
	return d.create("absences")
}

func (d *fixtureDestination) UpdateAbsence(_ context.Context, id string, _ ir.AbsenceUpdate) error {
	return d.log.record("PUT absences "+id, d.fail)
}

func (d *fixtureDestination) DeleteAbsence(_ context.Context, id string) error {
	return d.log.record("DELETE absences "+id, d.fail)
}

func (d *fixtureDestination) CreateAbsenceDay(_ context.Context, day ir.AbsenceDay) error {
	return d.log.record(fmt.Sprintf("POST days %s %s %s", day.AbsenceId, day.Date, day.DayPart), d.fail)
}
