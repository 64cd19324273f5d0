package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/hrsync/internal/client"
	"github.com/roach88/hrsync/internal/compiler"
	"github.com/roach88/hrsync/internal/config"
	"github.com/roach88/hrsync/internal/country"
	"github.com/roach88/hrsync/internal/feed"
	"github.com/roach88/hrsync/internal/identity"
	"github.com/roach88/hrsync/internal/ir"
	"github.com/roach88/hrsync/internal/store"
)

// Source is the source system as the engine uses it.
// Implemented by client.SourceClient.
type Source interface {
	Workers(ctx context.Context, exclude func(workerID string) bool) (*client.Workers, error)
	TimeOff(ctx context.Context, associateOID string) client.Result[*feed.TimeOffResponse]
	PushDisplayID(ctx context.Context, associateOID, itemID, displayID string) error
}

// Destination is the destination system as the engine uses it.
// Implemented by client.DestinationClient.
type Destination interface {
	Employees(ctx context.Context, extended bool) (client.Listing[feed.DestinationEmployee], error)
	EmployeeByDisplayID(ctx context.Context, displayID string) client.Result[feed.DestinationEmployee]
	Jobs(ctx context.Context) (client.Listing[feed.DestinationJob], error)
	Hierarchy(ctx context.Context, rootID string) (client.Listing[feed.HierarchyNode], error)
	Absences(ctx context.Context, employeeID string, from ir.Date) client.Result[[]feed.DestinationAbsence]

	UpdateEmployee(ctx context.Context, id string, rec ir.PersonalRecord) error
	CreateEmployee(ctx context.Context, rec ir.PersonalRecord) (string, error)
	UpdateJob(ctx context.Context, id string, rec ir.JobRecord) error
	CreateJob(ctx context.Context, rec ir.JobRecord) (string, error)
	CreateAbsence(ctx context.Context, rec ir.AbsenceRecord) (string, error)
	UpdateAbsence(ctx context.Context, id string, payload ir.AbsenceUpdate) error
	DeleteAbsence(ctx context.Context, id string) error
	CreateAbsenceDay(ctx context.Context, day ir.AbsenceDay) error
}

// RunType selects what a run synchronizes.
type RunType int

const (
	// RunPush pushes destination display ids back to the source.
	RunPush RunType = 1
	// RunAbsenceCorrections deletes and corrects absences; it never creates.
	RunAbsenceCorrections RunType = 2
	// RunPersonal synchronizes personal records, new starters and reactivations.
	RunPersonal RunType = 3
	// RunJobs synchronizes current job lines.
	RunJobs RunType = 4
	// RunAbsences is RunAbsenceCorrections plus creates and day expansion.
	RunAbsences RunType = 5
)

var runTypeNames = map[RunType]string{
	RunPush:               "push",
	RunAbsenceCorrections: "absence-corrections",
	RunPersonal:           "personal",
	RunJobs:               "jobs",
	RunAbsences:           "absences",
}

// ParseRunType validates a numeric run type.
func ParseRunType(n int) (RunType, error) {
	rt := RunType(n)
	if _, ok := runTypeNames[rt]; !ok {
		return 0, fmt.Errorf("unknown run type %d: must be 1-5", n)
	}
	return rt, nil
}

func (t RunType) String() string {
	if name, ok := runTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("RunType(%d)", int(t))
}

// SyncContext is everything one country run reads before planning.
//
// It is built by prepare, owned by one run and read-only once built;
// planners running on several goroutines share it without locking.
type SyncContext struct {
	RunID   string
	Country ir.Country
	RunType RunType
	DryRun  bool
	Today   ir.Date

	Profile       country.Profile
	Tables        *ir.Tables
	CountryTables ir.CountryTables

	Workers   *client.Workers
	Employees []ir.PersonalRecord
	Nodes     []feed.HierarchyNode
	Library   *identity.Library

	// Failed lists pages that could not be read. The run continues
	// without them.
	Failed []error

	Logger *slog.Logger
}

// Engine runs synchronizations against one source and one destination.
//
// Thread-safety: Run may be called concurrently for different countries;
// the key locks serialize any overlap on one employee.
type Engine struct {
	cfg    config.Config
	src    Source
	dst    Destination
	tables *ir.Tables
	store  *store.Store
	clock  Clock
	runIDs RunIDGenerator
	logger *slog.Logger
	locks  *KeyLocks

	workers int
	maxOps  int
	dryRun  bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock that decides "today".
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithRunIDs sets the run id generator.
func WithRunIDs(g RunIDGenerator) Option {
	return func(e *Engine) { e.runIDs = g }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithDryRun makes runs plan and record without submitting.
func WithDryRun(dryRun bool) Option {
	return func(e *Engine) { e.dryRun = dryRun }
}

// WithWorkers overrides the worker pool size from the config.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithMaxOperations overrides the per-kind mutation budget from the config.
//
// Use WithMaxOperations(2) in tests of budget enforcement.
func WithMaxOperations(n int) Option {
	return func(e *Engine) { e.maxOps = n }
}

// New creates an Engine.
//
// Workers and the operation budget come from cfg; zero values fall back to
// one worker and DefaultMaxOperations.
func New(cfg config.Config, src Source, dst Destination, tables *ir.Tables, s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg,
		src:     src,
		dst:     dst,
		tables:  tables,
		store:   s,
		clock:   SystemClock{},
		runIDs:  UUIDv7Generator{},
		logger:  slog.Default(),
		locks:   NewKeyLocks(),
		workers: cfg.Workers,
		maxOps:  cfg.MaxOperations,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.workers <= 0 {
		e.workers = 1
	}
	if e.maxOps <= 0 {
		e.maxOps = DefaultMaxOperations
	}
	return e
}

// Run synchronizes one country and returns the report read back from the
// ledger.
//
// The run is recorded even when it fails; the returned report is non-nil
// whenever the run could be started. A cancelled context stops planning
// and the scheduling of new writes, and the run is recorded as cancelled.
func (e *Engine) Run(ctx context.Context, c ir.Country, rt RunType) (*Report, error) {
	if _, err := ParseRunType(int(rt)); err != nil {
		return nil, err
	}
	profile, err := country.ForCode(c)
	if err != nil {
		return nil, err
	}
	ct, ok := e.tables.Countries[c]
	if !ok {
		return nil, fmt.Errorf("no lookup tables for country %s", c)
	}

	runID := e.runIDs.Generate()
	now := e.clock.Now()
	logger := e.logger.With("run", runID, "country", c, "type", rt.String())

	err = e.store.BeginRun(ctx, store.Run{
		ID:        runID,
		Country:   c,
		RunType:   int(rt),
		DryRun:    e.dryRun,
		StartedAt: now,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("run started", "dry_run", e.dryRun)

	sc := &SyncContext{
		RunID:         runID,
		Country:       c,
		RunType:       rt,
		DryRun:        e.dryRun,
		Today:         ir.DateOf(now),
		Profile:       profile,
		Tables:        e.tables,
		CountryTables: ct,
		Logger:        logger,
	}
	runErr := e.run(ctx, sc)

	status := store.RunSucceeded
	switch {
	case runErr != nil && ctx.Err() != nil:
		status = store.RunCancelled
	case runErr != nil:
		status = store.RunFailed
	}

	// the run row is closed even if ctx was cancelled
	closeCtx := context.WithoutCancel(ctx)
	if err := e.store.FinishRun(closeCtx, runID, status, e.clock.Now(), runErr); err != nil {
		return nil, errors.Join(runErr, err)
	}
	report, err := BuildReport(closeCtx, e.store, runID)
	if err != nil {
		return nil, errors.Join(runErr, err)
	}

	if runErr != nil {
		logger.Error("run failed", "status", status, "error", runErr)
	} else {
		logger.Info("run finished", "status", status)
	}
	return report, runErr
}

func (e *Engine) run(ctx context.Context, sc *SyncContext) error {
	if err := e.prepare(ctx, sc); err != nil {
		return err
	}

	var (
		plan *Plan
		err  error
	)
	switch sc.RunType {
	case RunPush:
		plan = e.planPush(sc)
	case RunPersonal:
		plan, err = e.planPersonal(ctx, sc)
	case RunJobs:
		plan, err = e.planJobs(ctx, sc)
	case RunAbsenceCorrections, RunAbsences:
		plan, err = e.planAbsences(ctx, sc, sc.RunType == RunAbsences)
	}
	if err != nil {
		return err
	}
	return e.Submit(ctx, sc, plan)
}

// prepare reads workers, employees and the hierarchy, and builds the
// identity library. A failed page is kept in sc.Failed; a failed first
// page of employees, an unreadable hierarchy root or an auth failure ends
// the run.
func (e *Engine) prepare(ctx context.Context, sc *SyncContext) error {
	workers, err := e.src.Workers(ctx, e.tables.Excluded)
	if err != nil {
		return classify(err, sc.Country, ir.KindIdentity, "", "read source workers")
	}
	employees, err := e.dst.Employees(ctx, e.cfg.Extended)
	if err != nil {
		return classify(err, sc.Country, ir.KindPersonal, "", "read destination employees")
	}
	nodes, err := e.dst.Hierarchy(ctx, sc.CountryTables.HierarchyRoot)
	if err != nil {
		return classify(err, sc.Country, ir.KindIdentity, "", "read destination hierarchy")
	}

	for _, w := range compiler.AnalyzeHierarchy(nodes.Items) {
		level := slog.LevelWarn
		if w.Level == "info" {
			level = slog.LevelInfo
		}
		sc.Logger.Log(ctx, level, "hierarchy check", "path", w.Path, "message", w.Message)
	}

	sc.Workers = workers
	sc.Employees = employees.Items
	sc.Nodes = nodes.Items
	sc.Failed = append(sc.Failed, workers.Failed...)
	sc.Failed = append(sc.Failed, employees.Failed...)
	sc.Failed = append(sc.Failed, nodes.Failed...)

	sc.Library = identity.Build(identity.Input{
		Profile:     sc.Profile,
		Tables:      sc.CountryTables,
		Workers:     workers.Current,
		Destination: employees.Items,
		Nodes:       nodes.Items,
	}, sc.Logger)

	diag := sc.Library.Diagnostics()
	sc.Logger.Info("prepared",
		"workers", len(workers.Current),
		"terminated", len(workers.Terminated),
		"employees", len(employees.Items),
		"nodes", len(nodes.Items),
		"failed_pages", len(sc.Failed),
		"multi_match", diag.MultiMatch,
		"multi_primary", len(diag.PrimaryViolations),
	)
	return nil
}
