package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/roach88/hrsync/internal/engine"
	"github.com/roach88/hrsync/internal/ir"
)

// Scenario defines one sync run against fixture systems.
// The source and destination are served from the fixtures, the engine runs
// for real, and the assertions check what it sent and what it recorded.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Country is the country code to run ("usa", "can").
	Country string `yaml:"country"`

	// RunType is the numeric run type, 1 to 5.
	RunType int `yaml:"run_type"`

	// Today pins the run clock (YYYY-MM-DD).
	Today string `yaml:"today"`

	DryRun bool `yaml:"dry_run,omitempty"`

	// MaxOperations overrides the per-kind budget. Zero keeps the default.
	MaxOperations int `yaml:"max_operations,omitempty"`

	// Tables is the CUE tables directory, relative to the scenario file.
	Tables string `yaml:"tables"`

	Source      SourceFixture      `yaml:"source"`
	Destination DestinationFixture `yaml:"destination"`

	// Assertions validate the calls, the ledger and the report.
	// Supported types: call_contains, call_order, call_count, counts,
	// ledger_contains, status, run_error
	Assertions []Assertion `yaml:"assertions"`
}

// SourceFixture is what the fixture source system serves.
type SourceFixture struct {
	Workers    []WorkerFixture             `yaml:"workers,omitempty"`
	Terminated []WorkerFixture             `yaml:"terminated,omitempty"`
	TimeOff    map[string][]SectionFixture `yaml:"time_off,omitempty"`

	// Fail maps a call ("GET workers", "GET timeoff aoid-1",
	// "PUSH aoid-1") to the HTTP status it fails with.
	Fail map[string]int `yaml:"fail,omitempty"`
}

// DestinationFixture is what the fixture destination system serves.
type DestinationFixture struct {
	Employees []EmployeeFixture           `yaml:"employees,omitempty"`
	Jobs      []JobFixture                `yaml:"jobs,omitempty"`
	Hierarchy []NodeFixture               `yaml:"hierarchy,omitempty"`
	Absences  map[string][]AbsenceFixture `yaml:"absences,omitempty"`

	// Fail maps a call ("GET employees", "PUT employees emp-1",
	// "POST absences") to the HTTP status it fails with.
	Fail map[string]int `yaml:"fail,omitempty"`
}

// Assertion validates one aspect of the run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "call_contains": a call was sent
	// - "call_order": calls were sent in this order
	// - "call_count": a call was sent exactly Count times
	// - "counts": the report counts of Kind include Expect
	// - "ledger_contains": a ledger entry includes Match
	// - "status": the run finished with Status
	// - "run_error": the run error contains Error
	Type string `yaml:"type"`

	// Call is the exact call line (call_contains, call_count).
	Call string `yaml:"call,omitempty"`

	// Calls is the expected call order (call_order).
	Calls []string `yaml:"calls,omitempty"`

	// Count is the expected number of occurrences (call_count).
	Count int `yaml:"count,omitempty"`

	// Kind is the record kind (counts).
	Kind string `yaml:"kind,omitempty"`

	// Expect holds expected count fields (counts). Subset match.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Match holds expected ledger fields (ledger_contains). Subset match.
	Match map[string]any `yaml:"match,omitempty"`

	Status string `yaml:"status,omitempty"`
	Error  string `yaml:"error,omitempty"`
}

// Assertion type constants.
const (
	AssertCallContains   = "call_contains"
	AssertCallOrder      = "call_order"
	AssertCallCount      = "call_count"
	AssertCounts         = "counts"
	AssertLedgerContains = "ledger_contains"
	AssertStatus         = "status"
	AssertRunError       = "run_error"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// The tables path is resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Reject unknown fields (catches "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Tables != "" && !filepath.IsAbs(scenario.Tables) {
		scenario.Tables = filepath.Join(filepath.Dir(path), scenario.Tables)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if _, err := ir.ParseCountry(s.Country); err != nil {
		return fmt.Errorf("country: %w", err)
	}

	if _, err := engine.ParseRunType(s.RunType); err != nil {
		return fmt.Errorf("run_type: %w", err)
	}

	if _, err := ir.ParseDate(s.Today); err != nil {
		return fmt.Errorf("today: %w", err)
	}

	if s.MaxOperations < 0 {
		return fmt.Errorf("max_operations must be non-negative")
	}

	if s.Tables == "" {
		return fmt.Errorf("tables is required")
	}
	if info, err := os.Stat(s.Tables); err != nil || !info.IsDir() {
		return fmt.Errorf("tables directory not found: %s", s.Tables)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, w := range append(append([]WorkerFixture{}, s.Source.Workers...), s.Source.Terminated...) {
		if err := validateWorker(i, w); err != nil {
			return err
		}
	}

	for aoid, sections := range s.Source.TimeOff {
		for i, sec := range sections {
			for j, req := range sec.Requests {
				for k, day := range req.Days {
					if _, err := decimal.NewFromString(day.Value); err != nil {
						return fmt.Errorf("time_off[%s][%d].requests[%d].days[%d]: value: %w", aoid, i, j, k, err)
					}
				}
			}
		}
	}

	for i, e := range s.Destination.Employees {
		if e.ID == "" {
			return fmt.Errorf("destination.employees[%d]: id is required", i)
		}
		if e.ServiceStart != "" {
			if _, err := ir.ParseDate(e.ServiceStart); err != nil {
				return fmt.Errorf("destination.employees[%d]: service_start: %w", i, err)
			}
		}
	}

	for i, j := range s.Destination.Jobs {
		if j.ID == "" || j.Employee == "" {
			return fmt.Errorf("destination.jobs[%d]: id and employee are required", i)
		}
		if _, err := ir.ParseDate(j.Start); err != nil {
			return fmt.Errorf("destination.jobs[%d]: start: %w", i, err)
		}
	}

	for emp, list := range s.Destination.Absences {
		for i, a := range list {
			if a.ID == "" || a.Reason == "" {
				return fmt.Errorf("destination.absences[%s][%d]: id and reason are required", emp, i)
			}
			if _, err := ir.ParseDate(a.Start); err != nil {
				return fmt.Errorf("destination.absences[%s][%d]: start: %w", emp, i, err)
			}
			if _, err := ir.ParseDate(a.End); err != nil {
				return fmt.Errorf("destination.absences[%s][%d]: end: %w", emp, i, err)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateWorker(index int, w WorkerFixture) error {
	if w.AOID == "" || w.Position == "" {
		return fmt.Errorf("workers[%d]: aoid and position are required", index)
	}
	if len(w.Name) != 0 && len(w.Name) != 2 {
		return fmt.Errorf("workers[%d]: name must be [given, family]", index)
	}
	for field, rate := range map[string]string{"annual": w.Annual, "hourly": w.Hourly} {
		if rate == "" {
			continue
		}
		if _, err := decimal.NewFromString(rate); err != nil {
			return fmt.Errorf("workers[%d]: %s: %w", index, field, err)
		}
	}
	if w.Terminated != nil && w.Terminated.Date == "" {
		return fmt.Errorf("workers[%d]: terminated.date is required", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCallContains:
		if a.Call == "" {
			return fmt.Errorf("assertions[%d]: call is required for call_contains", index)
		}
	case AssertCallOrder:
		if len(a.Calls) == 0 {
			return fmt.Errorf("assertions[%d]: calls list is required for call_order", index)
		}
	case AssertCallCount:
		if a.Call == "" {
			return fmt.Errorf("assertions[%d]: call is required for call_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for call_count", index)
		}
	case AssertCounts:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for counts", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for counts", index)
		}
	case AssertLedgerContains:
		if len(a.Match) == 0 {
			return fmt.Errorf("assertions[%d]: match is required for ledger_contains", index)
		}
	case AssertStatus:
		if a.Status == "" {
			return fmt.Errorf("assertions[%d]: status is required for status", index)
		}
	case AssertRunError:
		if a.Error == "" {
			return fmt.Errorf("assertions[%d]: error is required for run_error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
