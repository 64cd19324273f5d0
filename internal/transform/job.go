package transform

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/roach88/hrsync/internal/country"
	"github.com/roach88/hrsync/internal/feed"
	"github.com/roach88/hrsync/internal/identity"
	"github.com/roach88/hrsync/internal/ir"
)

// Destination pay vocabulary that differs from what hrsync writes.
const (
	payFrequencyFortnightly = "Fortnightly"
	payFrequencyBiweekly    = "Biweekly"
	payBasisAnnual          = "ANNUAL"
)

// RoundSalary rounds half-up to two decimal places.
//
// decimal.Round rounds half away from zero, which is half-up for the
// non-negative amounts salaries carry.
func RoundSalary(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Pay resolves the pay basis and rounded salary of an assignment. The
// hourly rate takes precedence over the annual rate.
func Pay(a feed.WorkAssignment) (basis string, salary decimal.Decimal, err error) {
	r := a.BaseRemuneration
	if r == nil {
		return "", decimal.Zero, ErrNoPayBasis
	}
	var amount *feed.Amount
	switch {
	case r.HourlyRateAmount.Present():
		basis, amount = ir.PayBasisHourly, r.HourlyRateAmount
	case r.AnnualRateAmount.Present():
		basis, amount = ir.PayBasisYearly, r.AnnualRateAmount
	default:
		return "", decimal.Zero, ErrNoPayBasis
	}
	if amount.AmountValue == nil {
		return "", decimal.Zero, malformed("baseRemuneration.amountValue", errMissing)
	}
	return basis, RoundSalary(*amount.AmountValue), nil
}

// ResolveLineManager maps the source manager to a destination employee id.
// Employees on the override list report to the placeholder manager
// whatever the source says.
func ResolveLineManager(employeeID *string, sourceManagerID *string, lib *identity.Library, tables *ir.Tables) *string {
	if employeeID != nil {
		if placeholder, ok := tables.ManagerOverride(*employeeID); ok {
			return &placeholder
		}
	}
	if sourceManagerID == nil {
		return nil
	}
	return lib.InternalIDOf(*sourceManagerID)
}

// ChangeReason infers why a job line changed. The first difference in
// priority order wins: salary, hierarchy node, line manager, start date.
// With no difference the existing reason is kept.
func ChangeReason(current, next ir.JobRecord) *string {
	switch {
	case !current.Salary.Equal(next.Salary):
		return ir.StringPtr(ir.ChangeSalary)
	case !ir.EqualStringPtr(current.HierarchyNodeId, next.HierarchyNodeId):
		return ir.StringPtr(ir.ChangePosition)
	case !ir.EqualStringPtr(current.LineManagerId, next.LineManagerId):
		return ir.StringPtr(ir.ChangeManager)
	case !current.StartDate.Equal(next.StartDate):
		return ir.StringPtr(ir.ChangeCorrection)
	default:
		return current.ChangeReason
	}
}

// JobInput holds what a job projection reads besides the worker itself.
type JobInput struct {
	Profile country.Profile
	Library *identity.Library
	Tables  *ir.Tables
}

// Job projects the source worker's active assignment onto the employee's
// current destination job line.
//
// The start date is the latest of the pay effective date, the current
// line's start date and the assignment status effective date. Title,
// family, notice period, classification and Id come from the current line.
func Job(w feed.Worker, e ir.IdentityEntry, current ir.JobRecord, in JobInput) (ir.JobRecord, error) {
	a, err := activeAssignment(w, e)
	if err != nil {
		return ir.JobRecord{}, err
	}
	rec, err := baseJob(a, e, in)
	if err != nil {
		return ir.JobRecord{}, err
	}

	candidates := []ir.Date{current.StartDate}
	for _, s := range []*string{payEffective(a), statusEffective(a)} {
		d, err := ir.ParseDatePtr(s)
		if err != nil {
			return ir.JobRecord{}, malformed("effectiveDate", err)
		}
		if d != nil {
			candidates = append(candidates, *d)
		}
	}
	rec.StartDate = ir.MaxDate(candidates[0], candidates[1:]...)
	if rec.StartDate.IsZero() {
		return ir.JobRecord{}, malformed("StartDate", fmt.Errorf("%w: no effective date", errMissing))
	}

	rec.JobTitle = current.JobTitle
	rec.JobFamily = current.JobFamily
	rec.NoticePeriod = current.NoticePeriod
	rec.Classification = current.Classification
	rec.Id = current.Id
	rec.ChangeReason = ChangeReason(current, rec)
	return rec, nil
}

// NewStarterJob projects the first job line for an employee that has none
// at the destination. It starts on the assignment's actual start date.
func NewStarterJob(w feed.Worker, e ir.IdentityEntry, in JobInput) (ir.JobRecord, error) {
	a, err := activeAssignment(w, e)
	if err != nil {
		return ir.JobRecord{}, err
	}
	rec, err := baseJob(a, e, in)
	if err != nil {
		return ir.JobRecord{}, err
	}
	rec.StartDate, err = requiredDate("actualStartDate", a.ActualStartDate)
	if err != nil {
		return ir.JobRecord{}, err
	}
	rec.JobTitle = a.JobTitle
	rec.ChangeReason = ir.StringPtr(ir.ChangeNewStarter)
	return rec, nil
}

func baseJob(a feed.WorkAssignment, e ir.IdentityEntry, in JobInput) (ir.JobRecord, error) {
	basis, salary, err := Pay(a)
	if err != nil {
		return ir.JobRecord{}, err
	}
	hours := decimal.NewFromInt(ir.NormalHours)
	return ir.JobRecord{
		WorkingCalendar:    ir.WorkingCalendar,
		LineManagerId:      ResolveLineManager(e.DestinationInternalID, e.SourceManagerID, in.Library, in.Tables),
		HierarchyNodeId:    e.HierarchyNodeID,
		Active:             boolPtr(true),
		Salary:             salary,
		EmployeeId:         e.DestinationInternalID,
		Contract:           in.Profile.Contract(a),
		PayFrequency:       a.PayCycleCode.Short(),
		PayBasis:           &basis,
		FullTimeEquivalent: decimal.NewFromInt(ir.FullTimeEquivalent),
		NormalHours:        &hours,
	}, nil
}

func payEffective(a feed.WorkAssignment) *string {
	if a.BaseRemuneration == nil {
		return nil
	}
	return a.BaseRemuneration.EffectiveDate
}

func statusEffective(a feed.WorkAssignment) *string {
	if a.AssignmentStatus == nil {
		return nil
	}
	return a.AssignmentStatus.EffectiveDate
}

// NormalizeDestinationJob reshapes a destination job line for comparison
// with a projected one. Fields hrsync always writes as constants are reset
// to those constants; legacy pay vocabulary is translated.
func NormalizeDestinationJob(j ir.JobRecord) ir.JobRecord {
	j.WorkingCalendar = ir.WorkingCalendar
	j.FullTimeEquivalent = decimal.NewFromInt(ir.FullTimeEquivalent)
	j.Salary = RoundSalary(j.Salary)
	j.TimesheetLunchDuration = nil
	if j.PayFrequency != nil && *j.PayFrequency == payFrequencyFortnightly {
		j.PayFrequency = ir.StringPtr(payFrequencyBiweekly)
	}
	if j.PayBasis != nil && *j.PayBasis == payBasisAnnual {
		j.PayBasis = ir.StringPtr(ir.PayBasisYearly)
	}
	j.ExpenseSubmissionFrequency = emptyToNil(j.ExpenseSubmissionFrequency)
	j.CostCentre = emptyToNil(j.CostCentre)
	j.RealTimeInformationIrregularFrequency = emptyToNil(j.RealTimeInformationIrregularFrequency)
	return j
}

// CurrentJobs keeps, per employee, the open job line with the latest start
// date. Output follows the order employees first appear in jobs.
func CurrentJobs(jobs []ir.JobRecord) []ir.JobRecord {
	index := make(map[string]int)
	out := make([]ir.JobRecord, 0, len(jobs))
	for _, j := range jobs {
		if j.EndDate != nil || j.EmployeeId == nil {
			continue
		}
		i, ok := index[*j.EmployeeId]
		if !ok {
			index[*j.EmployeeId] = len(out)
			out = append(out, j)
			continue
		}
		if j.StartDate.After(out[i].StartDate) {
			out[i] = j
		}
	}
	return out
}

func emptyToNil(s *string) *string {
	if s != nil && *s == "" {
		return nil
	}
	return s
}
