package transform

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hrsync/internal/feed"
	"github.com/roach88/hrsync/internal/identity"
	"github.com/roach88/hrsync/internal/ir"
	"github.com/roach88/hrsync/internal/testutil"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRoundSalary_HalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12.345", "12.35"},
		{"12.344", "12.34"},
		{"12.005", "12.01"},
		{"12.015", "12.02"},
		{"12.025", "12.03"},
		{"52000", "52000"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := RoundSalary(dec(tt.in))
			assert.True(t, got.Equal(dec(tt.want)), "got %s", got)
		})
	}
}

func TestPay(t *testing.T) {
	w := testutil.NewWorker("a", "P").Hourly("21.755").Build()
	basis, salary, err := Pay(w.WorkAssignments[0])
	require.NoError(t, err)
	assert.Equal(t, ir.PayBasisHourly, basis)
	assert.True(t, salary.Equal(dec("21.76")))

	w = testutil.NewWorker("a", "P").Annual("60000.004").Build()
	basis, salary, err = Pay(w.WorkAssignments[0])
	require.NoError(t, err)
	assert.Equal(t, ir.PayBasisYearly, basis)
	assert.True(t, salary.Equal(dec("60000")))

	w = testutil.NewWorker("a", "P").Unpaid().Build()
	_, _, err = Pay(w.WorkAssignments[0])
	assert.ErrorIs(t, err, ErrNoPayBasis)

	_, _, err = Pay(feed.WorkAssignment{})
	assert.ErrorIs(t, err, ErrNoPayBasis)
}

func TestPay_HourlyTakesPrecedence(t *testing.T) {
	w := testutil.NewWorker("a", "P").Build()
	rate := dec("30")
	w.WorkAssignments[0].BaseRemuneration.HourlyRateAmount = &feed.Amount{NameCode: testutil.Short("Hourly"), AmountValue: &rate}

	basis, salary, err := Pay(w.WorkAssignments[0])
	require.NoError(t, err)
	assert.Equal(t, ir.PayBasisHourly, basis)
	assert.True(t, salary.Equal(rate))
}

func TestChangeReason_Priority(t *testing.T) {
	base := ir.JobRecord{
		Salary:          dec("100"),
		HierarchyNodeId: ir.StringPtr("n1"),
		LineManagerId:   ir.StringPtr("m1"),
		StartDate:       ir.MustParseDate("2024-01-01"),
		ChangeReason:    ir.StringPtr("Annual Review"),
	}

	tests := []struct {
		name   string
		mutate func(*ir.JobRecord)
		want   string
	}{
		{"salary and hierarchy", func(j *ir.JobRecord) {
			j.Salary = dec("200")
			j.HierarchyNodeId = ir.StringPtr("n2")
		}, ir.ChangeSalary},
		{"hierarchy and manager", func(j *ir.JobRecord) {
			j.HierarchyNodeId = ir.StringPtr("n2")
			j.LineManagerId = ir.StringPtr("m2")
		}, ir.ChangePosition},
		{"manager and start", func(j *ir.JobRecord) {
			j.LineManagerId = nil
			j.StartDate = ir.MustParseDate("2024-02-01")
		}, ir.ChangeManager},
		{"start only", func(j *ir.JobRecord) {
			j.StartDate = ir.MustParseDate("2024-02-01")
		}, ir.ChangeCorrection},
		{"salary scale only", func(j *ir.JobRecord) {
			j.Salary = dec("100.00")
		}, "Annual Review"},
		{"no change keeps reason", func(j *ir.JobRecord) {}, "Annual Review"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := base
			tt.mutate(&next)
			got := ChangeReason(base, next)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestResolveLineManager(t *testing.T) {
	p := profile(t, ir.CountryUSA)
	boss := testutil.NewWorker("aoid-boss", "POSB").Build()
	lib := identity.Build(identity.Input{
		Profile:     p,
		Workers:     []feed.Worker{boss},
		Destination: []ir.PersonalRecord{testutil.Employee("emp-boss", "B1", "POSB", "")},
	}, nil)
	tables := &ir.Tables{ManagerOverrides: ir.ManagerOverrides{Employees: []string{"emp-special"}}}

	got := ResolveLineManager(ir.StringPtr("emp-1"), ir.StringPtr("aoid-boss"), lib, tables)
	require.NotNil(t, got)
	assert.Equal(t, "emp-boss", *got)

	got = ResolveLineManager(ir.StringPtr("emp-special"), ir.StringPtr("aoid-boss"), lib, tables)
	require.NotNil(t, got)
	assert.Equal(t, ir.PlaceholderManager, *got, "override beats the looked-up manager")

	assert.Nil(t, ResolveLineManager(ir.StringPtr("emp-1"), ir.StringPtr("aoid-unknown"), lib, tables))
	assert.Nil(t, ResolveLineManager(nil, nil, lib, tables))
}

func jobFixture(t *testing.T, w feed.Worker) (ir.IdentityEntry, JobInput) {
	t.Helper()
	p := profile(t, ir.CountryUSA)
	boss := testutil.NewWorker("aoid-boss", "POSB").Build()
	lib := identity.Build(identity.Input{
		Profile: p,
		Tables:  ir.CountryTables{Hierarchy: []ir.HierarchyRow{{Code: "1001", Node: "OPS"}}},
		Workers: []feed.Worker{w, boss},
		Destination: []ir.PersonalRecord{
			testutil.Employee("emp-1", "EMP1", "POS1", ""),
			testutil.Employee("emp-boss", "B1", "POSB", ""),
		},
		Nodes: []feed.HierarchyNode{{Id: "node-ops", SourceSystemId: ir.StringPtr("OPS")}},
	}, nil)
	e, ok := EntryFor(lib, p, w)
	require.True(t, ok)
	return e, JobInput{Profile: p, Library: lib, Tables: &ir.Tables{}}
}

func currentLine() ir.JobRecord {
	return ir.JobRecord{
		JobTitle:        ir.StringPtr("Senior Engineer"),
		JobFamily:       ir.StringPtr("Engineering"),
		NoticePeriod:    ir.StringPtr("1 month"),
		Classification:  ir.StringPtr("Salaried"),
		StartDate:       ir.MustParseDate("2021-05-01"),
		Salary:          dec("52000"),
		HierarchyNodeId: ir.StringPtr("node-ops"),
		LineManagerId:   ir.StringPtr("emp-boss"),
		EmployeeId:      ir.StringPtr("emp-1"),
		ChangeReason:    ir.StringPtr("Promotion"),
		Id:              ir.StringPtr("job-1"),
	}
}

func TestJob_ProjectsOntoCurrentLine(t *testing.T) {
	w := testutil.NewWorker("aoid-1", "POS1").DisplayID("EMP1").ReportsTo("aoid-boss").
		PayEffective("2020-01-06", "2020-01-06").Build()
	e, in := jobFixture(t, w)

	rec, err := Job(w, e, currentLine(), in)
	require.NoError(t, err)

	assert.Equal(t, "Senior Engineer", *rec.JobTitle, "title comes from the destination line")
	assert.Equal(t, "Engineering", *rec.JobFamily)
	assert.Equal(t, "1 month", *rec.NoticePeriod)
	assert.Equal(t, "Salaried", *rec.Classification)
	assert.Equal(t, "job-1", *rec.Id)
	assert.Equal(t, "2021-05-01", rec.StartDate.String(), "latest of the three dates")
	assert.Equal(t, "emp-1", *rec.EmployeeId)
	assert.Equal(t, "emp-boss", *rec.LineManagerId)
	assert.Equal(t, "node-ops", *rec.HierarchyNodeId)
	assert.Equal(t, ir.WorkingCalendar, rec.WorkingCalendar)
	assert.Equal(t, ir.ContractPermanent, rec.Contract)
	assert.Equal(t, "Biweekly", *rec.PayFrequency)
	assert.Equal(t, ir.PayBasisYearly, *rec.PayBasis)
	assert.True(t, rec.Salary.Equal(dec("52000")))
	assert.True(t, rec.FullTimeEquivalent.Equal(decimal.NewFromInt(1)))
	assert.True(t, rec.NormalHours.Equal(decimal.NewFromInt(40)))
	assert.True(t, *rec.Active)
	assert.Nil(t, rec.EndDate)
	assert.Equal(t, "Promotion", *rec.ChangeReason, "nothing changed")
}

func TestJob_StartDateTakesLatestEffectiveDate(t *testing.T) {
	w := testutil.NewWorker("aoid-1", "POS1").DisplayID("EMP1").ReportsTo("aoid-boss").
		PayEffective("2024-04-01", "2023-01-01").Build()
	e, in := jobFixture(t, w)

	rec, err := Job(w, e, currentLine(), in)
	require.NoError(t, err)
	assert.Equal(t, "2024-04-01", rec.StartDate.String())
	assert.Equal(t, ir.ChangeCorrection, *rec.ChangeReason)
}

func TestJob_SalaryChange(t *testing.T) {
	w := testutil.NewWorker("aoid-1", "POS1").DisplayID("EMP1").ReportsTo("aoid-boss").
		Annual("55000.555").PayEffective("2024-04-01", "2020-01-06").Build()
	e, in := jobFixture(t, w)

	rec, err := Job(w, e, currentLine(), in)
	require.NoError(t, err)
	assert.True(t, rec.Salary.Equal(dec("55000.56")))
	assert.Equal(t, ir.ChangeSalary, *rec.ChangeReason)
}

func TestJob_NoPayBasisIsSkipped(t *testing.T) {
	w := testutil.NewWorker("aoid-1", "POS1").DisplayID("EMP1").Unpaid().Build()
	e, in := jobFixture(t, w)

	_, err := Job(w, e, currentLine(), in)
	assert.ErrorIs(t, err, ErrNoPayBasis)
}

func TestJob_MalformedEffectiveDate(t *testing.T) {
	w := testutil.NewWorker("aoid-1", "POS1").DisplayID("EMP1").PayEffective("soon", "2020-01-06").Build()
	e, in := jobFixture(t, w)

	_, err := Job(w, e, currentLine(), in)
	assert.True(t, IsMalformed(err))
}

func TestNewStarterJob(t *testing.T) {
	w := testutil.NewWorker("aoid-1", "POS1").DisplayID("EMP1").ReportsTo("aoid-boss").
		Hired("2024-05-20").Hourly("18.125").Build()
	e, in := jobFixture(t, w)

	rec, err := NewStarterJob(w, e, in)
	require.NoError(t, err)

	assert.Equal(t, "2024-05-20", rec.StartDate.String())
	assert.Equal(t, ir.ChangeNewStarter, *rec.ChangeReason)
	assert.Equal(t, "Engineer", *rec.JobTitle)
	assert.Nil(t, rec.Classification)
	assert.Nil(t, rec.Id)
	assert.Equal(t, ir.PayBasisHourly, *rec.PayBasis)
	assert.True(t, rec.Salary.Equal(dec("18.13")))
	assert.Equal(t, "emp-boss", *rec.LineManagerId)
}

func TestNormalizeDestinationJob(t *testing.T) {
	lunch := dec("30")
	j := ir.JobRecord{
		WorkingCalendar:                       "37.5hrs",
		Salary:                                dec("1000.125"),
		PayFrequency:                          ir.StringPtr("Fortnightly"),
		PayBasis:                              ir.StringPtr("ANNUAL"),
		TimesheetLunchDuration:                &lunch,
		CostCentre:                            ir.StringPtr(""),
		ExpenseSubmissionFrequency:            ir.StringPtr(""),
		RealTimeInformationIrregularFrequency: ir.StringPtr("Weekly"),
		Contract:                              "Temporary",
	}

	got := NormalizeDestinationJob(j)

	assert.Equal(t, ir.WorkingCalendar, got.WorkingCalendar)
	assert.True(t, got.Salary.Equal(dec("1000.13")))
	assert.Equal(t, "Biweekly", *got.PayFrequency)
	assert.Equal(t, ir.PayBasisYearly, *got.PayBasis)
	assert.Nil(t, got.TimesheetLunchDuration)
	assert.Nil(t, got.CostCentre)
	assert.Nil(t, got.ExpenseSubmissionFrequency)
	assert.Equal(t, "Weekly", *got.RealTimeInformationIrregularFrequency)
	assert.True(t, got.FullTimeEquivalent.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "Temporary", got.Contract)
}

func TestCurrentJobs_LatestOpenLinePerEmployee(t *testing.T) {
	line := func(emp, start, id string, ended bool) ir.JobRecord {
		j := ir.JobRecord{EmployeeId: ir.StringPtr(emp), StartDate: ir.MustParseDate(start), Id: ir.StringPtr(id)}
		if ended {
			j.EndDate = ir.DatePtr(ir.MustParseDate("2030-01-01"))
		}
		return j
	}
	jobs := []ir.JobRecord{
		line("e2", "2020-01-01", "j1", false),
		line("e1", "2021-01-01", "j2", false),
		line("e2", "2023-01-01", "j3", false),
		line("e1", "2025-01-01", "j4", true),
		line("e2", "2022-01-01", "j5", false),
		{StartDate: ir.MustParseDate("2024-01-01")},
	}

	got := CurrentJobs(jobs)

	require.Len(t, got, 2)
	assert.Equal(t, "e2", *got[0].EmployeeId)
	assert.Equal(t, "j3", *got[0].Id)
	assert.Equal(t, "e1", *got[1].EmployeeId)
	assert.Equal(t, "j2", *got[1].Id)
}
