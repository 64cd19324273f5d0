package reconcile

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hrsync/internal/ir"
	"github.com/roach88/hrsync/internal/testutil"
)

func TestAbsences_IdenticalIsUnchanged(t *testing.T) {
	source := []ir.AbsenceRecord{testutil.Absence("e1", "r1", "2024-05-06", "2024-05-08")}
	dest := []ir.AbsenceRecord{testutil.DestinationAbsence("a1", "e1", "r1", "2024-05-06", "2024-05-08")}

	plan := Absences(source, dest)

	assert.Equal(t, source, plan.Unchanged)
	assert.Equal(t, []string{"a1"}, plan.UnchangedIDs)
	assert.Empty(t, plan.Create)
	assert.Empty(t, plan.Update)
	assert.Empty(t, plan.Delete)
	require.NoError(t, CheckPartition(plan, dest))
}

func TestAbsences_TwoOfThreeIsUpdate(t *testing.T) {
	tests := []struct {
		name string
		src  ir.AbsenceRecord
	}{
		{"reason changed", testutil.Absence("e1", "r2", "2024-05-06", "2024-05-08")},
		{"end changed", testutil.Absence("e1", "r1", "2024-05-06", "2024-05-09")},
		{"start changed", testutil.Absence("e1", "r1", "2024-05-05", "2024-05-08")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := []ir.AbsenceRecord{testutil.DestinationAbsence("a1", "e1", "r1", "2024-05-06", "2024-05-08")}

			plan := Absences([]ir.AbsenceRecord{tt.src}, dest)

			require.Len(t, plan.Update, 1)
			assert.Equal(t, "a1", plan.Update[0].AbsenceID)
			assert.Equal(t, ir.AbsenceUpdate{
				StartDate: tt.src.StartDate,
				EndDate:   tt.src.EndDate,
				Id:        tt.src.AbsenceReasonId,
			}, plan.Update[0].Payload)
			assert.Empty(t, plan.Create)
			assert.Empty(t, plan.Delete)
			require.NoError(t, CheckPartition(plan, dest))
		})
	}
}

func TestAbsences_OneOfThreeIsCreateAndDelete(t *testing.T) {
	source := []ir.AbsenceRecord{testutil.Absence("e1", "r2", "2024-05-06", "2024-05-09")}
	dest := []ir.AbsenceRecord{testutil.DestinationAbsence("a1", "e1", "r1", "2024-05-06", "2024-05-08")}

	plan := Absences(source, dest)

	assert.Equal(t, source, plan.Create)
	assert.Equal(t, []string{"a1"}, plan.Delete)
}

func TestAbsences_ExactMatchPreferredOverPartial(t *testing.T) {
	source := []ir.AbsenceRecord{testutil.Absence("e1", "r1", "2024-05-06", "2024-05-08")}
	dest := []ir.AbsenceRecord{
		testutil.DestinationAbsence("partial", "e1", "r2", "2024-05-06", "2024-05-08"),
		testutil.DestinationAbsence("exact", "e1", "r1", "2024-05-06", "2024-05-08"),
	}

	plan := Absences(source, dest)

	assert.Equal(t, []string{"exact"}, plan.UnchangedIDs)
	assert.Empty(t, plan.UpdateIDs)
	assert.Equal(t, []string{"partial"}, plan.Delete)
}

func TestAbsences_ExactMatchAcrossSources(t *testing.T) {
	// the first source absence agrees with a1 on two fields, the second on
	// all three; a1 must stay as it is
	source := []ir.AbsenceRecord{
		testutil.Absence("e1", "r1", "2024-05-06", "2024-05-08"),
		testutil.Absence("e1", "r2", "2024-05-06", "2024-05-08"),
	}
	dest := []ir.AbsenceRecord{testutil.DestinationAbsence("a1", "e1", "r2", "2024-05-06", "2024-05-08")}

	plan := Absences(source, dest)

	assert.Equal(t, []string{"a1"}, plan.UnchangedIDs)
	assert.Equal(t, source[1:], plan.Unchanged)
	assert.Empty(t, plan.Update)
	assert.Empty(t, plan.Create)
	assert.Empty(t, plan.Delete)
	require.NoError(t, CheckPartition(plan, dest))
}

func TestAbsences_PartialMatchesTakeWhatExactLeaves(t *testing.T) {
	source := []ir.AbsenceRecord{
		testutil.Absence("e1", "r1", "2024-05-06", "2024-05-08"),
		testutil.Absence("e1", "r2", "2024-06-03", "2024-06-04"),
	}
	dest := []ir.AbsenceRecord{
		testutil.DestinationAbsence("a1", "e1", "r1", "2024-06-03", "2024-06-04"),
		testutil.DestinationAbsence("a2", "e1", "r2", "2024-06-03", "2024-06-04"),
	}

	plan := Absences(source, dest)

	assert.Equal(t, []string{"a2"}, plan.UnchangedIDs)
	assert.Empty(t, plan.UpdateIDs, "r1 agrees with a1 on the reason only")
	assert.Equal(t, source[:1], plan.Create)
	assert.Equal(t, []string{"a1"}, plan.Delete)
	require.NoError(t, CheckPartition(plan, dest))
}

func TestAbsences_DestinationIdClaimedOnce(t *testing.T) {
	source := []ir.AbsenceRecord{
		testutil.Absence("e1", "r1", "2024-05-06", "2024-05-08"),
		testutil.Absence("e1", "r2", "2024-05-06", "2024-05-08"),
	}
	dest := []ir.AbsenceRecord{testutil.DestinationAbsence("a1", "e1", "r1", "2024-05-06", "2024-05-08")}

	plan := Absences(source, dest)

	assert.Equal(t, []string{"a1"}, plan.UnchangedIDs)
	assert.Empty(t, plan.UpdateIDs)
	assert.Empty(t, plan.Create, "the second source absence shares the processed key")
	require.NoError(t, CheckPartition(plan, dest))
}

func TestAbsences_OtherEmployeesNeverMatch(t *testing.T) {
	source := []ir.AbsenceRecord{testutil.Absence("e1", "r1", "2024-05-06", "2024-05-08")}
	dest := []ir.AbsenceRecord{testutil.DestinationAbsence("a1", "e2", "r1", "2024-05-06", "2024-05-08")}

	plan := Absences(source, dest)

	assert.Len(t, plan.Create, 1)
	assert.Equal(t, []string{"a1"}, plan.Delete)
}

func TestAbsences_Idempotent(t *testing.T) {
	dest := []ir.AbsenceRecord{
		testutil.DestinationAbsence("a1", "e1", "r1", "2024-05-06", "2024-05-08"),
		testutil.DestinationAbsence("a2", "e1", "r2", "2024-06-01", "2024-06-01"),
	}
	source := make([]ir.AbsenceRecord, len(dest))
	for i, d := range dest {
		source[i] = d
		source[i].Id = nil
	}

	plan := Absences(source, dest)

	assert.Len(t, plan.Unchanged, 2)
	assert.Empty(t, plan.Update)
	assert.Empty(t, plan.Create)
	assert.Empty(t, plan.Delete)
}

func TestAbsences_PartitionCompleteness(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	reasons := []string{"r1", "r2", "r3"}
	day := func() string { return fmt.Sprintf("2024-05-%02d", 1+rng.Intn(6)) }

	for trial := 0; trial < 500; trial++ {
		employees := []string{"e1", "e2"}
		var source, dest []ir.AbsenceRecord
		for i := 0; i < rng.Intn(8); i++ {
			emp := employees[rng.Intn(len(employees))]
			source = append(source, testutil.Absence(emp, reasons[rng.Intn(3)], day(), day()))
		}
		for i := 0; i < rng.Intn(8); i++ {
			emp := employees[rng.Intn(len(employees))]
			dest = append(dest, testutil.DestinationAbsence(
				fmt.Sprintf("a%d", i), emp, reasons[rng.Intn(3)], day(), day()))
		}

		plan := Absences(source, dest)

		require.NoError(t, CheckPartition(plan, dest), "trial %d", trial)
		assert.Equal(t, len(plan.Unchanged), len(plan.UnchangedIDs))
		assert.Equal(t, len(plan.Update), len(plan.UpdateIDs))
	}
}

func TestCheckPartition_DetectsOverlapAndGaps(t *testing.T) {
	dest := []ir.AbsenceRecord{
		testutil.DestinationAbsence("a1", "e1", "r1", "2024-05-06", "2024-05-08"),
		testutil.DestinationAbsence("a2", "e1", "r1", "2024-05-10", "2024-05-10"),
	}

	err := CheckPartition(AbsencePlan{UnchangedIDs: []string{"a1"}, Delete: []string{"a1", "a2"}}, dest)
	assert.ErrorContains(t, err, "both")

	err = CheckPartition(AbsencePlan{UnchangedIDs: []string{"a1"}}, dest)
	assert.ErrorContains(t, err, "unclassified")

	err = CheckPartition(AbsencePlan{UnchangedIDs: []string{"a1", "a2", "a3"}}, dest)
	assert.ErrorContains(t, err, "unknown")
}
