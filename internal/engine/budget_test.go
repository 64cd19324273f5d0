package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hrsync/internal/ir"
)

func TestOperationBudget_Check(t *testing.T) {
	b := NewOperationBudget(2)

	require.NoError(t, b.Check(ir.KindAbsence))
	require.NoError(t, b.Check(ir.KindAbsence))
	require.NoError(t, b.Check(ir.KindJob))

	err := b.Check(ir.KindAbsence)
	require.Error(t, err)
	assert.True(t, IsBudgetExceededError(err))
	assert.Contains(t, err.Error(), "absence plan exceeds operation budget: 3 > 2")

	assert.Equal(t, 3, b.Current(ir.KindAbsence))
	assert.Equal(t, 1, b.Current(ir.KindJob))
	assert.Equal(t, 2, b.Max())
}

func TestNewBudgetError_IsFatal(t *testing.T) {
	err := NewBudgetError(ir.CountryCAN, ir.KindAbsence, 900, 500)

	assert.True(t, IsBudgetError(err))
	assert.True(t, IsFatal(err))
	assert.True(t, IsBudgetExceededError(err))
	assert.Equal(t, "BUDGET_EXCEEDED: plan holds 900 mutations, limit is 500 (country=can, kind=absence): absence plan exceeds operation budget: 900 > 500", err.Error())
}

func TestPlan_MutatesOnlyWrites(t *testing.T) {
	plan := &Plan{}
	plan.add(Operation{Kind: ir.KindAbsence, Action: "delete", EmployeeID: "emp-1", TargetID: "a1"})
	plan.add(Operation{Kind: ir.KindAbsence, Action: "none", EmployeeID: "emp-1", TargetID: "a2"})
	plan.skip(ir.KindAbsence, "emp-1", "bad dates", nil)

	assert.True(t, plan.Operations[0].Mutates())
	assert.False(t, plan.Operations[1].Mutates())
	assert.False(t, plan.Operations[2].Mutates())
	assert.Equal(t, 1, plan.Count(ir.KindAbsence, "skip"))
}
