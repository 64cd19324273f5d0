package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hrsync/internal/feed"
	"github.com/roach88/hrsync/internal/ir"
)

func node(id, parent string) feed.HierarchyNode {
	n := feed.HierarchyNode{Id: id}
	if parent != "" {
		n.ParentId = ir.StringPtr(parent)
	}
	return n
}

func TestAnalyzeHierarchy_Empty(t *testing.T) {
	assert.Empty(t, AnalyzeHierarchy(nil))
}

func TestAnalyzeHierarchy_Tree(t *testing.T) {
	nodes := []feed.HierarchyNode{
		node("a", "root"),
		node("b", "a"),
		node("c", "a"),
		node("d", "c"),
	}
	assert.Empty(t, AnalyzeHierarchy(nodes), "a tree has no cycles")
}

func TestAnalyzeHierarchy_SelfParent(t *testing.T) {
	nodes := []feed.HierarchyNode{
		node("a", "root"),
		node("b", "b"),
	}

	warnings := AnalyzeHierarchy(nodes)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"b", "b"}, warnings[0].Path)
	assert.Equal(t, "warning", warnings[0].Level)
	assert.Contains(t, warnings[0].Message, "own parent")
}

func TestAnalyzeHierarchy_TwoNodeCycle(t *testing.T) {
	nodes := []feed.HierarchyNode{
		node("x", "y"),
		node("y", "x"),
	}

	warnings := AnalyzeHierarchy(nodes)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"x", "y", "x"}, warnings[0].Path)
	assert.Equal(t, "hierarchy parent cycle: x → y → x", warnings[0].Message)
}

func TestAnalyzeHierarchy_ThreeNodeCycle(t *testing.T) {
	nodes := []feed.HierarchyNode{
		node("c", "a"),
		node("a", "b"),
		node("b", "c"),
		node("leaf", "a"),
	}

	warnings := AnalyzeHierarchy(nodes)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"a", "b", "c", "a"}, warnings[0].Path)
}

func TestAnalyzeHierarchy_MultipleCyclesSorted(t *testing.T) {
	nodes := []feed.HierarchyNode{
		node("q", "p"),
		node("p", "q"),
		node("b", "a"),
		node("a", "b"),
	}

	warnings := AnalyzeHierarchy(nodes)
	require.Len(t, warnings, 2)
	assert.Equal(t, "a", warnings[0].Path[0])
	assert.Equal(t, "p", warnings[1].Path[0])
}

func TestAnalyzeHierarchy_SharedSourceSystemID(t *testing.T) {
	a := node("a", "root")
	a.SourceSystemId = ir.StringPtr("US-OPS")
	b := node("b", "root")
	b.SourceSystemId = ir.StringPtr("US-OPS")
	c := node("c", "root")
	c.SourceSystemId = ir.StringPtr("US-FIN")

	warnings := AnalyzeHierarchy([]feed.HierarchyNode{a, b, c})
	require.Len(t, warnings, 1)
	assert.Equal(t, "info", warnings[0].Level)
	assert.Equal(t, []string{"a", "b"}, warnings[0].Path)
	assert.Contains(t, warnings[0].Message, "b wins")
}

func TestAnalyzeTables_Duplicates(t *testing.T) {
	tables := &ir.Tables{
		Countries: map[ir.Country]ir.CountryTables{
			ir.CountryUSA: {
				Hierarchy: []ir.HierarchyRow{
					{Code: "1001", Node: "A"},
					{Code: "1002", Node: "B"},
					{Code: "1001", Node: "C"},
				},
				AbsenceReasons: []ir.AbsenceReasonRow{
					{Policy: "PTO", EarningType: ir.StringPtr("Vacation"), ReasonID: "r-1"},
					{Policy: "PTO", EarningType: ir.StringPtr("Vacation"), ReasonID: "r-2"},
				},
			},
			ir.CountryCAN: {
				Hierarchy: []ir.HierarchyRow{
					{Code: "200", Name: ir.StringPtr("Fitter"), Node: "CA-FIT"},
					{Code: "200", Node: "CA-GEN"},
				},
			},
		},
	}

	warnings := AnalyzeTables(tables)
	require.Len(t, warnings, 2)
	assert.Equal(t, []string{"country.usa.hierarchy[0]", "country.usa.hierarchy[2]"}, warnings[0].Path)
	assert.Contains(t, warnings[0].Message, "only country.usa.hierarchy[0] is used")
	assert.Equal(t, []string{"country.usa.absence_reasons[0]", "country.usa.absence_reasons[1]"}, warnings[1].Path)
	assert.Contains(t, warnings[1].Message, "PTO/Vacation")
	assert.Contains(t, warnings[1].Message, "only country.usa.absence_reasons[1] is used")
}

func TestAnalyzeTables_Nil(t *testing.T) {
	assert.Empty(t, AnalyzeTables(nil))
}
