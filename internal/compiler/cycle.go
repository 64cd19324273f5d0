package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/hrsync/internal/feed"
	"github.com/roach88/hrsync/internal/ir"
)

// Warning is a non-fatal problem found in tables or a fetched hierarchy.
//
// Warnings never stop a run. They are logged before reconciliation so an
// operator can fix the destination tree or the table rows.
type Warning struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
	Level   string   `json:"level"` // "warning" or "info"
}

// AnalyzeHierarchy checks a fetched hierarchy for parent cycles and for
// SourceSystemIds shared by more than one node.
//
// The graph has one edge per node, from the node to its parent. Tarjan's
// algorithm finds strongly connected components; any component with more
// than one node, or a node that is its own parent, is a cycle.
//
// Output is sorted so repeated runs log warnings in the same order.
func AnalyzeHierarchy(nodes []feed.HierarchyNode) []Warning {
	if len(nodes) == 0 {
		return []Warning{}
	}

	graph := buildParentGraph(nodes)
	sccs := tarjanSCC(graph)

	warnings := []Warning{}
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}

	// usa resolution maps SourceSystemId to Id and takes the last match
	bySource := make(map[string][]string)
	for _, n := range nodes {
		if n.SourceSystemId == nil || *n.SourceSystemId == "" {
			continue
		}
		bySource[*n.SourceSystemId] = append(bySource[*n.SourceSystemId], n.Id)
	}
	for _, src := range sortedKeys(bySource) {
		ids := bySource[src]
		if len(ids) < 2 {
			continue
		}
		warnings = append(warnings, Warning{
			Path:    ids,
			Message: fmt.Sprintf("SourceSystemId %q is shared by %d nodes; %s wins", src, len(ids), ids[len(ids)-1]),
			Level:   "info",
		})
	}

	return warnings
}

// AnalyzeTables reports table rows that can never match because an
// earlier row with the same key wins, or a later one overrides it.
func AnalyzeTables(t *ir.Tables) []Warning {
	warnings := []Warning{}
	if t == nil {
		return warnings
	}

	for _, c := range ir.Countries {
		ct, ok := t.Countries[c]
		if !ok {
			continue
		}
		prefix := "country." + string(c)

		rows := make([]string, len(ct.Hierarchy))
		for i, r := range ct.Hierarchy {
			rows[i] = r.Code + "\x00" + ir.Deref(r.Name)
		}
		// usa keeps the first row; can passes keep the first row too
		warnings = append(warnings, shadowed(prefix+".hierarchy", rows, "first")...)

		rows = make([]string, len(ct.AbsenceReasons))
		for i, r := range ct.AbsenceReasons {
			rows[i] = r.Policy + "\x00" + ir.Deref(r.EarningType)
		}
		// reason lookup scans every row and the last match wins
		warnings = append(warnings, shadowed(prefix+".absence_reasons", rows, "last")...)
	}

	return warnings
}

func shadowed(field string, keys []string, wins string) []Warning {
	at := make(map[string][]int)
	var order []string
	for i, k := range keys {
		if _, ok := at[k]; !ok {
			order = append(order, k)
		}
		at[k] = append(at[k], i)
	}

	var warnings []Warning
	for _, k := range order {
		idx := at[k]
		if len(idx) < 2 {
			continue
		}
		path := make([]string, len(idx))
		for i, n := range idx {
			path[i] = fmt.Sprintf("%s[%d]", field, n)
		}
		winner := path[0]
		if wins == "last" {
			winner = path[len(path)-1]
		}
		warnings = append(warnings, Warning{
			Path:    path,
			Message: fmt.Sprintf("duplicate key %q; only %s is used", strings.ReplaceAll(k, "\x00", "/"), winner),
			Level:   "warning",
		})
	}
	return warnings
}

// parentGraph maps node id → parent ids present in the fetched set.
type parentGraph map[string][]string

func buildParentGraph(nodes []feed.HierarchyNode) parentGraph {
	graph := make(parentGraph, len(nodes))
	for _, n := range nodes {
		if graph[n.Id] == nil {
			graph[n.Id] = []string{}
		}
	}
	for _, n := range nodes {
		if n.ParentId == nil {
			continue
		}
		// parents outside the fetched set are the BFS root or above it
		if _, ok := graph[*n.ParentId]; !ok {
			continue
		}
		graph[n.Id] = append(graph[n.Id], *n.ParentId)
	}
	return graph
}

func hasSelfLoop(node string, graph parentGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order and each SCC is sorted.
func tarjanSCC(graph parentGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Strings(scc)
			sccs = append(sccs, scc)
		}
	}

	for _, node := range sortedKeys(graph) {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	sort.Slice(sccs, func(i, j int) bool { return sccs[i][0] < sccs[j][0] })
	return sccs
}

func cycleSCCToWarning(scc []string, graph parentGraph) Warning {
	if len(scc) == 1 {
		id := scc[0]
		return Warning{
			Path:    []string{id, id},
			Message: fmt.Sprintf("hierarchy node is its own parent: %s", id),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return Warning{
		Path:    path,
		Message: fmt.Sprintf("hierarchy parent cycle: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath walks parent edges from the smallest id in the SCC
// until it returns to the start.
func reconstructCyclePath(scc []string, graph parentGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool, len(scc))
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
