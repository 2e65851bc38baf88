package schema

import (
	"fmt"
	"sort"
	"strings"
)

// CycleWarning reports a loop in the cascading ownership graph.
//
// Cycles are warnings, not errors: a self-owning type such as a category
// tree is legitimate as long as the instance graph is finite.
type CycleWarning struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
	Level   string   `json:"level"`
}

// ownershipGraph maps type name to the types its cascading owned
// collections hold.
type ownershipGraph map[string][]string

// AnalyzeOwnershipCycles detects types that reach themselves through
// cascading owned collections. Inherited collections count for subtypes.
// A DAG returns no warnings.
func AnalyzeOwnershipCycles(specs []TypeSpec) []CycleWarning {
	graph := buildOwnershipGraph(specs)

	var warnings []CycleWarning
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			warnings = append(warnings, sccToWarning(scc, graph))
		}
	}
	sort.Slice(warnings, func(i, j int) bool {
		return warnings[i].Path[0] < warnings[j].Path[0]
	})
	return warnings
}

func buildOwnershipGraph(specs []TypeSpec) ownershipGraph {
	byName := make(map[string]*TypeSpec, len(specs))
	for i := range specs {
		byName[specs[i].Name] = &specs[i]
	}
	graph := make(ownershipGraph, len(specs))
	for i := range specs {
		t := &specs[i]
		graph[t.Name] = []string{}
		seen := make(map[string]bool)
		for cur := t; cur != nil && !seen[cur.Name]; cur = byName[cur.Parent] {
			seen[cur.Name] = true
			for _, p := range cur.Properties {
				if p.Kind == "collection" && p.Owned() && p.Cascade && p.Target != "" {
					graph[t.Name] = append(graph[t.Name], p.Target)
				}
			}
		}
	}
	return graph
}

func hasSelfLoop(node string, graph ownershipGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in name order so results are deterministic.
func tarjanSCC(graph ownershipGraph) [][]string {
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
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func sccToWarning(scc []string, graph ownershipGraph) CycleWarning {
	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("type %s owns itself through a cascading collection", name),
			Level:   "warning",
		}
	}
	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("cascading ownership cycle: %s", strings.Join(path, " -> ")),
		Level:   "warning",
	}
}

// reconstructCyclePath walks from the smallest name in the SCC along edges
// inside the SCC until it returns to the start.
func reconstructCyclePath(scc []string, graph ownershipGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}
	sorted := append([]string(nil), scc...)
	sort.Strings(sorted)
	start := sorted[0]

	path := []string{start}
	visited := map[string]bool{start: true}
	cur := start
	for {
		next := ""
		for _, w := range graph[cur] {
			if w == start && len(path) > 1 {
				return append(path, start)
			}
			if members[w] && !visited[w] && (next == "" || w < next) {
				next = w
			}
		}
		if next == "" {
			return append(path, start)
		}
		visited[next] = true
		path = append(path, next)
		cur = next
	}
}
