package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/modshim/internal/loader"
)

// Edge is one import from the module at From to the module at To.
type Edge struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Dynamic     bool   `json:"dynamic,omitempty"`
	SourcePhase bool   `json:"source_phase,omitempty"`
}

// CycleWarning describes one strongly connected group of modules.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["a.js", "b.js", "a.js"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning"
}

// EdgesFrom lists the static and source-phase edges of a loader registry
// snapshot, in record order.
func EdgesFrom(loads []loader.LoadInfo) []Edge {
	var edges []Edge
	for _, load := range loads {
		for _, dep := range load.Deps {
			edges = append(edges, Edge{From: load.URL, To: dep.URL, SourcePhase: dep.SourcePhase})
		}
	}
	return edges
}

// AnalyzeCycles finds import cycles.
//
// The algorithm:
//  1. Build a module -> imported modules graph from the static edges
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-import as a cycle warning
//
// Nodes are visited in sorted order so the report is deterministic. An
// acyclic graph returns an empty list.
func AnalyzeCycles(edges []Edge) []CycleWarning {
	if len(edges) == 0 {
		return []CycleWarning{}
	}

	graph := buildDependencyGraph(edges)
	sccs := tarjanSCC(graph)

	warnings := []CycleWarning{}
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	return warnings
}

// dependencyGraph maps module URL -> imported module URLs.
type dependencyGraph map[string][]string

func buildDependencyGraph(edges []Edge) dependencyGraph {
	graph := make(dependencyGraph)
	for _, e := range edges {
		if graph[e.From] == nil {
			graph[e.From] = []string{}
		}
		if e.Dynamic || e.SourcePhase {
			continue
		}
		if !slices.Contains(graph[e.From], e.To) {
			graph[e.From] = append(graph[e.From], e.To)
		}
	}
	return graph
}

func hasSelfLoop(node string, graph dependencyGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Single-node SCCs without self-loops are not cycles.
func tarjanSCC(graph dependencyGraph) [][]string {
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

		// v is a root node: pop the stack into an SCC
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
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func cycleSCCToWarning(scc []string, graph dependencyGraph) CycleWarning {
	if len(scc) == 1 {
		url := scc[0]
		return CycleWarning{
			Path:    []string{url, url},
			Message: fmt.Sprintf("Module imports itself: %s", url),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Import cycle: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath starts at the smallest member of the SCC and follows
// edges to unvisited members until it returns to the start.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := slices.Min(scc)
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
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
