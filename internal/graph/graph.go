package graph

import (
	"sort"

	"docgraph/internal/parser"
	"docgraph/internal/shared/util"
)

// Graph is the arena of discovered modules, addressed by canonical
// specifier so cross-references (including cycles) are plain lookups.
// Immutable once discovery finishes.
type Graph struct {
	modules map[string]*parser.Module
	entries []string

	// resolved edges: canonical specifier -> canonical specifiers it
	// references through imports and re-exports
	edges map[string][]string
}

func New(entries []string) *Graph {
	return &Graph{
		modules: make(map[string]*parser.Module),
		entries: append([]string(nil), entries...),
		edges:   make(map[string][]string),
	}
}

// Add inserts a module and its outgoing references. Discovery calls
// this under the builder's lock; the graph is read-only afterwards.
func (g *Graph) Add(mod *parser.Module, deps []string) {
	g.modules[mod.Specifier] = mod
	g.edges[mod.Specifier] = deps
}

// Module looks up a module by canonical specifier.
func (g *Graph) Module(specifier string) (*parser.Module, bool) {
	m, ok := g.modules[specifier]
	return m, ok
}

// Entries returns the canonical entry specifiers in invocation order.
func (g *Graph) Entries() []string {
	return append([]string(nil), g.entries...)
}

// Specifiers returns every module specifier in sorted order, for
// deterministic traversal.
func (g *Graph) Specifiers() []string {
	return util.SortedStringKeys(g.modules)
}

func (g *Graph) ModuleCount() int { return len(g.modules) }

func (g *Graph) EdgeCount() int {
	n := 0
	for _, deps := range g.edges {
		n += len(deps)
	}
	return n
}

// Dependencies returns the canonical specifiers a module references,
// in directive order.
func (g *Graph) Dependencies(specifier string) []string {
	return append([]string(nil), g.edges[specifier]...)
}

// Cycles returns every module cycle (strongly connected component of
// size > 1, or a self-loop), components sorted internally and by
// first element.
func (g *Graph) Cycles() [][]string {
	nodes := g.Specifiers()
	adjacency := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		seen := make(map[string]bool)
		for _, to := range g.edges[n] {
			if _, ok := g.modules[to]; ok && !seen[to] {
				seen[to] = true
				adjacency[n] = append(adjacency[n], to)
			}
		}
		sort.Strings(adjacency[n])
	}

	componentOf, components := stronglyConnectedComponents(nodes, adjacency)

	var cycles [][]string
	for id, component := range components {
		if len(component) > 1 {
			cycles = append(cycles, component)
			continue
		}
		// self-loop
		n := component[0]
		for _, to := range adjacency[n] {
			if componentOf[to] == id && to == n {
				cycles = append(cycles, component)
				break
			}
		}
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

func stronglyConnectedComponents(nodes []string, adjacency map[string][]string) (map[string]int, [][]string) {
	index := 0
	stack := make([]string, 0, len(nodes))
	onStack := make(map[string]bool, len(nodes))
	indexByNode := make(map[string]int, len(nodes))
	lowLink := make(map[string]int, len(nodes))
	componentOf := make(map[string]int, len(nodes))
	components := make([][]string, 0)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indexByNode[v] = index
		lowLink[v] = index
		index++

		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adjacency[v] {
			if _, seen := indexByNode[w]; !seen {
				strongConnect(w)
				if lowLink[w] < lowLink[v] {
					lowLink[v] = lowLink[w]
				}
			} else if onStack[w] && indexByNode[w] < lowLink[v] {
				lowLink[v] = indexByNode[w]
			}
		}

		if lowLink[v] != indexByNode[v] {
			return
		}

		component := make([]string, 0)
		for {
			last := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[last] = false
			component = append(component, last)
			if last == v {
				break
			}
		}
		sort.Strings(component)
		compID := len(components)
		components = append(components, component)
		for _, n := range component {
			componentOf[n] = compID
		}
	}

	for _, node := range nodes {
		if _, seen := indexByNode[node]; !seen {
			strongConnect(node)
		}
	}

	return componentOf, components
}
