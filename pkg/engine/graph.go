package engine

import (
	"fmt"
	"sort"
	"strings"
)

// ResourceGraph is an immutable snapshot of resources and their dependency
// edges. It is built once per evaluation cycle via BuildGraph and is
// read-only afterwards; all query methods are safe for concurrent use.
type ResourceGraph struct {
	// resources maps resource ID to the resource.
	resources map[string]*Resource

	// dependencies maps resource ID to the IDs it depends on (outgoing edges).
	dependencies map[string][]string

	// dependents maps resource ID to the IDs that depend on it (incoming edges).
	dependents map[string][]string

	// byType maps resource type to resource IDs of that type.
	byType map[string][]string

	// edges is the validated edge list in input order.
	edges []Edge
}

// BuildGraph constructs a resource graph from a snapshot. It validates every
// edge endpoint, rejects duplicate resource IDs and self loops, and rejects
// any dependency cycle. A graph either builds cleanly or fails wholesale;
// there is no partial-success mode, since a partially indexed graph could
// under-report protection.
func BuildGraph(resources []Resource, edges []Edge) (*ResourceGraph, error) {
	g := &ResourceGraph{
		resources:    make(map[string]*Resource, len(resources)),
		dependencies: make(map[string][]string),
		dependents:   make(map[string][]string),
		byType:       make(map[string][]string),
		edges:        make([]Edge, 0, len(edges)),
	}

	// First pass: index all resources.
	for i := range resources {
		r := &resources[i]
		if r.ID == "" {
			return nil, NewMalformedGraphError("resource has empty ID").
				WithOperation("build")
		}
		if _, exists := g.resources[r.ID]; exists {
			return nil, NewMalformedGraphError(fmt.Sprintf("duplicate resource ID: %s", r.ID)).
				WithOperation("build")
		}
		g.resources[r.ID] = r
		g.dependencies[r.ID] = make([]string, 0)
		g.dependents[r.ID] = make([]string, 0)
		g.byType[r.Type] = append(g.byType[r.Type], r.ID)
	}

	// Second pass: validate and index edges.
	for _, e := range edges {
		if _, exists := g.resources[e.From]; !exists {
			return nil, NewMalformedGraphError(
				fmt.Sprintf("edge references unknown resource: %s", e.From)).
				WithOperation("build")
		}
		if _, exists := g.resources[e.To]; !exists {
			return nil, NewMalformedGraphError(
				fmt.Sprintf("edge references unknown resource: %s", e.To)).
				WithResource(e.From).WithOperation("build")
		}
		if e.From == e.To {
			return nil, NewMalformedGraphError("self-referencing dependency edge").
				WithResource(e.From).WithOperation("build")
		}
		g.dependencies[e.From] = append(g.dependencies[e.From], e.To)
		g.dependents[e.To] = append(g.dependents[e.To], e.From)
		g.edges = append(g.edges, e)
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, NewMalformedGraphError(
			fmt.Sprintf("dependency cycle detected: %s", strings.Join(cycle, " -> "))).
			WithOperation("build")
	}

	return g, nil
}

// findCycle runs depth-first search over the dependency edges and returns the
// first cycle found, or nil when the graph is acyclic.
func (g *ResourceGraph) findCycle() []string {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	// Iterate IDs in sorted order so the reported cycle is deterministic.
	ids := make([]string, 0, len(g.resources))
	for id := range g.resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if !visited[id] {
			if cycle := g.findCycleFrom(id, visited, recStack, nil); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

func (g *ResourceGraph) findCycleFrom(id string, visited, recStack map[string]bool, path []string) []string {
	visited[id] = true
	recStack[id] = true
	path = append(path, id)

	for _, dep := range g.dependencies[id] {
		if !visited[dep] {
			if cycle := g.findCycleFrom(dep, visited, recStack, path); cycle != nil {
				return cycle
			}
		} else if recStack[dep] {
			for i, pid := range path {
				if pid == dep {
					return append(path[i:], dep)
				}
			}
		}
	}

	recStack[id] = false
	return nil
}

// Resource returns the resource with the given ID, or nil when absent.
func (g *ResourceGraph) Resource(id string) *Resource {
	return g.resources[id]
}

// Contains reports whether a resource with the given ID is in the graph.
func (g *ResourceGraph) Contains(id string) bool {
	_, ok := g.resources[id]
	return ok
}

// Len returns the number of resources in the graph.
func (g *ResourceGraph) Len() int {
	return len(g.resources)
}

// ResourcesOfType returns the resources of the given type, sorted by ID.
func (g *ResourceGraph) ResourcesOfType(t string) []*Resource {
	ids := append([]string(nil), g.byType[t]...)
	sort.Strings(ids)
	out := make([]*Resource, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.resources[id])
	}
	return out
}

// Resources returns all resources sorted by ID.
func (g *ResourceGraph) Resources() []*Resource {
	ids := make([]string, 0, len(g.resources))
	for id := range g.resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*Resource, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.resources[id])
	}
	return out
}

// Edges returns the validated edges in input order.
func (g *ResourceGraph) Edges() []Edge {
	return g.edges
}

// DependenciesOf returns the IDs the given resource depends on.
func (g *ResourceGraph) DependenciesOf(id string) []string {
	return g.dependencies[id]
}

// DependentsOf returns the IDs that depend on the given resource.
func (g *ResourceGraph) DependentsOf(id string) []string {
	return g.dependents[id]
}

// ToDOT renders the graph in Graphviz DOT format. Lock resources are drawn
// as filled boxes so protection relationships stand out.
func (g *ResourceGraph) ToDOT() string {
	var sb strings.Builder

	sb.WriteString("digraph ResourceGraph {\n")
	sb.WriteString("  rankdir=TB;\n")
	sb.WriteString("  node [shape=box, style=rounded];\n\n")

	for _, r := range g.Resources() {
		label := fmt.Sprintf("%s\\n%s", r.ID, r.Type)
		if r.Type == TypeLock {
			level, _ := r.LockLevel()
			label = fmt.Sprintf("%s\\nlock: %s", r.ID, level)
			sb.WriteString(fmt.Sprintf("  %q [label=\"%s\", fillcolor=\"lightcoral\", style=\"filled,rounded\"];\n", r.ID, label))
			continue
		}
		sb.WriteString(fmt.Sprintf("  %q [label=\"%s\"];\n", r.ID, label))
	}

	sb.WriteString("\n")
	for _, e := range g.edges {
		sb.WriteString(fmt.Sprintf("  %q -> %q;\n", e.From, e.To))
	}

	sb.WriteString("}\n")
	return sb.String()
}
