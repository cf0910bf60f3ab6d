package graph

import (
	"sort"

	"gradledeps/internal/engine/parser"
)

// Aggregate walks order and composes each module's dependency list: its own
// declarations followed by the composed list of every submodule it includes.
// A submodule not yet composed (only possible inside a cycle) contributes its
// own declarations.
func Aggregate(g *ModuleGraph, order []string) map[string][]parser.ResolvedDependency {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := g.edgesLocked()
	result := make(map[string][]parser.ResolvedDependency, len(order))
	for _, p := range order {
		m, ok := g.modules[p]
		if !ok {
			continue
		}
		deps := make([]parser.ResolvedDependency, 0, len(m.Dependencies))
		deps = append(deps, m.Dependencies...)
		for _, sub := range edges[p] {
			if composed, done := result[sub]; done {
				deps = append(deps, composed...)
				continue
			}
			deps = append(deps, g.modules[sub].Dependencies...)
		}
		result[p] = deps
	}
	return result
}

// Unique returns deps without duplicates, sorted by group, artifact and version.
func Unique(deps []parser.ResolvedDependency) []parser.ResolvedDependency {
	seen := make(map[parser.ResolvedDependency]bool, len(deps))
	out := make([]parser.ResolvedDependency, 0, len(deps))
	for _, d := range deps {
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		if out[i].Artifact != out[j].Artifact {
			return out[i].Artifact < out[j].Artifact
		}
		return out[i].Version < out[j].Version
	})
	return out
}
