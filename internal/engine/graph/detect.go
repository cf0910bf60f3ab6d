package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	graphlib "github.com/dominikbraun/graph"

	"gradledeps/internal/shared/observability"
)

// DetectCycles reports groups of modules that reference each other through
// submodule declarations, including modules that reference themselves. Each
// cycle is ordered by encounter position and also recorded as a warning.
func (g *ModuleGraph) DetectCycles() ([][]string, error) {
	g.mu.RLock()
	position := make(map[string]int, len(g.order))
	for i, p := range g.order {
		position[p] = i
	}

	lib := graphlib.New(graphlib.StringHash, graphlib.Directed())
	for _, p := range g.order {
		if err := lib.AddVertex(p); err != nil && !errors.Is(err, graphlib.ErrVertexAlreadyExists) {
			g.mu.RUnlock()
			return nil, fmt.Errorf("add module %s: %w", p, err)
		}
	}

	selfRefs := make([]string, 0)
	for _, p := range g.order {
		for _, ref := range g.modules[p].Submodules {
			if sub, ok := g.resolveLocked(ref); ok && sub == p {
				selfRefs = append(selfRefs, p)
				break
			}
		}
	}
	for parent, subs := range g.edgesLocked() {
		for _, sub := range subs {
			if err := lib.AddEdge(sub, parent); err != nil && !errors.Is(err, graphlib.ErrEdgeAlreadyExists) {
				g.mu.RUnlock()
				return nil, fmt.Errorf("add edge %s -> %s: %w", sub, parent, err)
			}
		}
	}
	g.mu.RUnlock()

	components, err := graphlib.StronglyConnectedComponents(lib)
	if err != nil {
		return nil, fmt.Errorf("strongly connected components: %w", err)
	}

	cycles := make([][]string, 0)
	inCycle := make(map[string]bool)
	for _, comp := range components {
		if len(comp) < 2 {
			continue
		}
		cycle := append([]string(nil), comp...)
		sort.Slice(cycle, func(i, j int) bool { return position[cycle[i]] < position[cycle[j]] })
		for _, p := range cycle {
			inCycle[p] = true
		}
		cycles = append(cycles, cycle)
	}
	for _, p := range selfRefs {
		if !inCycle[p] {
			cycles = append(cycles, []string{p})
		}
	}
	sort.Slice(cycles, func(i, j int) bool { return position[cycles[i][0]] < position[cycles[j][0]] })

	for _, cycle := range cycles {
		g.addWarning(Warning{
			Kind:    WarnCycle,
			Message: fmt.Sprintf("submodule cycle: %s", strings.Join(cycle, " -> ")),
			Modules: cycle,
		})
	}
	observability.CyclesDetected.Set(float64(len(cycles)))

	return cycles, nil
}

// ModuleMetrics summarizes a module's position in the submodule graph.
type ModuleMetrics struct {
	FanIn  int // modules that include this one
	FanOut int // recorded submodules this one includes
	Depth  int // longest chain of submodules below this one
}

// Metrics computes fan-in, fan-out and depth for each recorded module.
// Edges closing a cycle do not add depth.
func (g *ModuleGraph) Metrics() map[string]ModuleMetrics {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := g.edgesLocked()
	out := make(map[string]ModuleMetrics, len(g.order))
	for _, p := range g.order {
		m := out[p]
		m.FanOut = len(edges[p])
		out[p] = m
		for _, sub := range edges[p] {
			s := out[sub]
			s.FanIn++
			out[sub] = s
		}
	}

	depth := make(map[string]int, len(g.order))
	visiting := make(map[string]bool)
	var walk func(string) int
	walk = func(p string) int {
		if d, ok := depth[p]; ok {
			return d
		}
		if visiting[p] {
			return 0
		}
		visiting[p] = true
		best := 0
		for _, sub := range edges[p] {
			if visiting[sub] {
				continue
			}
			if d := walk(sub) + 1; d > best {
				best = d
			}
		}
		visiting[p] = false
		depth[p] = best
		return best
	}
	for _, p := range g.order {
		m := out[p]
		m.Depth = walk(p)
		out[p] = m
	}
	return out
}
