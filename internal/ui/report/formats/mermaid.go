package formats

import (
	"fmt"
	"strings"

	"gradledeps/internal/engine/graph"
)

// MermaidGenerator draws the module include graph: an arrow from a module to
// each submodule it includes, cycle edges in red.
type MermaidGenerator struct {
	graph   *graph.ModuleGraph
	deps    map[string]int
	metrics map[string]graph.ModuleMetrics
}

func NewMermaidGenerator(g *graph.ModuleGraph) *MermaidGenerator {
	return &MermaidGenerator{graph: g}
}

// SetDependencyCounts annotates nodes with their composed dependency count.
func (m *MermaidGenerator) SetDependencyCounts(counts map[string]int) {
	m.deps = counts
}

func (m *MermaidGenerator) SetModuleMetrics(metrics map[string]graph.ModuleMetrics) {
	if len(metrics) == 0 {
		m.metrics = nil
		return
	}
	m.metrics = make(map[string]graph.ModuleMetrics, len(metrics))
	for mod, metric := range metrics {
		m.metrics[mod] = metric
	}
}

func (m *MermaidGenerator) Generate(cycles [][]string) (string, error) {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	modules := m.graph.Modules()
	paths := make([]string, 0, len(modules))
	for _, mod := range modules {
		paths = append(paths, mod.Path)
	}
	ids := makeIDs(paths)

	for _, mod := range modules {
		b.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", ids[mod.Path], escapeLabel(moduleLabel(mod.Path, mod, m.deps[mod.Path], m.metrics))))
	}

	var apps []string
	for _, mod := range modules {
		if mod.IsApplication {
			apps = append(apps, mod.Path)
		}
	}
	membership := cycleMembership(cycles)
	var cyclic []string
	for _, p := range paths {
		if _, ok := membership[p]; ok {
			cyclic = append(cyclic, p)
		}
	}

	if len(apps) > 0 || len(cyclic) > 0 {
		b.WriteString("\n")
	}
	if len(apps) > 0 {
		b.WriteString("  classDef appNode fill:#e8f5e9,stroke:#2e7d32,stroke-width:2px,color:#000000;\n")
		b.WriteString(fmt.Sprintf("  class %s appNode;\n", strings.Join(toIDs(apps, ids), ",")))
	}
	if len(cyclic) > 0 {
		b.WriteString("  classDef cycleNode fill:#ffecec,stroke:#cc0000,stroke-width:2px,color:#000000;\n")
		b.WriteString(fmt.Sprintf("  class %s cycleNode;\n", strings.Join(toIDs(cyclic, ids), ",")))
	}

	edges := m.graph.Edges()
	linkIndex := 0
	cycleLinks := make([]int, 0)
	wroteHeader := false
	for _, from := range paths {
		for _, to := range edges[from] {
			if !wroteHeader {
				b.WriteString("\n")
				wroteHeader = true
			}
			label := ""
			fi, fromCyclic := membership[from]
			ti, toCyclic := membership[to]
			if fromCyclic && toCyclic && fi == ti {
				label = "|CYCLE|"
				cycleLinks = append(cycleLinks, linkIndex)
			}
			b.WriteString(fmt.Sprintf("  %s -->%s %s\n", ids[from], label, ids[to]))
			linkIndex++
		}
	}
	if len(cycleLinks) > 0 {
		b.WriteString(fmt.Sprintf("\n  linkStyle %s stroke:#cc0000,stroke-width:3px;\n", joinInts(cycleLinks)))
	}
	return b.String(), nil
}
