package formats

import (
	"fmt"
	"strings"

	"gradledeps/internal/engine/graph"
	"gradledeps/internal/engine/parser"
	"gradledeps/internal/engine/versions"
)

// TSVGenerator renders composed dependency lists, one row per distinct
// dependency of each module, modules in composition order.
type TSVGenerator struct {
	order []string
	deps  map[string][]parser.ResolvedDependency
}

func NewTSVGenerator(order []string, deps map[string][]parser.ResolvedDependency) *TSVGenerator {
	return &TSVGenerator{order: order, deps: deps}
}

func (t *TSVGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("Module\tGroup\tArtifact\tVersion\n")
	for _, module := range t.order {
		for _, dep := range graph.Unique(t.deps[module]) {
			buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%s\n", module, dep.Group, dep.Artifact, dep.Version))
		}
	}

	return buf.String(), nil
}

func (t *TSVGenerator) GenerateConflicts(rows []versions.Conflict) (string, error) {
	var buf strings.Builder

	buf.WriteString("Type\tLibrary\tVersion\tModules\tHighest\n")
	for _, row := range rows {
		for _, v := range row.Versions {
			buf.WriteString(fmt.Sprintf("version_conflict\t%s\t%s\t%s\t%s\n",
				row.Key,
				v,
				strings.Join(row.Modules[v], ","),
				row.Highest,
			))
		}
	}

	return buf.String(), nil
}
