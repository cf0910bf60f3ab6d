package app

import (
	"fmt"
	"log/slog"

	"gradledeps/internal/engine/versions"
	"gradledeps/internal/shared/observability"
	"gradledeps/internal/shared/util"
	"gradledeps/internal/ui/report"
	"gradledeps/internal/ui/report/formats"
)

// WriteOutputs writes the configured TSV and Mermaid exports for one report.
func (a *App) WriteOutputs(rep *ProjectReport) error {
	res := rep.Result
	if path := a.Config.Output.TSV; path != "" {
		content, err := formats.NewTSVGenerator(res.Order, res.Dependencies).Generate()
		if err != nil {
			return err
		}
		if a.Config.Output.ConflictsEnabled() {
			if conflicts := versions.Conflicts(res.Dependencies); len(conflicts) > 0 {
				rows, err := formats.NewTSVGenerator(nil, nil).GenerateConflicts(conflicts)
				if err != nil {
					return err
				}
				content += "\n" + rows
			}
		}
		if err := util.WriteFileWithDirs(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write tsv %s: %w", path, err)
		}
		slog.Debug("wrote tsv", "path", path)
	}

	if path := a.Config.Output.Mermaid; path != "" {
		counts := make(map[string]int, len(res.Dependencies))
		for module, deps := range res.Dependencies {
			counts[module] = len(deps)
		}
		gen := formats.NewMermaidGenerator(res.Graph)
		gen.SetDependencyCounts(counts)
		gen.SetModuleMetrics(res.Graph.Metrics())
		content, err := gen.Generate(res.Cycles)
		if err != nil {
			return err
		}
		if err := util.WriteFileWithDirs(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write mermaid %s: %w", path, err)
		}
		slog.Debug("wrote mermaid diagram", "path", path)
	}
	return nil
}

// WriteMetrics dumps the Prometheus registry to the configured text file.
func (a *App) WriteMetrics() error {
	if a.Config.Output.Metrics == "" {
		return nil
	}
	return observability.WriteTextfile(a.Config.Output.Metrics)
}

// Summary assembles the terminal summary for one report.
func (a *App) Summary(rep *ProjectReport) report.Summary {
	res := rep.Result
	s := report.Summary{
		Dir:               rep.Dir,
		Root:              rep.Root,
		Order:             res.Order,
		Dependencies:      res.Dependencies,
		ApplicationModule: res.ApplicationModule,
		Cycles:            res.Cycles,
		Unresolved:        len(res.Unresolved),
		Warnings:          res.Warnings,
		Changes:           rep.Changes,
		LabelPath:         rep.LabelPath,
		LabelWritten:      rep.LabelWritten,
	}
	if a.Config.Output.ConflictsEnabled() {
		s.Conflicts = versions.Conflicts(res.Dependencies)
	}
	return s
}
