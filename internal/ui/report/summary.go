package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"gradledeps/internal/data/history"
	"gradledeps/internal/engine/graph"
	"gradledeps/internal/engine/parser"
	"gradledeps/internal/engine/versions"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true)
	moduleStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
)

// Summary is the input of RenderSummary.
type Summary struct {
	Dir               string
	Root              string
	Order             []string
	Dependencies      map[string][]parser.ResolvedDependency
	ApplicationModule string
	Cycles            [][]string
	Unresolved        int
	Warnings          []graph.Warning
	Conflicts         []versions.Conflict
	Changes           *history.Change
	LabelPath         string
	LabelWritten      bool
}

// RenderSummary prints every module with its distinct dependencies, followed
// by the application module, warnings, version conflicts and history changes.
func RenderSummary(s Summary) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Gradle dependencies"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%s | %d modules", s.Root, len(s.Order))))
	b.WriteString("\n\n")

	for _, module := range s.Order {
		deps := graph.Unique(s.Dependencies[module])
		b.WriteString(moduleStyle.Render("Module: " + module))
		b.WriteString("\n")
		for _, d := range deps {
			fmt.Fprintf(&b, "  Group ID: %s, Artifact ID: %s, Version: %s\n", d.Group, d.Artifact, d.Version)
		}
		b.WriteString("\n")
	}

	if s.ApplicationModule != "" {
		b.WriteString(successStyle.Render("Application module: " + s.ApplicationModule))
		b.WriteString("\n")
	} else {
		b.WriteString(warnStyle.Render("No application module found"))
		b.WriteString("\n")
	}
	switch {
	case s.LabelWritten:
		b.WriteString(fmt.Sprintf("Label written: %s\n", s.LabelPath))
	case s.LabelPath != "":
		b.WriteString(dimStyle.Render("Label skipped: a label file already exists"))
		b.WriteString("\n")
	}

	if len(s.Cycles) > 0 {
		b.WriteString(errorStyle.Render(fmt.Sprintf("%d submodule cycles", len(s.Cycles))))
		b.WriteString("\n")
		for _, c := range s.Cycles {
			b.WriteString("  " + strings.Join(c, " -> ") + "\n")
		}
	}
	if s.Unresolved > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("%d unresolved placeholders", s.Unresolved)))
		b.WriteString("\n")
	}
	for _, w := range s.Warnings {
		if w.Kind == graph.WarnCycle {
			continue
		}
		b.WriteString(warnStyle.Render("warning: ") + w.Message + "\n")
	}

	if len(s.Conflicts) > 0 {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render(fmt.Sprintf("Version conflicts (%d)", len(s.Conflicts))))
		b.WriteString("\n")
		b.WriteString(renderConflicts(s.Conflicts))
		b.WriteString("\n")
	}

	if s.Changes != nil {
		b.WriteString("\n")
		b.WriteString(RenderChanges(*s.Changes))
	}
	return b.String()
}

func renderConflicts(conflicts []versions.Conflict) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Library", "Version", "Modules")
	for _, c := range conflicts {
		for _, v := range c.Versions {
			version := v
			if v == c.Highest {
				version += " *"
			}
			t.Row(c.Key, version, strings.Join(c.Modules[v], ", "))
		}
	}
	return t.String()
}

// RenderChanges lists dependency changes since the previous stored scan.
func RenderChanges(c history.Change) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Changes since previous scan"))
	b.WriteString("\n")
	if c.Empty() {
		b.WriteString(dimStyle.Render("  no changes"))
		b.WriteString("\n")
		return b.String()
	}
	for _, d := range c.Added {
		fmt.Fprintf(&b, "  + %s %s:%s\n", d.Module, d.Key(), d.Version)
	}
	for _, d := range c.Removed {
		fmt.Fprintf(&b, "  - %s %s:%s\n", d.Module, d.Key(), d.Version)
	}
	for _, v := range c.Changed {
		fmt.Fprintf(&b, "  ~ %s %s %s -> %s\n", v.Module, v.Key, v.From, v.To)
	}
	return b.String()
}

// BatchRow is one project unit of a batch run.
type BatchRow struct {
	Dir          string
	Status       string
	Modules      int
	Dependencies int
	Application  string
	Err          error
}

// RenderBatch tabulates a batch run.
func RenderBatch(rows []BatchRow) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Project", "Status", "Modules", "Deps", "Application", "Error")
	failed := 0
	for _, r := range rows {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
			failed++
		}
		t.Row(r.Dir, r.Status, fmt.Sprintf("%d", r.Modules), fmt.Sprintf("%d", r.Dependencies), r.Application, errText)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Batch: %d projects", len(rows))))
	b.WriteString("\n")
	b.WriteString(t.String())
	b.WriteString("\n")
	if failed > 0 {
		b.WriteString(errorStyle.Render(fmt.Sprintf("%d failed", failed)))
		b.WriteString("\n")
	}
	return b.String()
}
