package ports

import (
	"time"

	"gradledeps/internal/data/history"
	"gradledeps/internal/engine/parser"
)

// HistoryStore abstracts scan persistence for the change report.
type HistoryStore interface {
	SaveScan(scan history.Scan, deps []history.Dependency) (history.Scan, error)
	LatestScans(projectKey string, n int) ([]history.Scan, error)
	LoadDependencies(scanID string) ([]history.Dependency, error)
	ChangesSincePrevious(projectKey string) (history.Change, bool, error)
	Close() error
}

// ModuleSnapshot is one module as seen by the last scan.
type ModuleSnapshot struct {
	Path         string
	Application  bool
	Dependencies []parser.ResolvedDependency // de-duplicated, sorted
}

// WatchUpdate contains state emitted to driving adapters after a watch-mode rescan.
type WatchUpdate struct {
	Dir               string
	Changed           []string
	Modules           []ModuleSnapshot // topological order
	ModuleCount       int
	DependencyCount   int
	Cycles            [][]string
	Warnings          []string
	UnresolvedCount   int
	ApplicationModule string
	Err               error
	At                time.Time
}
