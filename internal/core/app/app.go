package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"gradledeps/internal/core/config"
	domainerrors "gradledeps/internal/core/errors"
	"gradledeps/internal/core/ports"
	"gradledeps/internal/data/history"
	"gradledeps/internal/engine/graph"
	"gradledeps/internal/shared/observability"
	"gradledeps/internal/ui/report"
)

// ProjectReport is the outcome of scanning one directory.
type ProjectReport struct {
	Dir          string
	Root         string
	Result       *Result
	LabelPath    string
	LabelWritten bool
	ScanID       string
	Changes      *history.Change
}

type App struct {
	Config  *config.Config
	scanner *Scanner
	history ports.HistoryStore
	labels  report.LabelWriter
}

// New builds the scanner from cfg and opens the history database when it is
// enabled.
func New(cfg *config.Config) (*App, error) {
	scanner, err := NewScanner(OptionsFromConfig(cfg))
	if err != nil {
		return nil, err
	}

	var store ports.HistoryStore
	if cfg.DB.Enabled {
		s, err := history.OpenWithTimeout(cfg.DB.Path, cfg.DB.BusyTimeout)
		if err != nil {
			return nil, fmt.Errorf("open history database: %w", err)
		}
		store = s
	}

	return &App{
		Config:  cfg,
		scanner: scanner,
		history: store,
		labels: report.LabelWriter{
			FileName: cfg.Label.FileName,
			Sentinel: cfg.Label.Sentinel,
		},
	}, nil
}

// SetHistory replaces the history store. A nil store disables persistence.
func (a *App) SetHistory(store ports.HistoryStore) {
	a.history = store
}

func (a *App) Scanner() *Scanner {
	return a.scanner
}

func (a *App) Close() error {
	if a.history == nil {
		return nil
	}
	return a.history.Close()
}

// ScanDir locates the project root under dir, scans it, writes the label into
// dir and records the scan in history.
func (a *App) ScanDir(ctx context.Context, dir string) (*ProjectReport, error) {
	root, err := a.scanner.FindRoot(dir)
	if err != nil {
		if IsNotFound(err) {
			observability.ScansTotal.WithLabelValues("not_found").Inc()
		} else {
			observability.ScansTotal.WithLabelValues("failure").Inc()
		}
		return nil, err
	}

	res, err := a.scanner.Scan(ctx, root)
	if err != nil {
		observability.ScansTotal.WithLabelValues("failure").Inc()
		return nil, err
	}
	observability.ScansTotal.WithLabelValues("success").Inc()

	rep := &ProjectReport{Dir: dir, Root: root, Result: res}
	if a.Config.Label.IsEnabled() {
		if err := a.writeLabel(rep); err != nil {
			return rep, err
		}
	}
	if a.history != nil {
		if err := a.persist(rep); err != nil {
			slog.Warn("failed to record scan history", "dir", dir, "error", err)
		}
	}
	return rep, nil
}

func (a *App) writeLabel(rep *ProjectReport) error {
	res := rep.Result
	if res.ApplicationModule == "" {
		slog.Info("no application module found, label not written", "dir", rep.Dir)
		return nil
	}
	path, written, err := a.labels.Write(rep.Dir, res.ApplicationDependencies())
	if err != nil {
		return err
	}
	rep.LabelPath = path
	rep.LabelWritten = written
	if written {
		slog.Info("label written", "path", path, "module", res.ApplicationModule)
	} else {
		slog.Info("label already present, skipping", "dir", rep.Dir)
	}
	return nil
}

// ProjectKey identifies a scanned directory in history.
func ProjectKey(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(dir)
}

func (a *App) persist(rep *ProjectReport) error {
	res := rep.Result
	rows := make([]history.Dependency, 0, res.DependencyCount())
	for _, module := range res.Order {
		for _, d := range graph.Unique(res.Dependencies[module]) {
			rows = append(rows, history.Dependency{
				Module:   module,
				Group:    d.Group,
				Artifact: d.Artifact,
				Version:  d.Version,
			})
		}
	}

	key := ProjectKey(rep.Dir)
	saved, err := a.history.SaveScan(history.Scan{
		ProjectKey:        key,
		Root:              rep.Root,
		ModuleCount:       res.Graph.Len(),
		DependencyCount:   len(rows),
		CycleCount:        len(res.Cycles),
		UnresolvedCount:   len(res.Unresolved),
		ApplicationModule: res.ApplicationModule,
	}, rows)
	if err != nil {
		return err
	}
	rep.ScanID = saved.ID

	change, ok, err := a.history.ChangesSincePrevious(key)
	if err != nil {
		return err
	}
	if ok {
		rep.Changes = &change
	}
	return nil
}

// IsNotFound reports whether err means no project root was found.
func IsNotFound(err error) bool {
	return domainerrors.IsCode(err, domainerrors.CodeNotFound)
}
