package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"gradledeps/internal/shared/observability"
	"gradledeps/internal/shared/util"
	"gradledeps/internal/ui/report"
)

const (
	BatchScanned = "scanned"
	BatchSkipped = "skipped"
	BatchFailed  = "failed"
	BatchNoRoot  = "no_root"
)

// BatchOutcome is the result of one project folder in a batch run.
type BatchOutcome struct {
	Dir    string
	Status string
	Report *ProjectReport
	Err    error
}

// RunBatch scans every immediate subdirectory of parent as its own project on
// a bounded worker pool. Folders that already hold a label are skipped; a
// failing folder is logged and does not stop the others. Outcomes follow the
// directory listing order.
func (a *App) RunBatch(ctx context.Context, parent string) ([]BatchOutcome, error) {
	dirs, err := a.batchUnits(parent)
	if err != nil {
		return nil, err
	}

	outcomes := make([]BatchOutcome, len(dirs))
	g, gctx := errgroup.WithContext(ctx)
	workers := a.Config.Batch.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, dir := range dirs {
		i, dir := i, dir
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = a.runUnit(gctx, dir)
			observability.BatchProjectsTotal.WithLabelValues(outcomes[i].Status).Inc()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

func (a *App) runUnit(ctx context.Context, dir string) BatchOutcome {
	out := BatchOutcome{Dir: dir}
	if a.Config.Label.IsEnabled() {
		exists, err := report.HasSentinel(dir, a.Config.Label.Sentinel)
		if err != nil {
			out.Status, out.Err = BatchFailed, err
			return out
		}
		if exists {
			slog.Info("label already present, skipping project", "dir", dir)
			out.Status = BatchSkipped
			return out
		}
	}

	rep, err := a.ScanDir(ctx, dir)
	out.Report = rep
	switch {
	case err == nil:
		out.Status = BatchScanned
	case IsNotFound(err):
		slog.Warn("project root not found", "dir", dir)
		out.Status, out.Err = BatchNoRoot, err
	default:
		slog.Error("project scan failed", "dir", dir, "error", err)
		out.Status, out.Err = BatchFailed, err
	}
	return out
}

func (a *App) batchUnits(parent string) ([]string, error) {
	entries, err := os.ReadDir(parent)
	if err != nil {
		return nil, fmt.Errorf("list batch directory %s: %w", parent, err)
	}
	excluded, err := util.CompileGlobs(a.Config.Exclude.Dirs)
	if err != nil {
		return nil, err
	}

	dirs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || util.MatchAny(excluded, entry.Name()) {
			continue
		}
		dirs = append(dirs, filepath.Join(parent, entry.Name()))
	}
	return dirs, nil
}

// BatchRows converts outcomes for report.RenderBatch.
func BatchRows(outcomes []BatchOutcome) []report.BatchRow {
	rows := make([]report.BatchRow, 0, len(outcomes))
	for _, o := range outcomes {
		row := report.BatchRow{Dir: filepath.Base(o.Dir), Status: o.Status, Err: o.Err}
		if o.Report != nil && o.Report.Result != nil {
			row.Modules = o.Report.Result.Graph.Len()
			row.Dependencies = len(o.Report.Result.ApplicationDependencies())
			row.Application = o.Report.Result.ApplicationModule
		}
		rows = append(rows, row)
	}
	return rows
}
