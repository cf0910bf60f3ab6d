package app

import (
	"context"
	"time"

	"gradledeps/internal/core/ports"
	"gradledeps/internal/core/watcher"
	"gradledeps/internal/engine/graph"
	"gradledeps/internal/shared/util"
)

// WatchFiles are the base-name globs whose changes trigger a rescan.
func (a *App) WatchFiles() []string {
	o := a.scanner.Options()
	files := make([]string, 0, len(o.BuildFiles)+len(o.SettingsFiles)+len(o.Catalogs)+1)
	files = append(files, o.BuildFiles...)
	files = append(files, o.SettingsFiles...)
	if o.PropertiesFile != "" {
		files = append(files, o.PropertiesFile)
	}
	files = append(files, o.Catalogs...)
	return files
}

// Watch rescans dir whenever a descriptor under its project root changes and
// reports each rescan to onUpdate. It blocks until ctx is done.
func (a *App) Watch(ctx context.Context, dir string, onUpdate func(ports.WatchUpdate)) error {
	root, err := a.scanner.FindRoot(dir)
	if err != nil {
		return err
	}

	w, err := watcher.NewWatcher(watcher.Options{
		Debounce:    a.Config.Watch.Debounce,
		ExcludeDirs: a.Config.Exclude.Dirs,
		Files:       a.WatchFiles(),
		Limiter:     util.NewLimiter(a.Config.Watch.Rate, a.Config.Watch.Burst),
	}, func(paths []string) {
		onUpdate(a.rescan(ctx, dir, paths))
	})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch([]string{root}); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func (a *App) rescan(ctx context.Context, dir string, changed []string) ports.WatchUpdate {
	rep, err := a.ScanDir(ctx, dir)
	if err != nil {
		return ports.WatchUpdate{Dir: dir, Changed: changed, Err: err, At: time.Now()}
	}
	update := UpdateFromReport(rep)
	update.Changed = changed
	if err := a.WriteOutputs(rep); err != nil {
		update.Err = err
	}
	return update
}

// UpdateFromReport captures a scanned project for display.
func UpdateFromReport(rep *ProjectReport) ports.WatchUpdate {
	res := rep.Result
	update := ports.WatchUpdate{
		Dir:               rep.Dir,
		ModuleCount:       res.Graph.Len(),
		DependencyCount:   len(res.ApplicationDependencies()),
		Cycles:            res.Cycles,
		UnresolvedCount:   len(res.Unresolved),
		ApplicationModule: res.ApplicationModule,
		At:                time.Now(),
	}
	for _, path := range res.Order {
		update.Modules = append(update.Modules, ports.ModuleSnapshot{
			Path:         path,
			Application:  path == res.ApplicationModule,
			Dependencies: graph.Unique(res.Dependencies[path]),
		})
	}
	for _, w := range res.Warnings {
		update.Warnings = append(update.Warnings, w.Message)
	}
	return update
}
