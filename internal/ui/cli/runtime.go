package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	coreapp "gradledeps/internal/core/app"
	"gradledeps/internal/core/config"
	"gradledeps/internal/core/ports"
	"gradledeps/internal/shared/observability"
	"gradledeps/internal/ui/report"
)

func Run(args []string) int {
	opts, err := parseOptions(args)
	if err != nil {
		return 2
	}

	if opts.version {
		fmt.Printf("gradledeps v%s\n", versionString)
		return 0
	}

	if err := validateModes(opts); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 2
	}

	cleanupLogs := configureLogging(opts.ui, opts.verbose)
	defer cleanupLogs()

	cfg, cfgPath, err := loadConfig(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	applyFlagOverrides(opts, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Endpoint:    cfg.Observability.OTLPEndpoint,
		ServiceName: cfg.Observability.ServiceName,
		Insecure:    cfg.Observability.OTLPInsecure,
	})
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	app, err := coreapp.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}
	defer func() { _ = app.Close() }()

	dirs := opts.args
	if len(dirs) == 0 {
		dirs = cfg.ScanPaths
	}

	switch {
	case opts.batch:
		return runBatch(ctx, app, dirs)
	case opts.watch:
		return runWatch(ctx, app, dirs[0], cfgPath, opts.ui)
	default:
		return runOnce(ctx, app, dirs)
	}
}

func applyFlagOverrides(opts cliOptions, cfg *config.Config) {
	if opts.history {
		cfg.DB.Enabled = true
	}
	if opts.tsv != "" {
		cfg.Output.TSV = opts.tsv
	}
	if opts.mermaid != "" {
		cfg.Output.Mermaid = opts.mermaid
	}
	if opts.noLabel {
		disabled := false
		cfg.Label.Enabled = &disabled
	}
}

// runOnce scans every directory; a missing project root is reported and the
// remaining directories are still scanned.
func runOnce(ctx context.Context, app *coreapp.App, dirs []string) int {
	code := 0
	for _, dir := range dirs {
		rep, err := app.ScanDir(ctx, dir)
		if err != nil {
			if coreapp.IsNotFound(err) {
				slog.Warn("project root not found", "dir", dir)
			} else {
				slog.Error("scan failed", "dir", dir, "error", err)
			}
			code = 1
			continue
		}
		if err := app.WriteOutputs(rep); err != nil {
			slog.Error("failed to write outputs", "dir", dir, "error", err)
			code = 1
		}
		fmt.Print(report.RenderSummary(app.Summary(rep)))
	}
	if err := app.WriteMetrics(); err != nil {
		slog.Error("failed to write metrics", "error", err)
	}
	return code
}

func runBatch(ctx context.Context, app *coreapp.App, parents []string) int {
	code := 0
	for _, parent := range parents {
		outcomes, err := app.RunBatch(ctx, parent)
		if err != nil {
			slog.Error("batch run failed", "dir", parent, "error", err)
			code = 1
		}
		if len(outcomes) > 0 {
			fmt.Print(report.RenderBatch(coreapp.BatchRows(outcomes)))
		}
	}
	if err := app.WriteMetrics(); err != nil {
		slog.Error("failed to write metrics", "error", err)
	}
	return code
}

func runWatch(ctx context.Context, app *coreapp.App, dir, cfgPath string, uiMode bool) int {
	rep, err := app.ScanDir(ctx, dir)
	if err != nil {
		slog.Error("initial scan failed", "dir", dir, "error", err)
		return 1
	}
	if err := app.WriteOutputs(rep); err != nil {
		slog.Error("failed to write outputs", "error", err)
	}
	initial := coreapp.UpdateFromReport(rep)

	health := newHealthTracker(initial)
	if addr := app.Config.Observability.MetricsAddr; addr != "" {
		server := NewObservabilityServer(addr, health)
		if err := server.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			return 1
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Stop(stopCtx)
		}()
	}

	if !uiMode {
		fmt.Print(report.RenderSummary(app.Summary(rep)))
		err := watchLoop(ctx, app, dir, cfgPath, func(u ports.WatchUpdate) {
			health.Record(u)
			logUpdate(u)
		})
		if err != nil {
			slog.Error("watch failed", "error", err)
			return 1
		}
		return 0
	}

	uiCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := runUI(uiCtx, cancel, app, dir, cfgPath, initial, health); err != nil {
		slog.Error("failed to run UI", "error", err)
		return 1
	}
	return 0
}

// watchLoop keeps app watching dir until ctx is done. When cfgPath is set, a
// config change rebuilds the app and restarts the watch with the new settings.
func watchLoop(ctx context.Context, app *coreapp.App, dir, cfgPath string, onUpdate func(ports.WatchUpdate)) error {
	reloads := make(chan *config.Config, 1)
	if cfgPath != "" {
		cw := config.NewWatcher(cfgPath, func(cfg *config.Config) {
			select {
			case reloads <- cfg:
			default:
			}
		})
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config watcher unavailable", "path", cfgPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	current := app
	defer func() {
		if current != app {
			_ = current.Close()
		}
	}()
	for {
		watchCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func(a *coreapp.App) {
			done <- a.Watch(watchCtx, dir, onUpdate)
		}(current)

		select {
		case err := <-done:
			cancel()
			return err
		case <-ctx.Done():
			cancel()
			return <-done
		case cfg := <-reloads:
			cancel()
			if err := <-done; err != nil {
				return err
			}
			next, err := coreapp.New(cfg)
			if err != nil {
				slog.Error("config reload rejected, keeping previous settings", "error", err)
				continue
			}
			if current != app {
				_ = current.Close()
			}
			current = next
			slog.Info("watch restarted with reloaded config", "dir", dir)
		}
	}
}

func logUpdate(u ports.WatchUpdate) {
	if u.Err != nil {
		slog.Error("rescan failed", "dir", u.Dir, "error", u.Err)
		return
	}
	slog.Info("rescanned",
		"dir", u.Dir,
		"changed", len(u.Changed),
		"modules", u.ModuleCount,
		"dependencies", u.DependencyCount,
		"cycles", len(u.Cycles),
		"unresolved", u.UnresolvedCount,
		"application", u.ApplicationModule,
	)
}

// loadConfig reads path. The default path is optional: when it does not
// exist the built-in defaults are used and no file is watched.
func loadConfig(path string) (*config.Config, string, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, path, nil
	}
	if path != defaultConfigPath || !errors.Is(err, os.ErrNotExist) {
		return nil, "", err
	}

	slog.Debug("no config file, using defaults", "path", path)
	cfg = config.DefaultConfig()
	config.ApplyEnvOverrides(cfg)
	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, "", fmt.Errorf("invalid default config: %w", errors.Join(errs...))
	}
	return cfg, "", nil
}

func configureLogging(uiMode, verbose bool) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stdout
	var closeFn func() = func() {}
	if uiMode {
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
				if err == nil {
					output = f
					closeFn = func() { _ = f.Close() }
				} else {
					fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return closeFn
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "gradledeps", "gradledeps.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "gradledeps", "gradledeps.log")
	}

	return "gradledeps.log"
}
