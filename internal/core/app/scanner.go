package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gradledeps/internal/core/config"
	domainerrors "gradledeps/internal/core/errors"
	"gradledeps/internal/engine/catalog"
	"gradledeps/internal/engine/graph"
	"gradledeps/internal/engine/parser"
	"gradledeps/internal/engine/properties"
	"gradledeps/internal/engine/resolver"
	"gradledeps/internal/engine/scope"
	"gradledeps/internal/shared/observability"
	"gradledeps/internal/shared/util"
)

const WarnMultipleApplications = "multiple_applications"

// Options controls how a project tree is read.
type Options struct {
	BuildFiles     []string
	SettingsFiles  []string
	PropertiesFile string
	Catalogs       []string
	ExcludeDirs    []string
	Vocabulary     parser.Vocabulary
	WarnUnresolved bool
}

func OptionsFromConfig(cfg *config.Config) Options {
	vocab := parser.DefaultVocabulary().
		WithConfigurations(cfg.Vocabulary.ExtraConfigurations...).
		WithMarkers(cfg.Vocabulary.ExtraMarkers...)
	return Options{
		BuildFiles:     append([]string(nil), cfg.Descriptors.BuildFiles...),
		SettingsFiles:  append([]string(nil), cfg.Descriptors.SettingsFiles...),
		PropertiesFile: cfg.Descriptors.PropertiesFile,
		Catalogs:       append([]string(nil), cfg.Descriptors.Catalogs...),
		ExcludeDirs:    append([]string(nil), cfg.Exclude.Dirs...),
		Vocabulary:     vocab,
		WarnUnresolved: cfg.Warnings.UnresolvedEnabled(),
	}
}

// UnresolvedPlaceholder is a placeholder that survived resolution verbatim.
type UnresolvedPlaceholder struct {
	Module      string
	Placeholder string
	Expression  string
}

// Result is everything one scan learned about a project.
type Result struct {
	Root                  string
	Graph                 *graph.ModuleGraph
	Order                 []string
	Dependencies          map[string][]parser.ResolvedDependency
	Cycles                [][]string
	ApplicationModule     string
	ApplicationCandidates []string
	Unresolved            []UnresolvedPlaceholder
	Warnings              []graph.Warning
	CatalogFiles          []string
}

// ApplicationDependencies is the de-duplicated, sorted composed list of the
// application module, or nil when no module carries the marker.
func (r *Result) ApplicationDependencies() []parser.ResolvedDependency {
	if r == nil || r.ApplicationModule == "" {
		return nil
	}
	return graph.Unique(r.Dependencies[r.ApplicationModule])
}

// DependencyCount counts composed dependency entries across all modules.
func (r *Result) DependencyCount() int {
	n := 0
	for _, deps := range r.Dependencies {
		n += len(deps)
	}
	return n
}

// Scanner builds the module graph of a project tree and composes its
// dependency lists. A Scanner holds no per-scan state and is safe for
// concurrent use.
type Scanner struct {
	opts      Options
	extractor *parser.Extractor
}

func NewScanner(opts Options) (*Scanner, error) {
	if len(opts.BuildFiles) == 0 {
		return nil, domainerrors.New(domainerrors.CodeValidationError, "no build file names configured")
	}
	if len(opts.Vocabulary.Configurations) == 0 {
		opts.Vocabulary = parser.DefaultVocabulary()
	}
	if _, err := util.CompileGlobs(opts.ExcludeDirs); err != nil {
		return nil, err
	}
	extractor, err := parser.NewExtractor(opts.Vocabulary)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, "build extractor")
	}
	return &Scanner{opts: opts, extractor: extractor}, nil
}

func (s *Scanner) Options() Options {
	return s.opts
}

// FindProjectRoot walks dir top-down in lexical order and returns the first
// directory holding both a build file and a settings file.
func FindProjectRoot(dir string, buildFiles, settingsFiles, excludeDirs []string) (string, error) {
	dirGlobs, err := util.CompileGlobs(excludeDirs)
	if err != nil {
		return "", err
	}

	var found string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && util.MatchAny(dirGlobs, d.Name()) {
			return filepath.SkipDir
		}
		if firstExisting(path, buildFiles) != "" && firstExisting(path, settingsFiles) != "" {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("search project root in %s: %w", dir, err)
	}
	if found == "" {
		return "", domainerrors.AddContext(
			domainerrors.New(domainerrors.CodeNotFound, "project root not found"),
			domainerrors.CtxPath, dir,
		)
	}
	return found, nil
}

// FindRoot is FindProjectRoot with the scanner's descriptor names.
func (s *Scanner) FindRoot(dir string) (string, error) {
	return FindProjectRoot(dir, s.opts.BuildFiles, s.opts.SettingsFiles, s.opts.ExcludeDirs)
}

// Scan reads the project rooted at root. A malformed catalog or a placeholder
// bound to a catalog bundle aborts the scan.
func (s *Scanner) Scan(ctx context.Context, root string) (res *Result, err error) {
	ctx, span := observability.Tracer.Start(ctx, "Scanner.Scan",
		trace.WithAttributes(attribute.String("root", root)))
	start := time.Now()
	defer func() {
		observability.ScanDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	rootProps, rootExt, cat, err := s.loadRootScopes(ctx, root)
	if err != nil {
		return nil, err
	}

	res = &Result{
		Root:         root,
		Graph:        graph.NewModuleGraph(),
		CatalogFiles: cat.Files(),
	}

	walkStart := time.Now()
	if err := s.walkModules(ctx, root, rootProps, rootExt, cat, res); err != nil {
		return nil, err
	}
	observability.ScanDuration.WithLabelValues("walk").Observe(time.Since(walkStart).Seconds())

	composeStart := time.Now()
	_, composeSpan := observability.Tracer.Start(ctx, "Scanner.compose")
	res.Order = res.Graph.Order()
	res.Cycles, err = res.Graph.DetectCycles()
	if err != nil {
		composeSpan.End()
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "detect cycles")
	}
	res.Dependencies = graph.Aggregate(res.Graph, res.Order)
	composeSpan.End()
	observability.ScanDuration.WithLabelValues("compose").Observe(time.Since(composeStart).Seconds())

	res.Warnings = append(res.Warnings, res.Graph.Warnings()...)
	s.pickApplication(res)
	s.reportUnknownRefs(res)

	span.SetAttributes(
		attribute.Int("modules", res.Graph.Len()),
		attribute.Int("cycles", len(res.Cycles)),
		attribute.String("application", res.ApplicationModule),
	)
	return res, nil
}

func (s *Scanner) loadRootScopes(ctx context.Context, root string) (scope.Scope, scope.Scope, *catalog.Catalog, error) {
	_, span := observability.Tracer.Start(ctx, "Scanner.loadRootScopes")
	defer span.End()
	start := time.Now()
	defer func() {
		observability.ScanDuration.WithLabelValues("root_scopes").Observe(time.Since(start).Seconds())
	}()

	rootProps := scope.New()
	if s.opts.PropertiesFile != "" {
		props, err := properties.LoadFile(filepath.Join(root, s.opts.PropertiesFile))
		if err != nil {
			return nil, nil, nil, err
		}
		rootProps = props
	}

	rootExt := scope.New()
	if buildFile := firstExisting(root, s.opts.BuildFiles); buildFile != "" {
		ext, err := properties.LoadExt(buildFile)
		if err != nil {
			return nil, nil, nil, err
		}
		rootExt = ext
	}

	cat, err := catalog.Load(root, catalog.LoadOptions{
		Patterns:    s.opts.Catalogs,
		ExcludeDirs: s.opts.ExcludeDirs,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	slog.Debug("loaded root scopes",
		"root", root,
		"properties", rootProps.Len(),
		"ext", rootExt.Len(),
		"ext_forms", properties.RecognizerNames(),
		"catalog_entries", cat.Len(),
	)
	return rootProps, rootExt, cat, nil
}

func (s *Scanner) walkModules(ctx context.Context, root string, rootProps, rootExt scope.Scope, cat *catalog.Catalog, res *Result) error {
	dirGlobs, err := util.CompileGlobs(s.opts.ExcludeDirs)
	if err != nil {
		return err
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != root && util.MatchAny(dirGlobs, d.Name()) {
			return filepath.SkipDir
		}
		buildFile := firstExisting(path, s.opts.BuildFiles)
		if buildFile == "" {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		module, err := s.buildModule(graph.ModulePath(rel), path, buildFile, rootProps, rootExt, cat, res)
		if err != nil {
			return err
		}
		res.Graph.Add(module)
		if module.IsApplication {
			res.ApplicationCandidates = append(res.ApplicationCandidates, module.Path)
		}
		return nil
	})
}

func (s *Scanner) buildModule(modPath, dir, buildFile string, rootProps, rootExt scope.Scope, cat *catalog.Catalog, res *Result) (*graph.Module, error) {
	raw, err := os.ReadFile(buildFile)
	if err != nil {
		return nil, fmt.Errorf("read build script %q: %w", buildFile, err)
	}
	content := parser.StripComments(string(raw))

	module := &graph.Module{
		Path:         modPath,
		Name:         filepath.Base(dir),
		Dir:          dir,
		BuildFile:    buildFile,
		Dependencies: make([]parser.ResolvedDependency, 0),
		Submodules:   make([]graph.SubmoduleRef, 0),
	}

	r := resolver.ForModule(resolver.Layers{
		RootProperties:  rootProps,
		RootExt:         rootExt,
		LocalProperties: properties.LocalProperties(content),
		LocalExt:        properties.LocalExt(content),
	}).WithUnresolvedHook(func(u resolver.Unresolved) {
		observability.UnresolvedPlaceholdersTotal.Inc()
		res.Unresolved = append(res.Unresolved, UnresolvedPlaceholder{
			Module:      modPath,
			Placeholder: u.Placeholder,
			Expression:  u.Expression,
		})
		if s.opts.WarnUnresolved {
			slog.Warn("unresolved version placeholder",
				"module", modPath,
				"placeholder", u.Placeholder,
				"expression", u.Expression,
			)
		}
	})

	for _, decl := range s.extractor.Extract(content) {
		observability.DeclarationsTotal.WithLabelValues(decl.Kind.String()).Inc()
		switch decl.Kind {
		case parser.KindDirect, parser.KindMap, parser.KindPlatform:
			if refs := resolver.Placeholders(decl.Ref.Version); len(refs) > 0 {
				slog.Debug("resolving version placeholders",
					"module", modPath,
					"coordinate", decl.Ref.Group+":"+decl.Ref.Artifact,
					"placeholders", refs,
				)
			}
			version, err := r.Resolve(decl.Ref.Version)
			if err != nil {
				return nil, domainerrors.AddContext(
					domainerrors.AddContext(err, domainerrors.CtxModule, modPath),
					domainerrors.CtxPath, buildFile,
				)
			}
			module.Dependencies = append(module.Dependencies, parser.ResolvedDependency{
				Group:    decl.Ref.Group,
				Artifact: decl.Ref.Artifact,
				Version:  version,
			})
		case parser.KindCatalog:
			module.Dependencies = append(module.Dependencies, cat.Dependencies(catalog.NormalizeKey(decl.Accessor))...)
		case parser.KindSubmodule:
			module.Submodules = append(module.Submodules, graph.SubmoduleRef{Path: decl.ProjectPath, Name: decl.Name})
		case parser.KindApplication:
			module.IsApplication = true
		}
	}

	slog.Debug("recorded module",
		"module", modPath,
		"dependencies", len(module.Dependencies),
		"submodules", len(module.Submodules),
		"application", module.IsApplication,
	)
	return module, nil
}

// pickApplication keeps the last visited candidate.
func (s *Scanner) pickApplication(res *Result) {
	if len(res.ApplicationCandidates) == 0 {
		return
	}
	res.ApplicationModule = res.ApplicationCandidates[len(res.ApplicationCandidates)-1]
	if len(res.ApplicationCandidates) > 1 {
		msg := fmt.Sprintf("%d modules carry an application marker, using %s",
			len(res.ApplicationCandidates), res.ApplicationModule)
		res.Warnings = append(res.Warnings, graph.Warning{
			Kind:    WarnMultipleApplications,
			Message: msg,
			Modules: append([]string(nil), res.ApplicationCandidates...),
		})
		slog.Warn("multiple application modules", "candidates", res.ApplicationCandidates, "using", res.ApplicationModule)
	}
}

func (s *Scanner) reportUnknownRefs(res *Result) {
	unknown := res.Graph.UnknownRefs()
	for _, modPath := range util.SortedStringKeys(unknown) {
		names := make([]string, 0, len(unknown[modPath]))
		for _, ref := range unknown[modPath] {
			if ref.Path != "" {
				names = append(names, ref.Path)
			} else {
				names = append(names, ref.Name)
			}
		}
		res.Warnings = append(res.Warnings, graph.Warning{
			Kind:    graph.WarnUnknownModule,
			Message: fmt.Sprintf("%s references unknown modules: %s", modPath, strings.Join(names, ", ")),
			Modules: []string{modPath},
		})
		slog.Debug("unknown submodule references", "module", modPath, "refs", names)
	}
}

// firstExisting returns the first of names present as a regular file in dir.
func firstExisting(dir string, names []string) string {
	for _, name := range names {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("stat descriptor failed", "path", path, "error", err)
		}
	}
	return ""
}
