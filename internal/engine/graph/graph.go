// Package graph records the modules of one Gradle project, orders them so
// that submodules come before the modules that include them, and composes
// their dependency lists.
package graph

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gradledeps/internal/engine/parser"
	"gradledeps/internal/shared/observability"
)

const (
	WarnAliasCollision = "alias_collision"
	WarnCycle          = "cycle"
	WarnUnknownModule  = "unknown_submodule"
)

// SubmoduleRef is a project(...) reference as written in a build script.
type SubmoduleRef struct {
	Path string // full project path, e.g. ":core:utils"; empty for accessor refs that could not be mapped
	Name string // last path segment
}

type Module struct {
	Path          string
	Name          string
	Dir           string
	BuildFile     string
	Dependencies  []parser.ResolvedDependency
	Submodules    []SubmoduleRef
	IsApplication bool
}

type Warning struct {
	Kind    string
	Message string
	Modules []string
}

type ModuleGraph struct {
	mu sync.RWMutex

	modules map[string]*Module
	order   []string            // encounter order
	aliases map[string][]string // name -> paths, registration order

	warnings []Warning
}

func NewModuleGraph() *ModuleGraph {
	return &ModuleGraph{
		modules: make(map[string]*Module),
		aliases: make(map[string][]string),
	}
}

// ModulePath converts a directory relative to the project root into a
// Gradle project path.
func ModulePath(relDir string) string {
	rel := filepath.ToSlash(filepath.Clean(relDir))
	if rel == "." || rel == "" || rel == "/" {
		return ":"
	}
	rel = strings.Trim(rel, "/")
	return ":" + strings.ReplaceAll(rel, "/", ":")
}

// Add records m. Re-adding a path replaces the earlier record but keeps its
// encounter position.
func (g *ModuleGraph) Add(m *Module) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if m.Name == "" {
		m.Name = lastSegment(m.Path)
	}

	if _, exists := g.modules[m.Path]; !exists {
		g.order = append(g.order, m.Path)

		if prior := g.aliases[m.Name]; len(prior) > 0 {
			paths := append(append([]string(nil), prior...), m.Path)
			msg := fmt.Sprintf("module name %q is shared by %s; project(\"%s\") resolves to %s",
				m.Name, strings.Join(paths, ", "), m.Name, m.Path)
			g.warnings = append(g.warnings, Warning{Kind: WarnAliasCollision, Message: msg, Modules: paths})
			slog.Warn("module alias collision", "name", m.Name, "paths", paths)
		}
		g.aliases[m.Name] = append(g.aliases[m.Name], m.Path)
	}
	g.modules[m.Path] = m

	observability.ModulesDiscovered.Set(float64(len(g.modules)))
}

func (g *ModuleGraph) Module(path string) (*Module, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	m, ok := g.modules[path]
	return m, ok
}

// Modules returns the recorded modules in encounter order.
func (g *ModuleGraph) Modules() []*Module {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Module, 0, len(g.order))
	for _, p := range g.order {
		out = append(out, g.modules[p])
	}
	return out
}

func (g *ModuleGraph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.modules)
}

// ResolveRef maps a submodule reference to a recorded module path. An exact
// project path wins; otherwise the bare name is looked up among aliases and
// the most recently registered module with that name is used.
func (g *ModuleGraph) ResolveRef(ref SubmoduleRef) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.resolveLocked(ref)
}

func (g *ModuleGraph) resolveLocked(ref SubmoduleRef) (string, bool) {
	if ref.Path != "" {
		if _, ok := g.modules[ref.Path]; ok {
			return ref.Path, true
		}
	}
	name := ref.Name
	if name == "" {
		name = lastSegment(ref.Path)
	}
	paths := g.aliases[name]
	if len(paths) == 0 {
		return "", false
	}
	return paths[len(paths)-1], true
}

// Edges maps each module to the recorded submodules it includes.
func (g *ModuleGraph) Edges() map[string][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgesLocked()
}

// edgesLocked returns, per module, the distinct recorded submodules it
// references, self references excluded.
func (g *ModuleGraph) edgesLocked() map[string][]string {
	edges := make(map[string][]string, len(g.modules))
	for _, p := range g.order {
		m := g.modules[p]
		seen := make(map[string]bool, len(m.Submodules))
		for _, ref := range m.Submodules {
			sub, ok := g.resolveLocked(ref)
			if !ok || sub == p || seen[sub] {
				continue
			}
			seen[sub] = true
			edges[p] = append(edges[p], sub)
		}
	}
	return edges
}

// Order returns every recorded module path such that each submodule precedes
// the modules referencing it. Modules caught in a cycle never reach zero
// in-degree and are appended afterwards in encounter order.
func (g *ModuleGraph) Order() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := g.edgesLocked()
	inDegree := make(map[string]int, len(g.modules))
	parents := make(map[string][]string, len(g.modules))
	edgeCount := 0
	for _, p := range g.order {
		inDegree[p] = len(edges[p])
		edgeCount += len(edges[p])
		for _, sub := range edges[p] {
			parents[sub] = append(parents[sub], p)
		}
	}
	observability.ModuleEdges.Set(float64(edgeCount))

	queue := make([]string, 0, len(g.order))
	for _, p := range g.order {
		if inDegree[p] == 0 {
			queue = append(queue, p)
		}
	}

	order := make([]string, 0, len(g.order))
	placed := make(map[string]bool, len(g.order))
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		order = append(order, curr)
		placed[curr] = true

		for _, parent := range parents[curr] {
			inDegree[parent]--
			if inDegree[parent] == 0 {
				queue = append(queue, parent)
			}
		}
	}

	for _, p := range g.order {
		if !placed[p] {
			order = append(order, p)
		}
	}
	return order
}

func (g *ModuleGraph) Warnings() []Warning {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Warning, len(g.warnings))
	copy(out, g.warnings)
	return out
}

func (g *ModuleGraph) addWarning(w Warning) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.warnings = append(g.warnings, w)
}

// UnknownRefs lists references that match no recorded module, sorted.
func (g *ModuleGraph) UnknownRefs() map[string][]SubmoduleRef {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string][]SubmoduleRef)
	for _, p := range g.order {
		for _, ref := range g.modules[p].Submodules {
			if _, ok := g.resolveLocked(ref); !ok {
				out[p] = append(out[p], ref)
			}
		}
	}
	for p := range out {
		refs := out[p]
		sort.Slice(refs, func(i, j int) bool {
			if refs[i].Path == refs[j].Path {
				return refs[i].Name < refs[j].Name
			}
			return refs[i].Path < refs[j].Path
		})
	}
	return out
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, ":"); i >= 0 {
		return path[i+1:]
	}
	return path
}
