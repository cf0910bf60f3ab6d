package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradledeps/internal/engine/parser"
)

func dep(g, a, v string) parser.ResolvedDependency {
	return parser.ResolvedDependency{Group: g, Artifact: a, Version: v}
}

func ref(path string) SubmoduleRef {
	return SubmoduleRef{Path: path, Name: lastSegment(path)}
}

func TestModulePath(t *testing.T) {
	tests := []struct {
		rel  string
		want string
	}{
		{"", ":"},
		{".", ":"},
		{"app", ":app"},
		{"core/utils", ":core:utils"},
		{"core/utils/", ":core:utils"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ModulePath(tt.rel), tt.rel)
	}
}

func TestOrder_SubmodulesFirst(t *testing.T) {
	g := NewModuleGraph()
	g.Add(&Module{Path: ":a", Submodules: []SubmoduleRef{ref(":b")}})
	g.Add(&Module{Path: ":b", Submodules: []SubmoduleRef{ref(":c")}})
	g.Add(&Module{Path: ":c"})

	assert.Equal(t, []string{":c", ":b", ":a"}, g.Order())
}

func TestOrder_UnknownAndSelfReferencesIgnored(t *testing.T) {
	g := NewModuleGraph()
	g.Add(&Module{Path: ":a", Submodules: []SubmoduleRef{ref(":a"), ref(":missing")}})
	g.Add(&Module{Path: ":b"})

	assert.Equal(t, []string{":a", ":b"}, g.Order())
	assert.Equal(t, map[string][]SubmoduleRef{":a": {ref(":missing")}}, g.UnknownRefs())
}

func TestOrder_CycleTailInEncounterOrder(t *testing.T) {
	g := NewModuleGraph()
	g.Add(&Module{Path: ":x", Submodules: []SubmoduleRef{ref(":y")}})
	g.Add(&Module{Path: ":leaf"})
	g.Add(&Module{Path: ":y", Submodules: []SubmoduleRef{ref(":x")}})

	assert.Equal(t, []string{":leaf", ":x", ":y"}, g.Order())
}

func TestResolveRef_AliasFallback(t *testing.T) {
	g := NewModuleGraph()
	g.Add(&Module{Path: ":feature:utils"})
	g.Add(&Module{Path: ":core:utils"})

	path, ok := g.ResolveRef(SubmoduleRef{Path: ":core:utils", Name: "utils"})
	require.True(t, ok)
	assert.Equal(t, ":core:utils", path)

	path, ok = g.ResolveRef(SubmoduleRef{Path: ":utils", Name: "utils"})
	require.True(t, ok)
	assert.Equal(t, ":core:utils", path, "last registered alias wins")

	_, ok = g.ResolveRef(SubmoduleRef{Name: "nope"})
	assert.False(t, ok)
}

func TestAdd_AliasCollisionWarning(t *testing.T) {
	g := NewModuleGraph()
	g.Add(&Module{Path: ":feature:utils"})
	g.Add(&Module{Path: ":core:utils"})
	g.Add(&Module{Path: ":core:utils"})

	warnings := g.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnAliasCollision, warnings[0].Kind)
	assert.Equal(t, []string{":feature:utils", ":core:utils"}, warnings[0].Modules)
	assert.Equal(t, 2, g.Len())
}

func TestAggregate_ComposesTransitively(t *testing.T) {
	g := NewModuleGraph()
	g.Add(&Module{Path: ":a", Dependencies: []parser.ResolvedDependency{dep("ga", "a", "1")}, Submodules: []SubmoduleRef{ref(":b")}})
	g.Add(&Module{Path: ":b", Dependencies: []parser.ResolvedDependency{dep("gb", "b", "1")}, Submodules: []SubmoduleRef{ref(":c")}})
	g.Add(&Module{Path: ":c", Dependencies: []parser.ResolvedDependency{dep("gc", "c", "1")}})

	got := Aggregate(g, g.Order())
	want := map[string][]parser.ResolvedDependency{
		":c": {dep("gc", "c", "1")},
		":b": {dep("gb", "b", "1"), dep("gc", "c", "1")},
		":a": {dep("ga", "a", "1"), dep("gb", "b", "1"), dep("gc", "c", "1")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Aggregate mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_EmptyModules(t *testing.T) {
	g := NewModuleGraph()
	g.Add(&Module{Path: ":app", Submodules: []SubmoduleRef{ref(":lib")}})
	g.Add(&Module{Path: ":lib"})

	got := Aggregate(g, g.Order())
	assert.Empty(t, got[":app"])
	assert.Contains(t, got, ":lib")
}

func TestAggregate_CycleUsesOwnDeclarations(t *testing.T) {
	g := NewModuleGraph()
	g.Add(&Module{Path: ":x", Dependencies: []parser.ResolvedDependency{dep("g", "x", "1")}, Submodules: []SubmoduleRef{ref(":y")}})
	g.Add(&Module{Path: ":y", Dependencies: []parser.ResolvedDependency{dep("g", "y", "1")}, Submodules: []SubmoduleRef{ref(":x")}})

	got := Aggregate(g, g.Order())
	assert.Equal(t, []parser.ResolvedDependency{dep("g", "x", "1"), dep("g", "y", "1")}, got[":x"])
	assert.Equal(t, []parser.ResolvedDependency{dep("g", "y", "1"), dep("g", "x", "1"), dep("g", "y", "1")}, got[":y"])
}

func TestUnique(t *testing.T) {
	in := []parser.ResolvedDependency{
		dep("org.b", "b", "2"),
		dep("org.a", "a", "1"),
		dep("org.b", "b", "2"),
		dep("org.a", "a", "0.9"),
	}
	want := []parser.ResolvedDependency{
		dep("org.a", "a", "0.9"),
		dep("org.a", "a", "1"),
		dep("org.b", "b", "2"),
	}
	assert.Equal(t, want, Unique(in))
	assert.Empty(t, Unique(nil))
}
