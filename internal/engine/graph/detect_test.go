package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectCycles(t *testing.T) {
	g := NewModuleGraph()
	g.Add(&Module{Path: ":a", Submodules: []SubmoduleRef{ref(":b")}})
	g.Add(&Module{Path: ":b", Submodules: []SubmoduleRef{ref(":c")}})
	g.Add(&Module{Path: ":c", Submodules: []SubmoduleRef{ref(":a")}})
	g.Add(&Module{Path: ":d", Submodules: []SubmoduleRef{ref(":d")}})
	g.Add(&Module{Path: ":e", Submodules: []SubmoduleRef{ref(":a")}})

	cycles, err := g.DetectCycles()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{":a", ":b", ":c"}, {":d"}}, cycles)

	warnings := g.Warnings()
	require.Len(t, warnings, 2)
	assert.Equal(t, WarnCycle, warnings[0].Kind)
	assert.Contains(t, warnings[0].Message, ":a -> :b -> :c")
}

func TestDetectCycles_Acyclic(t *testing.T) {
	g := NewModuleGraph()
	g.Add(&Module{Path: ":app", Submodules: []SubmoduleRef{ref(":lib"), ref(":lib")}})
	g.Add(&Module{Path: ":lib"})

	cycles, err := g.DetectCycles()
	require.NoError(t, err)
	assert.Empty(t, cycles)
	assert.Empty(t, g.Warnings())
}

func TestMetrics(t *testing.T) {
	g := NewModuleGraph()
	g.Add(&Module{Path: ":app", Submodules: []SubmoduleRef{ref(":feature"), ref(":core")}})
	g.Add(&Module{Path: ":feature", Submodules: []SubmoduleRef{ref(":core")}})
	g.Add(&Module{Path: ":core"})

	m := g.Metrics()
	assert.Equal(t, ModuleMetrics{FanIn: 0, FanOut: 2, Depth: 2}, m[":app"])
	assert.Equal(t, ModuleMetrics{FanIn: 1, FanOut: 1, Depth: 1}, m[":feature"])
	assert.Equal(t, ModuleMetrics{FanIn: 2, FanOut: 0, Depth: 0}, m[":core"])
}
