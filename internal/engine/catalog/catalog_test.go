package catalog

import (
	"os"
	"path/filepath"
	"testing"

	domainerrors "gradledeps/internal/core/errors"
	"gradledeps/internal/engine/parser"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `
[versions]
okhttp = "4.9"
compose = { strictly = "1.5.4" }
room = "2.6.1"

[libraries]
okhttp = { module = "com.squareup.okhttp3:okhttp", version.ref = "okhttp" }
androidx-core_ktx = "androidx.core:core-ktx:1.12.0"
compose-ui = { module = "androidx.compose.ui:ui", version.ref = "compose" }
compose-material = { group = "androidx.compose.material", name = "material", version = { require = "1.5.0" } }
room-runtime = { group = "androidx.room", name = "room-runtime", version.ref = "room" }
room-ktx = { group = "androidx.room", name = "room-ktx" }
timber = { module = "com.jakewharton.timber:timber", version = "5.0.1" }
retrofit = { module = "com.squareup.retrofit2:retrofit", version = { prefer = "2.9.0" } }
junit = { module = "junit:junit", version = { strictly = "4.13.2" } }
unversioned = { module = "org.example:bare" }
nothing = { description = "no coordinates" }

[bundles]
compose = ["compose-ui", "compose-material", "missing-member"]
room_all = ["room-runtime", "room-ktx"]
`

func TestParse(t *testing.T) {
	entries, err := Parse("libs", []byte(sampleCatalog))
	require.NoError(t, err)

	want := map[string]string{
		"libs.okhttp":           "com.squareup.okhttp3:okhttp:4.9",
		"libs.androidx.core.ktx": "androidx.core:core-ktx:1.12.0",
		"libs.compose.ui":       "androidx.compose.ui:ui:1.5.4",
		"libs.compose.material": "androidx.compose.material:material:1.5.0",
		"libs.room.runtime":     "androidx.room:room-runtime:2.6.1",
		"libs.room.ktx":         "androidx.room:room-ktx:",
		"libs.timber":           "com.jakewharton.timber:timber:5.0.1",
		"libs.retrofit":         "com.squareup.retrofit2:retrofit:2.9.0",
		"libs.junit":            "junit:junit:4.13.2",
		"libs.unversioned":      "org.example:bare:",
	}
	for key, gav := range want {
		v, ok := entries.Lookup(key)
		if !ok {
			t.Errorf("missing key %s", key)
			continue
		}
		assert.False(t, v.IsList(), key)
		assert.Equal(t, gav, v.String(), key)
	}
	_, ok := entries.Lookup("libs.nothing")
	assert.False(t, ok, "tables without coordinates are skipped")

	compose, ok := entries.Lookup("libs.bundles.compose")
	require.True(t, ok)
	require.True(t, compose.IsList())
	if diff := cmp.Diff([]string{
		"androidx.compose.ui:ui:1.5.4",
		"androidx.compose.material:material:1.5.0",
	}, compose.Items()); diff != "" {
		t.Errorf("bundle members mismatch (-want +got):\n%s", diff)
	}

	roomAll, ok := entries.Lookup("libs.bundles.room.all")
	require.True(t, ok)
	assert.Len(t, roomAll.Items(), 2)
}

func TestParse_ScenarioB(t *testing.T) {
	data := `
[versions]
okhttp = "4.9"
[libraries]
okhttp = { module = "com.squareup.okhttp3:okhttp", version.ref = "okhttp" }
`
	c := New()
	require.NoError(t, c.Add("libs", "libs.versions.toml", []byte(data)))
	assert.Equal(t, []parser.ResolvedDependency{
		{Group: "com.squareup.okhttp3", Artifact: "okhttp", Version: "4.9"},
	}, c.Dependencies("libs.okhttp"))
	assert.Nil(t, c.Dependencies("libs.unknown"))
}

func TestParse_BundleSize(t *testing.T) {
	data := `
[libraries]
a = "g:a:1"
b = "g:b:2"
c = "g:c:3"
[bundles]
forward = ["a", "b", "c"]
backward = ["c", "b", "a"]
`
	entries, err := Parse("deps", []byte(data))
	require.NoError(t, err)

	forward, _ := entries.Lookup("deps.bundles.forward")
	backward, _ := entries.Lookup("deps.bundles.backward")
	assert.Len(t, forward.Items(), 3)
	assert.Len(t, backward.Items(), 3)
	assert.ElementsMatch(t, forward.Items(), backward.Items())
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid toml", "[libraries\nokhttp = "},
		{"bad notation", "[libraries]\nx = \"only-one-part\""},
		{"bad module", "[libraries]\nx = { module = \"a:b:c\" }"},
		{"bad bundle", "[bundles]\nx = \"not-an-array\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("libs", []byte(tt.data))
			require.Error(t, err)
			assert.True(t, domainerrors.IsCode(err, domainerrors.CodeParseError), err.Error())
		})
	}
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "gradle"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "build", "tmp"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "gradle", "libs.versions.toml"),
		[]byte("[libraries]\nokhttp = \"com.squareup.okhttp3:okhttp:4.9\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "gradle", "testing.versions.toml"),
		[]byte("[libraries]\njunit = \"junit:junit:4.13.2\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "deps-libs.toml"),
		[]byte("[libraries]\ngson = \"com.google.code.gson:gson:2.10\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "build", "tmp", "stale.versions.toml"),
		[]byte("[libraries\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "gradle", "other.toml"),
		[]byte("not a catalog ["), 0o644))

	c, err := Load(root, LoadOptions{ExcludeDirs: []string{"build"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"deps-libs.gson", "libs.okhttp", "testing.junit"}, c.keys())
	assert.Len(t, c.Files(), 3)
}

func TestLoad_MalformedAborts(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "libs.versions.toml"), []byte("[versions\n"), 0o644))

	_, err := Load(root, LoadOptions{})
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeParseError))
	assert.Contains(t, err.Error(), "libs.versions.toml")
}

func TestPrefixAndNormalize(t *testing.T) {
	assert.Equal(t, "libs", Prefix("/x/gradle/libs.versions.toml"))
	assert.Equal(t, "deps-libs", Prefix("deps-libs.toml"))
	assert.Equal(t, "androidx.core.ktx", NormalizeKey("androidx-core_ktx"))
}
