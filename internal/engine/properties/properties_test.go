package properties

import (
	"os"
	"path/filepath"
	"testing"

	"gradledeps/internal/engine/parser"
	"gradledeps/internal/engine/scope"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values(s scope.Scope) map[string]string {
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = v.String()
	}
	return out
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gradle.properties")
	content := "# comment = ignored\n" +
		"minSdk=21\n" +
		"org.gradle.jvmargs = -Xmx2048m\n" +
		"kotlin_version = 1.9.22  \n" +
		"\n" +
		"! bang comment\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	props, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"minSdk":             "21",
		"org.gradle.jvmargs": "-Xmx2048m",
		"kotlin_version":     "1.9.22",
	}, values(props))
}

func TestLoadFile_MissingIsEmpty(t *testing.T) {
	props, err := LoadFile(filepath.Join(t.TempDir(), "nope.properties"))
	require.NoError(t, err)
	assert.Equal(t, 0, props.Len())
}

func TestParseExtBlock(t *testing.T) {
	body := `
        kotlin_version = "1.9.0"
        'agp': '8.2.0'
        minSdk = 21
        buildTime = currentTime()
        versions = [
            okhttp  : '4.9.0',
            "retrofit": "2.9.0"
        ]
    `
	got := values(ParseExtBlock(body))
	assert.Equal(t, "1.9.0", got["kotlin_version"])
	assert.Equal(t, "8.2.0", got["agp"])
	assert.Equal(t, "21", got["minSdk"])
	assert.Equal(t, "currentTime()", got["buildTime"])
	assert.Equal(t, "4.9.0", got["okhttp"])
	assert.Equal(t, "2.9.0", got["retrofit"])
	assert.NotContains(t, got, "versions", "outer grouping key is discarded")
}

func TestExtFromScript(t *testing.T) {
	script := `
buildscript {
    ext.kotlin_version = '1.9.10'
    ext.libs = [
        coreKtx: '1.12.0',
        appcompat: "1.6.1"
    ]
}

ext {
    compose_version = "1.5.4"
    kotlin_version = "1.8.0"
}

project.ext {
    room_version = '2.6.1'
}

val lifecycleVersion by extra("2.7.0")
val navVersion by extra { "2.7.6" }
extra["coilVersion"] = "2.5.0"
extra.set("pagingVersion", "3.2.1")
`
	got := values(ExtFromScript(parser.StripComments(script)))

	assert.Equal(t, "1.9.10", got["kotlin_version"], "single-line ext assignment wins over block value")
	assert.Equal(t, "1.12.0", got["coreKtx"])
	assert.Equal(t, "1.6.1", got["appcompat"])
	assert.Equal(t, "1.5.4", got["compose_version"])
	assert.Equal(t, "2.6.1", got["room_version"])
	assert.Equal(t, "2.7.0", got["lifecycleVersion"])
	assert.Equal(t, "2.7.6", got["navVersion"])
	assert.Equal(t, "2.5.0", got["coilVersion"])
	assert.Equal(t, "3.2.1", got["pagingVersion"])
}

func TestExtFromScript_CommentedOutIgnored(t *testing.T) {
	script := `
// ext.hidden = "1.0"
/* ext {
    alsoHidden = "2.0"
} */
ext.visible = "3.0"
`
	got := values(ExtFromScript(parser.StripComments(script)))
	assert.Equal(t, map[string]string{"visible": "3.0"}, got)
}

func TestLoadExt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "build.gradle.kts")
	require.NoError(t, os.WriteFile(path, []byte(`ext { appVersion = "1.2.3" }`), 0o644))

	ext, err := LoadExt(path)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", values(ext)["appVersion"])

	missing, err := LoadExt(filepath.Join(dir, "build.gradle"))
	require.NoError(t, err)
	assert.Equal(t, 0, missing.Len())
}

func TestLocalScopes(t *testing.T) {
	script := `
android {
    compileSdk = 34
    namespace = "com.example.app"
}
ext {
    work_version = "2.9.0"
}
`
	local := values(LocalProperties(script))
	assert.Equal(t, "34", local["compileSdk"])
	assert.Equal(t, "com.example.app", local["namespace"])

	ext := values(LocalExt(script))
	assert.Equal(t, map[string]string{"work_version": "2.9.0"}, ext)
}

func TestRecognizerNames(t *testing.T) {
	names := RecognizerNames()
	require.NotEmpty(t, names)
	assert.Equal(t, "ext-single-line", names[0])
	assert.Equal(t, "extra-delegate", names[len(names)-1])
}
