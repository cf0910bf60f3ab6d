package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradledeps/internal/core/config"
	"gradledeps/internal/core/ports"
	"gradledeps/internal/data/history"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	a, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func writeProject(t *testing.T, dir, version string) {
	t.Helper()
	writeTree(t, dir, map[string]string{
		"src/settings.gradle.kts": `include(":app", ":core")`,
		"src/build.gradle.kts":    "",
		"src/app/build.gradle.kts": `plugins { id("com.android.application") }
dependencies {
    implementation(project(":core"))
    implementation("com.squareup.okhttp3:okhttp:` + version + `")
}
`,
		"src/core/build.gradle.kts": `dependencies { api("org.x:y:1.0") }`,
	})
}

func TestApp_ScanDirWritesLabel(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir, "4.9")
	a := newTestApp(t, nil)

	rep, err := a.ScanDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "src"), rep.Root)
	assert.True(t, rep.LabelWritten)

	data, err := os.ReadFile(filepath.Join(dir, "label.txt"))
	require.NoError(t, err)
	assert.Equal(t,
		"Group ID: com.squareup.okhttp3, Artifact ID: okhttp, Version: 4.9\n"+
			"Group ID: org.x, Artifact ID: y, Version: 1.0\n",
		string(data))

	rep, err = a.ScanDir(context.Background(), dir)
	require.NoError(t, err)
	assert.False(t, rep.LabelWritten)
}

func TestApp_ScanDirLabelDisabled(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir, "4.9")
	disabled := false
	a := newTestApp(t, func(cfg *config.Config) { cfg.Label.Enabled = &disabled })

	rep, err := a.ScanDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, rep.LabelPath)
	_, err = os.Stat(filepath.Join(dir, "label.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestApp_ScanDirNoRoot(t *testing.T) {
	a := newTestApp(t, nil)
	_, err := a.ScanDir(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestApp_HistoryRecordsChanges(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "history.db")
	disabled := false
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.Label.Enabled = &disabled
		cfg.DB.Enabled = true
		cfg.DB.Path = dbPath
	})

	writeProject(t, dir, "4.9")
	rep, err := a.ScanDir(context.Background(), dir)
	require.NoError(t, err)
	assert.NotEmpty(t, rep.ScanID)
	assert.Nil(t, rep.Changes)

	writeProject(t, dir, "4.10")
	rep, err = a.ScanDir(context.Background(), dir)
	require.NoError(t, err)
	require.NotNil(t, rep.Changes)
	assert.Equal(t, []history.VersionChange{
		{Module: ":app", Key: "com.squareup.okhttp3:okhttp", From: "4.9", To: "4.10"},
	}, rep.Changes.Changed)
	assert.Empty(t, rep.Changes.Added)
	assert.Empty(t, rep.Changes.Removed)
}

func TestApp_WriteOutputs(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	writeProject(t, dir, "4.9")
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.Output.TSV = filepath.Join(out, "deps.tsv")
		cfg.Output.Mermaid = filepath.Join(out, "modules.mmd")
		cfg.Output.Metrics = filepath.Join(out, "gradledeps.prom")
	})

	rep, err := a.ScanDir(context.Background(), dir)
	require.NoError(t, err)
	require.NoError(t, a.WriteOutputs(rep))
	require.NoError(t, a.WriteMetrics())

	tsv, err := os.ReadFile(filepath.Join(out, "deps.tsv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(tsv)), "\n")
	assert.Equal(t, "Module\tGroup\tArtifact\tVersion", lines[0])
	assert.Contains(t, lines, ":core\torg.x\ty\t1.0")
	assert.Contains(t, lines, ":app\tcom.squareup.okhttp3\tokhttp\t4.9")

	mmd, err := os.ReadFile(filepath.Join(out, "modules.mmd"))
	require.NoError(t, err)
	assert.Contains(t, string(mmd), "_app --> _core")

	prom, err := os.ReadFile(filepath.Join(out, "gradledeps.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "gradledeps_scans_total")

	summary := a.Summary(rep)
	assert.Equal(t, ":app", summary.ApplicationModule)
	assert.Equal(t, []string{":", ":core", ":app"}, summary.Order)
}

func TestApp_RunBatch(t *testing.T) {
	parent := t.TempDir()
	writeProject(t, filepath.Join(parent, "alpha"), "4.9")
	writeProject(t, filepath.Join(parent, "bravo"), "4.10")
	writeTree(t, parent, map[string]string{
		"charlie/notes.md": "no gradle here",
		"delta/label.txt":  "already labelled",
		"loose-file.apk":   "",
	})
	writeProject(t, filepath.Join(parent, "delta"), "1.0")

	a := newTestApp(t, func(cfg *config.Config) { cfg.Batch.Workers = 2 })
	outcomes, err := a.RunBatch(context.Background(), parent)
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	status := make(map[string]string, len(outcomes))
	for _, o := range outcomes {
		status[filepath.Base(o.Dir)] = o.Status
	}
	assert.Equal(t, map[string]string{
		"alpha":   BatchScanned,
		"bravo":   BatchScanned,
		"charlie": BatchNoRoot,
		"delta":   BatchSkipped,
	}, status)
	assert.Equal(t, "alpha", filepath.Base(outcomes[0].Dir))

	_, err = os.Stat(filepath.Join(parent, "alpha", "label.txt"))
	assert.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(parent, "delta", "label.txt"))
	require.NoError(t, err)
	assert.Equal(t, "already labelled", string(data))

	rows := BatchRows(outcomes)
	assert.Equal(t, ":app", rows[0].Application)
	assert.Equal(t, 2, rows[0].Dependencies)
	assert.Error(t, rows[2].Err)
}

func TestApp_RunBatchMissingParent(t *testing.T) {
	a := newTestApp(t, nil)
	_, err := a.RunBatch(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestApp_WatchRescansOnChange(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir, "4.9")
	disabled := false
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.Label.Enabled = &disabled
		cfg.Watch.Debounce = 20 * time.Millisecond
		cfg.Watch.Rate = 0
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var updates []ports.WatchUpdate
	done := make(chan error, 1)
	go func() {
		done <- a.Watch(ctx, dir, func(u ports.WatchUpdate) {
			mu.Lock()
			updates = append(updates, u)
			mu.Unlock()
		})
	}()

	// Give the watcher time to register directories.
	time.Sleep(100 * time.Millisecond)
	writeProject(t, dir, "5.0")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(updates) > 0
	}, 3*time.Second, 20*time.Millisecond)

	mu.Lock()
	u := updates[len(updates)-1]
	mu.Unlock()
	assert.NoError(t, u.Err)
	assert.Equal(t, ":app", u.ApplicationModule)
	assert.Equal(t, 3, u.ModuleCount)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestApp_WatchFiles(t *testing.T) {
	a := newTestApp(t, nil)
	assert.Equal(t, []string{
		"build.gradle.kts", "build.gradle",
		"settings.gradle.kts", "settings.gradle",
		"gradle.properties",
		"*.versions.toml", "*libs.toml",
	}, a.WatchFiles())
}

func TestUpdateFromReport(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir, "4.9")
	disabled := false
	a := newTestApp(t, func(cfg *config.Config) { cfg.Label.Enabled = &disabled })

	rep, err := a.ScanDir(context.Background(), dir)
	require.NoError(t, err)

	u := UpdateFromReport(rep)
	assert.Equal(t, 3, u.ModuleCount)
	assert.Equal(t, 2, u.DependencyCount)
	require.Len(t, u.Modules, 3)
	assert.Equal(t, ":app", u.Modules[2].Path)
	assert.True(t, u.Modules[2].Application)
	assert.Len(t, u.Modules[2].Dependencies, 2)
}
