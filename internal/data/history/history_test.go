package history

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_OpenInitializesSchemaAndSaveLoad(t *testing.T) {
	store := openStore(t)

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	deps := []Dependency{
		{Module: ":app", Group: "com.squareup.okhttp3", Artifact: "okhttp", Version: "4.9"},
		{Module: ":app", Group: "com.example", Artifact: "lib", Version: "1.2.3"},
		{Module: ":app", Group: "com.example", Artifact: "lib", Version: "1.2.3"},
	}
	saved, err := store.SaveScan(Scan{
		ProjectKey:        "project-a",
		Root:              "/src/project-a",
		Timestamp:         base,
		ModuleCount:       3,
		CycleCount:        1,
		UnresolvedCount:   2,
		ApplicationModule: ":app",
	}, deps)
	if err != nil {
		t.Fatalf("save scan: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected generated scan id")
	}
	if saved.DependencyCount != 3 {
		t.Fatalf("expected dependency_count=3, got %d", saved.DependencyCount)
	}

	scans, err := store.LoadScans("project-a", time.Time{})
	if err != nil {
		t.Fatalf("load scans: %v", err)
	}
	if len(scans) != 1 {
		t.Fatalf("expected 1 scan, got %d", len(scans))
	}
	if diff := cmp.Diff(saved, scans[0]); diff != "" {
		t.Fatalf("scan roundtrip mismatch (-saved +loaded):\n%s", diff)
	}

	got, err := store.LoadDependencies(saved.ID)
	if err != nil {
		t.Fatalf("load dependencies: %v", err)
	}
	want := []Dependency{
		{Module: ":app", Group: "com.example", Artifact: "lib", Version: "1.2.3"},
		{Module: ":app", Group: "com.squareup.okhttp3", Artifact: "okhttp", Version: "4.9"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("dependency mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_LatestScansAndSinceFilter(t *testing.T) {
	store := openStore(t)

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, err := store.SaveScan(Scan{ProjectKey: "p", Timestamp: base.Add(time.Duration(i) * time.Hour), ModuleCount: i + 1}, nil); err != nil {
			t.Fatal(err)
		}
	}

	latest, err := store.LatestScans("p", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(latest) != 2 || latest[0].ModuleCount != 3 || latest[1].ModuleCount != 2 {
		t.Fatalf("unexpected latest scans: %+v", latest)
	}

	since, err := store.LoadScans("p", base.Add(90*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(since) != 1 || since[0].ModuleCount != 3 {
		t.Fatalf("unexpected scans after since filter: %+v", since)
	}
}

func TestStore_ChangesSincePrevious(t *testing.T) {
	store := openStore(t)

	if _, ok, err := store.ChangesSincePrevious("p"); err != nil || ok {
		t.Fatalf("expected no comparison with empty history, ok=%v err=%v", ok, err)
	}

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	first := []Dependency{
		{Module: ":app", Group: "org.x", Artifact: "y", Version: "1.0"},
		{Module: ":app", Group: "org.old", Artifact: "gone", Version: "2.0"},
	}
	second := []Dependency{
		{Module: ":app", Group: "org.x", Artifact: "y", Version: "1.1"},
		{Module: ":app", Group: "org.new", Artifact: "here", Version: "0.1"},
	}
	if _, err := store.SaveScan(Scan{ProjectKey: "p", Timestamp: base}, first); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SaveScan(Scan{ProjectKey: "p", Timestamp: base.Add(time.Minute)}, second); err != nil {
		t.Fatal(err)
	}

	change, ok, err := store.ChangesSincePrevious("p")
	if err != nil || !ok {
		t.Fatalf("expected comparison, ok=%v err=%v", ok, err)
	}
	want := Change{
		Added:   []Dependency{{Module: ":app", Group: "org.new", Artifact: "here", Version: "0.1"}},
		Removed: []Dependency{{Module: ":app", Group: "org.old", Artifact: "gone", Version: "2.0"}},
		Changed: []VersionChange{{Module: ":app", Key: "org.x:y", From: "1.0", To: "1.1"}},
	}
	if diff := cmp.Diff(want, change); diff != "" {
		t.Fatalf("change mismatch (-want +got):\n%s", diff)
	}
}

func TestDiff_NoChange(t *testing.T) {
	deps := []Dependency{{Module: ":a", Group: "g", Artifact: "a", Version: "1"}}
	if c := Diff(deps, deps); !c.Empty() {
		t.Fatalf("expected empty change, got %+v", c)
	}
}

func TestStore_OpenRejectsDirectoryPath(t *testing.T) {
	tmpDir := t.TempDir()
	_, err := Open(tmpDir)
	if err == nil {
		t.Fatal("expected open error for directory path")
	}
	if !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStore_OpenCorruptDBPath(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "history.db")
	if err := os.WriteFile(path, []byte("this is not sqlite"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if err == nil {
		t.Fatal("expected sqlite open error")
	}
	lower := strings.ToLower(err.Error())
	if !strings.Contains(lower, "not a database") && !strings.Contains(lower, "schema") {
		t.Fatalf("expected schema/open error, got: %v", err)
	}
}

func TestEnsureSchema_DetectsNewerVersionDrift(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	_, err = store.db.Exec(`INSERT OR REPLACE INTO schema_migrations(version) VALUES (?)`, SchemaVersion+1)
	if err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open(driverName, "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	err = EnsureSchema(db)
	if err == nil {
		t.Fatal("expected drift error")
	}
	if !strings.Contains(err.Error(), "newer than supported") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIsCorruptError(t *testing.T) {
	if !IsCorruptError(errors.New("database disk image is malformed")) {
		t.Fatal("expected malformed sqlite message to be treated as corrupt")
	}
}

func TestStore_ProjectIsolation(t *testing.T) {
	store := openStore(t)

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	if _, err := store.SaveScan(Scan{ProjectKey: "project-a", Timestamp: base, ModuleCount: 1}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SaveScan(Scan{ProjectKey: "project-b", Timestamp: base, ModuleCount: 2}, nil); err != nil {
		t.Fatal(err)
	}

	aRows, err := store.LoadScans("project-a", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(aRows) != 1 || aRows[0].ModuleCount != 1 {
		t.Fatalf("unexpected project-a rows: %+v", aRows)
	}

	bRows, err := store.LoadScans("project-b", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(bRows) != 1 || bRows[0].ModuleCount != 2 {
		t.Fatalf("unexpected project-b rows: %+v", bRows)
	}
}
