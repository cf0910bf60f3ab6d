package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCompileGlobs(t *testing.T) {
	t.Parallel()

	globs, err := CompileGlobs([]string{"*.versions.toml", "build*"})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	tests := []struct {
		name string
		want bool
	}{
		{"libs.versions.toml", true},
		{"buildSrc", true},
		{"build.gradle.kts", true},
		{"settings.gradle", false},
	}
	for _, tt := range tests {
		if got := MatchAny(globs, tt.name); got != tt.want {
			t.Errorf("MatchAny(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	if _, err := CompileGlobs([]string{"[unclosed"}); err == nil {
		t.Fatal("expected error for invalid glob")
	}
	if MatchAny(nil, "anything") {
		t.Fatal("expected no match without globs")
	}
}

func TestSortedStringKeys(t *testing.T) {
	t.Parallel()

	m := map[string]int{"b": 2, "a": 1, "c": 3}
	keys := SortedStringKeys(m)
	expected := []string{"a", "b", "c"}
	if len(keys) != len(expected) {
		t.Fatalf("expected %d keys, got %d", len(expected), len(keys))
	}
	for i, key := range expected {
		if keys[i] != key {
			t.Fatalf("expected %q at %d, got %q", key, i, keys[i])
		}
	}
}

func TestWriteFileWithDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "file.txt")
	content := []byte("hello")

	if err := WriteFileWithDirs(path, content, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("expected %q, got %q", string(content), string(got))
	}
}
