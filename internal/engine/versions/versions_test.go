package versions

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"gradledeps/internal/engine/parser"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"4.9", "4.10", -1},
		{"1.0.0", "1.0", 0},
		{"2.0.0", "1.9.9", 1},
		{"1.0.0-alpha", "1.0.0", -1},
		{"${okhttp}", "4.9", -1},
		{"4.9", "1.+", 1},
		{"a", "b", -1},
	}
	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestHighest(t *testing.T) {
	best, ok := Highest([]string{"1.2.0", "1.10.0", "1.9.3", "${v}"})
	if !ok || best != "1.10.0" {
		t.Fatalf("Highest = %q, %v; want 1.10.0", best, ok)
	}
	if _, ok := Highest(nil); ok {
		t.Fatal("expected no result for empty input")
	}
}

func TestSatisfies(t *testing.T) {
	if !Satisfies("4.9", ">=4.9 <5") {
		t.Fatal("expected 4.9 to satisfy >=4.9 <5")
	}
	if Satisfies("5.0.1", ">=4.9 <5") {
		t.Fatal("expected 5.0.1 to not satisfy >=4.9 <5")
	}
	if Satisfies("${v}", ">=1") {
		t.Fatal("placeholder must not satisfy")
	}
}

func TestConflicts(t *testing.T) {
	okhttp := func(v string) parser.ResolvedDependency {
		return parser.ResolvedDependency{Group: "com.squareup.okhttp3", Artifact: "okhttp", Version: v}
	}
	byModule := map[string][]parser.ResolvedDependency{
		":app":  {okhttp("4.10.0"), {Group: "org.x", Artifact: "y", Version: "1.0"}},
		":core": {okhttp("4.9"), {Group: "org.x", Artifact: "y", Version: "1.0"}},
		":net":  {okhttp("4.9")},
	}

	got := Conflicts(byModule)
	want := []Conflict{{
		Key:      "com.squareup.okhttp3:okhttp",
		Versions: []string{"4.9", "4.10.0"},
		Modules:  map[string][]string{"4.9": {":core", ":net"}, "4.10.0": {":app"}},
		Highest:  "4.10.0",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Conflicts mismatch (-want +got):\n%s", diff)
	}
}
