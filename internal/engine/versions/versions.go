// Package versions compares declared library versions and reports libraries
// that the modules of one project pin to different versions.
package versions

import (
	"sort"

	mm "github.com/Masterminds/semver/v3"

	"gradledeps/internal/engine/parser"
)

// Compare orders two version strings, returning -1, 0 or 1. Strings that
// parse as semantic versions compare numerically; anything else (unresolved
// placeholders, dynamic "1.+" selectors) sorts below parseable versions and
// lexically among itself.
func Compare(a, b string) int {
	va, errA := mm.NewVersion(a)
	vb, errB := mm.NewVersion(b)
	switch {
	case errA == nil && errB == nil:
		return va.Compare(vb)
	case errA == nil:
		return 1
	case errB == nil:
		return -1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Highest returns the greatest version in candidates by Compare. The first
// encountered wins on ties.
func Highest(candidates []string) (string, bool) {
	var best string
	found := false
	for _, c := range candidates {
		if !found || Compare(c, best) > 0 {
			best = c
			found = true
		}
	}
	return best, found
}

// Satisfies reports whether version meets a constraint such as ">=4.9 <5".
// Unparseable input never satisfies.
func Satisfies(version, constraint string) bool {
	v, err := mm.NewVersion(version)
	if err != nil {
		return false
	}
	c, err := mm.NewConstraint(constraint)
	if err != nil {
		return false
	}
	return c.Check(v)
}

// Conflict is one group:artifact declared with several versions.
type Conflict struct {
	Key      string
	Versions []string            // ascending by Compare
	Modules  map[string][]string // version -> module paths, sorted
	Highest  string
}

// Conflicts scans per-module dependency lists for libraries declared with
// more than one version. Results are sorted by key.
func Conflicts(byModule map[string][]parser.ResolvedDependency) []Conflict {
	seen := make(map[string]map[string]map[string]bool) // key -> version -> module set
	for module, deps := range byModule {
		for _, d := range deps {
			key := d.Key()
			if seen[key] == nil {
				seen[key] = make(map[string]map[string]bool)
			}
			if seen[key][d.Version] == nil {
				seen[key][d.Version] = make(map[string]bool)
			}
			seen[key][d.Version][module] = true
		}
	}

	out := make([]Conflict, 0)
	for key, byVersion := range seen {
		if len(byVersion) < 2 {
			continue
		}
		c := Conflict{Key: key, Modules: make(map[string][]string, len(byVersion))}
		for version, modules := range byVersion {
			c.Versions = append(c.Versions, version)
			for m := range modules {
				c.Modules[version] = append(c.Modules[version], m)
			}
			sort.Strings(c.Modules[version])
		}
		sort.SliceStable(c.Versions, func(i, j int) bool {
			if cmp := Compare(c.Versions[i], c.Versions[j]); cmp != 0 {
				return cmp < 0
			}
			return c.Versions[i] < c.Versions[j]
		})
		c.Highest = c.Versions[len(c.Versions)-1]
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
