package history

import "sort"

// Diff compares two dependency sets. A library whose module keeps it but
// whose version set differs is reported as a version change when exactly one
// version is on each side, otherwise as removals and additions.
func Diff(prev, curr []Dependency) Change {
	type slot struct{ module, key string }
	group := func(deps []Dependency) map[slot]map[string]Dependency {
		out := make(map[slot]map[string]Dependency)
		for _, d := range deps {
			s := slot{d.Module, d.Key()}
			if out[s] == nil {
				out[s] = make(map[string]Dependency)
			}
			out[s][d.Version] = d
		}
		return out
	}
	before, after := group(prev), group(curr)

	var change Change
	for s, versions := range after {
		old, ok := before[s]
		if !ok {
			for _, d := range versions {
				change.Added = append(change.Added, d)
			}
			continue
		}
		added, removed := setDiff(versions, old), setDiff(old, versions)
		if len(added) == 1 && len(removed) == 1 {
			change.Changed = append(change.Changed, VersionChange{
				Module: s.module,
				Key:    s.key,
				From:   removed[0].Version,
				To:     added[0].Version,
			})
			continue
		}
		change.Added = append(change.Added, added...)
		change.Removed = append(change.Removed, removed...)
	}
	for s, versions := range before {
		if _, ok := after[s]; ok {
			continue
		}
		for _, d := range versions {
			change.Removed = append(change.Removed, d)
		}
	}

	sortDependencies(change.Added)
	sortDependencies(change.Removed)
	sort.Slice(change.Changed, func(i, j int) bool {
		if change.Changed[i].Module != change.Changed[j].Module {
			return change.Changed[i].Module < change.Changed[j].Module
		}
		return change.Changed[i].Key < change.Changed[j].Key
	})
	return change
}

func setDiff(a, b map[string]Dependency) []Dependency {
	var out []Dependency
	for v, d := range a {
		if _, ok := b[v]; !ok {
			out = append(out, d)
		}
	}
	return out
}

func sortDependencies(deps []Dependency) {
	sort.Slice(deps, func(i, j int) bool {
		a, b := deps[i], deps[j]
		if a.Module != b.Module {
			return a.Module < b.Module
		}
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		if a.Artifact != b.Artifact {
			return a.Artifact < b.Artifact
		}
		return a.Version < b.Version
	})
}
