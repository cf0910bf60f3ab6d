package history

import "time"

// Scan is one persisted project scan.
type Scan struct {
	ID                string
	ProjectKey        string
	Root              string
	Timestamp         time.Time
	ModuleCount       int
	DependencyCount   int
	CycleCount        int
	UnresolvedCount   int
	ApplicationModule string
}

// Dependency is one composed dependency of one module in a scan.
type Dependency struct {
	Module   string
	Group    string
	Artifact string
	Version  string
}

func (d Dependency) Key() string {
	return d.Group + ":" + d.Artifact
}

type VersionChange struct {
	Module string
	Key    string
	From   string
	To     string
}

// Change lists what moved between two scans of a project.
type Change struct {
	Added   []Dependency
	Removed []Dependency
	Changed []VersionChange
}

func (c Change) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Changed) == 0
}
