package parser

import (
	"fmt"
	"strings"
)

// Kind tags a declaration found in a build descriptor.
type Kind int

const (
	KindDirect Kind = iota
	KindMap
	KindPlatform
	KindCatalog
	KindSubmodule
	KindApplication
)

func (k Kind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindMap:
		return "map"
	case KindPlatform:
		return "platform"
	case KindCatalog:
		return "catalog"
	case KindSubmodule:
		return "submodule"
	case KindApplication:
		return "application"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// DependencyRef is a declared coordinate whose version may still hold
// placeholders such as ${kotlinVersion}.
type DependencyRef struct {
	Group    string
	Artifact string
	Version  string
}

// ResolvedDependency is a coordinate with a concrete version string.
type ResolvedDependency struct {
	Group    string
	Artifact string
	Version  string
}

func (d ResolvedDependency) String() string {
	return d.Group + ":" + d.Artifact + ":" + d.Version
}

// Key identifies the library without its version.
func (d ResolvedDependency) Key() string {
	return d.Group + ":" + d.Artifact
}

// ParseGAV splits "group:artifact:version". A missing version yields "".
func ParseGAV(raw string) (ResolvedDependency, bool) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return ResolvedDependency{}, false
	}
	dep := ResolvedDependency{Group: parts[0], Artifact: parts[1]}
	if len(parts) == 3 {
		dep.Version = parts[2]
	}
	return dep, true
}

// Declaration is one recognizer hit. Which fields are set depends on Kind:
// Ref for direct, map and platform declarations, Accessor for catalog
// declarations, ProjectPath and Name for submodule references, Name (the
// matched marker) for the application marker.
type Declaration struct {
	Kind          Kind
	Configuration string
	Ref           DependencyRef
	Accessor      string
	ProjectPath   string
	Name          string
	Line          int
}
