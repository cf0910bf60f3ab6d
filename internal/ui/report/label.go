// Package report renders scan results: the per-project label file, the
// terminal summary and the file exports.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"gradledeps/internal/engine/parser"
	"gradledeps/internal/shared/util"
)

const labelLineFormat = "Group ID: %s, Artifact ID: %s, Version: %s\n"

// FormatLabel renders one label line per dependency, in the given order.
func FormatLabel(deps []parser.ResolvedDependency) string {
	var b strings.Builder
	for _, d := range deps {
		fmt.Fprintf(&b, labelLineFormat, d.Group, d.Artifact, d.Version)
	}
	return b.String()
}

// HasSentinel reports whether a regular file directly inside dir matches the
// sentinel glob.
func HasSentinel(dir, pattern string) (bool, error) {
	if strings.TrimSpace(pattern) == "" {
		return false, nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid label sentinel %q: %w", pattern, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() && g.Match(entry.Name()) {
			return true, nil
		}
	}
	return false, nil
}

// LabelWriter writes the label artifact for a scanned directory.
type LabelWriter struct {
	FileName string
	Sentinel string
}

// Write creates dir/FileName from deps unless the sentinel already matches a
// file in dir. It returns the label path and whether it was written.
func (w LabelWriter) Write(dir string, deps []parser.ResolvedDependency) (string, bool, error) {
	path := filepath.Join(dir, w.FileName)
	exists, err := HasSentinel(dir, w.Sentinel)
	if err != nil {
		return path, false, err
	}
	if exists {
		return path, false, nil
	}
	if err := util.WriteFileWithDirs(path, []byte(FormatLabel(deps)), 0o644); err != nil {
		return path, false, fmt.Errorf("write label %s: %w", path, err)
	}
	return path, true, nil
}
