// Package properties builds property scopes from gradle.properties files and
// from the "ext" assignments embedded in build scripts.
package properties

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"gradledeps/internal/engine/parser"
	"gradledeps/internal/engine/scope"
)

var (
	propertyLine   = regexp.MustCompile(`(\w[\w.]*)\s*=\s*(.*)`)
	localAssignRaw = regexp.MustCompile(`(\w+)\s*=\s*["']?([\w.\-]+)["']?`)
)

// LoadFile reads a properties file. A missing file yields an empty scope.
func LoadFile(path string) (scope.Scope, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return scope.New(), nil
		}
		return nil, fmt.Errorf("open properties %q: %w", path, err)
	}
	defer f.Close()

	props := scope.New()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		for _, m := range propertyLine.FindAllStringSubmatch(line, -1) {
			props.Set(m[1], strings.TrimSpace(m[2]))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read properties %q: %w", path, err)
	}
	return props, nil
}

// LocalProperties collects plain "name = value" assignments from a module
// script. Values are bare or quoted identifiers, numbers or versions.
func LocalProperties(content string) scope.Scope {
	props := scope.New()
	for _, m := range localAssignRaw.FindAllStringSubmatch(content, -1) {
		props.Set(m[1], m[2])
	}
	return props
}

// LocalExt collects only the ext { } blocks of a module script.
func LocalExt(content string) scope.Scope {
	ext := scope.New()
	for _, m := range extBlock.FindAllStringSubmatch(content, -1) {
		ext.Merge(ParseExtBlock(m[1]))
	}
	return ext
}

// LoadExt reads a build script and collects every ext form it declares.
// A missing file yields an empty scope.
func LoadExt(path string) (scope.Scope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return scope.New(), nil
		}
		return nil, fmt.Errorf("read build script %q: %w", path, err)
	}
	return ExtFromScript(parser.StripComments(string(data))), nil
}
