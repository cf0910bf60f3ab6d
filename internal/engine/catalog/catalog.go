// Package catalog loads Gradle version catalogs (libs.versions.toml and
// friends) into a flat accessor table such as "libs.okhttp" or
// "libs.bundles.compose".
package catalog

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	domainerrors "gradledeps/internal/core/errors"
	"gradledeps/internal/engine/parser"
	"gradledeps/internal/engine/scope"
	"gradledeps/internal/shared/util"
)

var DefaultPatterns = []string{"*.versions.toml", "*libs.toml"}

// Catalog maps accessor keys to a scalar "group:artifact:version" or, for
// bundles, an ordered list of them.
type Catalog struct {
	entries scope.Scope
	files   []string
}

func New() *Catalog {
	return &Catalog{entries: scope.New()}
}

func (c *Catalog) Lookup(key string) (scope.Value, bool) {
	return c.entries.Lookup(key)
}

func (c *Catalog) Len() int { return c.entries.Len() }

func (c *Catalog) Files() []string {
	return append([]string{}, c.files...)
}

func (c *Catalog) keys() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Dependencies expands an accessor into resolved coordinates: one for a
// library, one per member for a bundle, none for an unknown key.
func (c *Catalog) Dependencies(key string) []parser.ResolvedDependency {
	v, ok := c.entries.Lookup(key)
	if !ok {
		return nil
	}
	var out []parser.ResolvedDependency
	for _, gav := range v.Items() {
		if dep, ok := parser.ParseGAV(gav); ok {
			out = append(out, dep)
		}
	}
	return out
}

// Add parses one catalog file's content under prefix and merges it in.
func (c *Catalog) Add(prefix, source string, data []byte) error {
	entries, err := Parse(prefix, data)
	if err != nil {
		return domainerrors.AddContext(err, domainerrors.CtxPath, source)
	}
	c.entries.Merge(entries)
	c.files = append(c.files, source)
	return nil
}

// LoadOptions controls which files Load picks up.
type LoadOptions struct {
	Patterns    []string
	ExcludeDirs []string
}

// Load walks root for catalog files. A tree without catalogs yields an empty
// catalog; a malformed catalog aborts with a PARSE_ERROR.
func Load(root string, opts LoadOptions) (*Catalog, error) {
	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	fileGlobs, err := util.CompileGlobs(patterns)
	if err != nil {
		return nil, err
	}
	dirGlobs, err := util.CompileGlobs(opts.ExcludeDirs)
	if err != nil {
		return nil, err
	}

	c := New()
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		base := d.Name()
		if d.IsDir() {
			if path != root && util.MatchAny(dirGlobs, base) {
				return filepath.SkipDir
			}
			return nil
		}
		if !util.MatchAny(fileGlobs, base) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read catalog %q: %w", path, err)
		}
		if err := c.Add(Prefix(base), path, data); err != nil {
			return err
		}
		slog.Debug("loaded version catalog", "path", path, "prefix", Prefix(base))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Prefix is the catalog's logical name: the file name up to its first dot.
func Prefix(filename string) string {
	base := filepath.Base(filename)
	if idx := strings.Index(base, "."); idx != -1 {
		return base[:idx]
	}
	return base
}

// NormalizeKey turns a catalog alias into accessor form: '-' and '_' become '.'.
func NormalizeKey(alias string) string {
	return strings.NewReplacer("-", ".", "_", ".").Replace(alias)
}

// Parse decodes one catalog and returns its namespaced entries.
func Parse(prefix string, data []byte) (scope.Scope, error) {
	var doc map[string]interface{}
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeParseError, "decode version catalog")
	}

	versions := table(doc, "versions")
	libraries := table(doc, "libraries")
	bundles := table(doc, "bundles")

	parsed := make(map[string]string, len(libraries))
	for _, alias := range sortedKeys(libraries) {
		gav, ok, err := parseLibrary(libraries[alias], versions)
		if err != nil {
			return nil, domainerrors.AddContext(err, domainerrors.CtxKey, "libraries."+alias)
		}
		if ok {
			parsed[alias] = gav
		}
	}

	byNormalized := make(map[string]string, len(parsed))
	for alias, gav := range parsed {
		byNormalized[NormalizeKey(alias)] = gav
	}

	entries := scope.New()
	for alias, gav := range parsed {
		entries[prefix+"."+NormalizeKey(alias)] = scope.Scalar(gav)
	}

	for _, name := range sortedKeys(bundles) {
		members, ok := bundles[name].([]interface{})
		if !ok {
			return nil, domainerrors.Newf(domainerrors.CodeParseError, "bundle %q must be an array of library aliases", name)
		}
		gavs := make([]string, 0, len(members))
		for _, m := range members {
			alias, ok := m.(string)
			if !ok {
				return nil, domainerrors.Newf(domainerrors.CodeParseError, "bundle %q has a non-string member %v", name, m)
			}
			if gav, ok := parsed[alias]; ok {
				gavs = append(gavs, gav)
			} else if gav, ok := byNormalized[NormalizeKey(alias)]; ok {
				gavs = append(gavs, gav)
			}
		}
		entries[prefix+".bundles."+NormalizeKey(name)] = scope.List(gavs...)
	}

	return entries, nil
}

// parseLibrary resolves one [libraries] value to "group:artifact:version".
// ok is false for tables that name no coordinates at all.
func parseLibrary(raw interface{}, versions map[string]interface{}) (string, bool, error) {
	switch v := raw.(type) {
	case string:
		parts := strings.Split(v, ":")
		switch len(parts) {
		case 3:
			return v, true, nil
		case 2:
			return v + ":", true, nil
		}
		return "", false, domainerrors.Newf(domainerrors.CodeParseError, "library notation %q is not group:artifact:version", v)

	case map[string]interface{}:
		if module, ok := v["module"].(string); ok {
			parts := strings.Split(module, ":")
			if len(parts) != 2 {
				return "", false, domainerrors.Newf(domainerrors.CodeParseError, "library module %q is not group:artifact", module)
			}
			return parts[0] + ":" + parts[1] + ":" + resolveVersion(v["version"], versions), true, nil
		}

		group, hasGroup := v["group"].(string)
		name, hasName := v["name"].(string)
		if hasGroup && hasName {
			version := ""
			if rawVersion, ok := v["version"]; ok {
				version = resolveVersion(rawVersion, versions)
			}
			return group + ":" + name + ":" + version, true, nil
		}
		return "", false, nil

	default:
		return "", false, domainerrors.Newf(domainerrors.CodeParseError, "unsupported library value of type %T", raw)
	}
}

// resolveVersion handles "1.0", { ref = "x" }, { require = "1.0" },
// { prefer = "1.0" } and { strictly = "1.0" }, tried in that order.
func resolveVersion(raw interface{}, versions map[string]interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]interface{}:
		if ref, ok := v["ref"].(string); ok {
			return versionValue(versions[ref])
		}
		for _, key := range []string{"require", "prefer", "strictly"} {
			if s, ok := v[key].(string); ok {
				return s
			}
		}
	}
	return ""
}

// versionValue reads a [versions] entry, which may itself be a rich version.
func versionValue(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case map[string]interface{}:
		for _, key := range []string{"require", "prefer", "strictly"} {
			if s, ok := v[key].(string); ok {
				return s
			}
		}
	}
	return ""
}

func table(doc map[string]interface{}, name string) map[string]interface{} {
	if t, ok := doc[name].(map[string]interface{}); ok {
		return t
	}
	return map[string]interface{}{}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
