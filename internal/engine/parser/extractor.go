package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// Extractor recognizes dependency declarations, submodule references and the
// application-plugin marker in comment-stripped build script text. Each
// recognizer runs independently; overlapping hits are left for the caller to
// de-duplicate.
type Extractor struct {
	vocab Vocabulary

	direct          *regexp.Regexp
	mapStyle        *regexp.Regexp
	platform        *regexp.Regexp
	catalog         *regexp.Regexp
	projectPath     *regexp.Regexp
	projectAccessor *regexp.Regexp
}

const (
	coordPart   = `[\w.\-]+`
	versionPart = `[\w.\-\$\{\}@\[\], ]+`
	platformFn  = `(?:enforcedPlatform|platform)`
)

func NewExtractor(vocab Vocabulary) (*Extractor, error) {
	if len(vocab.Configurations) == 0 {
		return nil, fmt.Errorf("vocabulary has no dependency configurations")
	}
	if len(vocab.CatalogConfigurations) == 0 {
		vocab.CatalogConfigurations = vocab.Configurations
	}
	if len(vocab.MapConfigurations) == 0 {
		vocab.MapConfigurations = vocab.Configurations
	}
	if len(vocab.ProjectConfigurations) == 0 {
		vocab.ProjectConfigurations = vocab.Configurations
	}

	kw := keywordAlternation(vocab.Configurations)
	catKW := keywordAlternation(vocab.CatalogConfigurations)
	mapKW := keywordAlternation(vocab.MapConfigurations)
	projKW := keywordAlternation(vocab.ProjectConfigurations)

	patterns := map[string]string{
		"direct": `(` + kw + `)[ \('"]+(` + coordPart + `):(` + coordPart + `)(?::(` + versionPart + `))?['"\)]*`,
		"map": `(` + mapKW + `)\s*\(?\s*group\s*[:=]\s*['"](` + coordPart + `)['"]\s*,\s*name\s*[:=]\s*['"](` + coordPart +
			`)['"]\s*,\s*version\s*[:=]\s*['"]([\w.\-\$\{\}\[\],]+)['"]`,
		"platform": `(` + kw + `)[ \('"]+` + platformFn + `\(\s*['"](` + coordPart + `):(` + coordPart + `):(` + versionPart + `)['"\)]*`,
		"catalog": `(` + catKW + `)\s*\(?\s*` + platformFn + `\(?\s*([\w.]+)\s*\)*|(` + catKW + `)\s*\(?\s*([\w.]+)\s*\)?`,
		"projectPath": `(` + projKW + `)[\s\(]+project\s*\(\s*(?:path\s*[:=]\s*)?['"]((?::[\w\-.]+)*:([\w\-.]+))['"][^)]*\)`,
		"projectAccessor": `(` + projKW + `)\s*\(\s*projects\.([\w.]+)\s*\)`,
	}

	compiled := make(map[string]*regexp.Regexp, len(patterns))
	for name, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile %s recognizer: %w", name, err)
		}
		compiled[name] = re
	}

	return &Extractor{
		vocab:           vocab,
		direct:          compiled["direct"],
		mapStyle:        compiled["map"],
		platform:        compiled["platform"],
		catalog:         compiled["catalog"],
		projectPath:     compiled["projectPath"],
		projectAccessor: compiled["projectAccessor"],
	}, nil
}

// mustNewExtractor is NewExtractor for vocabularies known to be valid.
func mustNewExtractor(vocab Vocabulary) *Extractor {
	e, err := NewExtractor(vocab)
	if err != nil {
		panic(err)
	}
	return e
}

// Extract runs every recognizer over content, which should already have its
// comments stripped. Declarations are grouped by recognizer in the order:
// direct, map, platform, catalog, submodule, application.
func (e *Extractor) Extract(content string) []Declaration {
	var out []Declaration
	out = append(out, e.Direct(content)...)
	out = append(out, e.MapStyle(content)...)
	out = append(out, e.Platform(content)...)
	out = append(out, e.Catalog(content)...)
	out = append(out, e.Submodules(content)...)
	if decl, ok := e.Application(content); ok {
		out = append(out, decl)
	}
	return out
}

func (e *Extractor) Direct(content string) []Declaration {
	return coordinateMatches(e.direct, content, KindDirect)
}

func (e *Extractor) MapStyle(content string) []Declaration {
	return coordinateMatches(e.mapStyle, content, KindMap)
}

func (e *Extractor) Platform(content string) []Declaration {
	return coordinateMatches(e.platform, content, KindPlatform)
}

func coordinateMatches(re *regexp.Regexp, content string, kind Kind) []Declaration {
	var out []Declaration
	for _, m := range re.FindAllStringSubmatchIndex(content, -1) {
		out = append(out, Declaration{
			Kind:          kind,
			Configuration: group(content, m, 1),
			Ref: DependencyRef{
				Group:    group(content, m, 2),
				Artifact: group(content, m, 3),
				Version:  strings.TrimSpace(group(content, m, 4)),
			},
			Line: lineAt(content, m[0]),
		})
	}
	return out
}

// Catalog yields accessor tokens such as libs.okhttp or libs.bundles.compose.
// Tokens without a dot cannot name a catalog entry and are dropped here, as
// are typesafe projects.* accessors.
func (e *Extractor) Catalog(content string) []Declaration {
	var out []Declaration
	for _, m := range e.catalog.FindAllStringSubmatchIndex(content, -1) {
		configuration, token := group(content, m, 1), group(content, m, 2)
		if token == "" {
			configuration, token = group(content, m, 3), group(content, m, 4)
		}
		token = strings.Trim(token, ".")
		if !strings.Contains(token, ".") || strings.HasPrefix(token, "projects.") {
			continue
		}
		out = append(out, Declaration{
			Kind:          KindCatalog,
			Configuration: configuration,
			Accessor:      token,
			Line:          lineAt(content, m[0]),
		})
	}
	return out
}

// Submodules yields project(":a:b") / project(path: ":a:b") references and
// typesafe projects.a.b accessors. Name is always the final path segment.
func (e *Extractor) Submodules(content string) []Declaration {
	var out []Declaration
	for _, m := range e.projectPath.FindAllStringSubmatchIndex(content, -1) {
		out = append(out, Declaration{
			Kind:          KindSubmodule,
			Configuration: group(content, m, 1),
			ProjectPath:   group(content, m, 2),
			Name:          group(content, m, 3),
			Line:          lineAt(content, m[0]),
		})
	}
	for _, m := range e.projectAccessor.FindAllStringSubmatchIndex(content, -1) {
		accessor := strings.Trim(group(content, m, 2), ".")
		out = append(out, Declaration{
			Kind:          KindSubmodule,
			Configuration: group(content, m, 1),
			ProjectPath:   ":" + strings.ReplaceAll(accessor, ".", ":"),
			Name:          lastSegment(accessor, "."),
			Line:          lineAt(content, m[0]),
		})
	}
	return out
}

// Application reports whether content carries any application-plugin marker.
// A marker must not run on into a longer name, so libs.plugins.android does
// not match libs.plugins.android.library.
func (e *Extractor) Application(content string) (Declaration, bool) {
	for _, marker := range e.vocab.ApplicationMarkers {
		if marker == "" {
			continue
		}
		if idx := indexMarker(content, marker); idx != -1 {
			return Declaration{Kind: KindApplication, Name: marker, Line: lineAt(content, idx)}, true
		}
	}
	return Declaration{}, false
}

func indexMarker(content, marker string) int {
	for from := 0; from < len(content); {
		idx := strings.Index(content[from:], marker)
		if idx == -1 {
			return -1
		}
		idx += from
		end := idx + len(marker)
		if end == len(content) || !isNameByte(content[end]) {
			return idx
		}
		from = idx + 1
	}
	return -1
}

func isNameByte(b byte) bool {
	return b == '.' || b == '_' ||
		('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}

func group(content string, m []int, n int) string {
	if 2*n+1 >= len(m) || m[2*n] < 0 {
		return ""
	}
	return content[m[2*n]:m[2*n+1]]
}
