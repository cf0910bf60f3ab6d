package parser

import "strings"

// Vocabulary holds the configuration keywords and marker tokens the
// recognizers are compiled from. Quoted entries (e.g. "PlayStoreImplementation")
// are matched verbatim, quotes included.
type Vocabulary struct {
	// Configurations introduce direct and platform declarations.
	Configurations []string
	// CatalogConfigurations introduce version-catalog accessor declarations.
	CatalogConfigurations []string
	// MapConfigurations introduce group/name/version declarations.
	MapConfigurations []string
	// ProjectConfigurations introduce submodule references.
	ProjectConfigurations []string
	// ApplicationMarkers identify the Android application plugin.
	ApplicationMarkers []string
}

var baseConfigurations = []string{
	"implementation",
	"api",
	"compile",
	"runtimeOnly",
	"releaseCompile",
	"releaseImplementation",
	"coreLibraryDesugaring",
	"natives",
	"appengineSdk",
	"withAnalyticsImplementation",
	"androidImplementation",
	"nightlyImplementation",
	"gplayImplementation",
	"playImplementation",
	"playstoreImplementation",
	"largeImplementation",
	"amazonImplementation",
	"githubImplementation",
	"pureImplementation",
	`"PlayStoreImplementation"`,
}

func DefaultVocabulary() Vocabulary {
	catalog := append([]string{}, baseConfigurations...)
	catalog = append(catalog,
		"firebaseImplementation",
		`"marketImplementation"`,
		`"fullImplementation"`,
		`"minimalImplementation"`,
	)

	return Vocabulary{
		Configurations:        append([]string{}, baseConfigurations...),
		CatalogConfigurations: catalog,
		MapConfigurations:     []string{"compile", "implementation", "api"},
		ProjectConfigurations: []string{"annotationProcessor", "compile", "implementation", "api", `"PlayStoreImplementation"`},
		ApplicationMarkers: []string{
			"android.application",
			"androidApplication",
			"libs.plugins.android.application",
			"libs.plugins.android",
		},
	}
}

// WithConfigurations returns a copy that also recognizes extra dependency
// configurations in the direct, platform and catalog recognizers.
func (v Vocabulary) WithConfigurations(extra ...string) Vocabulary {
	out := Vocabulary{
		Configurations:        appendUnique(nil, v.Configurations...),
		CatalogConfigurations: appendUnique(nil, v.CatalogConfigurations...),
		MapConfigurations:     appendUnique(nil, v.MapConfigurations...),
		ProjectConfigurations: appendUnique(nil, v.ProjectConfigurations...),
		ApplicationMarkers:    appendUnique(nil, v.ApplicationMarkers...),
	}
	out.Configurations = appendUnique(out.Configurations, extra...)
	out.CatalogConfigurations = appendUnique(out.CatalogConfigurations, extra...)
	return out
}

// WithMarkers returns a copy with additional application-plugin markers.
func (v Vocabulary) WithMarkers(extra ...string) Vocabulary {
	out := v.WithConfigurations()
	out.ApplicationMarkers = appendUnique(out.ApplicationMarkers, extra...)
	return out
}

func appendUnique(values []string, extra ...string) []string {
	seen := make(map[string]bool, len(values)+len(extra))
	for _, v := range values {
		seen[v] = true
	}
	for _, v := range extra {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values
}
