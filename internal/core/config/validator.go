package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Validate reports every problem found rather than stopping at the first.
func Validate(cfg *Config) []error {
	var errs []error

	if cfg.Version != 1 {
		errs = append(errs, fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version))
	}

	for i, p := range cfg.ScanPaths {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Errorf("scan_paths[%d] must not be empty", i))
		}
	}

	errs = append(errs, validateDescriptors(cfg)...)
	errs = append(errs, validateGlobs("exclude.dirs", cfg.Exclude.Dirs)...)
	errs = append(errs, validateGlobs("label.sentinel", []string{cfg.Label.Sentinel})...)

	if strings.ContainsAny(cfg.Label.FileName, `/\`) {
		errs = append(errs, fmt.Errorf("label.file_name %q must be a bare file name", cfg.Label.FileName))
	}

	if cfg.DB.Enabled && strings.TrimSpace(cfg.DB.Path) == "" {
		errs = append(errs, fmt.Errorf("db.path must not be empty when db is enabled"))
	}

	if cfg.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative, got %s", cfg.Watch.Debounce))
	}
	if cfg.Watch.Rate < 0 {
		errs = append(errs, fmt.Errorf("watch.rate must not be negative, got %v", cfg.Watch.Rate))
	}
	if cfg.Watch.Burst < 1 {
		errs = append(errs, fmt.Errorf("watch.burst must be >= 1, got %d", cfg.Watch.Burst))
	}

	if cfg.Batch.Workers < 1 {
		errs = append(errs, fmt.Errorf("batch.workers must be >= 1, got %d", cfg.Batch.Workers))
	}

	errs = append(errs, validateOutput(cfg)...)
	return errs
}

func validateDescriptors(cfg *Config) []error {
	var errs []error
	d := cfg.Descriptors
	if len(d.BuildFiles) == 0 {
		errs = append(errs, fmt.Errorf("descriptors.build_files must not be empty"))
	}
	for i, name := range d.BuildFiles {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, `/\`) {
			errs = append(errs, fmt.Errorf("descriptors.build_files[%d] %q must be a bare file name", i, name))
		}
	}
	if len(d.SettingsFiles) == 0 {
		errs = append(errs, fmt.Errorf("descriptors.settings_files must not be empty"))
	}
	if strings.TrimSpace(d.PropertiesFile) == "" {
		errs = append(errs, fmt.Errorf("descriptors.properties_file must not be empty"))
	}
	errs = append(errs, validateGlobs("descriptors.catalogs", d.Catalogs)...)
	return errs
}

func validateGlobs(field string, patterns []string) []error {
	var errs []error
	for i, p := range patterns {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Errorf("%s[%d] must not be empty", field, i))
			continue
		}
		if _, err := glob.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("%s[%d] %q is not a valid glob: %v", field, i, p, err))
		}
	}
	return errs
}

func validateOutput(cfg *Config) []error {
	targets := []struct {
		name string
		path string
	}{
		{"output.tsv", cfg.Output.TSV},
		{"output.mermaid", cfg.Output.Mermaid},
		{"output.metrics", cfg.Output.Metrics},
	}

	var errs []error
	seen := make(map[string]string, len(targets))
	for _, target := range targets {
		path := strings.TrimSpace(target.path)
		if path == "" {
			continue
		}
		key := filepath.Clean(path)
		if prev, ok := seen[key]; ok {
			errs = append(errs, fmt.Errorf("output conflict: %s and %s share the same path %q", prev, target.name, key))
			continue
		}
		seen[key] = target.name
	}
	return errs
}
