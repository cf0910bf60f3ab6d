package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const DefaultPath = "gradledeps.toml"

type Config struct {
	Version       int           `toml:"version"`
	ScanPaths     []string      `toml:"scan_paths"`
	Descriptors   Descriptors   `toml:"descriptors"`
	Exclude       Exclude       `toml:"exclude"`
	Vocabulary    Vocabulary    `toml:"vocabulary"`
	Label         Label         `toml:"label"`
	Output        Output        `toml:"output"`
	DB            Database      `toml:"db"`
	Watch         Watch         `toml:"watch"`
	Batch         Batch         `toml:"batch"`
	Observability Observability `toml:"observability"`
	Warnings      Warnings      `toml:"warnings"`
}

// Descriptors names the files a project is made of.
type Descriptors struct {
	BuildFiles     []string `toml:"build_files"`     // first match per directory wins
	SettingsFiles  []string `toml:"settings_files"`  // marks a project root together with a build file
	PropertiesFile string   `toml:"properties_file"` // root-level key = value file
	Catalogs       []string `toml:"catalogs"`        // version catalog file globs
}

type Exclude struct {
	Dirs []string `toml:"dirs"` // directory name globs
}

type Vocabulary struct {
	ExtraConfigurations []string `toml:"extra_configurations"`
	ExtraMarkers        []string `toml:"extra_markers"`
}

type Label struct {
	Enabled  *bool  `toml:"enabled"`
	FileName string `toml:"file_name"`
	Sentinel string `toml:"sentinel"` // glob; a match in the scanned directory skips writing
}

type Output struct {
	TSV       string `toml:"tsv"`
	Mermaid   string `toml:"mermaid"` // module include diagram
	Metrics   string `toml:"metrics"` // Prometheus text file
	Conflicts *bool  `toml:"conflicts"`
}

type Database struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	Rate     float64       `toml:"rate"` // rescans per second
	Burst    int           `toml:"burst"`
}

type Batch struct {
	Workers int `toml:"workers"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	OTLPInsecure bool   `toml:"otlp_insecure"`
	ServiceName  string `toml:"service_name"`
}

type Warnings struct {
	UnresolvedPlaceholders *bool `toml:"unresolved_placeholders"`
}

func (l Label) IsEnabled() bool {
	if l.Enabled == nil {
		return true
	}
	return *l.Enabled
}

func (o Output) ConflictsEnabled() bool {
	if o.Conflicts == nil {
		return true
	}
	return *o.Conflicts
}

func (w Warnings) UnresolvedEnabled() bool {
	if w.UnresolvedPlaceholders == nil {
		return true
	}
	return *w.UnresolvedPlaceholders
}

// DefaultConfig is used when no config file is present.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, fmt.Errorf("invalid config %s: %w", path, errors.Join(errs...))
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if len(cfg.ScanPaths) == 0 {
		cfg.ScanPaths = []string{"."}
	}

	if len(cfg.Descriptors.BuildFiles) == 0 {
		cfg.Descriptors.BuildFiles = []string{"build.gradle.kts", "build.gradle"}
	}
	if len(cfg.Descriptors.SettingsFiles) == 0 {
		cfg.Descriptors.SettingsFiles = []string{"settings.gradle.kts", "settings.gradle"}
	}
	if strings.TrimSpace(cfg.Descriptors.PropertiesFile) == "" {
		cfg.Descriptors.PropertiesFile = "gradle.properties"
	}
	if len(cfg.Descriptors.Catalogs) == 0 {
		cfg.Descriptors.Catalogs = []string{"*.versions.toml", "*libs.toml"}
	}

	if cfg.Exclude.Dirs == nil {
		cfg.Exclude.Dirs = []string{".git", ".gradle", ".idea", "build", "node_modules"}
	}

	if strings.TrimSpace(cfg.Label.FileName) == "" {
		cfg.Label.FileName = "label.txt"
	}
	if strings.TrimSpace(cfg.Label.Sentinel) == "" {
		cfg.Label.Sentinel = "*.txt"
	}

	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "gradledeps.db"
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 2 * time.Second
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.Rate == 0 {
		cfg.Watch.Rate = 1
	}
	if cfg.Watch.Burst == 0 {
		cfg.Watch.Burst = 1
	}

	if cfg.Batch.Workers == 0 {
		cfg.Batch.Workers = 4
	}

	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "gradledeps"
	}
}
