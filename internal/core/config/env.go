package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: GRADLEDEPS_[SECTION]_[KEY] (e.g., GRADLEDEPS_DB_PATH).
func ApplyEnvOverrides(cfg *Config) {
	// Database
	setEnvBool(&cfg.DB.Enabled, "GRADLEDEPS_DB_ENABLED")
	setEnvString(&cfg.DB.Path, "GRADLEDEPS_DB_PATH")
	setEnvDuration(&cfg.DB.BusyTimeout, "GRADLEDEPS_DB_BUSY_TIMEOUT")

	// Output
	setEnvString(&cfg.Output.TSV, "GRADLEDEPS_OUTPUT_TSV")
	setEnvString(&cfg.Output.Mermaid, "GRADLEDEPS_OUTPUT_MERMAID")
	setEnvString(&cfg.Output.Metrics, "GRADLEDEPS_OUTPUT_METRICS")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "GRADLEDEPS_WATCH_DEBOUNCE")

	// Batch
	setEnvInt(&cfg.Batch.Workers, "GRADLEDEPS_BATCH_WORKERS")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddr, "GRADLEDEPS_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "GRADLEDEPS_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.OTLPInsecure, "GRADLEDEPS_OBSERVABILITY_OTLP_INSECURE")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
