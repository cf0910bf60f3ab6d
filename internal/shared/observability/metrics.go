package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gradledeps_scan_seconds",
		Help:    "Time spent on a scan stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gradledeps_scans_total",
		Help: "Total number of project scans by outcome.",
	}, []string{"outcome"})

	ModulesDiscovered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gradledeps_modules",
		Help: "Number of modules recorded by the last scan.",
	})

	ModuleEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gradledeps_module_edges",
		Help: "Number of submodule references between recorded modules.",
	})

	DeclarationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gradledeps_declarations_total",
		Help: "Total number of declarations recognized, by kind.",
	}, []string{"kind"})

	UnresolvedPlaceholdersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gradledeps_unresolved_placeholders_total",
		Help: "Total number of placeholders left unresolved in version strings.",
	})

	CyclesDetected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gradledeps_cycles",
		Help: "Number of submodule reference cycles found by the last scan.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gradledeps_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	BatchProjectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gradledeps_batch_projects_total",
		Help: "Total number of batch project units by outcome.",
	}, []string{"outcome"})

	HistoryWriteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gradledeps_history_write_seconds",
		Help:    "Latency for persisting a scan to the history database.",
		Buckets: prometheus.DefBuckets,
	})
)

// WriteTextfile dumps the default registry in the Prometheus text format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
