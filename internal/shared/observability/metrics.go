package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ModuleLoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docgraph_module_load_seconds",
		Help:    "Time spent loading a module's source through the loader.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	ParseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docgraph_parse_seconds",
		Help:    "Time spent parsing a module's source.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	GraphModules = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "docgraph_graph_modules_total",
		Help: "Number of modules in the last built module graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "docgraph_graph_edges_total",
		Help: "Number of import/export edges in the last built module graph.",
	})

	NodesEmitted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "docgraph_nodes_emitted_total",
		Help: "Documentation nodes emitted by the last pipeline run.",
	})

	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docgraph_diagnostics_total",
		Help: "Diagnostics emitted, labeled by kind.",
	}, []string{"kind"})

	PipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docgraph_pipeline_seconds",
		Help:    "Time spent in each pipeline phase.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docgraph_watcher_events_total",
		Help: "File system events received by the watcher.",
	})
)
