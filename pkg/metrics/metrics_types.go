package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the metrics of one analysis run. Each run owns its own
// registry so that concurrent runs never share counters.
type Registry struct {
	// Ingest Metrics
	RecordsLoaded  *prometheus.GaugeVec
	RecordsSkipped *prometheus.GaugeVec
	FieldsCoerced  *prometheus.GaugeVec
	InputsMissing  *prometheus.CounterVec

	// Correlation Metrics
	CorrelationMatches  *prometheus.GaugeVec
	CorrelationDuration *prometheus.HistogramVec

	// Graph Metrics
	GraphNodes          prometheus.Gauge
	GraphEdges          prometheus.Gauge
	GraphComponents     prometheus.Gauge
	PageRankIterations  prometheus.Gauge
	PageRankConverged   prometheus.Gauge
	GraphSelfLoopsDrops prometheus.Gauge

	// Analysis Metrics
	Findings *prometheus.GaugeVec

	// Run Metrics
	StageDuration  *prometheus.HistogramVec
	StageErrors    *prometheus.CounterVec
	RunDuration    prometheus.Gauge
	RunTimestamp   prometheus.Gauge
	OutputsWritten prometheus.Counter

	registry *prometheus.Registry
	mu       sync.Mutex
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	// Initialize all metrics
	r.initIngestMetrics()
	r.initCorrelationMetrics()
	r.initGraphMetrics()
	r.initAnalysisMetrics()
	r.initRunMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
