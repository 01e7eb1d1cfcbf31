package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initAnalysisMetrics() {
	r.Findings = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "telco_findings",
			Help: "Rows per derived analysis table",
		},
		[]string{"table"},
	)
}

func (r *Registry) initRunMetrics() {
	r.StageDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telco_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 30.0, 120.0},
		},
		[]string{"stage"},
	)

	r.StageErrors = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "telco_stage_errors_total",
			Help: "Pipeline stages that failed",
		},
		[]string{"stage"},
	)

	r.RunDuration = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "telco_run_duration_seconds",
			Help: "Wall time of the analysis run in seconds",
		},
	)

	r.RunTimestamp = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "telco_run_timestamp_seconds",
			Help: "Unix time at which the analysis run finished",
		},
	)

	r.OutputsWritten = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "telco_outputs_written_total",
			Help: "Output files written by the run",
		},
	)
}
