package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initCorrelationMetrics() {
	r.CorrelationMatches = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "telco_correlation_matches",
			Help: "Matched rows per correlation pass",
		},
		[]string{"pass"},
	)

	r.CorrelationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telco_correlation_duration_seconds",
			Help:    "Correlation pass duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 30.0},
		},
		[]string{"pass"},
	)
}
