package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initIngestMetrics() {
	r.RecordsLoaded = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "telco_records_loaded",
			Help: "Rows loaded per input table",
		},
		[]string{"table"},
	)

	r.RecordsSkipped = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "telco_records_skipped",
			Help: "Rows rejected at the input boundary per table",
		},
		[]string{"table"},
	)

	r.FieldsCoerced = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "telco_fields_coerced",
			Help: "Malformed fields replaced by a missing value",
		},
		[]string{"table", "field"},
	)

	r.InputsMissing = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "telco_inputs_missing_total",
			Help: "Input tables that were absent or lacked a required column",
		},
		[]string{"table"},
	)
}
