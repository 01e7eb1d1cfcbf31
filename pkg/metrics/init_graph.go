package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "telco_graph_nodes",
			Help: "Numbers in the contact graph",
		},
	)

	r.GraphEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "telco_graph_edges",
			Help: "Distinct contact pairs in the contact graph",
		},
	)

	r.GraphComponents = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "telco_graph_components",
			Help: "Connected components of the contact graph",
		},
	)

	r.PageRankIterations = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "telco_pagerank_iterations",
			Help: "Power iterations used by PageRank",
		},
	)

	r.PageRankConverged = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "telco_pagerank_converged",
			Help: "Whether PageRank converged within the iteration cap (1 = yes)",
		},
	)

	r.GraphSelfLoopsDrops = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "telco_graph_self_loops_dropped",
			Help: "Self-calls left out of the contact graph",
		},
	)
}
