package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TextfileName is the file the run metrics are written to.
const TextfileName = "metrics.prom"

// RecordLoad records the outcome of loading one input table
func (r *Registry) RecordLoad(table string, loaded, skipped int, coerced map[string]int) {
	r.RecordsLoaded.WithLabelValues(table).Set(float64(loaded))
	r.RecordsSkipped.WithLabelValues(table).Set(float64(skipped))
	for field, n := range coerced {
		r.FieldsCoerced.WithLabelValues(table, field).Set(float64(n))
	}
}

// RecordMissingInput records an absent input table
func (r *Registry) RecordMissingInput(table string) {
	r.InputsMissing.WithLabelValues(table).Inc()
}

// RecordCorrelation records a correlation pass
func (r *Registry) RecordCorrelation(pass string, matches int, duration time.Duration) {
	r.CorrelationMatches.WithLabelValues(pass).Set(float64(matches))
	r.CorrelationDuration.WithLabelValues(pass).Observe(duration.Seconds())
}

// UpdateGraphMetrics updates contact graph metrics
func (r *Registry) UpdateGraphMetrics(nodes, edges, components, droppedSelfLoops int) {
	r.GraphNodes.Set(float64(nodes))
	r.GraphEdges.Set(float64(edges))
	r.GraphComponents.Set(float64(components))
	r.GraphSelfLoopsDrops.Set(float64(droppedSelfLoops))
}

// RecordPageRank records how PageRank terminated
func (r *Registry) RecordPageRank(iterations int, converged bool) {
	r.PageRankIterations.Set(float64(iterations))
	if converged {
		r.PageRankConverged.Set(1)
	} else {
		r.PageRankConverged.Set(0)
	}
}

// RecordFindings records the row count of a derived table
func (r *Registry) RecordFindings(table string, rows int) {
	r.Findings.WithLabelValues(table).Set(float64(rows))
}

// RecordStage records a pipeline stage with its duration
func (r *Registry) RecordStage(stage string, duration time.Duration, err error) {
	r.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if err != nil {
		r.StageErrors.WithLabelValues(stage).Inc()
	}
}

// FinishRun records the total run time
func (r *Registry) FinishRun(started, finished time.Time) {
	r.RunDuration.Set(finished.Sub(started).Seconds())
	r.RunTimestamp.Set(float64(finished.Unix()))
}

// WriteTextfile writes every metric in the text exposition format to path.
// The file is written to a temporary sibling and renamed into place.
func (r *Registry) WriteTextfile(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
