package pipeline

import (
	"time"

	"github.com/dd0wney/cluso-telco/pkg/algorithms"
	"github.com/dd0wney/cluso-telco/pkg/config"
	"github.com/dd0wney/cluso-telco/pkg/contactgraph"
	"github.com/dd0wney/cluso-telco/pkg/export"
	"github.com/dd0wney/cluso-telco/pkg/ingest"
	"github.com/dd0wney/cluso-telco/pkg/records"
)

// SummaryName is the file name of the run summary.
const SummaryName = "summary.json"

// Summary is the machine-readable account of one run.
type Summary struct {
	RunID           string                      `json:"run_id"`
	StartedAt       time.Time                   `json:"started_at"`
	FinishedAt      time.Time                   `json:"finished_at"`
	DurationSeconds float64                     `json:"duration_seconds"`
	Stages          []string                    `json:"stages"`
	Config          *config.Config              `json:"config"`
	Inputs          []ingest.LoadStats          `json:"inputs"`
	Records         records.Counts              `json:"records"`
	VoIPCalls       int                         `json:"voip_calls,omitempty"`
	Correlation     *CorrelationSummary         `json:"correlation,omitempty"`
	Graph           *GraphSummary               `json:"graph,omitempty"`
	TopNodes        []algorithms.NodeCentrality `json:"top_nodes,omitempty"`
	CoLocationPair  []string                    `json:"colocation_pair,omitempty"`
	Findings        map[string]int              `json:"findings"`
	Outputs         []export.Written            `json:"outputs"`
	Warnings        []string                    `json:"warnings"`
}

// CorrelationSummary counts the rows of each correlation pass.
type CorrelationSummary struct {
	TowerMatches         int    `json:"tower_matches"`
	IPMatches            int    `json:"ip_matches"`
	ComprehensiveMatches int    `json:"comprehensive_matches"`
	TowerWindowMinutes   int    `json:"tower_window_minutes"`
	IPWindowMinutes      int    `json:"ip_window_minutes"`
	IPMatchBasis         string `json:"ip_match_basis"`
}

// GraphSummary describes the contact graph and its centrality run.
type GraphSummary struct {
	Source             string             `json:"source"`
	Stats              contactgraph.Stats `json:"stats"`
	Components         int                `json:"components"`
	LargestComponent   int                `json:"largest_component"`
	PageRankIterations int                `json:"pagerank_iterations"`
	PageRankConverged  bool               `json:"pagerank_converged"`
	Degenerate         bool               `json:"degenerate"`
}
