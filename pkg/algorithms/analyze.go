package algorithms

import (
	"sort"

	"github.com/dd0wney/cluso-telco/pkg/contactgraph"
)

// NodeCentrality is one row of the centrality table.
type NodeCentrality struct {
	Node        string  `json:"node"`
	Degree      float64 `json:"degree_centrality"`
	Betweenness float64 `json:"betweenness_centrality"`
	Closeness   float64 `json:"closeness_centrality"`
	PageRank    float64 `json:"pagerank"`
	Component   int     `json:"component"`
}

// CentralityAnalysis is the ranked centrality of every node of a graph.
type CentralityAnalysis struct {
	Nodes              []NodeCentrality
	Components         *ComponentResult
	PageRankIterations int
	PageRankConverged  bool
}

// Degenerate reports whether the graph had fewer than two nodes.
func (a *CentralityAnalysis) Degenerate() bool {
	return len(a.Nodes) < 2
}

// Top returns the first k rows by PageRank.
func (a *CentralityAnalysis) Top(k int) []NodeCentrality {
	if k <= 0 || k >= len(a.Nodes) {
		return a.Nodes
	}
	return a.Nodes[:k]
}

// TopBy returns the k best nodes under an arbitrary measure.
func (a *CentralityAnalysis) TopBy(k int, measure func(NodeCentrality) float64) []RankedNode {
	nodes := make([]string, len(a.Nodes))
	scores := make([]float64, len(a.Nodes))
	for i, row := range a.Nodes {
		nodes[i] = row.Node
		scores[i] = measure(row)
	}
	return TopNodes(nodes, scores, k)
}

// AnalyzeCentrality computes degree, betweenness, closeness and PageRank for
// every node and sorts the rows by PageRank descending, ties by node. An empty
// graph yields no rows. A single node scores degree 0, betweenness 0 and
// PageRank 1.
func AnalyzeCentrality(g *contactgraph.Graph, opts PageRankOptions) *CentralityAnalysis {
	n := g.NodeCount()
	if n == 0 {
		return &CentralityAnalysis{
			Nodes:             []NodeCentrality{},
			Components:        &ComponentResult{NodeComponent: map[string]int{}},
			PageRankConverged: true,
		}
	}

	degree := DegreeCentrality(g)
	betweenness := BetweennessCentrality(g)
	closeness := ClosenessCentrality(g)
	pagerank := PageRank(g, opts)
	components := ConnectedComponents(g)

	rows := make([]NodeCentrality, n)
	for i := 0; i < n; i++ {
		id := g.Node(i)
		rows[i] = NodeCentrality{
			Node:        id,
			Degree:      degree[i],
			Betweenness: betweenness[i],
			Closeness:   closeness[i],
			PageRank:    pagerank.Scores[i],
			Component:   components.NodeComponent[id],
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].PageRank != rows[j].PageRank {
			return rows[i].PageRank > rows[j].PageRank
		}
		return rows[i].Node < rows[j].Node
	})

	return &CentralityAnalysis{
		Nodes:              rows,
		Components:         components,
		PageRankIterations: pagerank.Iterations,
		PageRankConverged:  pagerank.Converged,
	}
}
