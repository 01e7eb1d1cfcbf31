package algorithms

import (
	"container/heap"
	"math"
	"sort"

	"github.com/dd0wney/cluso-telco/pkg/contactgraph"
)

// PageRankOptions configures PageRank algorithm
type PageRankOptions struct {
	DampingFactor float64 // Usually 0.85
	MaxIterations int
	Tolerance     float64 // Per-node convergence threshold
	Weighted      bool    // Follow edges in proportion to call counts
}

// DefaultPageRankOptions returns default PageRank configuration
func DefaultPageRankOptions() PageRankOptions {
	return PageRankOptions{
		DampingFactor: 0.85,
		MaxIterations: 100,
		Tolerance:     1e-6,
		Weighted:      true,
	}
}

// PageRankResult contains PageRank scores for all nodes, indexed like the graph.
type PageRankResult struct {
	Scores     []float64
	Iterations int
	Converged  bool
}

// PageRank computes the stationary distribution of a damped random walk over
// the contact graph. Each undirected edge is walkable both ways. The mass of
// nodes without edges is spread uniformly. Iteration stops when the L1 change
// drops below n*Tolerance or MaxIterations is reached.
func PageRank(g *contactgraph.Graph, opts PageRankOptions) *PageRankResult {
	n := g.NodeCount()
	if n == 0 {
		return &PageRankResult{Scores: []float64{}, Converged: true}
	}
	if n == 1 {
		return &PageRankResult{Scores: []float64{1.0}, Converged: true}
	}

	defaults := DefaultPageRankOptions()
	if opts.DampingFactor <= 0 || opts.DampingFactor >= 1 {
		opts.DampingFactor = defaults.DampingFactor
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = defaults.MaxIterations
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = defaults.Tolerance
	}

	edgeWeight := func(nb contactgraph.Neighbor) float64 {
		if opts.Weighted {
			return float64(nb.Weight)
		}
		return 1.0
	}

	outWeight := make([]float64, n)
	for i := 0; i < n; i++ {
		for _, nb := range g.Neighbors(i) {
			outWeight[i] += edgeWeight(nb)
		}
	}

	uniform := 1.0 / float64(n)
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = uniform
	}
	newScores := make([]float64, n)

	converged := false
	iterations := 0
	for iterations < opts.MaxIterations {
		iterations++

		dangling := 0.0
		for i := 0; i < n; i++ {
			if outWeight[i] == 0 {
				dangling += scores[i]
			}
		}

		base := opts.DampingFactor*dangling*uniform + (1.0-opts.DampingFactor)*uniform
		for i := range newScores {
			newScores[i] = base
		}
		for i := 0; i < n; i++ {
			if outWeight[i] == 0 {
				continue
			}
			share := opts.DampingFactor * scores[i] / outWeight[i]
			for _, nb := range g.Neighbors(i) {
				newScores[nb.Index] += share * edgeWeight(nb)
			}
		}

		diff := 0.0
		for i := range scores {
			diff += math.Abs(newScores[i] - scores[i])
		}
		scores, newScores = newScores, scores

		if diff < float64(n)*opts.Tolerance {
			converged = true
			break
		}
	}

	// Normalize scores to sum to 1
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	if sum > 0 {
		for i := range scores {
			scores[i] /= sum
		}
	}

	return &PageRankResult{
		Scores:     scores,
		Iterations: iterations,
		Converged:  converged,
	}
}

// RankedNode represents a node with its rank
type RankedNode struct {
	Node  string  `json:"node"`
	Score float64 `json:"score"`
}

// rankedNodeHeap is a min-heap by score. Among equal scores the
// lexicographically larger node sits nearer the root, so it is evicted first.
type rankedNodeHeap []RankedNode

func (h rankedNodeHeap) Len() int { return len(h) }
func (h rankedNodeHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].Node > h[j].Node
}
func (h rankedNodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *rankedNodeHeap) Push(x any) {
	*h = append(*h, x.(RankedNode))
}

func (h *rankedNodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// TopNodes returns the k highest-scoring nodes, score descending then node
// ascending. Time complexity is O(n log k).
func TopNodes(nodes []string, scores []float64, k int) []RankedNode {
	if k <= 0 {
		return nil
	}

	h := make(rankedNodeHeap, 0, k)
	heap.Init(&h)

	for i, node := range nodes {
		rn := RankedNode{Node: node, Score: scores[i]}
		if h.Len() < k {
			heap.Push(&h, rn)
		} else if better(rn, h[0]) {
			heap.Pop(&h)
			heap.Push(&h, rn)
		}
	}

	result := make([]RankedNode, h.Len())
	for i := h.Len() - 1; i >= 0; i-- {
		result[i] = heap.Pop(&h).(RankedNode)
	}

	sort.SliceStable(result, func(i, j int) bool { return better(result[i], result[j]) })
	return result
}

func better(a, b RankedNode) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Node < b.Node
}
