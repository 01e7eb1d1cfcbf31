package algorithms

import (
	"math"
	"testing"

	"github.com/dd0wney/cluso-telco/pkg/contactgraph"
)

func sum(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}

// TestPageRank_EmptyGraph tests PageRank on empty graph
func TestPageRank_EmptyGraph(t *testing.T) {
	result := PageRank(graphOf(), DefaultPageRankOptions())
	if len(result.Scores) != 0 {
		t.Errorf("Expected 0 scores for empty graph, got %d", len(result.Scores))
	}
	if !result.Converged {
		t.Error("Expected empty graph to be converged")
	}
}

// TestPageRank_SingleNode tests PageRank on single node
func TestPageRank_SingleNode(t *testing.T) {
	result := PageRank(graphOf("A", "A"), DefaultPageRankOptions())
	if len(result.Scores) != 1 || result.Scores[0] != 1.0 {
		t.Errorf("Expected single score 1.0, got %v", result.Scores)
	}
}

func TestPageRank_TwoNodes(t *testing.T) {
	result := PageRank(graphOf("A", "B"), DefaultPageRankOptions())
	for i, s := range result.Scores {
		if math.Abs(s-0.5) > 1e-6 {
			t.Errorf("Expected 0.5 for node %d, got %f", i, s)
		}
	}
}

// TestPageRank_Star checks the hub score against the closed form of the
// damped walk on a five-leaf star.
func TestPageRank_Star(t *testing.T) {
	g := starGraph()
	result := PageRank(g, DefaultPageRankOptions())

	hub := scoreOf(t, g, result.Scores, "H")
	if math.Abs(hub-0.131250/0.2775) > 1e-4 {
		t.Errorf("Expected hub score ~0.47297, got %f", hub)
	}
	for _, leaf := range []string{"L1", "L2", "L3", "L4", "L5"} {
		if s := scoreOf(t, g, result.Scores, leaf); s >= hub {
			t.Errorf("Leaf %s score %f not below hub %f", leaf, s, hub)
		}
	}
	if math.Abs(sum(result.Scores)-1.0) > 1e-9 {
		t.Errorf("Expected scores to sum to 1, got %f", sum(result.Scores))
	}
}

// TestPageRank_Cycle tests PageRank on a cycle where all nodes are equal
func TestPageRank_Cycle(t *testing.T) {
	result := PageRank(graphOf("A", "B", "B", "C", "C", "D", "D", "A"), DefaultPageRankOptions())
	for i, s := range result.Scores {
		if math.Abs(s-0.25) > 1e-6 {
			t.Errorf("Expected 0.25 for node %d, got %f", i, s)
		}
	}
}

func TestPageRank_Weighted(t *testing.T) {
	pairs := []contactgraph.Pair{{Source: "A", Destination: "C"}}
	for i := 0; i < 10; i++ {
		pairs = append(pairs, contactgraph.Pair{Source: "A", Destination: "B"})
	}
	g := contactgraph.Build(pairs, contactgraph.Options{})

	weighted := PageRank(g, DefaultPageRankOptions())
	if b, c := scoreOf(t, g, weighted.Scores, "B"), scoreOf(t, g, weighted.Scores, "C"); b <= c {
		t.Errorf("Expected heavier contact B (%f) above C (%f)", b, c)
	}

	opts := DefaultPageRankOptions()
	opts.Weighted = false
	unweighted := PageRank(g, opts)
	if b, c := scoreOf(t, g, unweighted.Scores, "B"), scoreOf(t, g, unweighted.Scores, "C"); math.Abs(b-c) > 1e-9 {
		t.Errorf("Expected equal unweighted scores, got %f and %f", b, c)
	}
}

func TestPageRank_DanglingNode(t *testing.T) {
	// X only ever called itself, so it has no edge once self-loops are dropped
	g := graphOf("A", "B", "X", "X")
	result := PageRank(g, DefaultPageRankOptions())

	if math.Abs(sum(result.Scores)-1.0) > 1e-9 {
		t.Errorf("Expected scores to sum to 1, got %f", sum(result.Scores))
	}
	x := scoreOf(t, g, result.Scores, "X")
	a := scoreOf(t, g, result.Scores, "A")
	if x >= a {
		t.Errorf("Expected isolated node below connected node, got %f >= %f", x, a)
	}
	if x <= 0 {
		t.Errorf("Expected isolated node to keep teleport mass, got %f", x)
	}
}

// TestPageRank_MaxIterations tests that max iterations is respected
func TestPageRank_MaxIterations(t *testing.T) {
	opts := DefaultPageRankOptions()
	opts.MaxIterations = 1
	opts.Tolerance = 1e-15

	result := PageRank(graphOf("A", "B", "B", "C"), opts)
	if result.Iterations != 1 {
		t.Errorf("Expected 1 iteration, got %d", result.Iterations)
	}
	if result.Converged {
		t.Error("Expected no convergence after 1 iteration")
	}
}

// TestPageRank_InvalidOptions falls back to defaults
func TestPageRank_InvalidOptions(t *testing.T) {
	result := PageRank(starGraph(), PageRankOptions{Weighted: true})
	if !result.Converged || result.Iterations == 0 {
		t.Errorf("Expected default options to converge, got %+v", result)
	}
}

// TestDefaultPageRankOptions tests default options
func TestDefaultPageRankOptions(t *testing.T) {
	opts := DefaultPageRankOptions()

	if opts.DampingFactor != 0.85 {
		t.Errorf("Expected damping factor 0.85, got %f", opts.DampingFactor)
	}
	if opts.MaxIterations != 100 {
		t.Errorf("Expected max iterations 100, got %d", opts.MaxIterations)
	}
	if opts.Tolerance != 1e-6 {
		t.Errorf("Expected tolerance 1e-6, got %f", opts.Tolerance)
	}
	if !opts.Weighted {
		t.Error("Expected weighted PageRank by default")
	}
}

func TestTopNodes(t *testing.T) {
	nodes := []string{"D", "A", "C", "B", "E"}
	scores := []float64{0.1, 0.3, 0.3, 0.2, 0.05}

	top := TopNodes(nodes, scores, 3)
	want := []string{"A", "C", "B"}
	if len(top) != len(want) {
		t.Fatalf("Expected %d nodes, got %d", len(want), len(top))
	}
	for i, id := range want {
		if top[i].Node != id {
			t.Errorf("Position %d: expected %s, got %s", i, id, top[i].Node)
		}
	}

	if got := TopNodes(nodes, scores, 0); got != nil {
		t.Errorf("Expected nil for k=0, got %v", got)
	}
	if got := TopNodes(nodes, scores, 10); len(got) != 5 {
		t.Errorf("Expected all 5 nodes, got %d", len(got))
	}
}
