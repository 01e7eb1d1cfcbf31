package contactgraph

import (
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/cluso-telco/pkg/correlation"
	"github.com/dd0wney/cluso-telco/pkg/records"
)

func TestBuildWeights(t *testing.T) {
	g := Build([]Pair{
		{"A", "B"},
		{"B", "A"},
		{"A", "C"},
		{"A", "B"},
	}, Options{})

	if g.NodeCount() != 3 {
		t.Fatalf("Expected 3 nodes, got %d", g.NodeCount())
	}
	if g.EdgeCount() != 2 {
		t.Fatalf("Expected 2 edges, got %d", g.EdgeCount())
	}
	if w := g.Weight("A", "B"); w != 3 {
		t.Errorf("Expected A-B weight 3, got %d", w)
	}
	if w := g.Weight("B", "A"); w != 3 {
		t.Errorf("Expected B-A weight 3, got %d", w)
	}
	if w := g.Weight("B", "C"); w != 0 {
		t.Errorf("Expected no B-C edge, got %d", w)
	}
	if g.TotalWeight() != 4 {
		t.Errorf("Expected total weight 4, got %d", g.TotalWeight())
	}

	want := []Edge{{"A", "B", 3}, {"A", "C", 1}}
	got := g.Edges()
	if len(got) != len(want) {
		t.Fatalf("Expected %d edges, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Edge %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestBuildSelfLoops(t *testing.T) {
	pairs := []Pair{{"A", "A"}, {"A", "B"}, {"C", "C"}}

	dropped := Build(pairs, Options{SelfLoops: false})
	if dropped.NodeCount() != 3 {
		t.Errorf("Expected self-calling numbers to remain nodes, got %d nodes", dropped.NodeCount())
	}
	if dropped.EdgeCount() != 1 {
		t.Errorf("Expected 1 edge, got %d", dropped.EdgeCount())
	}
	if dropped.Stats().DroppedSelfLoops != 2 {
		t.Errorf("Expected 2 dropped self-loops, got %d", dropped.Stats().DroppedSelfLoops)
	}
	c, _ := dropped.Index("C")
	if dropped.Degree(c) != 0 {
		t.Errorf("Expected isolated C, got degree %d", dropped.Degree(c))
	}

	kept := Build(pairs, Options{SelfLoops: true})
	if kept.EdgeCount() != 3 {
		t.Errorf("Expected 3 edges, got %d", kept.EdgeCount())
	}
	a, _ := kept.Index("A")
	if !kept.HasSelfLoop(a) {
		t.Error("Expected self-loop on A")
	}
	if kept.Degree(a) != 3 {
		t.Errorf("Expected degree 3 for A (self-loop counts twice), got %d", kept.Degree(a))
	}
	if kept.Weight("A", "A") != 1 {
		t.Errorf("Expected self-loop weight 1, got %d", kept.Weight("A", "A"))
	}
	if kept.Stats().SelfLoops != 2 {
		t.Errorf("Expected 2 kept self-loops, got %d", kept.Stats().SelfLoops)
	}
}

func TestBuildSkipsEmptyEndpoints(t *testing.T) {
	g := Build([]Pair{{"", "B"}, {"A", ""}, {"A", "B"}}, Options{})
	if g.NodeCount() != 2 || g.Stats().SkippedPairs != 2 {
		t.Errorf("Expected 2 nodes and 2 skipped pairs, got %d and %d", g.NodeCount(), g.Stats().SkippedPairs)
	}
}

func TestBuildEmpty(t *testing.T) {
	g := Build(nil, Options{})
	if g.NodeCount() != 0 || g.EdgeCount() != 0 || len(g.Edges()) != 0 {
		t.Errorf("Expected empty graph")
	}
}

func TestNodesSorted(t *testing.T) {
	g := Build([]Pair{{"9", "1"}, {"5", "3"}}, Options{})
	nodes := g.Nodes()
	for i := 1; i < len(nodes); i++ {
		if nodes[i-1] >= nodes[i] {
			t.Fatalf("Nodes not sorted: %v", nodes)
		}
	}
	for i, id := range nodes {
		if j, ok := g.Index(id); !ok || j != i || g.Node(i) != id {
			t.Errorf("Index mismatch for %s", id)
		}
	}
}

func TestFromCalls(t *testing.T) {
	calls := []records.CallRecord{
		{SourceID: "A", DestinationID: "B"},
		{SourceID: "B", DestinationID: "A"},
	}
	g := FromCalls(calls, Options{})
	if g.Weight("A", "B") != 2 {
		t.Errorf("Expected weight 2, got %d", g.Weight("A", "B"))
	}
}

func TestFromTowerMatchesCountsCallsOnce(t *testing.T) {
	matches := []correlation.TowerMatch{
		{CallIndex: 0, PhoneNumber: "A", CalledNumber: "B"},
		{CallIndex: 0, PhoneNumber: "A", CalledNumber: "B"},
		{CallIndex: 3, PhoneNumber: "A", CalledNumber: "B"},
		{CallIndex: 4, PhoneNumber: "C", CalledNumber: "A"},
	}
	g := FromTowerMatches(matches, Options{})
	if g.Weight("A", "B") != 2 {
		t.Errorf("Expected weight 2, got %d", g.Weight("A", "B"))
	}
	if g.NodeCount() != 3 {
		t.Errorf("Expected 3 nodes, got %d", g.NodeCount())
	}
}

// TestBuildIdempotence checks that any permutation of the same pairs yields
// an identical graph.
func TestBuildIdempotence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	number := gen.IntRange(0, 7).Map(func(i int) string { return string(rune('A' + i)) })
	pair := gopter.CombineGens(number, number).Map(func(v []any) Pair {
		return Pair{Source: v[0].(string), Destination: v[1].(string)}
	})

	properties.Property("order does not change the graph", prop.ForAll(
		func(pairs []Pair, seed int64, selfLoops bool) bool {
			opts := Options{SelfLoops: selfLoops}
			first := Build(pairs, opts)

			shuffled := append([]Pair(nil), pairs...)
			rand.New(rand.NewSource(seed)).Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})
			second := Build(shuffled, opts)

			return first.Equal(second) && second.Equal(first)
		},
		gen.SliceOf(pair),
		gen.Int64(),
		gen.Bool(),
	))

	properties.Property("reversing pairs does not change the graph", prop.ForAll(
		func(pairs []Pair) bool {
			reversed := make([]Pair, len(pairs))
			for i, p := range pairs {
				reversed[i] = Pair{Source: p.Destination, Destination: p.Source}
			}
			return Build(pairs, Options{}).Equal(Build(reversed, Options{}))
		},
		gen.SliceOf(pair),
	))

	properties.Property("total weight equals kept pairs", prop.ForAll(
		func(pairs []Pair) bool {
			g := Build(pairs, Options{})
			return g.TotalWeight() == len(pairs)-g.Stats().DroppedSelfLoops
		},
		gen.SliceOf(pair),
	))

	properties.TestingRun(t)
}
