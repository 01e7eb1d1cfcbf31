// Package contactgraph builds the weighted undirected contact graph of a run.
//
// Nodes are phone numbers; an edge's weight is the number of observed calls
// between the two numbers in either direction. The graph keeps no temporal
// information and is never mutated after Build returns.
package contactgraph

import (
	"sort"

	"github.com/dd0wney/cluso-telco/pkg/correlation"
	"github.com/dd0wney/cluso-telco/pkg/records"
)

// Options controls graph construction.
type Options struct {
	// SelfLoops keeps calls whose source equals their destination as an edge
	// from the node to itself. When false the number still becomes a node.
	SelfLoops bool
}

// Pair is one observed contact.
type Pair struct {
	Source      string
	Destination string
}

// Neighbor is an adjacent node and the weight of the shared edge.
type Neighbor struct {
	Index  int
	Weight int
}

// Edge is an undirected edge with A <= B.
type Edge struct {
	A      string
	B      string
	Weight int
}

// Stats summarizes a build.
type Stats struct {
	Pairs            int `json:"pairs"`
	Nodes            int `json:"nodes"`
	Edges            int `json:"edges"`
	SelfLoops        int `json:"self_loops"`
	DroppedSelfLoops int `json:"dropped_self_loops"`
	SkippedPairs     int `json:"skipped_pairs"`
}

// Graph is an immutable weighted undirected graph over string identifiers.
// Node indices follow ascending identifier order.
type Graph struct {
	nodes []string
	index map[string]int
	adj   [][]Neighbor
	stats Stats
}

type edgeKey struct{ a, b string }

func canonical(x, y string) edgeKey {
	if y < x {
		x, y = y, x
	}
	return edgeKey{a: x, b: y}
}

// Build creates a graph from a pair sequence. The result depends only on the
// multiset of pairs, not on their order. Pairs with an empty endpoint are
// skipped.
func Build(pairs []Pair, opts Options) *Graph {
	stats := Stats{Pairs: len(pairs)}
	seen := make(map[string]struct{})
	weights := make(map[edgeKey]int)

	for _, p := range pairs {
		if p.Source == "" || p.Destination == "" {
			stats.SkippedPairs++
			continue
		}
		seen[p.Source] = struct{}{}
		seen[p.Destination] = struct{}{}
		if p.Source == p.Destination && !opts.SelfLoops {
			stats.DroppedSelfLoops++
			continue
		}
		weights[canonical(p.Source, p.Destination)]++
	}

	nodes := make([]string, 0, len(seen))
	for id := range seen {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)

	index := make(map[string]int, len(nodes))
	for i, id := range nodes {
		index[id] = i
	}

	adj := make([][]Neighbor, len(nodes))
	for k, w := range weights {
		a, b := index[k.a], index[k.b]
		adj[a] = append(adj[a], Neighbor{Index: b, Weight: w})
		if a != b {
			adj[b] = append(adj[b], Neighbor{Index: a, Weight: w})
		} else {
			stats.SelfLoops++
		}
	}
	for _, ns := range adj {
		sort.Slice(ns, func(i, j int) bool { return ns[i].Index < ns[j].Index })
	}

	stats.Nodes = len(nodes)
	stats.Edges = len(weights)
	return &Graph{nodes: nodes, index: index, adj: adj, stats: stats}
}

// FromCalls builds the graph from raw call records.
func FromCalls(calls []records.CallRecord, opts Options) *Graph {
	pairs := make([]Pair, len(calls))
	for i, c := range calls {
		pairs[i] = Pair{Source: c.SourceID, Destination: c.DestinationID}
	}
	return Build(pairs, opts)
}

// FromTowerMatches builds the graph from the calls that have at least one
// tower match. Each call contributes once however many pings it matched.
func FromTowerMatches(matches []correlation.TowerMatch, opts Options) *Graph {
	seen := make(map[int]struct{}, len(matches))
	pairs := make([]Pair, 0, len(matches))
	for _, m := range matches {
		if _, dup := seen[m.CallIndex]; dup {
			continue
		}
		seen[m.CallIndex] = struct{}{}
		pairs = append(pairs, Pair{Source: m.PhoneNumber, Destination: m.CalledNumber})
	}
	return Build(pairs, opts)
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of distinct edges, kept self-loops included.
func (g *Graph) EdgeCount() int { return g.stats.Edges }

// Stats returns build statistics.
func (g *Graph) Stats() Stats { return g.stats }

// Node returns the identifier at index i.
func (g *Graph) Node(i int) string { return g.nodes[i] }

// Nodes returns all identifiers in ascending order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Index returns the index of an identifier.
func (g *Graph) Index(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Neighbors returns the adjacency of node i ordered by index. A kept
// self-loop appears as a neighbor equal to i. The slice must not be modified.
func (g *Graph) Neighbors(i int) []Neighbor { return g.adj[i] }

// Degree returns the number of incident edges of node i. A self-loop counts twice.
func (g *Graph) Degree(i int) int {
	d := len(g.adj[i])
	if g.HasSelfLoop(i) {
		d++
	}
	return d
}

// HasSelfLoop reports whether node i has an edge to itself.
func (g *Graph) HasSelfLoop(i int) bool {
	ns := g.adj[i]
	k := sort.Search(len(ns), func(j int) bool { return ns[j].Index >= i })
	return k < len(ns) && ns[k].Index == i
}

// Weight returns the weight of the edge between a and b, or 0.
func (g *Graph) Weight(a, b string) int {
	ia, ok := g.index[a]
	if !ok {
		return 0
	}
	ib, ok := g.index[b]
	if !ok {
		return 0
	}
	ns := g.adj[ia]
	k := sort.Search(len(ns), func(j int) bool { return ns[j].Index >= ib })
	if k < len(ns) && ns[k].Index == ib {
		return ns[k].Weight
	}
	return 0
}

// Edges returns every edge ordered by (A, B).
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.stats.Edges)
	for i, ns := range g.adj {
		for _, n := range ns {
			if n.Index < i {
				continue
			}
			out = append(out, Edge{A: g.nodes[i], B: g.nodes[n.Index], Weight: n.Weight})
		}
	}
	return out
}

// TotalWeight returns the sum of all edge weights.
func (g *Graph) TotalWeight() int {
	total := 0
	for _, e := range g.Edges() {
		total += e.Weight
	}
	return total
}

// Equal reports whether two graphs have the same nodes and edge weights.
func (g *Graph) Equal(other *Graph) bool {
	if g.NodeCount() != other.NodeCount() || g.EdgeCount() != other.EdgeCount() {
		return false
	}
	for i, id := range g.nodes {
		if other.nodes[i] != id {
			return false
		}
	}
	a, b := g.Edges(), other.Edges()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
