package algorithms

import (
	"github.com/dd0wney/cluso-telco/pkg/contactgraph"
)

// brandesBetweenness runs one O(VE) Brandes pass over the unweighted topology
// and returns raw node betweenness. Each unordered pair is counted from both
// endpoints; BetweennessCentrality normalises for that. Self-loops are never
// on a shortest path and are ignored.
func brandesBetweenness(g *contactgraph.Graph) []float64 {
	n := g.NodeCount()
	betweenness := make([]float64, n)

	sigma := make([]float64, n)
	distance := make([]int, n)
	delta := make([]float64, n)
	predecessors := make([][]int, n)
	stack := make([]int, 0, n)
	queue := make([]int, 0, n)

	for source := 0; source < n; source++ {
		for i := 0; i < n; i++ {
			sigma[i] = 0
			distance[i] = -1
			delta[i] = 0
			predecessors[i] = predecessors[i][:0]
		}
		stack = stack[:0]
		queue = append(queue[:0], source)

		sigma[source] = 1
		distance[source] = 0

		for head := 0; head < len(queue); head++ {
			v := queue[head]
			stack = append(stack, v)

			for _, nb := range g.Neighbors(v) {
				w := nb.Index
				if w == v {
					continue
				}
				if distance[w] < 0 {
					queue = append(queue, w)
					distance[w] = distance[v] + 1
				}
				if distance[w] == distance[v]+1 {
					sigma[w] += sigma[v]
					predecessors[w] = append(predecessors[w], v)
				}
			}
		}

		// Back-propagation of pair dependencies
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range predecessors[w] {
				delta[v] += (sigma[v] / sigma[w]) * (1.0 + delta[w])
			}
			if w != source {
				betweenness[w] += delta[w]
			}
		}
	}

	return betweenness
}

// BetweennessCentrality computes normalised betweenness for every node,
// indexed like the graph. Values lie in [0, 1]; graphs with fewer than three
// nodes score 0 everywhere.
func BetweennessCentrality(g *contactgraph.Graph) []float64 {
	n := g.NodeCount()
	if n < 3 {
		return make([]float64, n)
	}

	betweenness := brandesBetweenness(g)
	normFactor := 1.0 / float64((n-1)*(n-2))
	for i := range betweenness {
		betweenness[i] *= normFactor
	}
	return betweenness
}

// DegreeCentrality returns each node's edge count divided by n-1. A self-loop
// contributes two to the edge count.
func DegreeCentrality(g *contactgraph.Graph) []float64 {
	n := g.NodeCount()
	degree := make([]float64, n)
	if n < 2 {
		return degree
	}
	for i := 0; i < n; i++ {
		degree[i] = float64(g.Degree(i)) / float64(n-1)
	}
	return degree
}

// ClosenessCentrality measures the inverse average hop distance from a node to
// the nodes it can reach, scaled by the reachable share of the graph so that
// small components do not dominate.
func ClosenessCentrality(g *contactgraph.Graph) []float64 {
	n := g.NodeCount()
	closeness := make([]float64, n)
	if n < 2 {
		return closeness
	}

	distance := make([]int, n)
	queue := make([]int, 0, n)

	for source := 0; source < n; source++ {
		for i := range distance {
			distance[i] = -1
		}
		distance[source] = 0
		queue = append(queue[:0], source)

		totalDistance, reachable := 0, 0
		for head := 0; head < len(queue); head++ {
			v := queue[head]
			for _, nb := range g.Neighbors(v) {
				w := nb.Index
				if distance[w] < 0 {
					distance[w] = distance[v] + 1
					totalDistance += distance[w]
					reachable++
					queue = append(queue, w)
				}
			}
		}

		if totalDistance > 0 {
			r := float64(reachable)
			closeness[source] = (r / float64(totalDistance)) * (r / float64(n-1))
		}
	}

	return closeness
}
