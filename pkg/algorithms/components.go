package algorithms

import (
	"sort"

	"github.com/dd0wney/cluso-telco/pkg/contactgraph"
)

// ConnectedComponents finds all connected components in the graph. Components
// are ordered by size descending, then by their smallest node; IDs follow
// that order.
func ConnectedComponents(g *contactgraph.Graph) *ComponentResult {
	n := g.NodeCount()
	visited := make([]bool, n)
	var groups [][]int

	// BFS to find each component
	queue := make([]int, 0, n)
	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}

		members := []int{}
		queue = append(queue[:0], start)
		visited[start] = true

		for head := 0; head < len(queue); head++ {
			v := queue[head]
			members = append(members, v)
			for _, nb := range g.Neighbors(v) {
				if !visited[nb.Index] {
					visited[nb.Index] = true
					queue = append(queue, nb.Index)
				}
			}
		}
		sort.Ints(members)
		groups = append(groups, members)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if len(groups[i]) != len(groups[j]) {
			return len(groups[i]) > len(groups[j])
		}
		return groups[i][0] < groups[j][0]
	})

	result := &ComponentResult{
		Components:    make([]*Component, 0, len(groups)),
		NodeComponent: make(map[string]int, n),
	}
	for id, members := range groups {
		c := &Component{ID: id, Size: len(members), Nodes: make([]string, len(members))}
		for i, v := range members {
			c.Nodes[i] = g.Node(v)
			result.NodeComponent[g.Node(v)] = id
			for _, nb := range g.Neighbors(v) {
				if nb.Index > v {
					c.Edges++
					c.Weight += nb.Weight
				} else if nb.Index == v {
					c.Weight += nb.Weight
				}
			}
		}
		if c.Size > 1 {
			c.Density = float64(c.Edges) / (float64(c.Size) * float64(c.Size-1) / 2)
		}
		result.Components = append(result.Components, c)
	}

	return result
}
