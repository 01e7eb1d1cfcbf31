package algorithms

// Component is a maximal set of numbers connected by calls.
type Component struct {
	ID      int      `json:"id"`
	Nodes   []string `json:"nodes"`
	Size    int      `json:"size"`
	Edges   int      `json:"edges"`
	Weight  int      `json:"weight"`
	Density float64  `json:"density"` // Edge density within component
}

// ComponentResult contains the connected components of a contact graph.
type ComponentResult struct {
	Components    []*Component
	NodeComponent map[string]int // Node -> Component ID
}

// Largest returns the largest component, or nil for an empty graph.
func (r *ComponentResult) Largest() *Component {
	if r == nil || len(r.Components) == 0 {
		return nil
	}
	return r.Components[0]
}
