package graph

import "encoding/json"

// nodeLink is the persisted node-link form of the graph. The shape matches
// the run artifacts consumed by the visualization and the enrich command.
type nodeLink struct {
	Directed   bool           `json:"directed"`
	Multigraph bool           `json:"multigraph"`
	Graph      map[string]any `json:"graph"`
	Nodes      []Node         `json:"nodes"`
	Edges      []Edge         `json:"edges"`
}

// MarshalJSON serializes the graph in node-link form.
func (g *Graph) MarshalJSON() ([]byte, error) {
	nl := nodeLink{
		Directed:   true,
		Multigraph: true,
		Graph:      map[string]any{},
		Nodes:      make([]Node, 0, len(g.nodeOrder)),
		Edges:      make([]Edge, 0, len(g.edges)),
	}
	for _, id := range g.nodeOrder {
		nl.Nodes = append(nl.Nodes, *g.nodes[id])
	}
	for _, e := range g.edges {
		nl.Edges = append(nl.Edges, *e)
	}
	return json.Marshal(nl)
}

// UnmarshalJSON rebuilds a graph from its node-link form.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var nl nodeLink
	if err := json.Unmarshal(data, &nl); err != nil {
		return err
	}
	*g = *New()
	for _, n := range nl.Nodes {
		g.UpsertNode(n)
	}
	for _, e := range nl.Edges {
		g.UpsertEdge(e)
	}
	return nil
}

// ContextJSON serializes the graph as indented node-link JSON for inclusion
// in an oracle prompt.
func (g *Graph) ContextJSON() (string, error) {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
