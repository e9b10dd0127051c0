package graph

import (
	"sort"
	"strings"
)

// Node types produced by the reasoning oracle. The oracle may emit other
// domain-specific types (publication, project, event, ...); these constants
// cover the types the engine itself branches on.
const (
	TypePerson      = "person"
	TypeEmail       = "email"
	TypePhone       = "phone"
	TypeUsername    = "username"
	TypeCompany     = "company"
	TypeLocation    = "location"
	TypeSocialMedia = "social_media"
	TypeFamily      = "family"
	TypeColleague   = "colleague"
)

// Confidence values for nodes.
const (
	ConfidenceConfirmed       = "confirmed"
	ConfidencePossiblyRelated = "possibly related"
)

// Node is a single entity in the knowledge graph. For atomic-value types
// (email, phone, username, ...) Label holds only the bare value; qualifying
// context belongs in Annotation.
type Node struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Type       string `json:"type"`
	Source     string `json:"source,omitempty"`
	Confidence string `json:"confidence,omitempty"`
	Annotation string `json:"_comment,omitempty"`
}

// Edge is a directed relationship between two nodes. Multiple edges between
// the same pair with different relationship labels are meaningful; identical
// (source, target, relationship) triples collapse onto one edge.
type Edge struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	Relationship string `json:"relationship"`
	Annotation   string `json:"_comment,omitempty"`
}

type edgeKey struct {
	source, target, relationship string
}

// Graph is a directed knowledge graph built incrementally by merging oracle
// deltas. It is owned by a single pipeline run and is not safe for concurrent
// mutation; the assembler is the sole writer.
type Graph struct {
	nodes     map[string]*Node
	nodeOrder []string
	edges     []*Edge
	edgeIndex map[edgeKey]*Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:     make(map[string]*Node),
		edgeIndex: make(map[edgeKey]*Edge),
	}
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Node returns the node with the given id, if present.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// UpsertNode inserts a node or merges attributes onto an existing node with
// the same id. Merging is an attribute-level union: non-empty incoming values
// overwrite, except the annotation, which is appended. Returns true if a new
// node was inserted.
func (g *Graph) UpsertNode(n Node) bool {
	existing, ok := g.nodes[n.ID]
	if !ok {
		copied := n
		g.nodes[n.ID] = &copied
		g.nodeOrder = append(g.nodeOrder, n.ID)
		return true
	}

	if n.Label != "" {
		existing.Label = n.Label
	}
	if n.Type != "" {
		existing.Type = n.Type
	}
	if n.Source != "" {
		existing.Source = n.Source
	}
	if n.Confidence != "" {
		existing.Confidence = n.Confidence
	}
	existing.Annotation = appendAnnotation(existing.Annotation, n.Annotation)
	return false
}

// UpsertEdge inserts an edge or collapses it onto an existing edge with the
// same (source, target, relationship) triple, appending the annotation.
// Returns true if a new edge was inserted.
func (g *Graph) UpsertEdge(e Edge) bool {
	key := edgeKey{e.Source, e.Target, e.Relationship}
	if existing, ok := g.edgeIndex[key]; ok {
		existing.Annotation = appendAnnotation(existing.Annotation, e.Annotation)
		return false
	}
	copied := e
	g.edges = append(g.edges, &copied)
	g.edgeIndex[key] = &copied
	return true
}

// Neighbors returns the target nodes of all outgoing edges from id.
func (g *Graph) Neighbors(id string) []*Node {
	var out []*Node
	seen := make(map[string]bool)
	for _, e := range g.edges {
		if e.Source != id || seen[e.Target] {
			continue
		}
		if n, ok := g.nodes[e.Target]; ok {
			out = append(out, n)
			seen[e.Target] = true
		}
	}
	return out
}

// PersonNodes returns all person nodes whose label contains the subject name,
// sorted by id. Used for the person-selection step after a run.
func (g *Graph) PersonNodes(subject string) []*Node {
	var out []*Node
	for _, id := range g.nodeOrder {
		n := g.nodes[id]
		if n.Type == TypePerson && strings.Contains(strings.ToLower(n.Label), strings.ToLower(subject)) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func appendAnnotation(existing, incoming string) string {
	incoming = strings.TrimSpace(incoming)
	if incoming == "" {
		return existing
	}
	if existing == "" {
		return incoming
	}
	if strings.Contains(existing, incoming) {
		return existing
	}
	return existing + "; " + incoming
}
