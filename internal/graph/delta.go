package graph

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Delta is the oracle's proposed additive set of nodes and edges for one
// document. Empty nodes and edges form a valid no-op.
type Delta struct {
	Nodes      []Node `json:"nodes"`
	Edges      []Edge `json:"edges"`
	Annotation string `json:"_comment,omitempty"`
}

// Empty reports whether the delta carries no nodes and no edges.
func (d *Delta) Empty() bool {
	return len(d.Nodes) == 0 && len(d.Edges) == 0
}

// ParseDelta extracts a delta from the oracle's response text. The oracle is
// instructed to return a single JSON object, but responses are routinely
// wrapped in surrounding prose; the first balanced object literal is located
// and parsed. Malformed JSON gets one repair attempt before rejection.
func ParseDelta(text string) (*Delta, error) {
	candidate := firstObject(text)
	if candidate == "" {
		candidate = strings.TrimSpace(text)
	}
	if candidate == "" {
		return nil, fmt.Errorf("empty oracle response")
	}

	var d Delta
	if err := json.Unmarshal([]byte(candidate), &d); err == nil {
		return &d, nil
	}

	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		return nil, fmt.Errorf("repair delta: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &d); err != nil {
		return nil, fmt.Errorf("parse delta: %w", err)
	}
	return &d, nil
}

// firstObject returns the first balanced {...} literal in text, respecting
// string literals and escapes. Returns "" if no balanced object is found.
func firstObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// ApplyStats describes what a merge changed and which entries were rejected.
type ApplyStats struct {
	NodesAdded  int
	NodesMerged int
	EdgesAdded  int
	EdgesMerged int
	Dropped     []string
}

// Apply merges a delta into the graph. Nodes are applied before edges so an
// edge may reference a node introduced by the same delta. Entries failing
// structural validation are dropped individually and reported in the stats;
// the valid remainder still applies.
func (g *Graph) Apply(d *Delta) ApplyStats {
	var stats ApplyStats

	for _, n := range d.Nodes {
		if n.ID == "" || n.Label == "" || n.Type == "" {
			stats.Dropped = append(stats.Dropped, fmt.Sprintf("node %q: missing id, label or type", n.ID))
			continue
		}
		if g.UpsertNode(n) {
			stats.NodesAdded++
		} else {
			stats.NodesMerged++
		}
	}

	for _, e := range d.Edges {
		if e.Source == "" || e.Target == "" || e.Relationship == "" {
			stats.Dropped = append(stats.Dropped, fmt.Sprintf("edge %q->%q: missing source, target or relationship", e.Source, e.Target))
			continue
		}
		if _, ok := g.nodes[e.Source]; !ok {
			stats.Dropped = append(stats.Dropped, fmt.Sprintf("edge %q->%q: unknown source node", e.Source, e.Target))
			continue
		}
		if _, ok := g.nodes[e.Target]; !ok {
			stats.Dropped = append(stats.Dropped, fmt.Sprintf("edge %q->%q: unknown target node", e.Source, e.Target))
			continue
		}
		if g.UpsertEdge(e) {
			stats.EdgesAdded++
		} else {
			stats.EdgesMerged++
		}
	}

	return stats
}
