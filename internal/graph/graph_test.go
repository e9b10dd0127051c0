package graph

import (
	"encoding/json"
	"testing"
)

func seedGraph(t *testing.T) *Graph {
	t.Helper()
	g := New()
	g.UpsertNode(Node{ID: "person_1", Label: "John Doe", Type: TypePerson, Source: "https://example.com/a"})
	g.UpsertNode(Node{ID: "company_1", Label: "Acme", Type: TypeCompany, Source: "https://example.com/a"})
	g.UpsertEdge(Edge{Source: "person_1", Target: "company_1", Relationship: "works at"})
	return g
}

func TestGraph_UpsertNode_New(t *testing.T) {
	g := New()
	if !g.UpsertNode(Node{ID: "n1", Label: "x", Type: TypeEmail}) {
		t.Error("expected insert to report a new node")
	}
	if g.NodeCount() != 1 {
		t.Errorf("expected 1 node, got %d", g.NodeCount())
	}
}

func TestGraph_UpsertNode_MergeDoesNotIncreaseCount(t *testing.T) {
	g := seedGraph(t)
	before := g.NodeCount()

	inserted := g.UpsertNode(Node{
		ID:         "person_1",
		Label:      "John A. Doe",
		Type:       TypePerson,
		Source:     "https://example.com/b",
		Annotation: "middle initial from second source",
	})
	if inserted {
		t.Error("expected merge, not insert")
	}
	if g.NodeCount() != before {
		t.Errorf("node count changed on id collision: %d -> %d", before, g.NodeCount())
	}

	n, _ := g.Node("person_1")
	if n.Label != "John A. Doe" {
		t.Errorf("expected label overwrite, got %q", n.Label)
	}
	if n.Source != "https://example.com/b" {
		t.Errorf("expected source overwrite, got %q", n.Source)
	}
}

func TestGraph_UpsertNode_MergeKeepsExistingWhenIncomingEmpty(t *testing.T) {
	g := seedGraph(t)
	g.UpsertNode(Node{ID: "person_1", Label: "", Type: "", Annotation: "seen again"})

	n, _ := g.Node("person_1")
	if n.Label != "John Doe" || n.Type != TypePerson {
		t.Errorf("empty incoming attributes must not clear existing ones: %+v", n)
	}
	if n.Annotation != "seen again" {
		t.Errorf("expected annotation appended, got %q", n.Annotation)
	}
}

func TestGraph_UpsertNode_AnnotationAppendsNotReplaces(t *testing.T) {
	g := New()
	g.UpsertNode(Node{ID: "e1", Label: "a@b.com", Type: TypeEmail, Annotation: "first"})
	g.UpsertNode(Node{ID: "e1", Label: "a@b.com", Type: TypeEmail, Annotation: "second"})

	n, _ := g.Node("e1")
	if n.Annotation != "first; second" {
		t.Errorf("expected appended annotation, got %q", n.Annotation)
	}
}

func TestGraph_UpsertEdge_CollapsesDuplicateTriple(t *testing.T) {
	g := seedGraph(t)
	before := g.EdgeCount()

	if g.UpsertEdge(Edge{Source: "person_1", Target: "company_1", Relationship: "works at", Annotation: "confirmed by bio"}) {
		t.Error("duplicate triple must collapse, not insert")
	}
	if g.EdgeCount() != before {
		t.Errorf("edge count changed on duplicate triple: %d -> %d", before, g.EdgeCount())
	}

	edges := g.Edges()
	if edges[0].Annotation != "confirmed by bio" {
		t.Errorf("expected merged annotation, got %q", edges[0].Annotation)
	}
}

func TestGraph_UpsertEdge_DifferentRelationshipsCoexist(t *testing.T) {
	g := seedGraph(t)
	if !g.UpsertEdge(Edge{Source: "person_1", Target: "company_1", Relationship: "founded"}) {
		t.Error("distinct relationship between same pair must insert")
	}
	if g.EdgeCount() != 2 {
		t.Errorf("expected 2 edges, got %d", g.EdgeCount())
	}
}

func TestGraph_NodeLinkRoundTrip(t *testing.T) {
	g := seedGraph(t)
	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	restored := New()
	if err := json.Unmarshal(data, restored); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if restored.NodeCount() != g.NodeCount() || restored.EdgeCount() != g.EdgeCount() {
		t.Errorf("round trip changed counts: %d/%d -> %d/%d",
			g.NodeCount(), g.EdgeCount(), restored.NodeCount(), restored.EdgeCount())
	}
	n, ok := restored.Node("person_1")
	if !ok || n.Label != "John Doe" {
		t.Errorf("round trip lost node attributes: %+v", n)
	}
}

func TestGraph_PersonNodes(t *testing.T) {
	g := seedGraph(t)
	g.UpsertNode(Node{ID: "person_2", Label: "john doe (author)", Type: TypePerson})
	g.UpsertNode(Node{ID: "person_3", Label: "Jane Smith", Type: TypePerson})

	matches := g.PersonNodes("John Doe")
	if len(matches) != 2 {
		t.Fatalf("expected 2 matching person nodes, got %d", len(matches))
	}
	if matches[0].ID != "person_1" || matches[1].ID != "person_2" {
		t.Errorf("unexpected person match order: %s, %s", matches[0].ID, matches[1].ID)
	}
}
