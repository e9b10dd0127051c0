package graph

import (
	"testing"
)

// buildIdentityGraph wires person -> {email, phone, social_media, company},
// social_media -> {email2, username}, and a disconnected person.
func buildIdentityGraph() *Graph {
	g := New()
	g.UpsertNode(Node{ID: "p1", Label: "John Doe", Type: TypePerson})
	g.UpsertNode(Node{ID: "e1", Label: "john@doe.dev", Type: TypeEmail})
	g.UpsertNode(Node{ID: "ph1", Label: "+15550100", Type: TypePhone})
	g.UpsertNode(Node{ID: "sm1", Label: "twitter.com/jdoe", Type: TypeSocialMedia})
	g.UpsertNode(Node{ID: "e2", Label: "jdoe@social.net", Type: TypeEmail})
	g.UpsertNode(Node{ID: "u1", Label: "jdoe", Type: TypeUsername})
	g.UpsertNode(Node{ID: "c1", Label: "Acme", Type: TypeCompany})
	g.UpsertNode(Node{ID: "p2", Label: "Unrelated Person", Type: TypePerson})

	g.UpsertEdge(Edge{Source: "p1", Target: "e1", Relationship: "owns email"})
	g.UpsertEdge(Edge{Source: "p1", Target: "ph1", Relationship: "phone number"})
	g.UpsertEdge(Edge{Source: "p1", Target: "sm1", Relationship: "has profile"})
	g.UpsertEdge(Edge{Source: "p1", Target: "c1", Relationship: "works at"})
	g.UpsertEdge(Edge{Source: "sm1", Target: "e2", Relationship: "registered with"})
	g.UpsertEdge(Edge{Source: "sm1", Target: "u1", Relationship: "handle"})
	return g
}

func TestSubgraph_ContainsExactlyReachableNodes(t *testing.T) {
	g := buildIdentityGraph()
	sub := g.Subgraph("p1")

	want := []string{"p1", "e1", "ph1", "sm1", "e2", "u1", "c1"}
	if sub.NodeCount() != len(want) {
		t.Fatalf("expected %d nodes, got %d", len(want), sub.NodeCount())
	}
	for _, id := range want {
		if _, ok := sub.Node(id); !ok {
			t.Errorf("reachable node %q missing from subgraph", id)
		}
	}
	if _, ok := sub.Node("p2"); ok {
		t.Error("unreachable node p2 must not appear in subgraph")
	}
	if sub.EdgeCount() != 6 {
		t.Errorf("expected 6 induced edges, got %d", sub.EdgeCount())
	}
}

func TestSubgraph_UnknownNode(t *testing.T) {
	g := buildIdentityGraph()
	sub := g.Subgraph("nope")
	if sub.NodeCount() != 0 || sub.EdgeCount() != 0 {
		t.Errorf("unknown root must yield empty subgraph, got %d/%d", sub.NodeCount(), sub.EdgeCount())
	}
}

func TestSubgraph_FollowsDirectedEdgesOnly(t *testing.T) {
	g := New()
	g.UpsertNode(Node{ID: "a", Label: "A", Type: TypePerson})
	g.UpsertNode(Node{ID: "b", Label: "B", Type: TypePerson})
	g.UpsertEdge(Edge{Source: "b", Target: "a", Relationship: "knows"})

	sub := g.Subgraph("a")
	if sub.NodeCount() != 1 {
		t.Errorf("incoming edges must not be traversed, got %d nodes", sub.NodeCount())
	}
}

func TestAssociatedIdentifiers_DirectNeighbors(t *testing.T) {
	g := buildIdentityGraph()
	ids := g.AssociatedIdentifiers("p1")

	if len(ids.Phones) != 1 || ids.Phones[0] != "+15550100" {
		t.Errorf("unexpected phones: %v", ids.Phones)
	}
	if len(ids.Usernames) != 1 || ids.Usernames[0] != "jdoe" {
		t.Errorf("unexpected usernames: %v", ids.Usernames)
	}
}

func TestAssociatedIdentifiers_TwoHopThroughSocialMedia(t *testing.T) {
	g := buildIdentityGraph()
	ids := g.AssociatedIdentifiers("p1")

	found := false
	for _, e := range ids.Emails {
		if e == "jdoe@social.net" {
			found = true
		}
	}
	if !found {
		t.Errorf("email behind social_media node missing: %v", ids.Emails)
	}
	if len(ids.Emails) != 2 {
		t.Errorf("expected direct + two-hop email, got %v", ids.Emails)
	}
}

func TestAssociatedIdentifiers_NoPhonesBeyondSocialMedia(t *testing.T) {
	g := buildIdentityGraph()
	g.UpsertNode(Node{ID: "ph2", Label: "+15550199", Type: TypePhone})
	g.UpsertEdge(Edge{Source: "sm1", Target: "ph2", Relationship: "recovery phone"})

	ids := g.AssociatedIdentifiers("p1")
	for _, p := range ids.Phones {
		if p == "+15550199" {
			t.Error("two-hop collection covers email/username only, not phone")
		}
	}
}

func TestAssociatedIdentifiers_Dedupes(t *testing.T) {
	g := buildIdentityGraph()
	// Same email value reachable both directly and through the platform node.
	g.UpsertNode(Node{ID: "e3", Label: "john@doe.dev", Type: TypeEmail})
	g.UpsertEdge(Edge{Source: "sm1", Target: "e3", Relationship: "registered with"})

	ids := g.AssociatedIdentifiers("p1")
	seen := make(map[string]int)
	for _, e := range ids.Emails {
		seen[e]++
	}
	if seen["john@doe.dev"] != 1 {
		t.Errorf("duplicate email values must collapse: %v", ids.Emails)
	}
}
