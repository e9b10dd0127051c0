package graph

import "sort"

// Subgraph returns the induced subgraph over id plus every node reachable
// from it by directed traversal. Edges are kept only when both endpoints are
// in the reachable set. Returns an empty graph if id is unknown.
func (g *Graph) Subgraph(id string) *Graph {
	sub := New()
	if _, ok := g.nodes[id]; !ok {
		return sub
	}

	reachable := map[string]bool{id: true}
	stack := []string{id}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.edges {
			if e.Source != current || reachable[e.Target] {
				continue
			}
			reachable[e.Target] = true
			stack = append(stack, e.Target)
		}
	}

	for _, nid := range g.nodeOrder {
		if reachable[nid] {
			sub.UpsertNode(*g.nodes[nid])
		}
	}
	for _, e := range g.edges {
		if reachable[e.Source] && reachable[e.Target] {
			sub.UpsertEdge(*e)
		}
	}
	return sub
}

// Identifiers holds the contact identifiers associated with one person node.
// Each set is deduplicated and sorted.
type Identifiers struct {
	Emails    []string
	Usernames []string
	Phones    []string
}

// AssociatedIdentifiers collects contact identifiers around a person node:
// labels of direct neighbors typed email/username/phone, plus email/username
// labels one hop beyond any social_media neighbor. Identity platforms are
// modeled as intermediary nodes between a person and their linked contact
// identifiers, hence the second hop.
func (g *Graph) AssociatedIdentifiers(id string) Identifiers {
	emails := make(map[string]bool)
	usernames := make(map[string]bool)
	phones := make(map[string]bool)

	for _, n := range g.Neighbors(id) {
		switch n.Type {
		case TypeEmail:
			emails[n.Label] = true
		case TypeUsername:
			usernames[n.Label] = true
		case TypePhone:
			phones[n.Label] = true
		}
		if n.Type != TypeSocialMedia {
			continue
		}
		for _, hop := range g.Neighbors(n.ID) {
			switch hop.Type {
			case TypeEmail:
				emails[hop.Label] = true
			case TypeUsername:
				usernames[hop.Label] = true
			}
		}
	}

	return Identifiers{
		Emails:    sortedKeys(emails),
		Usernames: sortedKeys(usernames),
		Phones:    sortedKeys(phones),
	}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
