// Package graph derives a person relationship graph from entities and the
// relationships a conversation discovered.
//
// Build is pure: the same entities and relationships always produce the same
// graph, in the same order. Display filtering (strong/weak toggles) happens
// on a copy through Visible and never changes the built graph.
package graph

import "github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/common"

// Edge types derived from conversation relationships.
const (
	LinkStrong = "STRONG"
	LinkWeak   = "WEAK"
)

// Display defaults for missing entity attributes.
const (
	UnknownDomain   = "未知领域"
	UnknownPosition = "未知职位"
	UnknownGender   = "未知"
	UnknownCountry  = "未知"
)

// Node is one entity in the graph.
type Node struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Domain   string `json:"domain"`
	Position string `json:"position"`
	Gender   string `json:"gender"`
	Country  string `json:"country"`
	Val      int    `json:"val"`
}

// Link is a directed edge between two nodes. Embedded relationships keep
// their own type; discovered ones are STRONG or WEAK.
type Link struct {
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Value       float64 `json:"value"`
}

// Graph is the derived graph. Nodes follow entity order; links list embedded
// relationships first, then discovered ones.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Toggles selects which discovered edge types a view shows.
type Toggles struct {
	ShowStrong bool `json:"show_strong"`
	ShowWeak   bool `json:"show_weak"`
}

// DefaultToggles shows everything.
func DefaultToggles() Toggles {
	return Toggles{ShowStrong: true, ShowWeak: true}
}

// Visible returns a copy of g without the links hidden by t. Links whose type
// is neither STRONG nor WEAK are always shown.
func (g Graph) Visible(t Toggles) Graph {
	out := Graph{
		Nodes: append([]Node(nil), g.Nodes...),
		Links: make([]Link, 0, len(g.Links)),
	}
	if out.Nodes == nil {
		out.Nodes = []Node{}
	}
	for _, l := range g.Links {
		if l.Type == LinkStrong && !t.ShowStrong {
			continue
		}
		if l.Type == LinkWeak && !t.ShowWeak {
			continue
		}
		out.Links = append(out.Links, l)
	}
	return out
}

// IsEmpty reports whether the graph has no nodes.
func (g Graph) IsEmpty() bool {
	return len(g.Nodes) == 0
}

func nodeFromEntity(e common.Entity) Node {
	return Node{
		ID:       e.ID,
		Name:     e.Name,
		Domain:   orDefault(e.Domain, UnknownDomain),
		Position: orDefault(e.Position, UnknownPosition),
		Gender:   orDefault(e.Gender, UnknownGender),
		Country:  orDefault(e.Country, UnknownCountry),
		Val:      1,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
