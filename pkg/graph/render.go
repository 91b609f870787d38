package graph

import "fmt"

// Colors used by the force graph view.
const (
	ColorFemale = "#ff6b81"
	ColorOther  = "#5352ed"
	ColorStrong = "red"
	ColorWeak   = "blue"
)

// EmptyText is shown instead of an empty graph.
const EmptyText = "暂无关系数据"

// LayoutHints tell the renderer how to settle the force layout. The view
// zooms to fit whenever the data changes and again when the engine stops.
type LayoutHints struct {
	ZoomToFitMs   int  `json:"zoom_to_fit_ms"`
	CooldownTicks int  `json:"cooldown_ticks"`
	NodeRelSize   int  `json:"node_rel_size"`
	FitOnChange   bool `json:"fit_on_change"`
	FitOnSettle   bool `json:"fit_on_settle"`
}

// DefaultLayoutHints matches the browser view.
func DefaultLayoutHints() LayoutHints {
	return LayoutHints{
		ZoomToFitMs:   400,
		CooldownTicks: 100,
		NodeRelSize:   6,
		FitOnChange:   true,
		FitOnSettle:   true,
	}
}

type RenderNode struct {
	Node
	Label string `json:"label"`
	Color string `json:"color"`
}

type RenderLink struct {
	Link
	Label         string  `json:"label"`
	Color         string  `json:"color"`
	Width         float64 `json:"width"`
	Particles     int     `json:"particles"`
	ParticleWidth float64 `json:"particle_width"`
}

type Legend struct {
	Label string `json:"label"`
	Color string `json:"color"`
	Shown bool   `json:"shown"`
}

// Render is the payload a force graph view draws directly.
type Render struct {
	Nodes     []RenderNode `json:"nodes"`
	Links     []RenderLink `json:"links"`
	Toggles   Toggles      `json:"toggles"`
	Legend    []Legend     `json:"legend"`
	Layout    LayoutHints  `json:"layout"`
	Empty     bool         `json:"empty"`
	EmptyText string       `json:"empty_text,omitempty"`
}

// NodeColor returns the fill color of a node.
func NodeColor(n Node) string {
	if n.Gender == "女" {
		return ColorFemale
	}
	return ColorOther
}

// LinkColor returns the stroke color of a link.
func LinkColor(l Link) string {
	if l.Type == LinkStrong {
		return ColorStrong
	}
	return ColorWeak
}

// NodeLabel is the hover text of a node: "name (position, domain)".
func NodeLabel(n Node) string {
	return fmt.Sprintf("%s (%s, %s)", n.Name, orDefault(n.Position, UnknownPosition), orDefault(n.Domain, UnknownDomain))
}

// LinkLabel is the hover text of a link: its description or the type name.
func LinkLabel(l Link) string {
	if l.Description != "" {
		return l.Description
	}
	if l.Type == LinkStrong {
		return "强关系"
	}
	return "弱关系"
}

// NewRender builds the render payload of g as seen through t.
func NewRender(g Graph, t Toggles) Render {
	view := g.Visible(t)

	r := Render{
		Nodes:   make([]RenderNode, 0, len(view.Nodes)),
		Links:   make([]RenderLink, 0, len(view.Links)),
		Toggles: t,
		Legend: []Legend{
			{Label: "强关系", Color: ColorStrong, Shown: t.ShowStrong},
			{Label: "弱关系", Color: ColorWeak, Shown: t.ShowWeak},
		},
		Layout: DefaultLayoutHints(),
		Empty:  view.IsEmpty(),
	}
	if r.Empty {
		r.EmptyText = EmptyText
	}

	for _, n := range view.Nodes {
		r.Nodes = append(r.Nodes, RenderNode{Node: n, Label: NodeLabel(n), Color: NodeColor(n)})
	}
	for _, l := range view.Links {
		r.Links = append(r.Links, RenderLink{
			Link:          l,
			Label:         LinkLabel(l),
			Color:         LinkColor(l),
			Width:         l.Value * 3,
			Particles:     2,
			ParticleWidth: l.Value * 2,
		})
	}
	return r
}

// Graph returns the nodes and links the render shows, without display data.
func (r Render) Graph() Graph {
	g := Graph{
		Nodes: make([]Node, 0, len(r.Nodes)),
		Links: make([]Link, 0, len(r.Links)),
	}
	for _, n := range r.Nodes {
		g.Nodes = append(g.Nodes, n.Node)
	}
	for _, l := range r.Links {
		g.Links = append(g.Links, l.Link)
	}
	return g
}
