package graph

import (
	"fmt"
	"strings"
)

// ToDOT returns the graph in Graphviz DOT format. Node fill and edge colors
// match the force graph view.
func (g Graph) ToDOT() string {
	var w strings.Builder
	w.WriteString("digraph Relationships {\n")
	w.WriteString("  rankdir=LR;\n")
	w.WriteString("  node [shape=ellipse, style=filled, fontname=\"Noto Sans CJK SC\"];\n")

	for _, n := range g.Nodes {
		label := fmt.Sprintf("%s\n%s\n%s", n.Name, n.Position, n.Domain)
		fmt.Fprintf(&w, "  %s [label=%s, fillcolor=%s];\n", dotID(n.ID), dotID(label), dotID(NodeColor(n)))
	}

	for _, l := range g.Links {
		fmt.Fprintf(&w, "  %s -> %s [label=%s, color=%s, penwidth=%.2f];\n",
			dotID(l.Source), dotID(l.Target), dotID(l.Type), dotID(LinkColor(l)), l.Value*3)
	}

	w.WriteString("}\n")
	return w.String()
}

// dotID quotes s as a DOT string literal.
func dotID(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}
