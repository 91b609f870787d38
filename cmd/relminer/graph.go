package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/common"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/graph"
)

func graphCommand() *cli.Command {
	return &cli.Command{
		Name:  "graph",
		Usage: "Build the relationship graph of a set of entities",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "entity",
				Aliases:  []string{"e"},
				Usage:    "Entity id to include (repeatable)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "conversation",
				Usage: "Add the relationships discovered in this conversation",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: text, json or dot",
				Value: "text",
			},
			&cli.BoolFlag{Name: "hide-strong", Usage: "Hide strong discovered links"},
			&cli.BoolFlag{Name: "hide-weak", Usage: "Hide weak discovered links"},
		},
		Action: runGraph,
	}
}

func runGraph(c *cli.Context) error {
	format := c.String("format")
	if c.Bool("json") {
		format = "json"
	}
	switch format {
	case "text", "json", "dot":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	client, err := newClient(c)
	if err != nil {
		return err
	}
	entities, err := fetchEntities(c, client, c.StringSlice("entity"))
	if err != nil {
		return err
	}

	var discovered []common.DiscoveredRelationship
	if id := c.String("conversation"); id != "" {
		discovered, err = client.GetConversationRelationships(c.Context, id)
		if err != nil {
			return err
		}
	}

	toggles := graph.Toggles{ShowStrong: !c.Bool("hide-strong"), ShowWeak: !c.Bool("hide-weak")}
	g := graph.Build(entities, discovered).Visible(toggles)

	w := c.App.Writer
	switch format {
	case "json":
		return writeJSON(w, graph.NewRender(g, toggles))
	case "dot":
		_, err := fmt.Fprint(w, g.ToDOT())
		return err
	}

	names := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		names[n.ID] = n.Name
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tTARGET\tTYPE\tVALUE\tDESCRIPTION")
	for _, l := range g.Links {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n", nameOr(names, l.Source), nameOr(names, l.Target), l.Type, l.Value, l.Description)
	}
	return tw.Flush()
}

func nameOr(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return id
}
