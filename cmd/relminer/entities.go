package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/common"
)

func entitiesCommand() *cli.Command {
	return &cli.Command{
		Name:  "entities",
		Usage: "Browse entities stored in the backend",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List entities, optionally filtered by name and domain",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Name substring"},
					&cli.StringFlag{Name: "domain", Aliases: []string{"d"}, Usage: "Exact domain"},
				},
				Action: runEntitiesList,
			},
			{
				Name:      "show",
				Usage:     "Show one entity and its relationships",
				ArgsUsage: "ID",
				Action:    runEntitiesShow,
			},
		},
	}
}

func runEntitiesList(c *cli.Context) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}
	entities, err := client.ListEntities(c.Context, c.String("search"), c.String("domain"))
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, entities)
	}
	return printEntities(c.App.Writer, entities)
}

func runEntitiesShow(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("an entity id is required")
	}
	client, err := newClient(c)
	if err != nil {
		return err
	}
	entity, err := client.GetEntity(c.Context, id)
	if err != nil {
		return err
	}
	rels, err := client.GetEntityRelationships(c.Context, id)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return writeJSON(c.App.Writer, struct {
			Entity        common.Entity         `json:"entity"`
			Relationships []common.Relationship `json:"relationships"`
		}{entity, rels})
	}

	w := c.App.Writer
	fmt.Fprintf(w, "%s (%s)\n", entity.Name, entity.ID)
	fmt.Fprintf(w, "  domain:   %s\n  position: %s\n  gender:   %s\n  country:  %s\n",
		entity.Domain, entity.Position, entity.Gender, entity.Country)
	if len(rels) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tTYPE\tCONFIDENCE\tDESCRIPTION")
	for _, r := range rels {
		confidence := "-"
		if r.Confidence != nil {
			confidence = fmt.Sprintf("%.2f", *r.Confidence)
		}
		target := r.TargetName
		if target == "" {
			target = r.TargetID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", target, r.Type, confidence, r.Description)
	}
	return tw.Flush()
}
