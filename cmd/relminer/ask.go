package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/conversation"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/common"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/graph"
)

func askCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask the analysts about the relationships between entities",
		ArgsUsage: "QUESTION",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "entity",
				Aliases:  []string{"e"},
				Usage:    "Entity id to include (repeatable)",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "dot",
				Usage: "Print the resulting relationship graph as DOT",
			},
		},
		Action: runAsk,
	}
}

func runAsk(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return errors.New("a question is required")
	}

	client, err := newClient(c)
	if err != nil {
		return err
	}
	entities, err := fetchEntities(c, client, c.StringSlice("entity"))
	if err != nil {
		return err
	}

	settled := make(chan conversation.State, 1)
	ctl := conversation.NewController(conversation.NewControllerParams{
		API:      client,
		Interval: pollInterval(c),
		OnSettled: func(s conversation.State) {
			select {
			case settled <- s:
			default:
			}
		},
	})
	defer ctl.Close()

	if err := ctl.Send(c.Context, question, entities); err != nil {
		return err
	}

	var state conversation.State
	select {
	case <-c.Context.Done():
		return c.Context.Err()
	case state = <-settled:
	}

	if c.Bool("dot") {
		fmt.Fprint(c.App.Writer, graph.Build(entities, state.Relationships).ToDOT())
		return nil
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, struct {
			conversation.State
			Messages []conversation.MessageView `json:"messages"`
		}{state, conversation.Decorate(state.Messages)})
	}

	w := c.App.Writer
	for _, m := range conversation.Decorate(state.Messages) {
		fmt.Fprintf(w, "[%s] %s\n\n", m.Display.Label, m.Content)
	}
	if state.Summary != "" {
		fmt.Fprintf(w, "Summary: %s\n", state.Summary)
	}
	if len(state.Relationships) > 0 {
		fmt.Fprintln(w, "Relationships:")
		for _, r := range state.Relationships {
			fmt.Fprintf(w, "  %s: %s\n", r.Source, r.Description)
		}
	}
	if state.Status == common.StatusFailed {
		return errors.New("conversation failed")
	}
	return nil
}
