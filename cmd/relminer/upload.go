package main

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sync"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/upload"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/common"
)

func uploadCommand() *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "Upload a character file and wait for entity extraction",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "content-type",
				Usage: "Override the content type guessed from the file extension",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Do not print progress updates",
			},
		},
		Action: runUpload,
	}
}

func runUpload(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("a file to upload is required")
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	client, err := newClient(c)
	if err != nil {
		return err
	}

	contentType := c.String("content-type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(path))
	}

	notices := make(chan common.Notice, 4)
	var (
		mu           sync.Mutex
		lastProgress = -1
	)
	ctl := upload.NewController(upload.NewControllerParams{
		API:      client,
		Interval: pollInterval(c),
		OnNotice: func(n common.Notice) {
			select {
			case notices <- n:
			default:
			}
		},
		OnChange: func(s upload.State) {
			if c.Bool("quiet") {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if s.Progress == lastProgress {
				return
			}
			lastProgress = s.Progress
			fmt.Fprintf(c.App.ErrWriter, "%3d%% %s\n", s.Progress, s.Message)
		},
	})
	defer ctl.Close()

	if err := ctl.Submit(c.Context, filepath.Base(path), contentType, f); err != nil {
		return err
	}

	select {
	case <-c.Context.Done():
		return c.Context.Err()
	case n := <-notices:
		if n.Level == common.NoticeError {
			return errors.New(n.Text)
		}
	}

	entities := ctl.State().Entities
	if c.Bool("json") {
		return writeJSON(c.App.Writer, entities)
	}
	return printEntities(c.App.Writer, entities)
}

func printEntities(w io.Writer, entities []common.Entity) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDOMAIN\tPOSITION\tRELATIONSHIPS")
	for _, e := range entities {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", e.ID, e.Name, e.Domain, e.Position, len(e.Relationships))
	}
	return tw.Flush()
}
