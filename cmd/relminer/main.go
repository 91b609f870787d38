package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/config"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/util"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/api"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/common"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/logger"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/logger/console"
)

const version = "0.1.0"

func main() {
	util.LoadEnv()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "relminer",
		Usage:   "Upload character data and analyse relationships from the terminal",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "TOML configuration file",
				EnvVars: []string{config.FileEnv},
			},
			&cli.StringFlag{
				Name:  "api-url",
				Usage: "Backend base URL without the /api suffix (default from RELMINER_API_BASE_URL)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout for a single backend request (default from RELMINER_REQUEST_TIMEOUT)",
			},
			&cli.DurationFlag{
				Name:  "poll-interval",
				Usage: "Interval between status polls (default from RELMINER_POLL_INTERVAL)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log controller activity to stderr",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging (implies --verbose)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print results as JSON",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			uploadCommand(),
			entitiesCommand(),
			askCommand(),
			graphCommand(),
		},
	}
}

const configKey = "config"

// setup loads the shared configuration the flags fall back to. The logger
// stays without backends unless asked for, so command output stays clean.
func setup(c *cli.Context) error {
	cfg, err := config.LoadFile(c.String("config"))
	if err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg

	debug := c.Bool("debug") || cfg.Debug
	if !c.Bool("verbose") && !debug {
		return nil
	}
	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		JSON:   cfg.LogFormat == "json",
		Prefix: "relminer",
		Output: c.App.ErrWriter,
	}))
	return nil
}

func loadedConfig(c *cli.Context) config.Config {
	cfg, _ := c.App.Metadata[configKey].(config.Config)
	return cfg
}

func apiURL(c *cli.Context) string {
	if c.IsSet("api-url") {
		return c.String("api-url")
	}
	return loadedConfig(c).APIBaseURL
}

func requestTimeout(c *cli.Context) time.Duration {
	if c.IsSet("timeout") {
		return c.Duration("timeout")
	}
	return loadedConfig(c).RequestTimeout
}

func pollInterval(c *cli.Context) time.Duration {
	if c.IsSet("poll-interval") {
		return c.Duration("poll-interval")
	}
	return loadedConfig(c).PollInterval
}

func newClient(c *cli.Context) (*api.Client, error) {
	return api.NewClient(api.NewClientParams{
		BaseURL: apiURL(c),
		Timeout: requestTimeout(c),
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// fetchEntities loads the given entities concurrently, keeping the order of ids.
func fetchEntities(c *cli.Context, client *api.Client, ids []string) ([]common.Entity, error) {
	entities := make([]common.Entity, len(ids))
	g, ctx := errgroup.WithContext(c.Context)
	g.SetLimit(4)
	for i, id := range ids {
		g.Go(func() error {
			e, err := client.GetEntity(ctx, id)
			if err != nil {
				return fmt.Errorf("entity %s: %w", id, err)
			}
			if e.ID == "" {
				e.ID = id
			}
			entities[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entities, nil
}
