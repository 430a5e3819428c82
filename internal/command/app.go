package command

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"pkg.jsn.cam/permgen/internal/config"
	"pkg.jsn.cam/permgen/internal/manifest"
	"pkg.jsn.cam/permgen/internal/runner"
)

// NewApp builds the permgen CLI. Progress goes to stdout, logs to stderr.
func NewApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "permgen",
		Usage:     "Generate randomized k/s/r command fixtures for permutation tree end-to-end tests",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     generateFlags(),
		Action:    generateAction,
		Commands: []*cli.Command{
			{
				Name:  "runs",
				Usage: "List runs recorded in a manifest",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "manifest", Aliases: []string{"m"}, Usage: "bbolt manifest file", Required: true},
				},
				Action: runsAction,
			},
		},
	}
}

func generateFlags() []cli.Flag {
	def := config.Default()
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output directory", Value: def.OutputDir},
		&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Usage: "number of fixture files", Value: def.Files},
		&cli.IntFlag{Name: "lines", Aliases: []string{"l"}, Usage: "commands per fixture", Value: def.Lines},
		&cli.Float64Flag{Name: "reset-chance", Usage: "probability that a set is followed by a reset", Value: def.ResetChance},
		&cli.IntFlag{Name: "key-min", Usage: "smallest key (inclusive)", Value: def.Keys.Low},
		&cli.IntFlag{Name: "key-max", Usage: "largest key (inclusive)", Value: def.Keys.High},
		&cli.Uint64Flag{Name: "seed", Usage: "random seed (random when unset)"},
		&cli.BoolFlag{Name: "mkdir", Usage: "create the output directory if missing"},
		&cli.StringFlag{Name: "manifest", Usage: "record the run in this bbolt manifest"},
		&cli.StringFlag{Name: "metrics-file", Usage: "write Prometheus metrics to this textfile"},
		&cli.StringFlag{Name: "progress", Usage: "progress output: lines, bar or none", Value: def.Progress},
		&cli.StringFlag{Name: "log-level", Usage: "log level", Value: def.LogLevel},
	}
}

// loadConfig layers defaults, the config file and explicitly set flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	if c.IsSet("output") {
		cfg.OutputDir = c.String("output")
	}
	if c.IsSet("count") {
		cfg.Files = c.Int("count")
	}
	if c.IsSet("lines") {
		cfg.Lines = c.Int("lines")
	}
	if c.IsSet("reset-chance") {
		cfg.ResetChance = c.Float64("reset-chance")
	}
	if c.IsSet("key-min") {
		cfg.Keys.Low = c.Int("key-min")
	}
	if c.IsSet("key-max") {
		cfg.Keys.High = c.Int("key-max")
	}
	if c.IsSet("seed") {
		seed := c.Uint64("seed")
		cfg.Seed = &seed
	}
	if c.IsSet("mkdir") {
		cfg.CreateDir = c.Bool("mkdir")
	}
	if c.IsSet("manifest") {
		cfg.ManifestPath = c.String("manifest")
	}
	if c.IsSet("metrics-file") {
		cfg.MetricsFile = c.String("metrics-file")
	}
	if c.IsSet("progress") {
		cfg.Progress = c.String("progress")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	return cfg, cfg.Validate()
}

func newLogger(c *cli.Context, level logrus.Level) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(c.App.ErrWriter)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log
}

func generateAction(c *cli.Context) error {
	if c.Args().Present() {
		return fmt.Errorf("unexpected arguments: %v", c.Args().Slice())
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	r := &runner.Runner{
		Config: cfg,
		Log:    newLogger(c, cfg.Level()),
		Stdout: c.App.Writer,
	}
	_, err = r.Run()
	return err
}

func runsAction(c *cli.Context) error {
	m, err := manifest.OpenFile(c.String("manifest"))
	if err != nil {
		return err
	}
	defer m.Close()

	runs, err := m.Runs()
	if err != nil {
		return err
	}

	w := c.App.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return nil
	}

	fmt.Fprintf(w, "%-36s %-20s %-20s %-6s %-10s %s\n", "RUN ID", "STARTED", "SEED", "FILES", "SIZE", "OUTPUT")
	fmt.Fprintln(w, "──────────────────────────────────────────────────────────────────────────────────────────────────────────")
	for _, run := range runs {
		fmt.Fprintf(w, "%-36s %-20s %-20d %-6d %-10s %s\n",
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.Seed,
			len(run.Fixtures),
			humanize.Bytes(uint64(run.Totals().Bytes)),
			run.OutputDir)
	}
	return nil
}
