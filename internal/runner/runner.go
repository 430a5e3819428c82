package runner

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"pkg.jsn.cam/permgen/internal/config"
	"pkg.jsn.cam/permgen/internal/manifest"
	"pkg.jsn.cam/permgen/internal/metrics"
	"pkg.jsn.cam/permgen/internal/progress"
	"pkg.jsn.cam/permgen/pkg/fixture"
)

// Runner performs one generation run and the bookkeeping around it.
type Runner struct {
	Config *config.Config
	Log    logrus.FieldLogger
	// Stdout receives progress output.
	Stdout io.Writer
	// Source overrides the seeded source; tests use it to script draws.
	// The run then records seed 0 since no seed reproduces its output.
	Source fixture.Source
}

// Run validates the configuration, writes every fixture and, when
// configured, records the run in the manifest and dumps metrics. The first
// I/O error aborts the run.
func (r *Runner) Run() (*manifest.Run, error) {
	cfg := r.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var seed uint64
	src := r.Source
	if src == nil {
		seed = fixture.RandomSeed()
		if cfg.Seed != nil {
			seed = *cfg.Seed
		}
		src = fixture.NewSource(seed)
	}

	run := manifest.NewRun(seed, cfg.OutputDir, cfg.Options())
	log := r.Log.WithFields(logrus.Fields{
		"run":  run.ID,
		"seed": seed,
		"dir":  cfg.OutputDir,
	})

	if cfg.CreateDir {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Open the manifest up front so a locked or incompatible store fails
	// before any fixture is overwritten.
	var m *manifest.Manifest
	if cfg.ManifestPath != "" {
		var err error
		if m, err = manifest.OpenFile(cfg.ManifestPath); err != nil {
			return nil, fmt.Errorf("failed to open manifest: %w", err)
		}
		defer m.Close()
	}

	reporter := r.reporter()
	recorder := metrics.NewRecorder()

	log.WithFields(logrus.Fields{
		"files":        cfg.Files,
		"lines":        cfg.Lines,
		"reset_chance": cfg.ResetChance,
		"keys":         fmt.Sprintf("[%d, %d]", cfg.Keys.Low, cfg.Keys.High),
	}).Info("Generating fixtures")

	results, err := fixture.Generate(cfg.OutputDir, cfg.Options(), src,
		progress.Multi{reporter, recorder, logNotifier{log: log}})
	if cerr := reporter.Close(); cerr != nil {
		log.Debugf("closing progress reporter: %v", cerr)
	}
	run.Fixtures = results
	run.FinishedAt = time.Now().UTC()
	if err != nil {
		return run, fmt.Errorf("aborted after %d of %d fixtures: %w", len(results), cfg.Files, err)
	}

	elapsed := run.FinishedAt.Sub(run.StartedAt)
	recorder.ObserveDuration(elapsed)

	totals := run.Totals()
	log.WithFields(logrus.Fields{
		"commands": totals.Commands,
		"resets":   totals.Resets,
		"size":     humanize.Bytes(uint64(totals.Bytes)),
		"elapsed":  elapsed.Round(time.Millisecond),
	}).Info("Fixtures generated")

	if m != nil {
		if err := m.RecordRun(run); err != nil {
			return run, fmt.Errorf("failed to record run: %w", err)
		}
		log.WithField("manifest", cfg.ManifestPath).Debug("Run recorded")
	}

	if cfg.MetricsFile != "" {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			return run, err
		}
	}

	return run, nil
}

func (r *Runner) reporter() progress.Reporter {
	switch r.Config.Progress {
	case config.ProgressBar:
		return progress.NewBar(r.Stdout, r.Config.Files)
	case config.ProgressNone:
		return progress.Nop{}
	default:
		return progress.NewLines(r.Stdout)
	}
}

type logNotifier struct {
	log logrus.FieldLogger
}

func (n logNotifier) FileDone(_ int, res fixture.Result) {
	n.log.WithFields(logrus.Fields{
		"file":     res.Name,
		"commands": res.Stats.Commands,
		"resets":   res.Stats.Resets,
		"size":     humanize.Bytes(uint64(res.Stats.Bytes)),
	}).Debug("Fixture written")
}
