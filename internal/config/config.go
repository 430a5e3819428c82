package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"pkg.jsn.cam/permgen/pkg/fixture"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Progress modes.
const (
	ProgressLines = "lines"
	ProgressBar   = "bar"
	ProgressNone  = "none"
)

// Config holds everything a generation run needs.
type Config struct {
	OutputDir   string           `yaml:"output_dir"`
	Files       int              `yaml:"files"`
	Lines       int              `yaml:"lines"`
	ResetChance float64          `yaml:"reset_chance"`
	Keys        fixture.KeyRange `yaml:"keys"`
	// Seed is drawn at random when unset.
	Seed      *uint64 `yaml:"seed,omitempty"`
	CreateDir bool    `yaml:"create_dir"`

	ManifestPath string `yaml:"manifest"`
	MetricsFile  string `yaml:"metrics_file"`
	Progress     string `yaml:"progress"`
	LogLevel     string `yaml:"log_level"`
}

// Default returns the compiled-in configuration: five fixtures of 1000
// commands, a 25% reset chance and keys in [0, 10000].
func Default() *Config {
	return &Config{
		OutputDir:   "tests_in",
		Files:       5,
		Lines:       1000,
		ResetChance: 0.25,
		Keys:        fixture.KeyRange{Low: 0, High: 10000},
		Progress:    ProgressLines,
		LogLevel:    "info",
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Options converts the generation part of c.
func (c *Config) Options() fixture.Options {
	return fixture.Options{
		Files:       c.Files,
		Lines:       c.Lines,
		ResetChance: c.ResetChance,
		Keys:        c.Keys,
	}
}

// Validate rejects configurations that cannot produce fixtures.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir is required", ErrInvalid)
	}

	if err := c.Options().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	switch c.Progress {
	case ProgressLines, ProgressBar, ProgressNone:
	default:
		return fmt.Errorf("%w: unknown progress mode %q", ErrInvalid, c.Progress)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return nil
}

// Level returns the parsed log level, defaulting to info.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
