package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/geange/bisim"
)

// Config holds the settings that may come from a YAML file. Flags given on
// the command line take precedence over every value read from the file.
type Config struct {
	// Equivalence is one of "strong", "branching" or "divergence-branching".
	Equivalence string `yaml:"equivalence"`

	// Splitter selects the constellation splitter policy: "first-two" or "smallest".
	Splitter string `yaml:"splitter"`

	// LogLevel is a slog level name: "debug", "info", "warn" or "error".
	LogLevel string `yaml:"log_level"`

	// HiddenActions are renamed to tau before reduction.
	HiddenActions []string `yaml:"hidden_actions"`

	PruneUnreachable bool `yaml:"prune_unreachable"`

	// OutputFormat overrides the format derived from the output file name.
	OutputFormat string `yaml:"output_format"`

	// MetricsFile receives reduction gauges in Prometheus text format.
	MetricsFile string `yaml:"metrics_file"`
}

func defaultConfig() Config {
	return Config{
		Equivalence: bisim.Strong.String(),
		Splitter:    bisim.FirstTwo.String(),
		LogLevel:    "info",
	}
}

// loadConfig reads the YAML file at path on top of the defaults. An empty
// path yields the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if _, err := bisim.ParseEquivalence(c.Equivalence); err != nil {
		return err
	}
	if _, err := bisim.ParseSplitterPolicy(c.Splitter); err != nil {
		return err
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.OutputFormat != "" {
		if _, err := parseFormat(c.OutputFormat); err != nil {
			return err
		}
	}
	return nil
}

// options translates the configuration into engine options.
func (c Config) options(logger *slog.Logger) ([]bisim.Option, error) {
	eq, err := bisim.ParseEquivalence(c.Equivalence)
	if err != nil {
		return nil, err
	}
	policy, err := bisim.ParseSplitterPolicy(c.Splitter)
	if err != nil {
		return nil, err
	}
	return []bisim.Option{
		bisim.WithEquivalence(eq),
		bisim.WithSplitterPolicy(policy),
		bisim.WithLogger(logger),
	}, nil
}

func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", name, ErrInvalidConfig)
	}
	return level, nil
}
