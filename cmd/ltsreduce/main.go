// Command ltsreduce reduces labelled transition systems modulo strong,
// branching or divergence-preserving branching bisimulation and compares
// systems for equivalence.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, errNotEquivalent) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "ltsreduce: %v\n", err)
		os.Exit(2)
	}
}

// cli carries the parsed flags and the settings derived from them.
type cli struct {
	configPath  string
	logLevel    string
	verbose     bool
	equivalence string
	splitter    string

	output      string
	inFormat    string
	outFormat   string
	hidden      []string
	prune       bool
	metricsFile string
	exitCode    bool

	cfg    Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "ltsreduce",
		Short: "Reduce and compare labelled transition systems modulo bisimulation",
		Long: `ltsreduce minimises labelled transition systems in Aldebaran (.aut)
format with respect to strong, branching or divergence-preserving branching
bisimulation, and decides whether two systems are equivalent.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "log at debug level")
	pf.StringVarP(&c.equivalence, "equivalence", "e", "",
		"equivalence: strong, branching or divergence-branching (default strong)")
	pf.StringVar(&c.splitter, "splitter", "", "splitter policy: first-two or smallest")
	pf.StringSliceVar(&c.hidden, "tau", nil, "actions to rename to tau before reduction")

	root.AddCommand(c.reduceCmd(), c.compareCmd(), c.infoCmd())
	return root
}

// setup merges the configuration file with the flags given on the command
// line and builds the logger.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if flags.Changed("equivalence") {
		cfg.Equivalence = c.equivalence
	}
	if flags.Changed("splitter") {
		cfg.Splitter = c.splitter
	}
	if flags.Changed("tau") {
		cfg.HiddenActions = c.hidden
	}
	if flags.Changed("prune") {
		cfg.PruneUnreachable = c.prune
	}
	if flags.Changed("out") || flags.Changed("out-format") {
		cfg.OutputFormat = c.outFormat
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = c.metricsFile
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if c.verbose {
		level = slog.LevelDebug
	}
	c.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	c.cfg = cfg
	return nil
}
