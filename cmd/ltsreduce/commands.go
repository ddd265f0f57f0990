package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/geange/bisim"
	"github.com/geange/bisim/lts"
)

func (c *cli) reduceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reduce [input [output]]",
		Short: "Write the quotient of a system",
		Long: `Reads a system, optionally hides actions and prunes unreachable states,
and writes its quotient. The input defaults to standard input and the
output to standard output; the output file may also be given with -o.`,
		Args: cobra.MaximumNArgs(2),
		RunE: c.runReduce,
	}
	c.addInFlag(cmd)
	f := cmd.Flags()
	f.StringVarP(&c.output, "output", "o", "", "output file (default standard output)")
	f.StringVar(&c.outFormat, "out", "", "output format: aut or dot (default from extension)")
	f.StringVar(&c.outFormat, "out-format", "", "output format")
	_ = f.MarkDeprecated("out-format", "use --out")
	f.BoolVar(&c.prune, "prune", false, "drop states unreachable from the initial state")
	f.StringVar(&c.metricsFile, "metrics-file", "", "write reduction metrics in Prometheus text format")
	return cmd
}

func (c *cli) runReduce(cmd *cobra.Command, args []string) error {
	in, out := stdio, c.output
	if len(args) > 0 {
		in = args[0]
	}
	if len(args) == 2 {
		if out != "" {
			return fmt.Errorf("output given both as %s and with -o %s", args[1], out)
		}
		out = args[1]
	}
	if out == "" {
		out = stdio
	}
	inFormat, err := detectFormat(in, c.inFormat)
	if err != nil {
		return err
	}
	outFormat, err := detectFormat(out, c.cfg.OutputFormat)
	if err != nil {
		return err
	}
	opts, err := c.cfg.options(c.logger)
	if err != nil {
		return err
	}

	l, err := c.load(in, inFormat)
	if err != nil {
		return err
	}
	if c.cfg.PruneUnreachable {
		before := l.NumStates()
		l, _ = lts.PruneUnreachable(l)
		c.logger.Debug("ltsreduce: pruned unreachable states",
			slog.Int("removed", before-l.NumStates()))
	}

	start := time.Now()
	q, part, err := bisim.ReduceWithPartition(l, opts...)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	stats := part.Stats()
	c.logger.Info("ltsreduce: reduced",
		slog.String("equivalence", c.cfg.Equivalence),
		slog.Int("states", stats.States),
		slog.Int("transitions", stats.Transitions),
		slog.Int("classes", stats.Classes),
		slog.Int("quotient_transitions", q.NumTransitions()),
		slog.Int("rounds", stats.Rounds),
		slog.Duration("elapsed", elapsed))

	if err := writeFile(out, q, outFormat, cmd.OutOrStdout()); err != nil {
		return err
	}

	if c.cfg.MetricsFile != "" {
		eq, _ := bisim.ParseEquivalence(c.cfg.Equivalence)
		m := newReductionMetrics(eq)
		m.observe(stats, q.NumTransitions(), elapsed)
		if err := m.writeFile(c.cfg.MetricsFile); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}

func (c *cli) compareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <first> <second>",
		Short: "Decide whether the initial states of two systems are equivalent",
		Args:  cobra.ExactArgs(2),
		RunE:  c.runCompare,
	}
	c.addInFlag(cmd)
	cmd.Flags().BoolVar(&c.exitCode, "exit-code", false, "exit with status 1 when the systems are not equivalent")
	return cmd
}

func (c *cli) runCompare(cmd *cobra.Command, args []string) error {
	opts, err := c.cfg.options(c.logger)
	if err != nil {
		return err
	}

	systems := make([]*lts.LTS, len(args))
	var g errgroup.Group
	for i, path := range args {
		g.Go(func() error {
			format, err := detectFormat(path, c.inFormat)
			if err != nil {
				return err
			}
			systems[i], err = c.load(path, format)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	ok, err := bisim.Equivalent(systems[0], systems[1], opts...)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ok)
	if !ok && c.exitCode {
		return errNotEquivalent
	}
	return nil
}

func (c *cli) infoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info [input]",
		Short: "Print the size of a system",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := stdio
			if len(args) == 1 {
				in = args[0]
			}
			format, err := detectFormat(in, c.inFormat)
			if err != nil {
				return err
			}
			l, err := c.load(in, format)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "states:      %d\n", l.NumStates())
			fmt.Fprintf(out, "reachable:   %d\n", lts.Reachable(l).Count())
			fmt.Fprintf(out, "transitions: %d\n", l.NumTransitions())
			fmt.Fprintf(out, "labels:      %d\n", l.NumLabels())
			fmt.Fprintf(out, "initial:     %d\n", l.InitialState())
			return nil
		},
	}
	c.addInFlag(cmd)
	return cmd
}

// addInFlag registers the input format flag, --in-format being its old name.
func (c *cli) addInFlag(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&c.inFormat, "in", "", "input format: aut (default from extension)")
	f.StringVar(&c.inFormat, "in-format", "", "input format")
	_ = f.MarkDeprecated("in-format", "use --in")
}

// load reads a system and hides the configured actions.
func (c *cli) load(path, format string) (*lts.LTS, error) {
	l, err := readLTS(path, format)
	if err != nil {
		return nil, err
	}
	if n := lts.HideActions(l, c.cfg.HiddenActions...); n > 0 {
		c.logger.Debug("ltsreduce: hid actions", slog.String("file", path), slog.Int("transitions", n))
	}
	return l, nil
}
