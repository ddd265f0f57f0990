package bisim

import (
	"fmt"
	"log/slog"
	"strings"
)

// Equivalence selects the behavioural equivalence the partition is refined for.
type Equivalence int

const (
	Strong Equivalence = iota
	Branching
	DivergenceBranching
)

func (e Equivalence) String() string {
	switch e {
	case Strong:
		return "strong"
	case Branching:
		return "branching"
	case DivergenceBranching:
		return "divergence-branching"
	}
	return fmt.Sprintf("Equivalence(%d)", int(e))
}

// ParseEquivalence maps a name such as "branching" to its Equivalence.
func ParseEquivalence(name string) (Equivalence, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "strong", "bisim":
		return Strong, nil
	case "branching", "branching-bisim":
		return Branching, nil
	case "divergence-branching", "divbranching", "branching-divergence":
		return DivergenceBranching, nil
	}
	return Strong, fmt.Errorf("%q: %w", name, ErrUnknownEquivalence)
}

// SplitterPolicy decides which block of a non-trivial constellation is broken off next.
type SplitterPolicy int

const (
	// FirstTwo picks the smaller of the two most recently added blocks of the
	// constellation on top of the worklist.
	FirstTwo SplitterPolicy = iota
	// Smallest picks the globally smallest block of any non-trivial constellation.
	Smallest
)

func (p SplitterPolicy) String() string {
	if p == Smallest {
		return "smallest"
	}
	return "first-two"
}

// ParseSplitterPolicy maps "first-two" or "smallest" to a SplitterPolicy.
func ParseSplitterPolicy(name string) (SplitterPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "first-two", "firsttwo":
		return FirstTwo, nil
	case "smallest":
		return Smallest, nil
	}
	return FirstTwo, fmt.Errorf("%q: %w", name, ErrUnknownSplitterPolicy)
}

type options struct {
	branching          bool
	preserveDivergence bool
	policy             SplitterPolicy
	logger             *slog.Logger
	checkInvariants    bool
}

func newOptions(opts ...Option) *options {
	o := &options{
		policy: FirstTwo,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.preserveDivergence {
		o.branching = true
	}
	return o
}

type Option func(o *options)

// WithBranching refines for branching bisimulation instead of strong bisimulation.
func WithBranching() Option {
	return func(o *options) {
		o.branching = true
	}
}

// WithDivergence refines for divergence-preserving branching bisimulation.
func WithDivergence() Option {
	return func(o *options) {
		o.branching = true
		o.preserveDivergence = true
	}
}

// WithEquivalence is a shorthand for the option matching e.
func WithEquivalence(e Equivalence) Option {
	return func(o *options) {
		o.branching = e != Strong
		o.preserveDivergence = e == DivergenceBranching
	}
}

func WithSplitterPolicy(p SplitterPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithLogger sets the logger used for progress messages; they are emitted at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// withInvariantChecks verifies all internal invariants after every refinement
// round and panics on the first violation.
func withInvariantChecks() Option {
	return func(o *options) {
		o.checkInvariants = true
	}
}
