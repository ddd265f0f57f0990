// Package bisim computes strong, branching and divergence-preserving
// branching bisimilarity on labelled transition systems by partition
// refinement, and reduces systems to their quotient.
package bisim

import "github.com/geange/bisim/lts"

// Stats describes one refinement run.
type Stats struct {
	States          int
	Transitions     int
	Classes         int
	Rounds          int // constellations split
	Splits          int // blocks created
	NewBottomStates int
}

// Partition maps every state of a system to its equivalence class.
// Classes are numbered densely from 0.
type Partition struct {
	classOf    []int
	numClasses int
	stats      Stats
}

// Class returns the class of state s.
func (p *Partition) Class(s int) int {
	return p.classOf[s]
}

func (p *Partition) NumClasses() int {
	return p.numClasses
}

// Classes returns the members of every class in increasing order.
func (p *Partition) Classes() [][]int {
	classes := make([][]int, p.numClasses)
	for s, c := range p.classOf {
		classes[c] = append(classes[c], s)
	}
	return classes
}

// Equivalent reports whether states s and t are in the same class.
func (p *Partition) Equivalent(s, t int) bool {
	return p.classOf[s] == p.classOf[t]
}

func (p *Partition) Stats() Stats {
	return p.stats
}

// Compute
// Computes the coarsest bisimulation partition of l for the selected equivalence.
// l is not modified.
func Compute(l *lts.LTS, opts ...Option) (*Partition, error) {
	_, part, err := run(l, newOptions(opts...), false)
	return part, err
}

// Reduce
// Reduces l to its quotient under the selected equivalence: one state per
// class, the original labels, and no duplicate transitions. Silent steps
// inside a class are dropped for the branching equivalences, except for
// divergent self-loops when divergence is preserved.
func Reduce(l *lts.LTS, opts ...Option) (*lts.LTS, error) {
	q, _, err := run(l, newOptions(opts...), true)
	return q, err
}

// ReduceWithPartition is Reduce that also returns the partition of l's
// states. State c of the quotient is class c of the partition.
func ReduceWithPartition(l *lts.LTS, opts ...Option) (*lts.LTS, *Partition, error) {
	return run(l, newOptions(opts...), true)
}

func run(l *lts.LTS, o *options, emit bool) (*lts.LTS, *Partition, error) {
	if err := l.Validate(); err != nil {
		return nil, nil, err
	}
	work, stateOf := prepare(l, o)
	p := partition(work, o)

	part := &Partition{
		classOf:    make([]int, l.NumStates()),
		numClasses: len(p.blocks),
		stats:      p.stats,
	}
	for s := range part.classOf {
		part.classOf[s] = p.block[stateOf[s]]
	}
	part.stats.States = l.NumStates()
	part.stats.Transitions = l.NumTransitions()
	part.stats.Classes = part.numClasses

	if !emit {
		return nil, part, nil
	}
	return p.quotient(work), part, nil
}

// Equivalent
// Reports whether the initial states of l1 and l2 are equivalent. Actions
// are matched by name.
func Equivalent(l1, l2 *lts.LTS, opts ...Option) (bool, error) {
	if err := l1.Validate(); err != nil {
		return false, err
	}
	if err := l2.Validate(); err != nil {
		return false, err
	}
	merged, offset := lts.Merge(l1, l2)
	part, err := Compute(merged, opts...)
	if err != nil {
		return false, err
	}
	return part.Equivalent(l1.InitialState(), l2.InitialState()+offset), nil
}

// prepare contracts silent cycles for the branching equivalences and
// returns the system to refine with the state each original state maps to.
func prepare(l *lts.LTS, o *options) (*lts.LTS, []int) {
	if o.branching {
		return lts.ContractTauSCCs(l, o.preserveDivergence)
	}
	identity := make([]int, l.NumStates())
	for s := range identity {
		identity[s] = s
	}
	return l, identity
}

func partition(l *lts.LTS, o *options) *partitioner {
	p := newPartitioner(l, o)
	p.refine()
	return p
}

// quotient builds the system whose states are the blocks of p.
func (p *partitioner) quotient(l *lts.LTS) *lts.LTS {
	numClasses := len(p.blocks)
	q := lts.NewWithCapacity(numClasses, l.NumTransitions())
	for a := 1; a < l.NumLabels(); a++ {
		q.AddLabel(l.Label(a))
	}
	_ = q.SetInitialState(p.block[l.InitialState()])

	seen := make(map[lts.Transition]struct{}, l.NumTransitions())
	for i, t := range l.Transitions() {
		nt := lts.Transition{From: p.block[t.From], Label: t.Label, To: p.block[t.To]}
		if p.branching && l.IsTau(t.Label) && nt.From == nt.To && p.label[i] != p.divergence {
			continue
		}
		if _, ok := seen[nt]; ok {
			continue
		}
		seen[nt] = struct{}{}
		_ = q.AddTransition(nt.From, nt.Label, nt.To)
	}

	if l.HasStateLabels() {
		merged := make([][]string, numClasses)
		for s := 0; s < l.NumStates(); s++ {
			merged[p.block[s]] = append(merged[p.block[s]], l.StateLabel(s)...)
		}
		for c, values := range merged {
			if len(values) > 0 {
				q.SetStateLabel(c, values...)
			}
		}
	}
	return q
}
