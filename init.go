package bisim

import (
	"log/slog"

	"github.com/bits-and-blooms/bitset"

	"github.com/geange/bisim/lts"
)

// newPartitioner builds the data structures for l and computes the initial
// stable partition. Branching refinement expects l to be free of tau-cycles.
func newPartitioner(l *lts.LTS, o *options) *partitioner {
	n := l.NumStates()
	ts := l.Transitions()
	m := len(ts)
	p := &partitioner{
		branching:          o.branching,
		preserveDivergence: o.preserveDivergence,
		policy:             o.policy,
		log:                o.logger,
		checks:             o.checkInvariants,
		numStates:          n,
		numLabels:          l.NumLabels(),
		tau:                l.TauLabel(),
		divergence:         none,
		coConstellation:    none,
		coTransitions:      newPairMap(DEFAULT_EXPECTED_ELEMENTS),
		sigIndex:           newPairMap(DEFAULT_EXPECTED_ELEMENTS),
		sigMember:          newPairMap(DEFAULT_EXPECTED_ELEMENTS),
	}
	if p.preserveDivergence {
		p.divergence = p.numLabels
		p.numLabels++
	}
	p.stats.States = n
	p.stats.Transitions = m

	p.from = make([]int, m)
	p.label = make([]int, m)
	p.to = make([]int, m)
	for i, t := range ts {
		p.from[i], p.label[i], p.to[i] = t.From, t.Label, t.To
		if p.preserveDivergence && t.Label == p.tau && t.From == t.To {
			p.label[i] = p.divergence
		}
	}
	p.block = make([]int, n)
	if n <= 1 {
		p.blocks = make([]block, n)
		return p
	}

	order, labelStart := p.sortByLabel()
	p.initTransitions(order)
	p.initBlock()

	p.log.Debug("bisim: initial partition",
		slog.Int("states", n),
		slog.Int("transitions", m),
		slog.Bool("branching", p.branching),
		slog.Bool("divergence", p.preserveDivergence))

	p.initialising = true
	for r := 0; r+1 < len(labelStart); r++ {
		lo, hi := labelStart[r], labelStart[r+1]
		if lo == hi || (p.branching && p.label[order[lo]] == p.tau) {
			continue
		}
		for _, g := range p.groupBySourceBlock(order[lo:hi]) {
			if p.markSources(g.block, p.grouped[g.start:g.end]) {
				p.splitBlock(mainSplit, g.block, none, none, none)
			}
		}
	}
	p.initialising = false

	p.buildSlices(order)
	p.calM = make([][]int, p.numLabels)
	p.stabilize()
	if p.checks {
		p.mustHold()
	}
	return p
}

// labelRank orders labels with tau first.
func (p *partitioner) labelRank(a int) int {
	switch {
	case a == p.tau:
		return 0
	case a < p.tau:
		return a + 1
	}
	return a
}

// sortByLabel returns the transitions ordered by label rank, keeping input
// order within a label, and the start of every rank in that order.
func (p *partitioner) sortByLabel() ([]int, []int) {
	m := len(p.from)
	start := make([]int, p.numLabels+1)
	for t := 0; t < m; t++ {
		start[p.labelRank(p.label[t])+1]++
	}
	for r := 0; r < p.numLabels; r++ {
		start[r+1] += start[r]
	}
	next := make([]int, p.numLabels)
	copy(next, start)
	order := make([]int, m)
	for t := 0; t < m; t++ {
		r := p.labelRank(p.label[t])
		order[next[r]] = t
		next[r]++
	}
	return order, start
}

// initTransitions fills the outgoing and incoming vectors. Both are grouped
// per state in label order, which puts silent transitions first.
func (p *partitioner) initTransitions(order []int) {
	n, m := p.numStates, len(p.from)

	p.outStart = make([]int, n+1)
	p.inStart = make([]int, n+1)
	for t := 0; t < m; t++ {
		p.outStart[p.from[t]+1]++
		p.inStart[p.to[t]+1]++
	}
	for s := 0; s < n; s++ {
		p.outStart[s+1] += p.outStart[s]
		p.inStart[s+1] += p.inStart[s]
	}

	p.outgoing = make([]int, m)
	p.outPos = make([]int, m)
	p.incoming = make([]int, m)
	p.inPos = make([]int, m)
	nextOut := make([]int, n)
	nextIn := make([]int, n)
	copy(nextOut, p.outStart[:n])
	copy(nextIn, p.inStart[:n])
	for _, t := range order {
		q := nextOut[p.from[t]]
		nextOut[p.from[t]]++
		p.outgoing[q], p.outPos[t] = t, q

		i := nextIn[p.to[t]]
		nextIn[p.to[t]]++
		p.incoming[i], p.inPos[t] = t, i
	}

	p.inertOut = make([]int, n)
	p.inNonInert = make([]int, n)
	copy(p.inNonInert, p.inStart[:n])
	for t := 0; t < m; t++ {
		if p.silent(t) {
			p.inertOut[p.from[t]]++
			p.inNonInert[p.to[t]]++
		}
	}

	// One constellation, so every run covers one label.
	p.sac = make([]int, m)
	for s := 0; s < n; s++ {
		first, end := p.outStart[s], p.outStart[s+1]
		for q := first; q < end; q++ {
			if q+1 < end && p.label[p.outgoing[q+1]] == p.label[p.outgoing[q]] {
				continue
			}
			for r := first; r < q; r++ {
				p.sac[r] = q
			}
			p.sac[q] = first
			first = q + 1
		}
	}
}

// initBlock puts all states in one block, bottom states first.
func (p *partitioner) initBlock() {
	n := p.numStates
	p.statesInBlocks = make([]int, 0, n)
	p.pos = make([]int, n)
	for s := 0; s < n; s++ {
		if p.inertOut[s] == 0 {
			p.pos[s] = len(p.statesInBlocks)
			p.statesInBlocks = append(p.statesInBlocks, s)
		}
	}
	bottom := len(p.statesInBlocks)
	for s := 0; s < n; s++ {
		if p.inertOut[s] > 0 {
			p.pos[s] = len(p.statesInBlocks)
			p.statesInBlocks = append(p.statesInBlocks, s)
		}
	}
	p.blocks = append(p.blocks, block{start: 0, startNonBottom: bottom, end: n, constellation: 0, firstSlice: none})
	p.constellations = append(p.constellations, constellation{blocks: []int{0}})
	p.counter = make([]int, n)
	fill(p.counter, counterUndefined)
	p.bottomNext = make([]int, n)
	p.bottomPrev = make([]int, n)
	fill(p.bottomNext, none)
	fill(p.bottomPrev, none)
	p.listed = bitset.New(uint(n))
}

// markSources marks the sources of ts, all in block b, as the R-side of a
// split. It reports whether some bottom state of b stays unmarked; if not,
// the marks are dropped again.
func (p *partitioner) markSources(b int, ts []int) bool {
	bottom := 0
	for _, t := range ts {
		s := p.from[t]
		if p.counter[s] == counterMarked {
			continue
		}
		p.counter[s] = counterMarked
		p.rSide.add(s)
		if p.isBottom(s) {
			bottom++
		}
	}
	if bottom == p.bottomSize(b) {
		p.clearSplitter()
		return false
	}
	return true
}
