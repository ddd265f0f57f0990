package bisim

import (
	"log/slog"

	"github.com/bits-and-blooms/bitset"
)

const (
	none = -1

	// Values of the splitter's per-state counter besides the non-negative
	// number of inert successors not yet known to be in U.
	counterUndefined = -1
	counterMarked    = -2
)

// block is a contiguous range of the slice vector: bottom states occupy
// [start, startNonBottom), non-bottom states [startNonBottom, end).
type block struct {
	start          int
	startNonBottom int
	end            int
	constellation  int
	firstSlice     int // head of the BLC-list
}

// constellation lists its blocks; the last element is the front.
type constellation struct {
	blocks []int
}

type blockGroup struct {
	block      int
	start, end int
}

// partitioner holds the refinement state. Everything is stored in arenas
// indexed by state, transition, block, constellation or slice.
type partitioner struct {
	branching          bool
	preserveDivergence bool
	policy             SplitterPolicy
	log                *slog.Logger
	checks             bool
	initialising       bool

	numStates  int
	numLabels  int
	tau        int
	divergence int // label given to tau self-loops under divergence preservation

	// Per transition.
	from      []int
	label     []int
	to        []int
	outPos    []int
	inPos     []int
	slice     []int
	slicePrev []int
	sliceNext []int

	// Per state.
	block      []int
	pos        []int
	outStart   []int // numStates+1 entries
	inStart    []int // numStates+1 entries
	inNonInert []int
	inertOut   []int
	counter    []int

	outgoing []int
	sac      []int // per outgoing position: last entry of its run, or the first if it is the last
	incoming []int

	statesInBlocks []int
	blocks         []block
	constellations []constellation
	nonTrivial     []int

	slices     []blcSlice
	freeSlices []int

	rSide         todoStateVector
	uSide         todoStateVector
	uCounterReset []int
	moved         []int
	newBottom     []int

	// Co-transitions of the current round, keyed by (block, label).
	coConstellation int
	coTransitions   *pairMap
	coKeys          []uint64
	coPending       []coPending

	// Stabilization scratch: the batch of new bottom states, listed per block,
	// their signatures and the slices still to be checked. All of it is empty
	// between batches.
	stabilizing  bool
	batch        []int
	bottomBlocks []int
	bottomHead   []int // per block
	bottomNext   []int // per state
	bottomPrev   []int // per state
	listed       *bitset.BitSet
	sigIndex     *pairMap // (label, constellation) to signature id
	sigMember    *pairMap // (state, signature id)
	sigKeys      []uint64
	memberKeys   []uint64
	pendingRep   []int // per slice: a transition in it while pending, else none
	pending      []int

	calM       [][]int
	calMLabels []int
	sacRepair  []int

	groupMark []int
	groups    []blockGroup
	grouped   []int

	stats Stats
}

func (p *partitioner) constellationOf(s int) int {
	return p.blocks[p.block[s]].constellation
}

func (p *partitioner) blockSize(b int) int {
	return p.blocks[b].end - p.blocks[b].start
}

func (p *partitioner) bottomSize(b int) int {
	return p.blocks[b].startNonBottom - p.blocks[b].start
}

func (p *partitioner) isBottom(s int) bool {
	return p.pos[s] < p.blocks[p.block[s]].startNonBottom
}

// silent reports whether t carries the label that can be inert.
func (p *partitioner) silent(t int) bool {
	return p.branching && p.label[t] == p.tau
}

// inert reports whether t is a silent step inside one block.
func (p *partitioner) inert(t int) bool {
	return p.silent(t) && p.block[p.from[t]] == p.block[p.to[t]]
}

// swapStates exchanges two positions of the slice vector.
func (p *partitioner) swapStates(i, j int) {
	if i == j {
		return
	}
	si, sj := p.statesInBlocks[i], p.statesInBlocks[j]
	p.statesInBlocks[i], p.statesInBlocks[j] = sj, si
	p.pos[si], p.pos[sj] = j, i
}

// moveToBottom moves a non-bottom state of its block into the bottom region.
func (p *partitioner) moveToBottom(s int) {
	b := &p.blocks[p.block[s]]
	p.swapStates(p.pos[s], b.startNonBottom)
	b.startNonBottom++
}

// moveToNewBlock moves s from b to the end of nb, which sits directly in
// front of b in the slice vector. Bottom states stay bottom.
func (p *partitioner) moveToNewBlock(s, b, nb int) {
	q := p.pos[s]
	old, fresh := &p.blocks[b], &p.blocks[nb]
	if q < old.startNonBottom {
		y := old.start
		p.swapStates(q, y)
		p.swapStates(y, fresh.startNonBottom)
		fresh.startNonBottom++
	} else {
		z := old.startNonBottom
		p.swapStates(q, z)
		p.swapStates(z, old.start)
		old.startNonBottom++
	}
	fresh.end++
	old.start++
	p.block[s] = nb
}

// makeNonInert records that the silent transition t now crosses a block border.
func (p *partitioner) makeNonInert(t int) {
	p.inertOut[p.from[t]]--
	d := p.to[t]
	last := p.inNonInert[d] - 1
	i := p.inPos[t]
	if i != last {
		u := p.incoming[last]
		p.incoming[i], p.incoming[last] = u, t
		p.inPos[u], p.inPos[t] = i, last
	}
	p.inNonInert[d] = last
}

func (p *partitioner) swapOutgoing(i, j int) {
	if i == j {
		return
	}
	ti, tj := p.outgoing[i], p.outgoing[j]
	p.outgoing[i], p.outgoing[j] = tj, ti
	p.outPos[ti], p.outPos[tj] = j, i
}

// lastOfRun returns the last outgoing position of the saC-run containing q.
func (p *partitioner) lastOfRun(q int) int {
	if p.sac[q] > q {
		return p.sac[q]
	}
	return q
}

// hasTransition reports whether s has a non-inert a-transition into constellation c,
// probing one entry per saC-run.
func (p *partitioner) hasTransition(s, a, c int) bool {
	end := p.outStart[s+1]
	for q := p.outStart[s]; q < end; q = p.lastOfRun(q) + 1 {
		t := p.outgoing[q]
		if p.label[t] == a && p.constellationOf(p.to[t]) == c && !p.inert(t) {
			return true
		}
	}
	return false
}

// groupBySourceBlock orders ts by the current block of their sources. The
// groups index p.grouped and stay valid until the next call.
func (p *partitioner) groupBySourceBlock(ts []int) []blockGroup {
	p.groupMark = grow(p.groupMark, len(p.blocks))
	p.groups = p.groups[:0]
	for _, t := range ts {
		b := p.block[p.from[t]]
		if p.groupMark[b] == 0 {
			p.groups = append(p.groups, blockGroup{block: b})
		}
		p.groupMark[b]++
	}
	start := 0
	for i := range p.groups {
		g := &p.groups[i]
		g.start, g.end = start, start
		start += p.groupMark[g.block]
		p.groupMark[g.block] = i
	}
	p.grouped = grow(p.grouped, len(ts))
	for _, t := range ts {
		g := &p.groups[p.groupMark[p.block[p.from[t]]]]
		p.grouped[g.end] = t
		g.end++
	}
	for _, g := range p.groups {
		p.groupMark[g.block] = 0
	}
	return p.groups
}
