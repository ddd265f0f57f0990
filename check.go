package bisim

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

var errInvariant = errors.New("bisim: invariant violated")

type blcKey struct {
	block         int
	label         int
	constellation int
}

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvariant, fmt.Sprintf(format, args...))
}

// mustHold panics if the partitioner is in an inconsistent state.
func (p *partitioner) mustHold() {
	if err := p.checkInvariants(); err != nil {
		panic(err)
	}
	if err := p.checkStable(); err != nil {
		panic(err)
	}
}

// checkInvariants verifies the data structures against a recomputation from scratch.
func (p *partitioner) checkInvariants() error {
	n, m := p.numStates, len(p.from)
	if n <= 1 {
		return nil
	}

	if len(p.statesInBlocks) != n {
		return violation("slice vector holds %d of %d states", len(p.statesInBlocks), n)
	}
	for q, s := range p.statesInBlocks {
		if p.pos[s] != q {
			return violation("state %d at position %d records position %d", s, q, p.pos[s])
		}
	}
	covered := bitset.New(uint(n))
	for b, blk := range p.blocks {
		if blk.start > blk.startNonBottom || blk.startNonBottom > blk.end || blk.start == blk.end {
			return violation("block %d has bounds [%d,%d,%d)", b, blk.start, blk.startNonBottom, blk.end)
		}
		for q := blk.start; q < blk.end; q++ {
			if covered.Test(uint(q)) {
				return violation("position %d belongs to two blocks", q)
			}
			covered.Set(uint(q))
			if s := p.statesInBlocks[q]; p.block[s] != b {
				return violation("state %d at position %d of block %d records block %d", s, q, b, p.block[s])
			}
		}
	}
	if covered.Count() != uint(n) {
		return violation("blocks cover %d of %d positions", covered.Count(), n)
	}

	inertOut := make([]int, n)
	inertIn := make([]int, n)
	for t := 0; t < m; t++ {
		if p.inert(t) {
			inertOut[p.from[t]]++
			inertIn[p.to[t]]++
		}
	}
	for s := 0; s < n; s++ {
		if inertOut[s] != p.inertOut[s] {
			return violation("state %d counts %d inert successors, has %d", s, p.inertOut[s], inertOut[s])
		}
		if p.isBottom(s) != (inertOut[s] == 0) {
			return violation("state %d is misplaced between bottom and non-bottom", s)
		}
		if p.counter[s] != counterUndefined {
			return violation("state %d keeps counter %d", s, p.counter[s])
		}
		if p.inNonInert[s]-p.inStart[s] != inertIn[s] {
			return violation("state %d has %d inert incoming, prefix holds %d", s, inertIn[s], p.inNonInert[s]-p.inStart[s])
		}
		for i := p.inStart[s]; i < p.inStart[s+1]; i++ {
			t := p.incoming[i]
			if p.to[t] != s || p.inPos[t] != i {
				return violation("incoming entry %d of state %d holds transition %d", i, s, t)
			}
			if p.inert(t) != (i < p.inNonInert[s]) {
				return violation("incoming transition %d lies on the wrong side of the inert prefix", t)
			}
		}
		if err := p.checkRuns(s); err != nil {
			return err
		}
	}

	if err := p.checkSlices(); err != nil {
		return err
	}
	if err := p.checkConstellations(); err != nil {
		return err
	}
	return p.checkScratch()
}

// checkRuns verifies the outgoing entries of s and their saC-runs.
func (p *partitioner) checkRuns(s int) error {
	end := p.outStart[s+1]
	for q := p.outStart[s]; q < end; q++ {
		if t := p.outgoing[q]; p.from[t] != s || p.outPos[t] != q {
			return violation("outgoing entry %d of state %d holds transition %d", q, s, p.outgoing[q])
		}
	}
	seen := make(map[uint64]bool)
	for q := p.outStart[s]; q < end; {
		first := q
		last := p.lastOfRun(q)
		if last >= end || p.sac[last] != first {
			return violation("run of state %d starting at %d is not closed", s, first)
		}
		a, c := p.label[p.outgoing[first]], p.constellationOf(p.to[p.outgoing[first]])
		key := pairKey(a, c)
		if seen[key] {
			return violation("state %d has two runs for label %d into constellation %d", s, a, c)
		}
		seen[key] = true
		for r := first; r <= last; r++ {
			if r < last && p.sac[r] != last {
				return violation("entry %d of state %d does not point to its run end %d", r, s, last)
			}
			if !p.sameRun(p.outgoing[first], p.outgoing[r]) {
				return violation("run of state %d starting at %d mixes labels or constellations", s, first)
			}
		}
		q = last + 1
	}
	return nil
}

func (p *partitioner) checkSlices() error {
	total := 0
	for b := range p.blocks {
		keys := make(map[blcKey]bool)
		prev := none
		idx := 0
		for sl := p.blocks[b].firstSlice; sl != none; sl = p.slices[sl].next {
			s := p.slices[sl]
			if s.block != b || s.prev != prev {
				return violation("slice %d is linked into block %d incorrectly", sl, b)
			}
			key := blcKey{block: b, label: s.label, constellation: s.constellation}
			if keys[key] {
				return violation("block %d has two slices for label %d into constellation %d", b, s.label, s.constellation)
			}
			keys[key] = true
			if idx > 0 && p.isInertSlice(b, s.label, s.constellation) {
				return violation("inert slice of block %d is not at the head", b)
			}
			count := 0
			tp := none
			for t := s.head; t != none; t = p.sliceNext[t] {
				if p.slice[t] != sl || p.slicePrev[t] != tp {
					return violation("transition %d is linked into slice %d incorrectly", t, sl)
				}
				if p.block[p.from[t]] != b || p.label[t] != s.label || p.constellationOf(p.to[t]) != s.constellation {
					return violation("transition %d does not belong to slice %d", t, sl)
				}
				tp = t
				count++
			}
			if count == 0 || count != s.size {
				return violation("slice %d holds %d transitions, records %d", sl, count, s.size)
			}
			total += count
			prev = sl
			idx++
		}
	}
	if total != len(p.from) {
		return violation("slices hold %d of %d transitions", total, len(p.from))
	}
	return nil
}

func (p *partitioner) checkConstellations() error {
	counted := 0
	nonTrivial := make(map[int]bool)
	for c, cs := range p.constellations {
		for _, b := range cs.blocks {
			if p.blocks[b].constellation != c {
				return violation("block %d is listed in constellation %d but records %d", b, c, p.blocks[b].constellation)
			}
		}
		counted += len(cs.blocks)
		if len(cs.blocks) > 1 {
			nonTrivial[c] = true
		}
	}
	if counted != len(p.blocks) {
		return violation("constellations list %d of %d blocks", counted, len(p.blocks))
	}
	if len(nonTrivial) != len(p.nonTrivial) {
		return violation("%d non-trivial constellations, worklist holds %d", len(nonTrivial), len(p.nonTrivial))
	}
	for _, c := range p.nonTrivial {
		if !nonTrivial[c] {
			return violation("trivial constellation %d is on the worklist", c)
		}
	}
	return nil
}

// checkStable verifies that every bottom state of a block has a transition
// in each non-inert slice of the block.
func (p *partitioner) checkStable() error {
	if p.numStates <= 1 {
		return nil
	}
	for b := range p.blocks {
		for sl := p.blocks[b].firstSlice; sl != none; sl = p.slices[sl].next {
			s := p.slices[sl]
			if p.isInertSlice(b, s.label, s.constellation) {
				continue
			}
			for q := p.blocks[b].start; q < p.blocks[b].startNonBottom; q++ {
				if u := p.statesInBlocks[q]; !p.hasTransition(u, s.label, s.constellation) {
					return violation("bottom state %d of block %d has no label %d transition into constellation %d", u, b, s.label, s.constellation)
				}
			}
		}
	}
	return nil
}

// checkScratch verifies that no stabilization state outlives its batch.
func (p *partitioner) checkScratch() error {
	if p.stabilizing || len(p.newBottom) > 0 {
		return violation("stabilization left %d new bottom states", len(p.newBottom))
	}
	if p.listed.Any() {
		return violation("%d states are still listed as new bottom states", p.listed.Count())
	}
	for b, s := range p.bottomHead {
		if s != none {
			return violation("block %d keeps new bottom state %d", b, s)
		}
	}
	for sl, t := range p.pendingRep {
		if t != none {
			return violation("slice %d is still pending", sl)
		}
	}
	if len(p.pending) > 0 || p.sigIndex.Size() > 0 || p.sigMember.Size() > 0 {
		return violation("stabilization left %d pending slices and %d signatures", len(p.pending), p.sigMember.Size())
	}
	return nil
}
