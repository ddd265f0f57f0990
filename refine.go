package bisim

import (
	"context"
	"log/slog"
)

// coPending remembers, for a (block, label) pair met while walking the
// incoming transitions of the new constellation, the slice its transitions
// came from.
type coPending struct {
	block int
	label int
	slice int
}

// refine breaks non-trivial constellations apart until every constellation
// holds exactly one block.
func (p *partitioner) refine() {
	for len(p.nonTrivial) > 0 {
		oldC, bs := p.selectSplitter()
		nc := len(p.constellations)
		p.constellations = append(p.constellations, constellation{blocks: []int{bs}})
		p.blocks[bs].constellation = nc
		p.stats.Rounds++
		if p.log.Enabled(context.Background(), slog.LevelDebug) {
			p.log.Debug("bisim: splitter",
				slog.Int("round", p.stats.Rounds),
				slog.Int("constellation", oldC),
				slog.Int("block", bs),
				slog.Int("size", p.blockSize(bs)),
				slog.Int("blocks", len(p.blocks)))
		}

		p.coConstellation = oldC
		p.walkIncoming(bs, nc, oldC)
		if p.branching {
			p.tauCoSplit(bs, oldC)
		}
		for _, a := range p.calMLabels {
			for _, g := range p.groupBySourceBlock(p.calM[a]) {
				p.splitUnder(g.block, a, p.grouped[g.start:g.end], oldC)
			}
		}
		p.clearCoTransitions()
		p.coConstellation = none

		p.stabilize()
		if p.checks {
			p.mustHold()
		}
	}
	p.stats.Classes = len(p.blocks)
	p.log.Debug("bisim: refinement done",
		slog.Int("classes", p.stats.Classes),
		slog.Int("rounds", p.stats.Rounds),
		slog.Int("splits", p.stats.Splits),
		slog.Int("new_bottom_states", p.stats.NewBottomStates))
}

// selectSplitter removes a block from a non-trivial constellation and returns both.
func (p *partitioner) selectSplitter() (int, int) {
	if p.policy == Smallest {
		return p.selectSmallest()
	}
	c := p.nonTrivial[len(p.nonTrivial)-1]
	bl := p.constellations[c].blocks
	last := len(bl) - 1
	bs := bl[last]
	if p.blockSize(bl[last-1]) < p.blockSize(bs) {
		bs = bl[last-1]
		bl[last-1] = bl[last]
	}
	p.constellations[c].blocks = bl[:last]
	if last == 1 {
		p.nonTrivial = p.nonTrivial[:len(p.nonTrivial)-1]
	}
	return c, bs
}

func (p *partitioner) selectSmallest() (int, int) {
	bestC, bestIdx, bestB := none, none, none
	for _, c := range p.nonTrivial {
		for i, b := range p.constellations[c].blocks {
			if bestB == none || p.blockSize(b) < p.blockSize(bestB) {
				bestC, bestIdx, bestB = c, i, b
			}
		}
	}
	bl := p.constellations[bestC].blocks
	last := len(bl) - 1
	bl[bestIdx] = bl[last]
	p.constellations[bestC].blocks = bl[:last]
	if last == 1 {
		for i, c := range p.nonTrivial {
			if c == bestC {
				end := len(p.nonTrivial) - 1
				p.nonTrivial[i] = p.nonTrivial[end]
				p.nonTrivial = p.nonTrivial[:end]
				break
			}
		}
	}
	return bestC, bestB
}

// walkIncoming moves every transition into bs to the slices of the new
// constellation nc, collects the non-inert ones per label and records the
// co-transitions into oldC.
func (p *partitioner) walkIncoming(bs, nc, oldC int) {
	for _, a := range p.calMLabels {
		p.calM[a] = p.calM[a][:0]
	}
	p.calMLabels = p.calMLabels[:0]
	p.sacRepair = p.sacRepair[:0]
	p.coPending = p.coPending[:0]

	for q := p.blocks[bs].start; q < p.blocks[bs].end; q++ {
		s := p.statesInBlocks[q]
		for i := p.inStart[s]; i < p.inStart[s+1]; i++ {
			t := p.incoming[i]
			a := p.label[t]
			if !p.inert(t) {
				if len(p.calM[a]) == 0 {
					p.calMLabels = append(p.calMLabels, a)
				}
				p.calM[a] = append(p.calM[a], t)
			}
			p.moveToFrontOfRun(t)
			src := p.block[p.from[t]]
			key := pairKey(src, a)
			if _, ok := p.coTransitions.Get(key); !ok {
				p.coTransitions.Put(key, none)
				p.coKeys = append(p.coKeys, key)
				p.coPending = append(p.coPending, coPending{block: src, label: a, slice: p.slice[t]})
			}
			p.relocateToConstellation(t, nc)
		}
	}
	p.repairRuns()

	for _, cp := range p.coPending {
		co := none
		sl := p.slices[cp.slice]
		if !p.isInertSlice(cp.block, cp.label, oldC) &&
			sl.size > 0 && sl.block == cp.block && sl.label == cp.label && sl.constellation == oldC {
			co = sl.head
		}
		p.coTransitions.Put(pairKey(cp.block, cp.label), co)
	}
}

// moveToFrontOfRun swaps t to the front of its saC-run. Afterwards the run
// for the old constellation is a suffix of the old run and t's entry is
// fixed up by repairRuns.
func (p *partitioner) moveToFrontOfRun(t int) {
	p1 := p.outPos[t]
	end := p1
	if p.sac[p1] > p1 {
		end = p.sac[p1]
	}
	p2 := p.sac[end]
	p.swapOutgoing(p1, p2)
	if p.sac[end] < end {
		p.sac[end]++
	}
	p.sacRepair = append(p.sacRepair, t)
}

// repairRuns rebuilds the saC entries of the transitions moved to the front
// of their runs, last moved first, so that each new run is closed off from
// its end.
func (p *partitioner) repairRuns() {
	for i := len(p.sacRepair) - 1; i >= 0; i-- {
		t := p.sacRepair[i]
		q := p.outPos[t]
		next := q + 1
		if next < p.outStart[p.from[t]+1] && p.sameRun(t, p.outgoing[next]) {
			p.sac[q] = p.sac[next]
			p.sac[p.sac[q]] = q
		} else {
			p.sac[q] = q
		}
	}
	p.sacRepair = p.sacRepair[:0]
}

// sameRun reports whether two outgoing transitions of one state share their
// label and target constellation.
func (p *partitioner) sameRun(t, u int) bool {
	return p.label[t] == p.label[u] && p.constellationOf(p.to[t]) == p.constellationOf(p.to[u])
}

// hasCoTransition reports whether the source of t, which goes to the new
// constellation, also has a transition with the same label into oldC.
func (p *partitioner) hasCoTransition(t, oldC int) bool {
	s := p.from[t]
	next := p.lastOfRun(p.outPos[t]) + 1
	if next >= p.outStart[s+1] {
		return false
	}
	u := p.outgoing[next]
	return p.label[u] == p.label[t] && p.constellationOf(p.to[u]) == oldC && !p.inert(u)
}

// updateCoTransition keeps the co-transition map current while t moves from
// oldBlock to the block of its source; alt is a transition left in t's old slice.
func (p *partitioner) updateCoTransition(t, alt, oldBlock int) {
	if p.coConstellation == none || p.constellationOf(p.to[t]) != p.coConstellation {
		return
	}
	nb := p.block[p.from[t]]
	a := p.label[t]
	if p.isInertSlice(nb, a, p.coConstellation) {
		return
	}
	oldKey := pairKey(oldBlock, a)
	if v, ok := p.coTransitions.Get(oldKey); ok && v == t {
		p.coTransitions.Put(oldKey, alt)
	}
	newKey := pairKey(nb, a)
	if _, ok := p.coTransitions.Get(newKey); !ok {
		p.coTransitions.Put(newKey, t)
		p.coKeys = append(p.coKeys, newKey)
	}
}

func (p *partitioner) clearCoTransitions() {
	for _, key := range p.coKeys {
		p.coTransitions.Remove(key)
	}
	p.coKeys = p.coKeys[:0]
}

// tauCoSplit splits the new splitter block bs into the states that can still
// reach oldC silently and those that cannot.
func (p *partitioner) tauCoSplit(bs, oldC int) {
	co := none
	for sl, i := p.blocks[bs].firstSlice, 0; sl != none && i < 2; sl, i = p.slices[sl].next, i+1 {
		if p.slices[sl].label == p.tau && p.slices[sl].constellation == oldC {
			co = sl
			break
		}
	}
	if co == none {
		return
	}
	touched := 0
	for q := p.blocks[bs].start; q < p.blocks[bs].startNonBottom; q++ {
		s := p.statesInBlocks[q]
		if p.hasTransition(s, p.tau, oldC) {
			p.counter[s] = counterMarked
			p.rSide.add(s)
			touched++
		} else {
			p.counter[s] = 0
			p.uCounterReset = append(p.uCounterReset, s)
			p.uSide.add(s)
		}
	}
	if touched == p.bottomSize(bs) {
		p.clearSplitter()
		return
	}
	p.splitBlock(coSplit, bs, co, p.tau, oldC)
}

// splitUnder splits b under the a-transitions ts into the new constellation
// and then, if needed, the part holding their sources under the matching
// a-transitions into oldC.
func (p *partitioner) splitUnder(b, a int, ts []int, oldC int) {
	bpp := b
	fresh := len(p.newBottom)
	if p.markSources(b, ts) {
		if p.rSide.size() == 0 {
			p.clearSplitter()
			return
		}
		nb, seedsInNew := p.splitBlock(mainSplit, b, none, none, none)
		if seedsInNew {
			bpp = nb
		}
	}
	co, ok := p.coTransitions.Get(pairKey(bpp, a))
	if !ok || co == none {
		return
	}
	if !p.seedCoSplit(bpp, a, ts, p.newBottom[fresh:], oldC) {
		return
	}
	p.splitBlock(coSplit, bpp, p.slice[co], a, oldC)
}

// seedCoSplit puts the bottom states of b with an a-transition into oldC on
// the R-side and the others on the U-side. The bottom states of b are the
// bottom sources of ts and the states in fresh that became bottom during the
// split under ts. It reports false, dropping the seeds, when all bottom
// states have such a transition.
func (p *partitioner) seedCoSplit(b, a int, ts, fresh []int, oldC int) bool {
	touched, seeded := 0, 0
	for _, t := range ts {
		s := p.from[t]
		if p.block[s] != b || !p.isBottom(s) || p.counter[s] != counterUndefined {
			continue
		}
		seeded++
		if p.hasCoTransition(t, oldC) {
			p.counter[s] = counterMarked
			p.rSide.add(s)
			touched++
		} else {
			p.counter[s] = 0
			p.uCounterReset = append(p.uCounterReset, s)
			p.uSide.add(s)
		}
	}
	for _, s := range fresh {
		if p.block[s] != b || !p.isBottom(s) || p.counter[s] != counterUndefined {
			continue
		}
		seeded++
		if p.hasTransition(s, a, oldC) {
			p.counter[s] = counterMarked
			p.rSide.add(s)
			touched++
		} else {
			p.counter[s] = 0
			p.uCounterReset = append(p.uCounterReset, s)
			p.uSide.add(s)
		}
	}
	if p.checks && seeded != p.bottomSize(b) {
		panic(violation("co-split of block %d seeds %d of %d bottom states", b, seeded, p.bottomSize(b)))
	}
	if touched == p.bottomSize(b) {
		p.clearSplitter()
		return false
	}
	return true
}
