package bisim

// stabilize restores stability after states became bottom: every bottom
// state of a block must have a transition in each non-inert slice of it.
//
// The new bottom states of a batch are kept in one list per block, which
// follows them when their block is split. Their signatures, the
// (label, constellation) pairs of their saC-runs, live in sigIndex and
// sigMember until the batch is done.
func (p *partitioner) stabilize() {
	for len(p.newBottom) > 0 {
		p.stats.NewBottomStates += len(p.newBottom)
		p.batch = append(p.batch[:0], p.newBottom...)
		p.newBottom = p.newBottom[:0]

		p.bottomBlocks = p.bottomBlocks[:0]
		for _, s := range p.batch {
			p.listBottom(s, p.block[s])
			p.addSignatures(s)
		}
		p.stabilizing = true
		for i, n := 0, len(p.bottomBlocks); i < n; i++ {
			p.stabilizeBlock(p.bottomBlocks[i])
		}
		p.stabilizing = false
		p.clearBatch()
	}
}

// listBottom pushes the new bottom state s onto the list of block b.
func (p *partitioner) listBottom(s, b int) {
	p.bottomHead = growNone(p.bottomHead, len(p.blocks))
	head := p.bottomHead[b]
	if head == none {
		p.bottomBlocks = append(p.bottomBlocks, b)
	} else {
		p.bottomPrev[head] = s
	}
	p.bottomNext[s], p.bottomPrev[s] = head, none
	p.bottomHead[b] = s
	p.listed.Set(uint(s))
}

func (p *partitioner) unlistBottom(s, b int) {
	prev, next := p.bottomPrev[s], p.bottomNext[s]
	if prev == none {
		p.bottomHead[b] = next
	} else {
		p.bottomNext[prev] = next
	}
	if next != none {
		p.bottomPrev[next] = prev
	}
	p.bottomNext[s], p.bottomPrev[s] = none, none
	p.listed.Clear(uint(s))
}

// firstBottom returns the head of the new bottom list of b, or none.
func (p *partitioner) firstBottom(b int) int {
	if b >= len(p.bottomHead) {
		return none
	}
	return p.bottomHead[b]
}

// addSignatures records one (label, constellation) signature per saC-run of s.
func (p *partitioner) addSignatures(s int) {
	end := p.outStart[s+1]
	for q := p.outStart[s]; q < end; q = p.lastOfRun(q) + 1 {
		t := p.outgoing[q]
		key := pairKey(p.label[t], p.constellationOf(p.to[t]))
		id, ok := p.sigIndex.Get(key)
		if !ok {
			id = len(p.sigKeys)
			p.sigIndex.Put(key, id)
			p.sigKeys = append(p.sigKeys, key)
		}
		member := pairKey(s, id)
		p.sigMember.Put(member, id)
		p.memberKeys = append(p.memberKeys, member)
	}
}

// hasSignature reports whether the new bottom state s has a transition
// labelled a into constellation c.
func (p *partitioner) hasSignature(s, a, c int) bool {
	id, ok := p.sigIndex.Get(pairKey(a, c))
	if !ok {
		return false
	}
	_, ok = p.sigMember.Get(pairKey(s, id))
	return ok
}

func (p *partitioner) clearBatch() {
	for _, b := range p.bottomBlocks {
		for s := p.bottomHead[b]; s != none; {
			next := p.bottomNext[s]
			p.bottomNext[s], p.bottomPrev[s] = none, none
			p.listed.Clear(uint(s))
			s = next
		}
		p.bottomHead[b] = none
	}
	p.bottomBlocks = p.bottomBlocks[:0]
	for _, key := range p.memberKeys {
		p.sigMember.Remove(key)
	}
	for _, key := range p.sigKeys {
		p.sigIndex.Remove(key)
	}
	p.memberKeys = p.memberKeys[:0]
	p.sigKeys = p.sigKeys[:0]
}

// markPending queues slice sl for checking, represented by transition t.
func (p *partitioner) markPending(sl, t int) {
	p.pendingRep = growNone(p.pendingRep, len(p.slices))
	if p.pendingRep[sl] != none {
		return
	}
	p.pendingRep[sl] = t
	p.pending = append(p.pending, sl)
}

func (p *partitioner) pendingOf(sl int) int {
	if sl >= len(p.pendingRep) {
		return none
	}
	return p.pendingRep[sl]
}

// moveBottom keeps the new bottom lists in step with a block split.
func (p *partitioner) moveBottom(s, oldBlock, newBlock int) {
	if !p.listed.Test(uint(s)) {
		return
	}
	p.unlistBottom(s, oldBlock)
	p.listBottom(s, newBlock)
}

// movePending keeps the pending slices in step with t moving out of slice
// old; alt is a transition left in old, or none if old was released.
func (p *partitioner) movePending(t, alt, old int) {
	rep := p.pendingOf(old)
	if rep == none {
		return
	}
	if rep == t {
		p.pendingRep[old] = alt
	}
	p.markPending(p.slice[t], t)
}

func (p *partitioner) stabilizeBlock(b int) {
	for sl := p.blocks[b].firstSlice; sl != none; sl = p.slices[sl].next {
		s := &p.slices[sl]
		if p.isInertSlice(b, s.label, s.constellation) {
			continue
		}
		p.markPending(sl, s.head)
	}

	for len(p.pending) > 0 {
		sl := p.pending[len(p.pending)-1]
		p.pending = p.pending[:len(p.pending)-1]
		if p.pendingOf(sl) == none {
			continue
		}
		p.pendingRep[sl] = none

		k, a, c := p.slices[sl].block, p.slices[sl].label, p.slices[sl].constellation
		lacking := false
		for s := p.firstBottom(k); s != none; s = p.bottomNext[s] {
			if !p.hasSignature(s, a, c) {
				lacking = true
				break
			}
		}
		if !lacking {
			continue
		}
		for s := p.firstBottom(k); s != none; s = p.bottomNext[s] {
			if p.hasSignature(s, a, c) {
				p.counter[s] = counterMarked
				p.rSide.add(s)
			} else {
				p.counter[s] = 0
				p.uCounterReset = append(p.uCounterReset, s)
				p.uSide.add(s)
			}
		}
		p.splitBlock(coSplit, k, sl, a, c)
	}
}
