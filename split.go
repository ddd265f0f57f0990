package bisim

type splitVariant int

const (
	// mainSplit separates the states that can reach a marked state inertly (R)
	// from the rest (U). R is marked by the caller.
	mainSplit splitVariant = iota + 1
	// coSplit separates the states that can inertly reach a transition in a
	// given slice (R) from those that cannot (U). The slice is consumed by R
	// itself; the caller seeds both sides with bottom states.
	coSplit
)

type sideStatus int

const (
	initializing sideStatus = iota
	stateChecking
	incomingInertChecking
	outgoingActionConstellationCheck
	aborted
	abortedAfterInitialisation
)

// splitBlock runs the R and U explorations of b in lockstep and moves the
// side that finishes first into a new block. For coSplit, seeds is the slice
// whose sources form R and (a, c) identify its label and target constellation.
// It returns the new block, or none, and whether the new block holds R.
func (p *partitioner) splitBlock(variant splitVariant, b, seeds, a, c int) (int, bool) {
	size := p.blockSize(b)
	if size <= 1 {
		p.clearSplitter()
		return none, false
	}

	rStatus, uStatus := stateChecking, initializing
	seed := none
	if variant == coSplit {
		rStatus, uStatus = initializing, stateChecking
		seed = p.slices[seeds].head
	}
	if 2*p.rSide.size() > size {
		if variant == mainSplit {
			rStatus = abortedAfterInitialisation
		} else {
			rStatus = aborted
		}
	}
	if 2*p.uSide.size() > size {
		uStatus = aborted
	}

	nextBottom, bottomEnd := p.blocks[b].start, p.blocks[b].startNonBottom
	var rState, rIn, uState, uIn, uCandidate, uOut int
	rWins := false

coroutines:
	for {
		switch rStatus {
		case initializing:
			t := seed
			seed = p.sliceNext[t]
			if s := p.from[t]; p.counter[s] != counterMarked {
				p.counter[s] = counterMarked
				p.rSide.add(s)
				if 2*p.rSide.size() > size {
					rStatus = aborted
					break
				}
			}
			if seed == none {
				rStatus = stateChecking
			}
		case stateChecking:
			if p.rSide.todoIsEmpty() {
				rWins = true
				break coroutines
			}
			rState = p.rSide.moveFromTodo()
			rIn = p.inStart[rState]
			rStatus = incomingInertChecking
		case incomingInertChecking:
			if rIn == p.inNonInert[rState] {
				rStatus = stateChecking
				break
			}
			src := p.from[p.incoming[rIn]]
			rIn++
			if p.block[src] == b && p.counter[src] != counterMarked {
				p.counter[src] = counterMarked
				p.rSide.add(src)
				if 2*p.rSide.size() > size {
					rStatus = abortedAfterInitialisation
				}
			}
		}

		switch uStatus {
		case initializing:
			for nextBottom < bottomEnd {
				s := p.statesInBlocks[nextBottom]
				nextBottom++
				if p.counter[s] == counterUndefined {
					p.uSide.add(s)
					if 2*p.uSide.size() > size {
						uStatus = aborted
					}
					break
				}
			}
			if uStatus == initializing && nextBottom == bottomEnd {
				uStatus = stateChecking
			}
		case stateChecking:
			if p.uSide.todoIsEmpty() {
				break coroutines
			}
			uState = p.uSide.moveFromTodo()
			uIn = p.inStart[uState]
			uStatus = incomingInertChecking
		case incomingInertChecking:
			if uIn == p.inNonInert[uState] {
				uStatus = stateChecking
				break
			}
			src := p.from[p.incoming[uIn]]
			uIn++
			if p.block[src] != b || p.counter[src] == counterMarked {
				break
			}
			if p.counter[src] == counterUndefined {
				p.counter[src] = p.inertOut[src] - 1
				p.uCounterReset = append(p.uCounterReset, src)
			} else {
				p.counter[src]--
			}
			if p.counter[src] != 0 {
				break
			}
			if variant == coSplit && (rStatus == initializing || rStatus == aborted) {
				uCandidate = src
				uOut = p.outStart[src]
				uStatus = outgoingActionConstellationCheck
				break
			}
			p.uSide.add(src)
			if 2*p.uSide.size() > size {
				uStatus = aborted
			}
		case outgoingActionConstellationCheck:
			if uOut == p.outStart[uCandidate+1] {
				p.uSide.add(uCandidate)
				uStatus = incomingInertChecking
				if 2*p.uSide.size() > size {
					uStatus = aborted
				}
				break
			}
			t := p.outgoing[uOut]
			uOut = p.lastOfRun(uOut) + 1
			if p.label[t] == a && p.constellationOf(p.to[t]) == c && !p.inert(t) {
				// R reaches the candidate through its own transition.
				uStatus = incomingInertChecking
			}
		}
	}

	side := p.uSide.all()
	if rWins {
		side = p.rSide.all()
	}
	p.moved = append(p.moved[:0], side...)
	p.clearSplitter()
	if len(p.moved) == 0 {
		return none, false
	}
	return p.splitOff(b, p.moved), rWins
}

// clearSplitter resets the counters touched by the last split and empties both sides.
func (p *partitioner) clearSplitter() {
	for _, s := range p.rSide.all() {
		p.counter[s] = counterUndefined
	}
	for _, s := range p.uCounterReset {
		p.counter[s] = counterUndefined
	}
	p.rSide.clear()
	p.uSide.clear()
	p.uCounterReset = p.uCounterReset[:0]
}

// splitOff moves the given states of b into a new block placed in front of b
// and updates inertness, bottom states and the BLC-lists. During
// stabilization it also carries the new bottom lists and pending slices along.
func (p *partitioner) splitOff(b int, moved []int) int {
	nb := len(p.blocks)
	start := p.blocks[b].start
	c := p.blocks[b].constellation
	p.blocks = append(p.blocks, block{start: start, startNonBottom: start, end: start, constellation: c, firstSlice: none})
	p.constellations[c].blocks = append(p.constellations[c].blocks, nb)
	if len(p.constellations[c].blocks) == 2 {
		p.nonTrivial = append(p.nonTrivial, c)
	}
	p.stats.Splits++

	for _, s := range moved {
		p.moveToNewBlock(s, b, nb)
	}

	if p.branching {
		for _, s := range moved {
			wasBottom := p.inertOut[s] == 0
			for q := p.outStart[s]; q < p.outStart[s+1]; q++ {
				if t := p.outgoing[q]; p.silent(t) && p.block[p.to[t]] == b {
					p.makeNonInert(t)
				}
			}
			if !wasBottom && p.inertOut[s] == 0 {
				p.moveToBottom(s)
				p.newBottom = append(p.newBottom, s)
			}
			for i := p.inStart[s]; i < p.inNonInert[s]; {
				t := p.incoming[i]
				u := p.from[t]
				if p.block[u] != b {
					i++
					continue
				}
				p.makeNonInert(t)
				if p.inertOut[u] == 0 {
					p.moveToBottom(u)
					p.newBottom = append(p.newBottom, u)
				}
			}
		}
	}

	for _, s := range moved {
		if p.stabilizing {
			p.moveBottom(s, b, nb)
		}
		if p.initialising {
			continue
		}
		for q := p.outStart[s]; q < p.outStart[s+1]; q++ {
			t := p.outgoing[q]
			old := p.slice[t]
			alt := p.relocateToBlock(t, nb)
			p.updateCoTransition(t, alt, b)
			if p.stabilizing {
				p.movePending(t, alt, old)
			}
		}
	}
	return nb
}
