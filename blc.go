package bisim

// blcSlice groups the transitions of one block that share a label and a
// target constellation. Transitions are doubly linked through
// partitioner.slicePrev/sliceNext; slices of a block through prev/next.
type blcSlice struct {
	block         int
	label         int
	constellation int

	head int
	size int
	prev int
	next int

	// Slice created for the same label and constellation in the block split
	// off most recently, and for the same block and label in the most recent
	// constellation. The stamps say which split the twin belongs to.
	splitTwin  int
	splitStamp int
	constTwin  int
	constStamp int
}

func (p *partitioner) newSlice(b, label, c int) int {
	sl := blcSlice{
		block:         b,
		label:         label,
		constellation: c,
		head:          none,
		prev:          none,
		next:          none,
		splitTwin:     none,
		splitStamp:    none,
		constTwin:     none,
		constStamp:    none,
	}
	if n := len(p.freeSlices); n > 0 {
		idx := p.freeSlices[n-1]
		p.freeSlices = p.freeSlices[:n-1]
		p.slices[idx] = sl
		return idx
	}
	p.slices = append(p.slices, sl)
	return len(p.slices) - 1
}

// isInertSlice reports whether transitions of block b with this label into c are inert.
func (p *partitioner) isInertSlice(b, label, c int) bool {
	return p.branching && label == p.tau && c == p.blocks[b].constellation
}

func (p *partitioner) pushFrontSlice(b, sl int) {
	head := p.blocks[b].firstSlice
	p.slices[sl].prev = none
	p.slices[sl].next = head
	if head != none {
		p.slices[head].prev = sl
	}
	p.blocks[b].firstSlice = sl
}

func (p *partitioner) insertSliceAfter(after, sl int) {
	next := p.slices[after].next
	p.slices[sl].prev = after
	p.slices[sl].next = next
	if next != none {
		p.slices[next].prev = sl
	}
	p.slices[after].next = sl
}

func (p *partitioner) removeSlice(sl int) {
	s := p.slices[sl]
	if s.prev != none {
		p.slices[s.prev].next = s.next
	} else {
		p.blocks[s.block].firstSlice = s.next
	}
	if s.next != none {
		p.slices[s.next].prev = s.prev
	}
	p.slices[sl] = blcSlice{
		block:         none,
		label:         none,
		constellation: none,
		head:          none,
		prev:          none,
		next:          none,
		splitTwin:     none,
		splitStamp:    none,
		constTwin:     none,
		constStamp:    none,
	}
	p.freeSlices = append(p.freeSlices, sl)
}

func (p *partitioner) linkTransition(sl, t int) {
	head := p.slices[sl].head
	p.slicePrev[t] = none
	p.sliceNext[t] = head
	if head != none {
		p.slicePrev[head] = t
	}
	p.slices[sl].head = t
	p.slices[sl].size++
	p.slice[t] = sl
}

// unlinkTransition takes t out of its slice, releasing the slice once it is
// empty. It returns a transition still left in the slice, or none.
func (p *partitioner) unlinkTransition(t int) int {
	sl := p.slice[t]
	prev, next := p.slicePrev[t], p.sliceNext[t]
	if prev != none {
		p.sliceNext[prev] = next
	} else {
		p.slices[sl].head = next
	}
	if next != none {
		p.slicePrev[next] = prev
	}
	p.slicePrev[t], p.sliceNext[t] = none, none
	p.slice[t] = none
	p.slices[sl].size--
	if p.slices[sl].size == 0 {
		p.removeSlice(sl)
		return none
	}
	return p.slices[sl].head
}

// relocateToConstellation moves t, whose target block just became the new
// constellation nc, into the slice for nc of the same source block.
func (p *partitioner) relocateToConstellation(t, nc int) {
	old := p.slice[t]
	target := p.slices[old].constTwin
	if p.slices[old].constStamp != nc {
		b, a := p.slices[old].block, p.slices[old].label
		target = p.newSlice(b, a, nc)
		if p.isInertSlice(b, a, nc) {
			p.pushFrontSlice(b, target)
		} else {
			p.insertSliceAfter(old, target)
		}
		p.slices[old].constTwin = target
		p.slices[old].constStamp = nc
	}
	p.unlinkTransition(t)
	p.linkTransition(target, t)
}

// relocateToBlock moves t, whose source just moved to nb, into the matching
// slice of nb. It returns a transition left behind in the old slice, or none.
func (p *partitioner) relocateToBlock(t, nb int) int {
	old := p.slice[t]
	target := p.slices[old].splitTwin
	if p.slices[old].splitStamp != nb {
		a, c := p.slices[old].label, p.slices[old].constellation
		target = p.newSlice(nb, a, c)
		head := p.blocks[nb].firstSlice
		if head == none || p.isInertSlice(nb, a, c) {
			p.pushFrontSlice(nb, target)
		} else {
			p.insertSliceAfter(head, target)
		}
		p.slices[old].splitTwin = target
		p.slices[old].splitStamp = nb
	}
	alt := p.unlinkTransition(t)
	p.linkTransition(target, t)
	return alt
}

// buildSlices creates the BLC-lists once the initial partition is known.
// order lists the transitions by label, tau first.
func (p *partitioner) buildSlices(order []int) {
	m := len(p.from)
	p.slice = make([]int, m)
	p.slicePrev = make([]int, m)
	p.sliceNext = make([]int, m)

	start := make([]int, len(p.blocks)+1)
	for t := 0; t < m; t++ {
		start[p.block[p.from[t]]+1]++
	}
	for b := 0; b < len(p.blocks); b++ {
		start[b+1] += start[b]
	}
	byBlock := make([]int, m)
	for _, t := range order {
		b := p.block[p.from[t]]
		byBlock[start[b]] = t
		start[b]++
	}

	cur := none
	for _, t := range byBlock {
		b, a := p.block[p.from[t]], p.label[t]
		if cur == none || p.slices[cur].block != b || p.slices[cur].label != a {
			sl := p.newSlice(b, a, 0)
			if cur == none || p.slices[cur].block != b {
				p.pushFrontSlice(b, sl)
			} else {
				p.insertSliceAfter(cur, sl)
			}
			cur = sl
		}
		p.linkTransition(cur, t)
	}
}
