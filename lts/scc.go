package lts

import "github.com/bits-and-blooms/bitset"

// tauGraph is the tau-successor relation in compressed row form.
type tauGraph struct {
	start []int
	succ  []int
}

func newTauGraph(l *LTS) *tauGraph {
	g := &tauGraph{start: make([]int, l.numStates+1)}
	for _, t := range l.transitions {
		if t.Label == tau {
			g.start[t.From+1]++
		}
	}
	for s := 0; s < l.numStates; s++ {
		g.start[s+1] += g.start[s]
	}
	g.succ = make([]int, g.start[l.numStates])
	next := make([]int, l.numStates)
	copy(next, g.start)
	for _, t := range l.transitions {
		if t.Label == tau {
			g.succ[next[t.From]] = t.To
			next[t.From]++
		}
	}
	return g
}

type tarjanFrame struct {
	state int
	edge  int
}

// tauComponents numbers the strongly connected components of the tau graph with
// Tarjan's algorithm, run iteratively so deep tau chains do not exhaust the stack.
func tauComponents(l *LTS) (comp []int, numComp int) {
	n := l.numStates
	g := newTauGraph(l)

	index := make([]int, n)
	low := make([]int, n)
	comp = make([]int, n)
	for s := range index {
		index[s] = -1
		comp[s] = -1
	}
	onStack := bitset.New(uint(n))
	stack := make([]int, 0, n)
	frames := make([]tarjanFrame, 0, 16)
	counter := 0

	for root := 0; root < n; root++ {
		if index[root] != -1 {
			continue
		}
		index[root], low[root] = counter, counter
		counter++
		stack = append(stack, root)
		onStack.Set(uint(root))
		frames = append(frames, tarjanFrame{state: root, edge: g.start[root]})

		for len(frames) > 0 {
			f := &frames[len(frames)-1]
			v := f.state
			if f.edge < g.start[v+1] {
				w := g.succ[f.edge]
				f.edge++
				if index[w] == -1 {
					index[w], low[w] = counter, counter
					counter++
					stack = append(stack, w)
					onStack.Set(uint(w))
					frames = append(frames, tarjanFrame{state: w, edge: g.start[w]})
				} else if onStack.Test(uint(w)) {
					low[v] = min(low[v], index[w])
				}
				continue
			}

			if low[v] == index[v] {
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack.Clear(uint(w))
					comp[w] = numComp
					if w == v {
						break
					}
				}
				numComp++
			}
			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				u := frames[len(frames)-1].state
				low[u] = min(low[u], low[v])
			}
		}
	}
	return comp, numComp
}

// ContractTauSCCs collapses every strongly connected component of the tau graph
// into a single state and returns the contracted system together with the map
// from old to new states. New states are numbered in order of their smallest
// member, so a system without tau cycles keeps its numbering.
//
// Tau transitions inside a component are dropped. With preserveDivergence a
// component that contains a tau cycle keeps one tau self-loop.
func ContractTauSCCs(l *LTS, preserveDivergence bool) (*LTS, []int) {
	if l.numStates == 0 {
		return l.Clone(), nil
	}
	comp, numComp := tauComponents(l)

	renumber := make([]int, numComp)
	for i := range renumber {
		renumber[i] = -1
	}
	id := make([]int, l.numStates)
	next := 0
	for s := 0; s < l.numStates; s++ {
		c := comp[s]
		if renumber[c] == -1 {
			renumber[c] = next
			next++
		}
		id[s] = renumber[c]
	}

	divergent := bitset.New(uint(numComp))
	if preserveDivergence {
		size := make([]int, numComp)
		for s := 0; s < l.numStates; s++ {
			size[id[s]]++
		}
		for c, sz := range size {
			if sz > 1 {
				divergent.Set(uint(c))
			}
		}
		for _, t := range l.transitions {
			if t.Label == tau && t.From == t.To {
				divergent.Set(uint(id[t.From]))
			}
		}
	}

	c := l.withSameLabels(numComp)
	c.initial = id[l.initial]
	if l.stateLabels != nil {
		c.stateLabels = make([][]string, numComp)
		for s := 0; s < l.numStates; s++ {
			c.stateLabels[id[s]] = append(c.stateLabels[id[s]], l.stateLabels[s]...)
		}
	}

	seen := make(map[Transition]struct{}, len(l.transitions))
	for _, t := range l.transitions {
		nt := Transition{From: id[t.From], Label: t.Label, To: id[t.To]}
		if nt.Label == tau && nt.From == nt.To && !divergent.Test(uint(nt.From)) {
			continue
		}
		if _, ok := seen[nt]; ok {
			continue
		}
		seen[nt] = struct{}{}
		c.transitions = append(c.transitions, nt)
	}
	return c, id
}
