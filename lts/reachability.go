package lts

import "github.com/bits-and-blooms/bitset"

// Reachable Returns the set of states reachable from the initial state.
func Reachable(l *LTS) *bitset.BitSet {
	seen := bitset.New(uint(l.numStates))
	if l.numStates == 0 {
		return seen
	}

	start := make([]int, l.numStates+1)
	for _, t := range l.transitions {
		start[t.From+1]++
	}
	for s := 0; s < l.numStates; s++ {
		start[s+1] += start[s]
	}
	succ := make([]int, len(l.transitions))
	next := make([]int, l.numStates)
	copy(next, start)
	for _, t := range l.transitions {
		succ[next[t.From]] = t.To
		next[t.From]++
	}

	workList := make([]int, 0)
	workList = append(workList, l.initial)
	seen.Set(uint(l.initial))
	for len(workList) > 0 {
		state := workList[len(workList)-1]
		workList = workList[:len(workList)-1]
		for _, to := range succ[start[state]:start[state+1]] {
			if !seen.Test(uint(to)) {
				seen.Set(uint(to))
				workList = append(workList, to)
			}
		}
	}
	return seen
}

// PruneUnreachable drops every state that cannot be reached from the initial
// state. It returns the pruned system and the map from old to new states, with
// -1 for removed states. Surviving states keep their relative order.
func PruneUnreachable(l *LTS) (*LTS, []int) {
	if l.numStates == 0 {
		return l.Clone(), nil
	}
	seen := Reachable(l)
	id := make([]int, l.numStates)
	next := 0
	for s := 0; s < l.numStates; s++ {
		if seen.Test(uint(s)) {
			id[s] = next
			next++
		} else {
			id[s] = -1
		}
	}

	p := l.withSameLabels(next)
	p.initial = id[l.initial]
	if l.stateLabels != nil {
		p.stateLabels = make([][]string, next)
		for s := 0; s < l.numStates; s++ {
			if id[s] >= 0 {
				p.stateLabels[id[s]] = l.stateLabels[s]
			}
		}
	}
	for _, t := range l.transitions {
		if id[t.From] >= 0 {
			p.transitions = append(p.transitions, Transition{From: id[t.From], Label: t.Label, To: id[t.To]})
		}
	}
	return p, id
}
