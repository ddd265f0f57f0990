package lts

import "slices"

// Merge returns the disjoint union of l1 and l2. States of l2 are shifted by
// l1.NumStates(), which is returned as the offset; labels are unified by name.
// The initial state of the result is the initial state of l1.
func Merge(l1, l2 *LTS) (*LTS, int) {
	m := l1.Clone()
	offset := l1.NumStates()
	m.SetNumStates(offset + l2.NumStates())

	relabel := make([]int, l2.NumLabels())
	for i, name := range l2.labels {
		relabel[i] = m.AddLabel(name)
	}
	m.transitions = slices.Grow(m.transitions, len(l2.transitions))
	for _, t := range l2.transitions {
		m.transitions = append(m.transitions, Transition{
			From:  t.From + offset,
			Label: relabel[t.Label],
			To:    t.To + offset,
		})
	}
	if l2.HasStateLabels() {
		for s := 0; s < l2.NumStates(); s++ {
			m.SetStateLabel(offset+s, l2.StateLabel(s)...)
		}
	}
	return m, offset
}
