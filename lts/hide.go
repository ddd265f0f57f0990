package lts

// HideActions renames every transition labelled with one of names to tau and
// returns how many transitions were renamed. Unknown names are ignored.
func HideActions(l *LTS, names ...string) int {
	if len(names) == 0 {
		return 0
	}
	hidden := make([]bool, len(l.labels))
	found := false
	for _, name := range names {
		if idx, ok := l.labelIndex[name]; ok && idx != tau {
			hidden[idx] = true
			found = true
		}
	}
	if !found {
		return 0
	}

	count := 0
	for i := range l.transitions {
		if hidden[l.transitions[i].Label] {
			l.transitions[i].Label = tau
			count++
		}
	}
	return count
}
