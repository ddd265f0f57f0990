package bisim

func grow[T any](s []T, size int) []T {
	if len(s) >= size {
		return s
	}
	var empty T
	add := size - len(s)
	for i := 0; i < add; i++ {
		s = append(s, empty)
	}
	return s
}

// growNone extends s to size entries, new entries set to none.
func growNone(s []int, size int) []int {
	for len(s) < size {
		s = append(s, none)
	}
	return s
}

// fill sets every element of s to v.
func fill(s []int, v int) {
	for i := range s {
		s[i] = v
	}
}
