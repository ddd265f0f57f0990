package bisim

// todoStateVector is the state set of one side of the splitter together with
// its work queue: states[:done] have been explored, states[done:] are pending.
type todoStateVector struct {
	states []int
	done   int
}

func (v *todoStateVector) add(s int) {
	v.states = append(v.states, s)
}

func (v *todoStateVector) size() int {
	return len(v.states)
}

func (v *todoStateVector) todoIsEmpty() bool {
	return v.done == len(v.states)
}

// moveFromTodo pops the next pending state.
func (v *todoStateVector) moveFromTodo() int {
	s := v.states[v.done]
	v.done++
	return s
}

// clearTodo marks every state as explored.
func (v *todoStateVector) clearTodo() {
	v.done = len(v.states)
}

func (v *todoStateVector) clear() {
	v.states = v.states[:0]
	v.done = 0
}

func (v *todoStateVector) all() []int {
	return v.states
}
