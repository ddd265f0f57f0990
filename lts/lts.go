// Package lts holds labelled transition systems: states are dense integers,
// actions are interned labels and transitions are (from, label, to) triples.
// Label 0 is always the silent action tau.
package lts

import (
	"fmt"
	"slices"
)

const (
	// TauName is the name of the silent action.
	TauName = "tau"

	tau = 0
)

// Transition is a single labelled step between two states.
type Transition struct {
	From  int
	Label int
	To    int
}

// LTS Represents a labelled transition system. States are integers in [0, NumStates) and must be
// created using AddState or SetNumStates. Labels are interned by name with AddLabel; label 0 is tau.
// Add transitions using AddTransition. The initial state defaults to 0.
type LTS struct {
	numStates int
	initial   int

	labels     []string
	labelIndex map[string]int

	transitions []Transition

	// Optional per-state labels; nil when the system carries none.
	stateLabels [][]string
}

// New returns an empty system that only knows the tau label.
func New() *LTS {
	return NewWithCapacity(0, 0)
}

func NewWithCapacity(numStates, numTransitions int) *LTS {
	l := &LTS{
		labels:      make([]string, 0, 4),
		labelIndex:  make(map[string]int, 4),
		transitions: make([]Transition, 0, numTransitions),
	}
	l.AddLabel(TauName)
	l.SetNumStates(numStates)
	return l
}

// NumStates Returns the number of states.
func (l *LTS) NumStates() int {
	return l.numStates
}

// AddState Create a new state.
func (l *LTS) AddState() int {
	s := l.numStates
	l.numStates++
	if l.stateLabels != nil {
		l.stateLabels = append(l.stateLabels, nil)
	}
	return s
}

// SetNumStates grows or shrinks the state space. Transitions are not touched, so
// shrinking may leave the system invalid until Validate is consulted.
func (l *LTS) SetNumStates(n int) {
	l.numStates = n
	if l.stateLabels != nil {
		l.stateLabels = grow(l.stateLabels, n)[:n]
	}
}

func (l *LTS) InitialState() int {
	return l.initial
}

// SetInitialState Set the initial state.
func (l *LTS) SetInitialState(s int) error {
	if s < 0 || s >= l.numStates {
		return fmt.Errorf("initial state %d of %d states: %w", s, l.numStates, ErrStateOutOfRange)
	}
	l.initial = s
	return nil
}

// AddLabel interns name and returns its index. Adding an existing name is a no-op.
func (l *LTS) AddLabel(name string) int {
	if idx, ok := l.labelIndex[name]; ok {
		return idx
	}
	idx := len(l.labels)
	l.labels = append(l.labels, name)
	l.labelIndex[name] = idx
	return idx
}

// LabelIndex looks up a label by name.
func (l *LTS) LabelIndex(name string) (int, bool) {
	idx, ok := l.labelIndex[name]
	return idx, ok
}

func (l *LTS) Label(idx int) string {
	return l.labels[idx]
}

func (l *LTS) NumLabels() int {
	return len(l.labels)
}

// TauLabel Returns the index of the silent action.
func (l *LTS) TauLabel() int {
	return tau
}

func (l *LTS) IsTau(label int) bool {
	return label == tau
}

// AddTransition Add a new transition with the specified source, label, dest.
func (l *LTS) AddTransition(from, label, to int) error {
	if from < 0 || from >= l.numStates {
		return fmt.Errorf("transition source %d of %d states: %w", from, l.numStates, ErrStateOutOfRange)
	}
	if to < 0 || to >= l.numStates {
		return fmt.Errorf("transition target %d of %d states: %w", to, l.numStates, ErrStateOutOfRange)
	}
	if label < 0 || label >= len(l.labels) {
		return fmt.Errorf("transition label %d of %d labels: %w", label, len(l.labels), ErrLabelOutOfRange)
	}
	l.transitions = append(l.transitions, Transition{From: from, Label: label, To: to})
	return nil
}

// AddNamedTransition interns label and adds the transition.
func (l *LTS) AddNamedTransition(from int, label string, to int) error {
	return l.AddTransition(from, l.AddLabel(label), to)
}

// Transitions Returns the transitions in insertion order. The slice is owned by the LTS.
func (l *LTS) Transitions() []Transition {
	return l.transitions
}

func (l *LTS) NumTransitions() int {
	return len(l.transitions)
}

// ClearTransitions drops all transitions, keeping states and labels.
func (l *LTS) ClearTransitions() {
	l.transitions = l.transitions[:0]
}

func (l *LTS) HasStateLabels() bool {
	return l.stateLabels != nil
}

// StateLabel Returns the labels attached to state s, or nil.
func (l *LTS) StateLabel(s int) []string {
	if l.stateLabels == nil {
		return nil
	}
	return l.stateLabels[s]
}

// SetStateLabel attaches values to s. The first call switches the system to carrying state labels.
func (l *LTS) SetStateLabel(s int, values ...string) {
	if l.stateLabels == nil {
		l.stateLabels = make([][]string, l.numStates)
	}
	l.stateLabels[s] = slices.Clone(values)
}

// Validate checks that every state and label reference is in range.
func (l *LTS) Validate() error {
	if l.numStates == 0 {
		return ErrNoStates
	}
	if l.initial < 0 || l.initial >= l.numStates {
		return fmt.Errorf("initial state %d of %d states: %w", l.initial, l.numStates, ErrStateOutOfRange)
	}
	for i, t := range l.transitions {
		if t.From < 0 || t.From >= l.numStates || t.To < 0 || t.To >= l.numStates {
			return fmt.Errorf("transition %d (%d,%d,%d): %w", i, t.From, t.Label, t.To, ErrStateOutOfRange)
		}
		if t.Label < 0 || t.Label >= len(l.labels) {
			return fmt.Errorf("transition %d (%d,%d,%d): %w", i, t.From, t.Label, t.To, ErrLabelOutOfRange)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (l *LTS) Clone() *LTS {
	c := &LTS{
		numStates:   l.numStates,
		initial:     l.initial,
		labels:      slices.Clone(l.labels),
		labelIndex:  make(map[string]int, len(l.labelIndex)),
		transitions: slices.Clone(l.transitions),
	}
	for k, v := range l.labelIndex {
		c.labelIndex[k] = v
	}
	if l.stateLabels != nil {
		c.stateLabels = make([][]string, len(l.stateLabels))
		for i, v := range l.stateLabels {
			c.stateLabels[i] = slices.Clone(v)
		}
	}
	return c
}

// withSameLabels returns an empty system sharing l's label table.
func (l *LTS) withSameLabels(numStates int) *LTS {
	c := NewWithCapacity(numStates, 0)
	for _, name := range l.labels[1:] {
		c.AddLabel(name)
	}
	return c
}

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
