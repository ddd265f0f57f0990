package lts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	l := New()
	assert.Equal(t, 0, l.NumStates())
	assert.Equal(t, 1, l.NumLabels())
	assert.Equal(t, TauName, l.Label(l.TauLabel()))
	assert.True(t, l.IsTau(0))
	assert.ErrorIs(t, l.Validate(), ErrNoStates)
}

func TestAddTransition(t *testing.T) {
	l := New()
	s0 := l.AddState()
	s1 := l.AddState()
	a := l.AddLabel("a")
	assert.Equal(t, a, l.AddLabel("a"))

	require.NoError(t, l.AddTransition(s0, a, s1))
	require.NoError(t, l.AddNamedTransition(s1, TauName, s0))
	assert.Equal(t, []Transition{{From: 0, Label: a, To: 1}, {From: 1, Label: 0, To: 0}}, l.Transitions())

	assert.ErrorIs(t, l.AddTransition(2, a, 0), ErrStateOutOfRange)
	assert.ErrorIs(t, l.AddTransition(0, a, -1), ErrStateOutOfRange)
	assert.ErrorIs(t, l.AddTransition(0, 5, 1), ErrLabelOutOfRange)
	assert.Equal(t, 2, l.NumTransitions())

	idx, ok := l.LabelIndex("a")
	assert.True(t, ok)
	assert.Equal(t, a, idx)
	_, ok = l.LabelIndex("b")
	assert.False(t, ok)

	l.ClearTransitions()
	assert.Equal(t, 0, l.NumTransitions())
	assert.Equal(t, 2, l.NumLabels())
}

func TestInitialState(t *testing.T) {
	l := NewWithCapacity(3, 0)
	assert.Equal(t, 0, l.InitialState())
	require.NoError(t, l.SetInitialState(2))
	assert.Equal(t, 2, l.InitialState())
	assert.ErrorIs(t, l.SetInitialState(3), ErrStateOutOfRange)
	assert.Equal(t, 2, l.InitialState())

	l.SetNumStates(2)
	assert.ErrorIs(t, l.Validate(), ErrStateOutOfRange)
}

func TestStateLabels(t *testing.T) {
	l := NewWithCapacity(2, 0)
	assert.False(t, l.HasStateLabels())
	assert.Nil(t, l.StateLabel(1))

	l.SetStateLabel(1, "x", "y")
	assert.True(t, l.HasStateLabels())
	assert.Equal(t, []string{"x", "y"}, l.StateLabel(1))
	assert.Nil(t, l.StateLabel(0))

	s := l.AddState()
	assert.Nil(t, l.StateLabel(s))
	l.SetNumStates(1)
	assert.Equal(t, 1, l.NumStates())
}

func TestClone(t *testing.T) {
	l := NewWithCapacity(2, 1)
	require.NoError(t, l.AddNamedTransition(0, "a", 1))
	l.SetStateLabel(0, "init")

	c := l.Clone()
	require.NoError(t, c.AddNamedTransition(1, "b", 0))
	c.SetStateLabel(0, "changed")

	assert.Equal(t, 1, l.NumTransitions())
	assert.Equal(t, 2, l.NumLabels())
	assert.Equal(t, []string{"init"}, l.StateLabel(0))
	assert.Equal(t, 2, c.NumTransitions())
	assert.Equal(t, 3, c.NumLabels())
}

func TestValidate(t *testing.T) {
	l := NewWithCapacity(2, 1)
	require.NoError(t, l.AddNamedTransition(0, "a", 1))
	assert.NoError(t, l.Validate())

	l.transitions = append(l.transitions, Transition{From: 0, Label: 7, To: 1})
	assert.ErrorIs(t, l.Validate(), ErrLabelOutOfRange)
}
