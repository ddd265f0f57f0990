package lts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, n int, edges ...string) *LTS {
	t.Helper()
	l := NewWithCapacity(n, len(edges))
	for _, e := range edges {
		var from, to int
		var label string
		fields := strings.Fields(e)
		require.Len(t, fields, 3)
		from, label, to = atoi(t, fields[0]), fields[1], atoi(t, fields[2])
		require.NoError(t, l.AddNamedTransition(from, label, to))
	}
	return l
}

func atoi(t *testing.T, s string) int {
	t.Helper()
	v := 0
	for _, c := range s {
		require.True(t, c >= '0' && c <= '9', "not a number: %s", s)
		v = 10*v + int(c-'0')
	}
	return v
}

func TestMerge(t *testing.T) {
	l1 := build(t, 2, "0 a 1")
	l1.SetStateLabel(0, "p")
	l2 := NewWithCapacity(3, 0)
	l2.AddLabel("b")
	require.NoError(t, l2.AddNamedTransition(0, "b", 1))
	require.NoError(t, l2.AddNamedTransition(1, "a", 2))
	require.NoError(t, l2.SetInitialState(1))
	l2.SetStateLabel(2, "q")

	m, offset := Merge(l1, l2)
	assert.Equal(t, 2, offset)
	assert.Equal(t, 5, m.NumStates())
	assert.Equal(t, 0, m.InitialState())
	require.Equal(t, 3, m.NumTransitions())

	a, _ := m.LabelIndex("a")
	b, _ := m.LabelIndex("b")
	assert.Equal(t, []Transition{
		{From: 0, Label: a, To: 1},
		{From: 2, Label: b, To: 3},
		{From: 3, Label: a, To: 4},
	}, m.Transitions())
	assert.Equal(t, []string{"p"}, m.StateLabel(0))
	assert.Equal(t, []string{"q"}, m.StateLabel(4))

	// inputs are untouched
	assert.Equal(t, 2, l1.NumStates())
	assert.Equal(t, 1, l1.NumTransitions())
}

func TestHideActions(t *testing.T) {
	l := build(t, 3, "0 a 1", "1 b 2", "2 a 0", "2 c 1")
	assert.Equal(t, 0, HideActions(l))
	assert.Equal(t, 0, HideActions(l, "x", TauName))
	assert.Equal(t, 3, HideActions(l, "a", "c", "x"))

	ts := l.Transitions()
	assert.True(t, l.IsTau(ts[0].Label))
	assert.False(t, l.IsTau(ts[1].Label))
	assert.True(t, l.IsTau(ts[2].Label))
	assert.True(t, l.IsTau(ts[3].Label))
}

func TestContractTauSCCs(t *testing.T) {
	l := build(t, 5,
		"0 tau 1", "1 tau 2", "2 tau 0",
		"1 a 3", "2 a 3", "3 tau 3", "3 b 4", "0 tau 4")
	l.SetStateLabel(0, "x")
	l.SetStateLabel(2, "y")
	require.NoError(t, l.SetInitialState(2))

	c, id := ContractTauSCCs(l, false)
	assert.Equal(t, []int{0, 0, 0, 1, 2}, id)
	assert.Equal(t, 3, c.NumStates())
	assert.Equal(t, 0, c.InitialState())
	assert.Equal(t, []string{"x", "y"}, c.StateLabel(0))
	a, _ := c.LabelIndex("a")
	b, _ := c.LabelIndex("b")
	assert.Equal(t, []Transition{
		{From: 0, Label: a, To: 1},
		{From: 1, Label: b, To: 2},
		{From: 0, Label: tau, To: 2},
	}, c.Transitions())

	d, _ := ContractTauSCCs(l, true)
	assert.ElementsMatch(t, []Transition{
		{From: 0, Label: tau, To: 0},
		{From: 0, Label: a, To: 1},
		{From: 1, Label: tau, To: 1},
		{From: 1, Label: b, To: 2},
		{From: 0, Label: tau, To: 2},
	}, d.Transitions())
}

func TestContractTauSCCsAcyclic(t *testing.T) {
	l := build(t, 4, "0 tau 1", "1 tau 2", "0 a 3", "2 tau 3")
	c, id := ContractTauSCCs(l, true)
	assert.Equal(t, []int{0, 1, 2, 3}, id)
	assert.Equal(t, l.Transitions(), c.Transitions())
}

func TestContractTauSCCsDeepChain(t *testing.T) {
	const n = 100000
	l := NewWithCapacity(n, n)
	for s := 0; s+1 < n; s++ {
		require.NoError(t, l.AddTransition(s, tau, s+1))
	}
	require.NoError(t, l.AddTransition(n-1, tau, 0))
	c, _ := ContractTauSCCs(l, false)
	assert.Equal(t, 1, c.NumStates())
	assert.Equal(t, 0, c.NumTransitions())
}

func TestReachable(t *testing.T) {
	l := build(t, 5, "0 a 1", "1 b 2", "3 a 0", "2 tau 2")
	seen := Reachable(l)
	assert.Equal(t, uint(3), seen.Count())
	assert.True(t, seen.Test(2))
	assert.False(t, seen.Test(3))
	assert.False(t, seen.Test(4))
}

func TestPruneUnreachable(t *testing.T) {
	l := build(t, 5, "1 a 2", "2 b 4", "3 a 1", "0 c 4")
	l.SetStateLabel(4, "end")
	require.NoError(t, l.SetInitialState(1))

	p, id := PruneUnreachable(l)
	assert.Equal(t, []int{-1, 0, 1, -1, 2}, id)
	assert.Equal(t, 3, p.NumStates())
	assert.Equal(t, 0, p.InitialState())
	assert.Equal(t, []string{"end"}, p.StateLabel(2))
	a, _ := p.LabelIndex("a")
	b, _ := p.LabelIndex("b")
	assert.Equal(t, []Transition{{From: 0, Label: a, To: 1}, {From: 1, Label: b, To: 2}}, p.Transitions())
}

func TestGenerateDot(t *testing.T) {
	l := build(t, 2, "0 a 1", "1 tau 0")
	l.SetStateLabel(1, "done")
	dot := GenerateDot(l)
	assert.True(t, strings.HasPrefix(dot, "digraph LTS {\n"))
	assert.Contains(t, dot, "start -> 0;")
	assert.Contains(t, dot, `0 -> 1 [label="a"];`)
	assert.Contains(t, dot, `1 -> 0 [label="tau", style=dashed];`)
	assert.Contains(t, dot, `1 [label="1\n{done}"];`)

	var sb strings.Builder
	require.NoError(t, WriteDot(&sb, l))
	assert.Equal(t, dot, sb.String())
}
