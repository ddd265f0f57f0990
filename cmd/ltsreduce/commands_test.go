package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geange/bisim/lts"
)

// twoBranches has two a-successors that behave alike.
const twoBranches = `des (0, 4, 3)
(0, "a", 1)
(0, "a", 2)
(1, "b", 0)
(2, "b", 0)
`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func readBack(t *testing.T, path string) *lts.LTS {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	l, err := lts.ReadAut(f)
	require.NoError(t, err)
	return l
}

func TestReduceCommand(t *testing.T) {
	in := writeTemp(t, "in.aut", twoBranches)
	dir := t.TempDir()
	out := filepath.Join(dir, "out.aut")
	metrics := filepath.Join(dir, "reduce.prom")

	_, stderr, err := execute(t, "reduce", in, "-o", out, "--metrics-file", metrics)
	require.NoError(t, err)
	assert.Contains(t, stderr, "ltsreduce: reduced")

	q := readBack(t, out)
	assert.Equal(t, 2, q.NumStates())
	assert.Equal(t, 2, q.NumTransitions())

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `ltsreduce_states{equivalence="strong",stage="input"} 3`)
	assert.Contains(t, text, `ltsreduce_states{equivalence="strong",stage="output"} 2`)
	assert.Contains(t, text, `ltsreduce_transitions{equivalence="strong",stage="output"} 2`)
}

func TestReduceCommandStdout(t *testing.T) {
	in := writeTemp(t, "in.aut", twoBranches)
	stdout, _, err := execute(t, "reduce", in, "--out=dot")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "digraph"), stdout)
}

func TestReduceCommandFormatFlags(t *testing.T) {
	// No extension to derive the input format from.
	in := writeTemp(t, "sys.txt", twoBranches)

	_, _, err := execute(t, "reduce", in)
	assert.ErrorIs(t, err, ErrUnknownFormat)

	stdout, _, err := execute(t, "reduce", "--in=aut", in)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "des ("), stdout)

	stdout, _, err = execute(t, "reduce", "--in=aut", "--out=dot", in)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "digraph"), stdout)

	stdout, _, err = execute(t, "reduce", "--in-format=aut", "--out=dot", in)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "digraph"), stdout)
}

func TestReduceCommandOutputArgument(t *testing.T) {
	in := writeTemp(t, "in.aut", twoBranches)
	dir := t.TempDir()

	out := filepath.Join(dir, "second.aut")
	stdout, _, err := execute(t, "reduce", in, out)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Equal(t, 2, readBack(t, out).NumStates())

	long := filepath.Join(dir, "long.aut")
	_, _, err = execute(t, "reduce", in, "--output", long)
	require.NoError(t, err)
	assert.Equal(t, 2, readBack(t, long).NumStates())

	// The format flag wins over the extension.
	dot := filepath.Join(dir, "graph.aut")
	_, _, err = execute(t, "reduce", in, dot, "--out=dot")
	require.NoError(t, err)
	data, err := os.ReadFile(dot)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "digraph"))

	_, _, err = execute(t, "reduce", in, out, "-o", long)
	assert.Error(t, err)
}

func TestReduceCommandHideAndPrune(t *testing.T) {
	in := writeTemp(t, "in.aut", `des (0, 4, 5)
(0, "a", 1)
(1, "internal", 2)
(2, "b", 0)
(3, "c", 4)
`)
	out := filepath.Join(t.TempDir(), "out.aut")
	_, _, err := execute(t, "reduce", in, "-o", out, "-e", "branching", "--tau", "internal", "--prune")
	require.NoError(t, err)

	q := readBack(t, out)
	assert.Equal(t, 2, q.NumStates())
	for _, tr := range q.Transitions() {
		assert.False(t, q.IsTau(tr.Label))
	}
}

func TestReduceCommandErrors(t *testing.T) {
	in := writeTemp(t, "in.aut", twoBranches)

	_, _, err := execute(t, "reduce", in, "-o", "out.svg")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, _, err = execute(t, "reduce", in, "-e", "weak")
	assert.Error(t, err)

	bad := writeTemp(t, "bad.aut", "des (0, 1, 1)\n(0, a)\n")
	_, _, err = execute(t, "reduce", bad)
	assert.ErrorIs(t, err, lts.ErrMalformedAut)
}

func TestCompareCommand(t *testing.T) {
	silent := writeTemp(t, "silent.aut", "des (0, 3, 3)\n(0, a, 1)\n(1, tau, 2)\n(2, b, 2)\n")
	direct := writeTemp(t, "direct.aut", "des (0, 2, 2)\n(0, a, 1)\n(1, b, 1)\n")

	stdout, _, err := execute(t, "compare", silent, direct, "-e", "branching")
	require.NoError(t, err)
	assert.Equal(t, "true\n", stdout)

	stdout, _, err = execute(t, "compare", silent, direct)
	require.NoError(t, err)
	assert.Equal(t, "false\n", stdout)

	stdout, _, err = execute(t, "compare", silent, direct, "--exit-code")
	assert.ErrorIs(t, err, errNotEquivalent)
	assert.Equal(t, "false\n", stdout)

	_, _, err = execute(t, "compare", silent, filepath.Join(t.TempDir(), "missing.aut"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigFlagPrecedence(t *testing.T) {
	silent := writeTemp(t, "silent.aut", "des (0, 3, 3)\n(0, a, 1)\n(1, tau, 2)\n(2, b, 2)\n")
	direct := writeTemp(t, "direct.aut", "des (0, 2, 2)\n(0, a, 1)\n(1, b, 1)\n")
	cfg := writeTemp(t, "ltsreduce.yaml", "equivalence: branching\nlog_level: error\n")

	stdout, _, err := execute(t, "--config", cfg, "compare", silent, direct)
	require.NoError(t, err)
	assert.Equal(t, "true\n", stdout)

	stdout, _, err = execute(t, "--config", cfg, "-e", "strong", "compare", silent, direct)
	require.NoError(t, err)
	assert.Equal(t, "false\n", stdout)
}

func TestInfoCommand(t *testing.T) {
	in := writeTemp(t, "in.aut", "des (0, 2, 4)\n(0, a, 1)\n(1, b, 0)\n")
	stdout, _, err := execute(t, "info", in)
	require.NoError(t, err)
	assert.Contains(t, stdout, "states:      4\n")
	assert.Contains(t, stdout, "reachable:   2\n")
	assert.Contains(t, stdout, "transitions: 2\n")
	assert.Contains(t, stdout, "labels:      3\n")
}

func TestInfoCommandFormatFlag(t *testing.T) {
	in := writeTemp(t, "sys.txt", "des (0, 1, 2)\n(0, a, 1)\n")

	_, _, err := execute(t, "info", in)
	assert.ErrorIs(t, err, ErrUnknownFormat)

	stdout, _, err := execute(t, "info", "--in=aut", in)
	require.NoError(t, err)
	assert.Contains(t, stdout, "states:      2\n")

	stdout, _, err = execute(t, "info", "--in-format=aut", in)
	require.NoError(t, err)
	assert.Contains(t, stdout, "transitions: 1\n")

	_, _, err = execute(t, "info", "--in=dot", in)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestCompareCommandFormatFlag(t *testing.T) {
	first := writeTemp(t, "first.txt", "des (0, 1, 2)\n(0, a, 1)\n")
	second := writeTemp(t, "second.txt", "des (0, 2, 3)\n(0, a, 1)\n(0, a, 2)\n")

	stdout, _, err := execute(t, "compare", "--in=aut", first, second)
	require.NoError(t, err)
	assert.Equal(t, "true\n", stdout)
}
