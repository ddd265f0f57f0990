package bisim

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geange/bisim/lts"
)

// signaturePartition computes the same equivalences by naive signature
// refinement: a state's signature is its class together with the set of
// (label, target class) pairs it can reach after inert silent steps, plus a
// divergence marker when requested.
func signaturePartition(l *lts.LTS, branching, divergence bool) []int {
	n := l.NumStates()
	succ := make([][]lts.Transition, n)
	for _, t := range l.Transitions() {
		succ[t.From] = append(succ[t.From], t)
	}
	class := make([]int, n)
	numClasses := 1
	for {
		ids := make(map[string]int)
		next := make([]int, n)
		for s := 0; s < n; s++ {
			reach := []int{s}
			if branching {
				reach = inertReach(s, class, succ, l)
			}
			pairs := make(map[[2]int]bool)
			for _, u := range reach {
				for _, t := range succ[u] {
					if branching && l.IsTau(t.Label) && class[t.To] == class[s] {
						continue
					}
					pairs[[2]int{t.Label, class[t.To]}] = true
				}
			}
			if divergence && inertCycle(reach, class, succ, l) {
				pairs[[2]int{-1, -1}] = true
			}
			keys := make([]string, 0, len(pairs))
			for p := range pairs {
				keys = append(keys, fmt.Sprintf("%d:%d", p[0], p[1]))
			}
			slices.Sort(keys)
			sig := fmt.Sprintf("%d|%s", class[s], strings.Join(keys, ","))
			id, ok := ids[sig]
			if !ok {
				id = len(ids)
				ids[sig] = id
			}
			next[s] = id
		}
		class = next
		if len(ids) == numClasses {
			return class
		}
		numClasses = len(ids)
	}
}

// inertReach returns the states reachable from s by silent steps inside its class.
func inertReach(s int, class []int, succ [][]lts.Transition, l *lts.LTS) []int {
	seen := map[int]bool{s: true}
	reach := []int{s}
	for i := 0; i < len(reach); i++ {
		for _, t := range succ[reach[i]] {
			if l.IsTau(t.Label) && class[t.To] == class[s] && !seen[t.To] {
				seen[t.To] = true
				reach = append(reach, t.To)
			}
		}
	}
	return reach
}

// inertCycle reports whether the silent steps inside the class of reach[0]
// contain a cycle among the states of reach.
func inertCycle(reach []int, class []int, succ [][]lts.Transition, l *lts.LTS) bool {
	c := class[reach[0]]
	color := make(map[int]int)
	var visit func(u int) bool
	visit = func(u int) bool {
		color[u] = 1
		for _, t := range succ[u] {
			if !l.IsTau(t.Label) || class[t.To] != c {
				continue
			}
			switch color[t.To] {
			case 1:
				return true
			case 0:
				if visit(t.To) {
					return true
				}
			}
		}
		color[u] = 2
		return false
	}
	for _, u := range reach {
		if color[u] == 0 && visit(u) {
			return true
		}
	}
	return false
}

func randomLTS(r *rand.Rand, maxStates, maxLabels int) *lts.LTS {
	n := 1 + r.IntN(maxStates)
	numLabels := 1 + r.IntN(maxLabels)
	l := lts.NewWithCapacity(n, 0)
	names := []string{lts.TauName, "a", "b", "c", "d"}
	m := r.IntN(3*n + 1)
	for i := 0; i < m; i++ {
		from, to := r.IntN(n), r.IntN(n)
		label := names[r.IntN(numLabels)]
		// Bias towards silent steps.
		if r.IntN(3) == 0 {
			label = lts.TauName
		}
		_ = l.AddNamedTransition(from, label, to)
	}
	_ = l.SetInitialState(r.IntN(n))
	return l
}

func samePartition(t *testing.T, want []int, got *Partition, l *lts.LTS) {
	t.Helper()
	n := len(want)
	for s := 0; s < n; s++ {
		for u := s + 1; u < n; u++ {
			if (want[s] == want[u]) != got.Equivalent(s, u) {
				var sb strings.Builder
				_ = lts.WriteAut(&sb, l)
				t.Fatalf("states %d and %d: oracle says %v, engine says %v\n%s",
					s, u, want[s] == want[u], got.Equivalent(s, u), sb.String())
			}
		}
	}
}

func TestComputeAgainstSignatureRefinement(t *testing.T) {
	equivalences := []struct {
		eq         Equivalence
		branching  bool
		divergence bool
	}{
		{Strong, false, false},
		{Branching, true, false},
		{DivergenceBranching, true, true},
	}
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 400; i++ {
		l := randomLTS(r, 9, 4)
		for _, e := range equivalences {
			want := signaturePartition(l, e.branching, e.divergence)
			for _, policy := range []SplitterPolicy{FirstTwo, Smallest} {
				part, err := Compute(l, WithEquivalence(e.eq), WithSplitterPolicy(policy), withInvariantChecks())
				require.NoError(t, err)
				samePartition(t, want, part, l)

				q, err := Reduce(l, WithEquivalence(e.eq), WithSplitterPolicy(policy))
				require.NoError(t, err)
				assert.Equal(t, part.NumClasses(), q.NumStates())
			}
		}
	}
}

func TestReduceIdempotent(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 150; i++ {
		l := randomLTS(r, 7, 3)
		for _, eq := range []Equivalence{Strong, Branching, DivergenceBranching} {
			q, err := Reduce(l, WithEquivalence(eq))
			require.NoError(t, err)
			again, err := Reduce(q, WithEquivalence(eq))
			require.NoError(t, err)
			require.True(t, isomorphic(q, again), "%s reduction of reduction %d differs", eq, i)
		}
	}
}

func TestReduceBisimilarSystems(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	for i := 0; i < 100; i++ {
		l := randomLTS(r, 6, 3)
		// Duplicating every state yields a strongly bisimilar system.
		twin := lts.NewWithCapacity(2*l.NumStates(), 0)
		for a := 1; a < l.NumLabels(); a++ {
			twin.AddLabel(l.Label(a))
		}
		n := l.NumStates()
		for _, t := range l.Transitions() {
			_ = twin.AddTransition(t.From, t.Label, t.To+n)
			_ = twin.AddTransition(t.From+n, t.Label, t.To)
		}
		_ = twin.SetInitialState(l.InitialState() + n)

		for _, eq := range []Equivalence{Strong, Branching, DivergenceBranching} {
			ok, err := Equivalent(l, twin, WithEquivalence(eq))
			require.NoError(t, err)
			require.True(t, ok, "%s: system %d is not equivalent to its twin", eq, i)

			q1, err := Reduce(l, WithEquivalence(eq))
			require.NoError(t, err)
			q2, err := Reduce(twin, WithEquivalence(eq))
			require.NoError(t, err)
			pruned1, _ := lts.PruneUnreachable(q1)
			pruned2, _ := lts.PruneUnreachable(q2)
			require.True(t, isomorphic(pruned1, pruned2), "%s: reductions of system %d differ", eq, i)
		}
	}
}
