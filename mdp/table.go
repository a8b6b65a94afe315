package mdp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// table is the dense, index-addressed form of a model.
// trans[a] is |S|×|S| with row = from, column = next; reward is |S|×|A|.
type table struct {
	numStates  int
	numActions int
	trans      []*mat.Dense
	reward     *mat.Dense
}

// tabulate evaluates p and r once for every index combination.
func tabulate[S, A comparable](states []S, actions []A, p TransitionFunc[S, A], r RewardFunc[S, A]) *table {
	n, m := len(states), len(actions)
	t := &table{
		numStates:  n,
		numActions: m,
		trans:      make([]*mat.Dense, m),
		reward:     mat.NewDense(n, m, nil),
	}
	for ai, a := range actions {
		pa := mat.NewDense(n, n, nil)
		for si, s := range states {
			row := pa.RawRowView(si)
			for ni, next := range states {
				row[ni] = p(next, s, a)
			}
			t.reward.Set(si, ai, r(s, a))
		}
		t.trans[ai] = pa
	}
	return t
}

// rowSumSlack returns the row-sum tolerance for a row of n entries: tol plus
// the rounding error a sum of n probabilities can accumulate.
func rowSumSlack(tol float64, n int) float64 {
	const eps = 0x1p-52
	return tol + float64(n)*eps
}

// validateTable checks probabilities and rewards. Errors name the offending
// state and action.
func validateTable[S, A comparable](t *table, states []S, actions []A, tol float64) error {
	for ai, a := range actions {
		for si, s := range states {
			row := t.trans[ai].RawRowView(si)
			for ni, p := range row {
				if math.IsNaN(p) || math.IsInf(p, 0) || p < -tol || p > 1+tol {
					return fmt.Errorf("%w: P(%v | %v, %v) = %v is not a probability",
						ErrMalformedModel, states[ni], s, a, p)
				}
			}
			if sum := floats.Sum(row); math.Abs(sum-1) > rowSumSlack(tol, len(row)) {
				return fmt.Errorf("%w: transition probabilities from %v under %v sum to %v, want 1",
					ErrMalformedModel, s, a, sum)
			}
			if r := t.reward.At(si, ai); math.IsNaN(r) || math.IsInf(r, 0) {
				return fmt.Errorf("%w: R(%v, %v) = %v is not finite", ErrMalformedModel, s, a, r)
			}
		}
	}
	return nil
}

// q returns R(s,a) + γ Σ_{s'} P(s'|s,a)·v[s'].
func (t *table) q(s, a int, gamma float64, v []float64) float64 {
	return t.reward.At(s, a) + gamma*floats.Dot(t.trans[a].RawRowView(s), v)
}

// bestAction returns the maximal Q value at s and the first action attaining it.
func (t *table) bestAction(s int, gamma float64, v []float64) (float64, int) {
	best, arg := t.q(s, 0, gamma, v), 0
	for a := 1; a < t.numActions; a++ {
		if q := t.q(s, a, gamma, v); q > best {
			best, arg = q, a
		}
	}
	return best, arg
}

// backup writes one synchronous Bellman optimality sweep of v into next.
// v is only read. If greedy is non-nil it receives the argmax per state.
func (t *table) backup(gamma float64, v, next []float64, greedy []int) {
	for s := 0; s < t.numStates; s++ {
		best, arg := t.bestAction(s, gamma, v)
		next[s] = best
		if greedy != nil {
			greedy[s] = arg
		}
	}
}

// greedy returns the argmax action index for every state under v.
func (t *table) greedy(gamma float64, v []float64) []int {
	policy := make([]int, t.numStates)
	for s := range policy {
		_, policy[s] = t.bestAction(s, gamma, v)
	}
	return policy
}
