package mdp

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/inference-sim/valueiter/mdp/trace"
)

// Result is the outcome of a value iteration run.
type Result[S, A comparable] struct {
	States     []S           // states in sweep order
	Policy     map[S]A       // greedy action per state under Values
	Values     map[S]float64 // final value estimate
	Converged  bool          // Delta < Tolerance within the sweep budget
	Iterations int           // sweeps performed
	Delta      float64       // sup-norm change of the last sweep
	Discount   float64       // γ used for the run

	// Trace holds per-sweep records when SolverConfig.TraceLevel is "sweeps"; nil otherwise.
	Trace *trace.SweepTrace
}

// ErrorBound returns Delta·γ/(1−γ), an upper bound on the sup-norm distance
// between Values and the optimal value function.
func (r *Result[S, A]) ErrorBound() float64 {
	return r.Delta * r.Discount / (1 - r.Discount)
}

// SolveModel runs Solve on the states, actions and functions of m.
func SolveModel[S, A comparable](m Model[S, A], cfg SolverConfig) (*Result[S, A], error) {
	return Solve(m.States(), m.Actions(), m.Transition, m.Reward, cfg)
}

// Solve computes the optimal value function and a greedy optimal policy by
// synchronous value iteration.
//
// Each sweep computes V_k(s) = max_a R(s,a) + γ Σ_{s'} P(s'|s,a)·V_{k-1}(s')
// from the previous sweep only. The loop stops when the sup-norm change drops
// below cfg.Tolerance or after cfg.MaxIterations sweeps; the latter logs a
// warning and returns the current estimate with Converged false.
//
// Errors: ErrInvalidParameter for a bad cfg (checked before p or r is
// called), ErrEmptyStates/ErrEmptyActions, ErrDuplicateState/ErrDuplicateAction,
// and ErrMalformedModel when validation is on and P or R is invalid.
func Solve[S, A comparable](states []S, actions []A, p TransitionFunc[S, A], r RewardFunc[S, A], cfg SolverConfig) (*Result[S, A], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := indexStates(states); err != nil {
		return nil, err
	}
	if _, err := indexActions(actions); err != nil {
		return nil, err
	}
	if p == nil || r == nil {
		return nil, fmt.Errorf("%w: transition and reward functions are required", ErrMalformedModel)
	}

	t := tabulate(states, actions, p, r)
	if !cfg.SkipModelValidation {
		if err := validateTable(t, states, actions, cfg.TransitionTolerance); err != nil {
			return nil, err
		}
	}

	var st *trace.SweepTrace
	if cfg.TraceLevel.Enabled() {
		st = trace.NewSweepTrace(trace.TraceConfig{Level: cfg.TraceLevel})
	}

	v, sweeps, delta, converged := t.iterate(cfg, st)
	if !converged {
		logrus.Warnf("value iteration: maximum number of iterations (%d) reached with delta=%g (tolerance %g); returning current estimate",
			cfg.MaxIterations, delta, cfg.Tolerance)
	} else {
		logrus.Debugf("value iteration: converged after %d sweeps (delta=%g)", sweeps, delta)
	}

	policy := t.greedy(cfg.Discount, v)

	res := &Result[S, A]{
		States:     append([]S(nil), states...),
		Policy:     make(map[S]A, len(states)),
		Values:     make(map[S]float64, len(states)),
		Converged:  converged,
		Iterations: sweeps,
		Delta:      delta,
		Discount:   cfg.Discount,
		Trace:      st,
	}
	for i, s := range states {
		res.Values[s] = v[i]
		res.Policy[s] = actions[policy[i]]
	}
	return res, nil
}

// iterate runs sweeps until convergence or budget exhaustion and returns the
// final value vector.
func (t *table) iterate(cfg SolverConfig, st *trace.SweepTrace) (v []float64, sweeps int, delta float64, converged bool) {
	v = make([]float64, t.numStates)
	next := make([]float64, t.numStates)

	var greedy, prevGreedy []int
	if st != nil {
		greedy = make([]int, t.numStates)
		prevGreedy = make([]int, t.numStates)
		for i := range prevGreedy {
			prevGreedy[i] = -1
		}
	}

	for sweeps < cfg.MaxIterations {
		sweeps++
		t.backup(cfg.Discount, v, next, greedy)
		delta = floats.Distance(next, v, math.Inf(1))
		v, next = next, v

		if st != nil {
			changes := 0
			for i := range greedy {
				if greedy[i] != prevGreedy[i] {
					changes++
				}
			}
			st.RecordSweep(trace.SweepRecord{Sweep: sweeps, Delta: delta, PolicyChanges: changes})
			logrus.Debugf("[run %s] sweep %d: delta=%g, policy changes=%d", st.RunID, sweeps, delta, changes)
			greedy, prevGreedy = prevGreedy, greedy
		}

		if delta < cfg.Tolerance {
			return v, sweeps, delta, true
		}
	}
	return v, sweeps, delta, false
}

// ExtractPolicy returns the greedy policy for a given value function without
// running any sweeps. Ties go to the action listed first. values must hold an
// entry for every state.
func ExtractPolicy[S, A comparable](states []S, actions []A, p TransitionFunc[S, A], r RewardFunc[S, A], discount float64, values map[S]float64) (map[S]A, error) {
	if err := validateDiscount(discount); err != nil {
		return nil, err
	}
	if _, err := indexStates(states); err != nil {
		return nil, err
	}
	if _, err := indexActions(actions); err != nil {
		return nil, err
	}
	if p == nil || r == nil {
		return nil, fmt.Errorf("%w: transition and reward functions are required", ErrMalformedModel)
	}

	v := make([]float64, len(states))
	for i, s := range states {
		val, ok := values[s]
		if !ok {
			return nil, fmt.Errorf("%w: no value for state %v", ErrMalformedModel, s)
		}
		v[i] = val
	}

	t := tabulate(states, actions, p, r)
	greedy := t.greedy(discount, v)
	policy := make(map[S]A, len(states))
	for i, s := range states {
		policy[s] = actions[greedy[i]]
	}
	return policy, nil
}

// ValidateModel checks m with the same rules Solve applies before sweeping:
// non-empty duplicate-free sets, probabilities in [0,1], rows summing to 1
// within transitionTolerance, and finite rewards.
func ValidateModel[S, A comparable](m Model[S, A], transitionTolerance float64) error {
	if math.IsNaN(transitionTolerance) || math.IsInf(transitionTolerance, 0) || transitionTolerance < 0 {
		return fmt.Errorf("%w: transition tolerance must be a non-negative finite number, got %v", ErrInvalidParameter, transitionTolerance)
	}
	states, actions := m.States(), m.Actions()
	if _, err := indexStates(states); err != nil {
		return err
	}
	if _, err := indexActions(actions); err != nil {
		return err
	}
	return validateTable(tabulate(states, actions, m.Transition, m.Reward), states, actions, transitionTolerance)
}
