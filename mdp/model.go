package mdp

import "fmt"

// TransitionFunc returns P(next | from, a), the probability of reaching next
// after taking action a in state from. Must be pure: the solver may call it
// in any order and any number of times.
type TransitionFunc[S, A comparable] func(next, from S, a A) float64

// RewardFunc returns the immediate reward R(s, a). Must be pure.
type RewardFunc[S, A comparable] func(s S, a A) float64

// Model bundles the four inputs of a finite MDP.
// Every action is available in every state.
type Model[S, A comparable] interface {
	States() []S
	Actions() []A
	Transition(next, from S, a A) float64
	Reward(s S, a A) float64
}

// indexStates maps each state to its position in states.
func indexStates[S comparable](states []S) (map[S]int, error) {
	if len(states) == 0 {
		return nil, ErrEmptyStates
	}
	idx := make(map[S]int, len(states))
	for i, s := range states {
		if prev, ok := idx[s]; ok {
			return nil, fmt.Errorf("%w: %v at positions %d and %d", ErrDuplicateState, s, prev, i)
		}
		idx[s] = i
	}
	return idx, nil
}

// indexActions maps each action to its position in actions.
func indexActions[A comparable](actions []A) (map[A]int, error) {
	if len(actions) == 0 {
		return nil, ErrEmptyActions
	}
	idx := make(map[A]int, len(actions))
	for i, a := range actions {
		if prev, ok := idx[a]; ok {
			return nil, fmt.Errorf("%w: %v at positions %d and %d", ErrDuplicateAction, a, prev, i)
		}
		idx[a] = i
	}
	return idx, nil
}
