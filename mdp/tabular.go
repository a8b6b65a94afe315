package mdp

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// TabularModel is a dense MDP over string-named states and actions.
// All transition probabilities and rewards start at zero.
//
// Thread-safety: NOT thread-safe for concurrent mutation.
type TabularModel struct {
	states    []string
	actions   []string
	stateIdx  map[string]int
	actionIdx map[string]int
	trans     []*mat.Dense // per action: row = from, column = next
	reward    *mat.Dense   // row = state, column = action
}

// NewTabularModel allocates an all-zero model. The slice orders become the
// sweep and tie-break orders of Solve.
func NewTabularModel(states, actions []string) (*TabularModel, error) {
	stateIdx, err := indexStates(states)
	if err != nil {
		return nil, err
	}
	actionIdx, err := indexActions(actions)
	if err != nil {
		return nil, err
	}
	n, m := len(states), len(actions)
	trans := make([]*mat.Dense, m)
	for a := range trans {
		trans[a] = mat.NewDense(n, n, nil)
	}
	return &TabularModel{
		states:    append([]string(nil), states...),
		actions:   append([]string(nil), actions...),
		stateIdx:  stateIdx,
		actionIdx: actionIdx,
		trans:     trans,
		reward:    mat.NewDense(n, m, nil),
	}, nil
}

func (m *TabularModel) lookup(state, action string) (int, int, error) {
	s, ok := m.stateIdx[state]
	if !ok {
		return 0, 0, fmt.Errorf("unknown state %q", state)
	}
	a, ok := m.actionIdx[action]
	if !ok {
		return 0, 0, fmt.Errorf("unknown action %q", action)
	}
	return s, a, nil
}

// SetTransition sets P(next | from, action) = p.
func (m *TabularModel) SetTransition(from, action, next string, p float64) error {
	s, a, err := m.lookup(from, action)
	if err != nil {
		return err
	}
	n, ok := m.stateIdx[next]
	if !ok {
		return fmt.Errorf("unknown state %q", next)
	}
	m.trans[a].Set(s, n, p)
	return nil
}

// AddTransition adds p to P(next | from, action).
func (m *TabularModel) AddTransition(from, action, next string, p float64) error {
	s, a, err := m.lookup(from, action)
	if err != nil {
		return err
	}
	n, ok := m.stateIdx[next]
	if !ok {
		return fmt.Errorf("unknown state %q", next)
	}
	m.trans[a].Set(s, n, m.trans[a].At(s, n)+p)
	return nil
}

// SetReward sets R(state, action) = r.
func (m *TabularModel) SetReward(state, action string, r float64) error {
	s, a, err := m.lookup(state, action)
	if err != nil {
		return err
	}
	m.reward.Set(s, a, r)
	return nil
}

// RowSum returns Σ_{s'} P(s' | from, action); 0 for unknown names.
func (m *TabularModel) RowSum(from, action string) float64 {
	s, a, err := m.lookup(from, action)
	if err != nil {
		return 0
	}
	return floats.Sum(m.trans[a].RawRowView(s))
}

// States returns a copy of the state list in model order.
func (m *TabularModel) States() []string {
	return append([]string(nil), m.states...)
}

// Actions returns a copy of the action list in model order.
func (m *TabularModel) Actions() []string {
	return append([]string(nil), m.actions...)
}

// Transition returns P(next | from, action); 0 for unknown names.
func (m *TabularModel) Transition(next, from, action string) float64 {
	s, a, err := m.lookup(from, action)
	if err != nil {
		return 0
	}
	n, ok := m.stateIdx[next]
	if !ok {
		return 0
	}
	return m.trans[a].At(s, n)
}

// Reward returns R(state, action); 0 for unknown names.
func (m *TabularModel) Reward(state, action string) float64 {
	s, a, err := m.lookup(state, action)
	if err != nil {
		return 0
	}
	return m.reward.At(s, a)
}
