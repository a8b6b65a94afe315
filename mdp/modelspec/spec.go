// Package modelspec loads MDP definitions from YAML files.
//
// A file either lists explicit transition and reward tables or describes a
// gridworld that is expanded into tables on Build.
package modelspec

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/valueiter/mdp"
)

// ModelSpec is the top-level model file.
// Loaded from YAML via LoadModelSpec(path).
type ModelSpec struct {
	Version       string           `yaml:"version"`
	Name          string           `yaml:"name"`
	Solver        *SolverSpec      `yaml:"solver,omitempty"`
	States        []string         `yaml:"states,omitempty"`
	Actions       []string         `yaml:"actions,omitempty"`
	Absorbing     []string         `yaml:"absorbing,omitempty"` // every action self-loops with probability 1
	DefaultReward float64          `yaml:"default_reward,omitempty"`
	Transitions   []TransitionSpec `yaml:"transitions,omitempty"`
	Rewards       []RewardSpec     `yaml:"rewards,omitempty"`
	Gridworld     *GridworldSpec   `yaml:"gridworld,omitempty"`
}

// SolverSpec carries optional solver settings stored alongside the model.
// Nil fields leave the caller's configuration untouched.
type SolverSpec struct {
	Discount      *float64 `yaml:"discount,omitempty"`
	Tolerance     *float64 `yaml:"tolerance,omitempty"`
	MaxIterations *int     `yaml:"max_iterations,omitempty"`
}

// TransitionSpec is the distribution P(· | From, Action).
type TransitionSpec struct {
	From   string             `yaml:"from"`
	Action string             `yaml:"action"`
	To     map[string]float64 `yaml:"to"`
}

// RewardSpec sets R(State, Action). Pairs without an entry get DefaultReward.
type RewardSpec struct {
	State  string  `yaml:"state"`
	Action string  `yaml:"action"`
	Value  float64 `yaml:"value"`
}

// LoadModelSpec reads and parses a YAML model file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadModelSpec(path string) (*ModelSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model spec: %w", err)
	}
	return ParseModelSpec(data)
}

// ParseModelSpec parses YAML bytes with the same strictness as LoadModelSpec.
func ParseModelSpec(data []byte) (*ModelSpec, error) {
	var spec ModelSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing model spec: %w", err)
	}
	if spec.Version == "" {
		spec.Version = "1"
	}
	return &spec, nil
}

var validVersions = map[string]bool{"1": true}

// Validate checks that all fields in the spec are valid.
func (s *ModelSpec) Validate() error {
	if !validVersions[s.Version] {
		return fmt.Errorf("unsupported version %q; valid: 1", s.Version)
	}
	if s.Solver != nil {
		if err := s.Solver.validate(); err != nil {
			return err
		}
	}
	hasTables := len(s.States) > 0 || len(s.Actions) > 0 || len(s.Transitions) > 0 ||
		len(s.Rewards) > 0 || len(s.Absorbing) > 0
	switch {
	case s.Gridworld != nil && hasTables:
		return fmt.Errorf("gridworld and explicit tables are mutually exclusive")
	case s.Gridworld != nil:
		return s.Gridworld.Validate()
	case !hasTables:
		return fmt.Errorf("model needs either states/actions/transitions or a gridworld section")
	}
	return s.validateTables()
}

func (s *ModelSpec) validateTables() error {
	states, err := nameSet("states", s.States)
	if err != nil {
		return err
	}
	actions, err := nameSet("actions", s.Actions)
	if err != nil {
		return err
	}
	if err := validateFinite("default_reward", s.DefaultReward); err != nil {
		return err
	}

	absorbing := make(map[string]bool, len(s.Absorbing))
	for _, st := range s.Absorbing {
		if !states[st] {
			return fmt.Errorf("absorbing: unknown state %q", st)
		}
		absorbing[st] = true
	}

	rows := make(map[[2]string]bool, len(s.Transitions))
	for i, tr := range s.Transitions {
		prefix := fmt.Sprintf("transitions[%d]", i)
		if !states[tr.From] {
			return fmt.Errorf("%s: unknown state %q", prefix, tr.From)
		}
		if !actions[tr.Action] {
			return fmt.Errorf("%s: unknown action %q", prefix, tr.Action)
		}
		if absorbing[tr.From] {
			return fmt.Errorf("%s: state %q is absorbing and cannot declare transitions", prefix, tr.From)
		}
		key := [2]string{tr.From, tr.Action}
		if rows[key] {
			return fmt.Errorf("%s: duplicate row for (%s, %s)", prefix, tr.From, tr.Action)
		}
		rows[key] = true
		if len(tr.To) == 0 {
			return fmt.Errorf("%s: empty distribution", prefix)
		}
		for next, p := range tr.To {
			if !states[next] {
				return fmt.Errorf("%s.to: unknown state %q", prefix, next)
			}
			if math.IsNaN(p) || p < 0 || p > 1 {
				return fmt.Errorf("%s.to.%s: probability must be in [0, 1], got %v", prefix, next, p)
			}
		}
	}
	for _, st := range s.States {
		if absorbing[st] {
			continue
		}
		for _, a := range s.Actions {
			if !rows[[2]string{st, a}] {
				return fmt.Errorf("missing transition row for (%s, %s)", st, a)
			}
		}
	}

	seen := make(map[[2]string]bool, len(s.Rewards))
	for i, r := range s.Rewards {
		prefix := fmt.Sprintf("rewards[%d]", i)
		if !states[r.State] {
			return fmt.Errorf("%s: unknown state %q", prefix, r.State)
		}
		if !actions[r.Action] {
			return fmt.Errorf("%s: unknown action %q", prefix, r.Action)
		}
		key := [2]string{r.State, r.Action}
		if seen[key] {
			return fmt.Errorf("%s: duplicate reward for (%s, %s)", prefix, r.State, r.Action)
		}
		seen[key] = true
		if err := validateFinite(prefix+".value", r.Value); err != nil {
			return err
		}
	}
	return nil
}

func (s *SolverSpec) validate() error {
	if s.Discount != nil && !(*s.Discount > 0 && *s.Discount < 1) {
		return fmt.Errorf("solver.discount must be in (0, 1), got %v", *s.Discount)
	}
	if s.Tolerance != nil {
		if err := validateFinitePositive("solver.tolerance", *s.Tolerance); err != nil {
			return err
		}
	}
	if s.MaxIterations != nil && *s.MaxIterations < 1 {
		return fmt.Errorf("solver.max_iterations must be at least 1, got %d", *s.MaxIterations)
	}
	return nil
}

// SolverOverrides applies the spec's solver section onto base.
func (s *ModelSpec) SolverOverrides(base mdp.SolverConfig) mdp.SolverConfig {
	if s.Solver == nil {
		return base
	}
	if s.Solver.Discount != nil {
		base.Discount = *s.Solver.Discount
	}
	if s.Solver.Tolerance != nil {
		base.Tolerance = *s.Solver.Tolerance
	}
	if s.Solver.MaxIterations != nil {
		base.MaxIterations = *s.Solver.MaxIterations
	}
	return base
}

// Build validates the spec and materializes it as a TabularModel.
func (s *ModelSpec) Build() (*mdp.TabularModel, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.Gridworld != nil {
		return s.Gridworld.Build()
	}

	m, err := mdp.NewTabularModel(s.States, s.Actions)
	if err != nil {
		return nil, err
	}
	for _, st := range s.Absorbing {
		for _, a := range s.Actions {
			if err := m.SetTransition(st, a, st, 1); err != nil {
				return nil, err
			}
		}
	}
	for _, tr := range s.Transitions {
		for next, p := range tr.To {
			if err := m.SetTransition(tr.From, tr.Action, next, p); err != nil {
				return nil, err
			}
		}
	}
	if s.DefaultReward != 0 {
		for _, st := range s.States {
			for _, a := range s.Actions {
				if err := m.SetReward(st, a, s.DefaultReward); err != nil {
					return nil, err
				}
			}
		}
	}
	for _, r := range s.Rewards {
		if err := m.SetReward(r.State, r.Action, r.Value); err != nil {
			return nil, err
		}
	}
	tol := mdp.DefaultSolverConfig().TransitionTolerance
	for _, tr := range s.Transitions {
		if sum := m.RowSum(tr.From, tr.Action); math.Abs(sum-1) > tol {
			logrus.Warnf("model %q: transitions from %s under %s sum to %g", s.Name, tr.From, tr.Action, sum)
		}
	}
	return m, nil
}

func nameSet(field string, names []string) (map[string]bool, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%s must not be empty", field)
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" {
			return nil, fmt.Errorf("%s: empty name", field)
		}
		if set[n] {
			return nil, fmt.Errorf("%s: duplicate name %q", field, n)
		}
		set[n] = true
	}
	return set, nil
}

func validateFinite(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	return nil
}

func validateFinitePositive(name string, val float64) error {
	if err := validateFinite(name, val); err != nil {
		return err
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %f", name, val)
	}
	return nil
}
