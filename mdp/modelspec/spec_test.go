package modelspec

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/valueiter/mdp"
)

const twoStateYAML = `
version: "1"
name: toy
solver:
  discount: 0.8
  max_iterations: 50
states: [s0, s1]
actions: [a0, a1]
absorbing: [s1]
transitions:
  - from: s0
    action: a0
    to: {s0: 1}
  - from: s0
    action: a1
    to: {s0: 0.25, s1: 0.75}
rewards:
  - {state: s0, action: a1, value: 5}
`

func writeSpec(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadModelSpec_ValidYAML_LoadsCorrectly(t *testing.T) {
	spec, err := LoadModelSpec(writeSpec(t, twoStateYAML))
	require.NoError(t, err)

	assert.Equal(t, "1", spec.Version)
	assert.Equal(t, "toy", spec.Name)
	assert.Equal(t, []string{"s0", "s1"}, spec.States)
	assert.Equal(t, []string{"a0", "a1"}, spec.Actions)
	assert.Equal(t, []string{"s1"}, spec.Absorbing)
	require.Len(t, spec.Transitions, 2)
	assert.Equal(t, 0.75, spec.Transitions[1].To["s1"])
	require.NotNil(t, spec.Solver)
	require.NotNil(t, spec.Solver.Discount)
	assert.Equal(t, 0.8, *spec.Solver.Discount)
	assert.Nil(t, spec.Solver.Tolerance)
	assert.NoError(t, spec.Validate())
}

func TestLoadModelSpec_UnknownKey_ReturnsError(t *testing.T) {
	_, err := LoadModelSpec(writeSpec(t, twoStateYAML+"discout: 0.9\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing model spec")
}

func TestLoadModelSpec_MissingFile_ReturnsError(t *testing.T) {
	_, err := LoadModelSpec(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading model spec")
}

func TestParseModelSpec_EmptyVersion_DefaultsToOne(t *testing.T) {
	spec, err := ParseModelSpec([]byte("states: [s]\nactions: [a]\nabsorbing: [s]\n"))
	require.NoError(t, err)
	assert.Equal(t, "1", spec.Version)
	assert.NoError(t, spec.Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"unknown version", "version: \"7\"\nstates: [s]\nactions: [a]\nabsorbing: [s]\n", "unsupported version"},
		{"nothing declared", "name: empty\n", "either states/actions/transitions or a gridworld"},
		{"tables and gridworld", "states: [s]\nactions: [a]\ngridworld: {rows: 1, cols: 1}\n", "mutually exclusive"},
		{"no actions", "states: [s]\nabsorbing: [s]\n", "actions must not be empty"},
		{"duplicate state", "states: [s, s]\nactions: [a]\nabsorbing: [s]\n", "duplicate name"},
		{"unknown absorbing", "states: [s]\nactions: [a]\nabsorbing: [x]\n", "absorbing: unknown state"},
		{"unknown from", "states: [s]\nactions: [a]\ntransitions:\n  - {from: x, action: a, to: {s: 1}}\n", "unknown state \"x\""},
		{"unknown action", "states: [s]\nactions: [a]\ntransitions:\n  - {from: s, action: b, to: {s: 1}}\n", "unknown action \"b\""},
		{"unknown target", "states: [s]\nactions: [a]\ntransitions:\n  - {from: s, action: a, to: {x: 1}}\n", ".to: unknown state"},
		{"probability above one", "states: [s]\nactions: [a]\ntransitions:\n  - {from: s, action: a, to: {s: 1.5}}\n", "probability must be in [0, 1]"},
		{"empty distribution", "states: [s]\nactions: [a]\ntransitions:\n  - {from: s, action: a, to: {}}\n", "empty distribution"},
		{"duplicate row", "states: [s]\nactions: [a]\ntransitions:\n  - {from: s, action: a, to: {s: 1}}\n  - {from: s, action: a, to: {s: 1}}\n", "duplicate row"},
		{"missing row", "states: [s, t]\nactions: [a]\ntransitions:\n  - {from: s, action: a, to: {t: 1}}\n", "missing transition row for (t, a)"},
		{"absorbing with row", "states: [s]\nactions: [a]\nabsorbing: [s]\ntransitions:\n  - {from: s, action: a, to: {s: 1}}\n", "is absorbing"},
		{"duplicate reward", "states: [s]\nactions: [a]\nabsorbing: [s]\nrewards:\n  - {state: s, action: a, value: 1}\n  - {state: s, action: a, value: 2}\n", "duplicate reward"},
		{"infinite reward", "states: [s]\nactions: [a]\nabsorbing: [s]\nrewards:\n  - {state: s, action: a, value: .inf}\n", "must be a finite number"},
		{"solver discount one", "solver: {discount: 1}\nstates: [s]\nactions: [a]\nabsorbing: [s]\n", "solver.discount"},
		{"solver tolerance zero", "solver: {tolerance: 0}\nstates: [s]\nactions: [a]\nabsorbing: [s]\n", "solver.tolerance must be positive"},
		{"solver iterations zero", "solver: {max_iterations: 0}\nstates: [s]\nactions: [a]\nabsorbing: [s]\n", "solver.max_iterations"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			spec, err := ParseModelSpec([]byte(tc.yaml))
			require.NoError(t, err)
			err = spec.Validate()
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tc.wantErr), "error %q does not contain %q", err, tc.wantErr)
		})
	}
}

func TestSolverOverrides_OnlySetFieldsApplied(t *testing.T) {
	spec, err := ParseModelSpec([]byte(twoStateYAML))
	require.NoError(t, err)

	base := mdp.DefaultSolverConfig()
	got := spec.SolverOverrides(base)

	assert.Equal(t, 0.8, got.Discount)
	assert.Equal(t, 50, got.MaxIterations)
	assert.Equal(t, base.Tolerance, got.Tolerance)
	assert.Equal(t, base.TransitionTolerance, got.TransitionTolerance)
}

func TestSolverOverrides_NoSection_ReturnsBase(t *testing.T) {
	spec := &ModelSpec{}
	base := mdp.DefaultSolverConfig()
	assert.Equal(t, base, spec.SolverOverrides(base))
}

func TestBuild_TablesAndAbsorbingStates(t *testing.T) {
	spec, err := ParseModelSpec([]byte(twoStateYAML))
	require.NoError(t, err)

	m, err := spec.Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"s0", "s1"}, m.States())
	assert.Equal(t, 0.75, m.Transition("s1", "s0", "a1"))
	assert.Equal(t, 1.0, m.Transition("s1", "s1", "a0"))
	assert.Equal(t, 1.0, m.Transition("s1", "s1", "a1"))
	assert.Equal(t, 5.0, m.Reward("s0", "a1"))
	assert.Equal(t, 0.0, m.Reward("s1", "a0"))
}

func TestBuild_DefaultRewardThenOverrides(t *testing.T) {
	spec, err := ParseModelSpec([]byte("states: [s]\nactions: [a, b]\nabsorbing: [s]\ndefault_reward: -1\nrewards:\n  - {state: s, action: b, value: 3}\n"))
	require.NoError(t, err)

	m, err := spec.Build()
	require.NoError(t, err)
	assert.Equal(t, -1.0, m.Reward("s", "a"))
	assert.Equal(t, 3.0, m.Reward("s", "b"))
}

func TestBuild_InvalidSpec_ReturnsValidationError(t *testing.T) {
	spec, err := ParseModelSpec([]byte("states: [s]\nactions: [a]\n"))
	require.NoError(t, err)
	_, err = spec.Build()
	assert.Error(t, err)
}

func TestBuild_SolvesToKnownOptimum(t *testing.T) {
	// GIVEN the toy spec: a1 pays 5 but moves to the absorbing s1 with prob 0.75
	spec, err := ParseModelSpec([]byte(twoStateYAML))
	require.NoError(t, err)
	m, err := spec.Build()
	require.NoError(t, err)

	cfg := spec.SolverOverrides(mdp.DefaultSolverConfig())
	cfg.MaxIterations = 1000
	cfg.Tolerance = 1e-10

	// WHEN solved
	res, err := mdp.SolveModel[string, string](m, cfg)
	require.NoError(t, err)

	// THEN V(s0) = 5 / (1 - 0.8·0.25) = 6.25 via a1
	assert.True(t, res.Converged)
	assert.Equal(t, "a1", res.Policy["s0"])
	assert.InDelta(t, 6.25, res.Values["s0"], 1e-8)
	assert.Equal(t, 0.0, res.Values["s1"])
}

func TestBuild_RowSumWarning_MatchesSolverTolerance(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	// GIVEN a row that is off by 1e-7: below the old 1e-6 threshold but
	// rejected by the solver's default transition tolerance
	spec, err := ParseModelSpec([]byte("name: off\nstates: [s, t]\nactions: [a]\nabsorbing: [t]\ntransitions:\n  - {from: s, action: a, to: {s: 0.5, t: 0.5000001}}\n"))
	require.NoError(t, err)

	// WHEN building
	m, err := spec.Build()
	require.NoError(t, err)

	// THEN the load warns, and solving with defaults rejects the row
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Contains(t, hook.LastEntry().Message, "transitions from s under a")
	_, err = mdp.SolveModel[string, string](m, mdp.DefaultSolverConfig())
	assert.ErrorIs(t, err, mdp.ErrMalformedModel)
}

func TestBuild_ExactRows_NoWarning(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	spec, err := ParseModelSpec([]byte(twoStateYAML))
	require.NoError(t, err)
	_, err = spec.Build()
	require.NoError(t, err)
	assert.Empty(t, hook.AllEntries())
}
