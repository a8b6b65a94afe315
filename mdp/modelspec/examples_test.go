package modelspec

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/valueiter/mdp"
)

func loadExample(t *testing.T, name string) (*ModelSpec, *mdp.Result[string, string]) {
	t.Helper()
	spec, err := LoadModelSpec(filepath.Join("..", "..", "examples", name))
	require.NoError(t, err, "failed to load %s", name)
	require.NoError(t, spec.Validate(), "validation failed")

	m, err := spec.Build()
	require.NoError(t, err)
	res, err := mdp.SolveModel[string, string](m, spec.SolverOverrides(mdp.DefaultSolverConfig()))
	require.NoError(t, err)
	require.True(t, res.Converged)
	return spec, res
}

func TestExampleModels_TwoState(t *testing.T) {
	_, res := loadExample(t, "two-state.yaml")

	assert.Equal(t, "a1", res.Policy["s0"])
	assert.InDelta(t, 50.0, res.Values["s0"], 1e-7)
}

func TestExampleModels_Gridworld(t *testing.T) {
	spec, res := loadExample(t, "gridworld.yaml")
	require.NotNil(t, spec.Gridworld)

	// 12 cells minus one wall
	assert.Len(t, res.States, 11)
	// Next to the +1 exit, head for it
	assert.Equal(t, ActionRight, res.Policy[CellName(0, 2)])
	// The cell under the +1 exit is better than the -1 exit's neighbour
	assert.Greater(t, res.Values[CellName(0, 2)], res.Values[CellName(1, 2)])
}

func TestExampleModels_MachineMaintenance(t *testing.T) {
	_, res := loadExample(t, "machine-maintenance.yaml")

	assert.Equal(t, "run", res.Policy["new"])
	assert.Equal(t, "repair", res.Policy["worn"])
	assert.Equal(t, "repair", res.Policy["broken"])
	assert.Greater(t, res.Values["new"], res.Values["worn"])
	assert.Greater(t, res.Values["worn"], res.Values["broken"])
}
