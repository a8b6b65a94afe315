// Package testutil provides shared test infrastructure for the solver packages.
// It holds the golden dataset of closed-form MDPs and assertion helpers used
// across mdp/ and mdp/modelspec/ test packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is a small MDP whose optimal values are known in closed form.
type GoldenTestCase struct {
	Name        string             `json:"name"`
	Discount    float64            `json:"discount"`
	Tolerance   float64            `json:"tolerance"`
	States      []string           `json:"states"`
	Actions     []string           `json:"actions"`
	Transitions []GoldenTransition `json:"transitions"`
	Rewards     []GoldenReward     `json:"rewards"`
	Expected    GoldenExpected     `json:"expected"`
}

// GoldenTransition lists P(· | From, Action). Absent rows are all-zero.
type GoldenTransition struct {
	From   string             `json:"from"`
	Action string             `json:"action"`
	To     map[string]float64 `json:"to"`
}

// GoldenReward is one R(State, Action) entry. Absent entries are zero.
type GoldenReward struct {
	State  string  `json:"state"`
	Action string  `json:"action"`
	Value  float64 `json:"value"`
}

// GoldenExpected holds the closed-form optimum.
type GoldenExpected struct {
	Values map[string]float64 `json:"values"`
	Policy map[string]string  `json:"policy"`
}

// Transition returns P(next | from, action) from the case's tables.
func (c *GoldenTestCase) Transition(next, from, action string) float64 {
	for _, tr := range c.Transitions {
		if tr.From == from && tr.Action == action {
			return tr.To[next]
		}
	}
	return 0
}

// Reward returns R(state, action) from the case's tables.
func (c *GoldenTestCase) Reward(state, action string) float64 {
	for _, r := range c.Rewards {
		if r.State == state && r.Action == action {
			return r.Value
		}
	}
	return 0
}

// LoadGoldenDataset reads testdata/goldendataset.json at the repository root,
// located from this file so any package's tests can call it.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, self, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot locate testutil source file")
	}
	root := filepath.Join(filepath.Dir(self), "..", "..", "..")
	data, err := os.ReadFile(filepath.Join(root, "testdata", "goldendataset.json"))
	if err != nil {
		t.Fatalf("reading golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("decoding golden dataset: %v", err)
	}
	return &dataset
}

// AssertFloat64Equal fails t when got and want differ by more than relTol
// relative to the larger magnitude. Two exact zeros always match.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == got {
		return
	}
	scale := math.Max(math.Abs(want), math.Abs(got))
	if rel := math.Abs(want-got) / scale; rel > relTol {
		t.Errorf("%s = %v, want %v (relative error %.3g > %.3g)", name, got, want, rel, relTol)
	}
}
