package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/valueiter/mdp"
	"github.com/inference-sim/valueiter/mdp/trace"
)

// StateResult is one row of the solved policy.
type StateResult struct {
	State  string  `json:"state"`
	Action string  `json:"action"`
	Value  float64 `json:"value"`
}

// SolveReport is the JSON document printed by `valueiter solve`.
type SolveReport struct {
	Model      string              `json:"model"`
	States     []StateResult       `json:"states"` // model order
	Converged  bool                `json:"converged"`
	Iterations int                 `json:"iterations"`
	Delta      float64             `json:"delta"`
	ErrorBound float64             `json:"error_bound"`
	Discount   float64             `json:"discount"`
	SolveTimeS float64             `json:"solve_time_s"` // wall clock, not deterministic
	RunID      string              `json:"run_id,omitempty"`
	Trace      *trace.TraceSummary `json:"trace,omitempty"`
}

// NewSolveReport flattens a Result into report form, keeping the state order.
func NewSolveReport(name string, res *mdp.Result[string, string], elapsed time.Duration) *SolveReport {
	report := &SolveReport{
		Model:      name,
		States:     make([]StateResult, 0, len(res.States)),
		Converged:  res.Converged,
		Iterations: res.Iterations,
		Delta:      res.Delta,
		ErrorBound: res.ErrorBound(),
		Discount:   res.Discount,
		SolveTimeS: elapsed.Seconds(),
	}
	for _, s := range res.States {
		report.States = append(report.States, StateResult{State: s, Action: res.Policy[s], Value: res.Values[s]})
	}
	if res.Trace != nil {
		report.RunID = res.Trace.RunID
		report.Trace = trace.Summarize(res.Trace)
	}
	return report
}

// SaveResults prints the report header and JSON to w and, when path is
// non-empty, also writes the JSON to path.
func SaveResults(w io.Writer, report *SolveReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling results: %w", err)
	}

	fmt.Fprintln(w, "=== Solver Results ===")
	fmt.Fprintln(w, string(data))
	if !report.Converged {
		fmt.Fprintf(w, "WARNING: not converged after %d sweeps (delta=%g)\n", report.Iterations, report.Delta)
	}

	if path == "" {
		return nil
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing results to %s: %w", path, err)
	}
	logrus.Infof("Results written to %s", path)
	return nil
}
