package trace

import "math"

// TraceSummary aggregates statistics from a SweepTrace.
type TraceSummary struct {
	TotalSweeps      int     `json:"total_sweeps"`
	FinalDelta       float64 `json:"final_delta"`
	MaxDelta         float64 `json:"max_delta"`
	MeanContraction  float64 `json:"mean_contraction"`   // geometric mean of delta[k+1]/delta[k]; 0 when undefined
	LastPolicyChange int     `json:"last_policy_change"` // last sweep whose greedy policy changed; 0 if none recorded
}

// Summarize computes aggregate statistics from a SweepTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SweepTrace) *TraceSummary {
	summary := &TraceSummary{}
	if st == nil || len(st.Sweeps) == 0 {
		return summary
	}

	summary.TotalSweeps = len(st.Sweeps)
	summary.FinalDelta = st.Sweeps[len(st.Sweeps)-1].Delta

	logSum, pairs := 0.0, 0
	for i, r := range st.Sweeps {
		if r.Delta > summary.MaxDelta {
			summary.MaxDelta = r.Delta
		}
		if r.PolicyChanges > 0 {
			summary.LastPolicyChange = r.Sweep
		}
		if i == 0 {
			continue
		}
		prev := st.Sweeps[i-1].Delta
		if prev > 0 && r.Delta > 0 {
			logSum += math.Log(r.Delta / prev)
			pairs++
		}
	}
	if pairs > 0 {
		summary.MeanContraction = math.Exp(logSum / float64(pairs))
	}

	return summary
}
