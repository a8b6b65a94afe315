package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_NilTrace_ReturnsZeroSummary(t *testing.T) {
	assert.Equal(t, &TraceSummary{}, Summarize(nil))
}

func TestSummarize_EmptyTrace_ReturnsZeroSummary(t *testing.T) {
	assert.Equal(t, &TraceSummary{}, Summarize(NewSweepTrace(TraceConfig{Level: TraceLevelSweeps})))
}

func TestSummarize_HalvingDeltas(t *testing.T) {
	// GIVEN deltas halving every sweep and a policy that settles after sweep 2
	st := NewSweepTrace(TraceConfig{Level: TraceLevelSweeps})
	st.RecordSweep(SweepRecord{Sweep: 1, Delta: 4, PolicyChanges: 3})
	st.RecordSweep(SweepRecord{Sweep: 2, Delta: 2, PolicyChanges: 1})
	st.RecordSweep(SweepRecord{Sweep: 3, Delta: 1, PolicyChanges: 0})

	// WHEN summarized
	s := Summarize(st)

	// THEN
	assert.Equal(t, 3, s.TotalSweeps)
	assert.Equal(t, 1.0, s.FinalDelta)
	assert.Equal(t, 4.0, s.MaxDelta)
	assert.InDelta(t, 0.5, s.MeanContraction, 1e-12)
	assert.Equal(t, 2, s.LastPolicyChange)
}

func TestSummarize_ZeroDeltaPairsSkipped(t *testing.T) {
	st := NewSweepTrace(TraceConfig{Level: TraceLevelSweeps})
	st.RecordSweep(SweepRecord{Sweep: 1, Delta: 0})
	st.RecordSweep(SweepRecord{Sweep: 2, Delta: 0})

	s := Summarize(st)
	assert.Equal(t, 0.0, s.MeanContraction)
	assert.Equal(t, 0, s.LastPolicyChange)
}
