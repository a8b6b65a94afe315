// Package trace records the convergence history of a value iteration run.
package trace

import "github.com/google/uuid"

// TraceLevel controls the verbosity of sweep tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelSweeps records one SweepRecord per Bellman sweep.
	TraceLevelSweeps TraceLevel = "sweeps"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelSweeps: true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// Enabled reports whether level asks for any records.
func (l TraceLevel) Enabled() bool {
	return l == TraceLevelSweeps
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SweepRecord captures one synchronous sweep.
type SweepRecord struct {
	Sweep         int     // 1-based sweep number
	Delta         float64 // sup-norm change from the previous value function
	PolicyChanges int     // states whose greedy action differs from the previous sweep
}

// SweepTrace collects sweep records during a solve.
type SweepTrace struct {
	Config TraceConfig
	RunID  string // correlates log lines with this trace
	Sweeps []SweepRecord
}

// NewSweepTrace creates a SweepTrace ready for recording, with a fresh RunID.
func NewSweepTrace(config TraceConfig) *SweepTrace {
	return &SweepTrace{
		Config: config,
		RunID:  uuid.NewString(),
		Sweeps: make([]SweepRecord, 0),
	}
}

// RecordSweep appends a sweep record.
func (st *SweepTrace) RecordSweep(record SweepRecord) {
	st.Sweeps = append(st.Sweeps, record)
}

// Deltas returns the delta of every recorded sweep in order.
func (st *SweepTrace) Deltas() []float64 {
	if st == nil {
		return nil
	}
	deltas := make([]float64, len(st.Sweeps))
	for i, r := range st.Sweeps {
		deltas[i] = r.Delta
	}
	return deltas
}
