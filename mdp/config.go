package mdp

import (
	"fmt"
	"math"

	"github.com/inference-sim/valueiter/mdp/trace"
)

// SolverConfig groups the hyperparameters of a value iteration run.
// Solve never substitutes defaults for zero values; start from
// DefaultSolverConfig when only a few fields need changing.
type SolverConfig struct {
	Discount            float64          // γ, strictly inside (0, 1)
	Tolerance           float64          // converged once the sup-norm change between sweeps is below this (> 0)
	MaxIterations       int              // sweep budget (≥ 1)
	TransitionTolerance float64          // slack for the [0,1] range and row-sum checks (≥ 0)
	SkipModelValidation bool             // trust P and R as given
	TraceLevel          trace.TraceLevel // "none"/"" or "sweeps"
}

// DefaultSolverConfig returns discount 0.9, tolerance 1e-6 and a budget of
// 1000 sweeps, with model validation on and tracing off.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		Discount:            0.9,
		Tolerance:           1e-6,
		MaxIterations:       1000,
		TransitionTolerance: 1e-9,
		TraceLevel:          trace.TraceLevelNone,
	}
}

// NewSolverConfig creates a SolverConfig with the given convergence parameters.
// Remaining fields are left at their zero values.
func NewSolverConfig(discount, tolerance float64, maxIterations int) SolverConfig {
	return SolverConfig{
		Discount:      discount,
		Tolerance:     tolerance,
		MaxIterations: maxIterations,
	}
}

// Validate checks every field and returns an error wrapping
// ErrInvalidParameter for the first one out of range.
func (c SolverConfig) Validate() error {
	if err := validateDiscount(c.Discount); err != nil {
		return err
	}
	if math.IsNaN(c.Tolerance) || math.IsInf(c.Tolerance, 0) || c.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance must be a positive finite number, got %v", ErrInvalidParameter, c.Tolerance)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("%w: max iterations must be at least 1, got %d", ErrInvalidParameter, c.MaxIterations)
	}
	if math.IsNaN(c.TransitionTolerance) || math.IsInf(c.TransitionTolerance, 0) || c.TransitionTolerance < 0 {
		return fmt.Errorf("%w: transition tolerance must be a non-negative finite number, got %v", ErrInvalidParameter, c.TransitionTolerance)
	}
	if !trace.IsValidTraceLevel(string(c.TraceLevel)) {
		return fmt.Errorf("%w: unknown trace level %q; valid: none, sweeps", ErrInvalidParameter, c.TraceLevel)
	}
	return nil
}

// validateDiscount rejects γ outside the open interval (0, 1), NaN included.
// γ = 0 is excluded along with γ = 1.
func validateDiscount(gamma float64) error {
	if !(gamma > 0 && gamma < 1) {
		return fmt.Errorf("%w: discount %v is out of range (0, 1)", ErrInvalidParameter, gamma)
	}
	return nil
}
