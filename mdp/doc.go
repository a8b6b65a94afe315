// Package mdp solves finite Markov Decision Processes with synchronous value
// iteration.
//
// # Reading Guide
//
// Start with these files:
//   - model.go: State/Action type parameters, TransitionFunc, RewardFunc and the Model interface
//   - config.go: SolverConfig, its defaults and parameter validation
//   - solver.go: Solve, the sweep loop and greedy policy extraction
//
// # Ordering
//
// States and actions are passed as ordered slices. The state slice fixes the
// sweep order and the floating-point summation order; the action slice fixes
// the tie-break: when two actions have equal value, the one listed first wins.
// Repeated calls with identical inputs produce bit-identical results.
//
// # Model Representation
//
// The solver reads P and R through plain functions, so a model can be a table
// lookup, a sparse map or a formula. Both functions are tabulated once per
// call into gonum dense matrices; they must be pure. TabularModel is a ready
// made string-keyed representation used by the modelspec package.
//
// # Convergence
//
// Hitting SolverConfig.MaxIterations is not an error. The returned Result has
// Converged set to false and a warning is logged; the values are the last
// sweep's estimate.
//
// Sub-packages:
//   - mdp/trace/: per-sweep convergence records
//   - mdp/modelspec/: YAML model files and the gridworld generator
package mdp
