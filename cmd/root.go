package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/valueiter/mdp"
	"github.com/inference-sim/valueiter/mdp/modelspec"
	"github.com/inference-sim/valueiter/mdp/trace"
)

var (
	// CLI flags for the solve and validate commands
	modelPath           string  // YAML model file
	discount            float64 // Discount factor γ
	tolerance           float64 // Sup-norm convergence threshold
	maxIterations       int     // Sweep budget
	transitionTolerance float64 // Slack for probability checks
	skipValidation      bool    // Trust the model's probabilities and rewards
	traceLevel          string  // Sweep trace verbosity
	resultsPath         string  // Optional file for the JSON results
	plotPath            string  // Optional HTML convergence chart
	renderGrid          bool    // Print gridworld policies as a coloured grid
	noColor             bool    // Disable ANSI colours in --render output
	logLevel            string  // Log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "valueiter",
	Short: "Optimal policies for finite Markov Decision Processes by value iteration",
}

// setupLogging applies --log to the global logrus logger.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// loadModel reads, validates and builds the model named by --model.
func loadModel() (*modelspec.ModelSpec, *mdp.TabularModel) {
	if modelPath == "" {
		logrus.Fatalf("Model file not provided. Use --model.")
	}
	spec, err := modelspec.LoadModelSpec(modelPath)
	if err != nil {
		logrus.Fatalf("unable to load model; %v", err)
	}
	model, err := spec.Build()
	if err != nil {
		logrus.Fatalf("invalid model %s: %v", modelPath, err)
	}
	return spec, model
}

// resolveSolverConfig layers the defaults, the model file's solver section and
// explicitly set CLI flags, in that order. Flags only win when Changed(), so a
// model file's settings are not clobbered by flag defaults.
func resolveSolverConfig(cmd *cobra.Command, spec *modelspec.ModelSpec) mdp.SolverConfig {
	cfg := spec.SolverOverrides(mdp.DefaultSolverConfig())
	flags := cmd.Flags()
	if flags.Changed("discount") {
		cfg.Discount = discount
	}
	if flags.Changed("tolerance") {
		cfg.Tolerance = tolerance
	}
	if flags.Changed("max-iterations") {
		cfg.MaxIterations = maxIterations
	}
	if flags.Changed("transition-tolerance") {
		cfg.TransitionTolerance = transitionTolerance
	}
	cfg.SkipModelValidation = skipValidation
	cfg.TraceLevel = trace.TraceLevel(traceLevel)
	if plotPath != "" && !cfg.TraceLevel.Enabled() {
		logrus.Debugf("--plot requires sweep records; enabling trace level %q", trace.TraceLevelSweeps)
		cfg.TraceLevel = trace.TraceLevelSweeps
	}
	return cfg
}

// solveCmd loads a model file, solves it and reports the policy and values
var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve an MDP model file",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s (valid: none, sweeps)", traceLevel)
		}

		spec, model := loadModel()
		cfg := resolveSolverConfig(cmd, spec)

		logrus.Infof("Solving %q with %d states, %d actions, discount=%g, tolerance=%g, max-iterations=%d",
			spec.Name, len(model.States()), len(model.Actions()), cfg.Discount, cfg.Tolerance, cfg.MaxIterations)

		startTime := time.Now()
		res, err := mdp.SolveModel[string, string](model, cfg)
		if err != nil {
			logrus.Fatalf("solve failed: %v", err)
		}
		report := NewSolveReport(spec.Name, res, time.Since(startTime))

		if err := SaveResults(os.Stdout, report, resultsPath); err != nil {
			logrus.Fatalf("unable to write results: %v", err)
		}

		if renderGrid {
			if spec.Gridworld == nil {
				logrus.Warnf("--render only applies to gridworld models; %q has explicit tables", spec.Name)
			} else {
				RenderGridworld(os.Stdout, spec.Gridworld, res, !noColor)
			}
		}

		if plotPath != "" {
			if err := WriteConvergencePlot(plotPath, spec.Name, res.Trace); err != nil {
				logrus.Fatalf("unable to write convergence plot: %v", err)
			}
			logrus.Infof("Convergence plot written to %s", plotPath)
		}

		logrus.Info("Solve complete.")
	},
}

// validateCmd checks a model file without solving it
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate an MDP model file",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		spec, model := loadModel()
		if err := mdp.ValidateModel[string, string](model, resolveSolverConfig(cmd, spec).TransitionTolerance); err != nil {
			logrus.Fatalf("invalid model %s: %v", modelPath, err)
		}
		logrus.Infof("Model %q is valid: %d states, %d actions", spec.Name, len(model.States()), len(model.Actions()))
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerModelFlags adds the flags shared by solve and validate.
func registerModelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&modelPath, "model", "", "Path to the YAML model file")
	cmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	cmd.Flags().Float64Var(&transitionTolerance, "transition-tolerance", 1e-9, "Slack for transition probability range and row-sum checks")
}

// registerSolveFlags adds the solver and output flags.
func registerSolveFlags(cmd *cobra.Command) {
	defaults := mdp.DefaultSolverConfig()

	// Solver configs
	cmd.Flags().Float64Var(&discount, "discount", defaults.Discount, "Discount factor, strictly inside (0, 1)")
	cmd.Flags().Float64Var(&tolerance, "tolerance", defaults.Tolerance, "Stop once the max per-state value change is below this")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", defaults.MaxIterations, "Maximum number of sweeps")
	cmd.Flags().BoolVar(&skipValidation, "skip-validation", false, "Skip probability and reward checks")
	cmd.Flags().StringVar(&traceLevel, "trace-level", string(trace.TraceLevelNone), "Sweep trace level (none, sweeps)")

	// Output configs
	cmd.Flags().StringVar(&resultsPath, "results-path", "", "Also write the JSON results to this file")
	cmd.Flags().StringVar(&plotPath, "plot", "", "Write an HTML chart of delta per sweep to this file")
	cmd.Flags().BoolVar(&renderGrid, "render", false, "Print the policy and values as a grid (gridworld models)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colours in --render output")
}

// init sets up CLI flags and subcommands
func init() {
	registerModelFlags(solveCmd)
	registerSolveFlags(solveCmd)
	registerModelFlags(validateCmd)

	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(validateCmd)
}
