package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cwbudde/curvefit/internal/opt"
	"github.com/cwbudde/curvefit/internal/store"
)

var (
	resumeStore     storeFlags
	resumeAlgorithm string
	resumeSteps     int
	resumeRate      float64
	resumeJSON      bool
)

var resumeCmd = &cobra.Command{
	Use:   "resume [job-id]",
	Short: "Continue a saved run from its checkpoint",
	Long: `Loads the checkpoint of a saved run and continues from its best weights on the
saved dataset. The algorithm may be switched with --algorithm; optimizers that cannot
restore weights start from random curves. The checkpoint is updated when the run stops.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeStore.register(resumeCmd.Flags())
	resumeCmd.Flags().StringVar(&resumeAlgorithm, "algorithm", "", "Switch to another algorithm")
	resumeCmd.Flags().IntVar(&resumeSteps, "max-steps", 0, "Additional steps to run (0 = config value)")
	resumeCmd.Flags().Float64Var(&resumeRate, "steps-per-second", -1, "Throttle stepping (-1 = config value)")
	resumeCmd.Flags().BoolVar(&resumeJSON, "json", false, "Print the result as JSON")

	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	checkpointStore, closeStore, err := resumeStore.open()
	if err != nil {
		return err
	}
	defer closeStore()

	checkpoint, err := checkpointStore.LoadCheckpoint(jobID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no checkpoint for job %s in %s store at %s", jobID, resumeStore.kind, resumeStore.dataDir)
	}
	if err != nil {
		return err
	}
	if err := checkpoint.Validate(); err != nil {
		return fmt.Errorf("checkpoint is invalid: %w", err)
	}

	cfg := checkpoint.Config
	if resumeAlgorithm != "" {
		cfg.Algorithm = resumeAlgorithm
	}
	if resumeSteps > 0 {
		cfg.MaxSteps = resumeSteps
	}
	if resumeRate >= 0 {
		cfg.StepsPerSecond = resumeRate
	}
	cfg.Points = checkpoint.Points
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := checkpoint.IsCompatible(cfg); err != nil {
		return err
	}

	optimizer, err := opt.New(cfg.Algorithm, cfg.Seed)
	if err != nil {
		return err
	}

	slog.Info("Resuming from checkpoint",
		"job_id", jobID,
		"algorithm", cfg.Algorithm,
		"iteration", checkpoint.Iteration,
		"best_loss", checkpoint.BestLoss,
	)

	trace, err := store.OpenTraceWriter(store.TracePath(resumeStore.traceDir(), jobID), true)
	if err != nil {
		return err
	}
	defer trace.Close()

	initialLoss := checkpoint.InitialLoss
	s := &session{
		jobID:           jobID,
		cfg:             &cfg,
		store:           checkpointStore,
		trace:           trace,
		iterationOffset: checkpoint.Iteration,
		initialLoss:     &initialLoss,
	}

	opts := cfg.Options(checkpoint.Points)
	opts.InitialWeights = checkpoint.BestWeights

	result, err := s.run(commandContext(cmd), optimizer, opts)
	if err != nil {
		return err
	}

	return printRunOutput(cmd.OutOrStdout(), runOutput{
		JobID:       jobID,
		Algorithm:   result.Algorithm,
		Reason:      string(result.Reason),
		Steps:       checkpoint.Iteration + result.Steps,
		InitialLoss: initialLoss,
		BestLoss:    result.BestLoss,
		BestWeights: result.BestWeights,
		Points:      result.Points,
		Elapsed:     result.Duration.Seconds(),
	}, resumeJSON)
}
