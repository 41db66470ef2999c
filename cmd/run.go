package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cwbudde/curvefit/internal/driver"
	"github.com/cwbudde/curvefit/internal/fit"
	"github.com/cwbudde/curvefit/internal/opt"
	"github.com/cwbudde/curvefit/internal/store"
)

var (
	runOpts     runFlags
	runStore    storeFlags
	runSave     bool
	runTrace    string
	runJSON     bool
	runInterval int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run single-shot optimization",
	Long: `Fits a polynomial to the dataset with one algorithm and prints the best curve.
With --save the run is stored as a checkpoint that "resume" can continue.`,
	RunE: runOptimization,
}

func init() {
	runOpts.register(runCmd)
	runStore.register(runCmd.Flags())
	runCmd.Flags().BoolVar(&runSave, "save", false, "Save checkpoints of the run to the store")
	runCmd.Flags().IntVar(&runInterval, "checkpoint-interval", 0, "Steps between checkpoints when saving (0 = config value)")
	runCmd.Flags().StringVar(&runTrace, "trace", "", "Write a JSONL loss trace to this path")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print the result as JSON")

	rootCmd.AddCommand(runCmd)
}

// runOutput is the printed result of a run
type runOutput struct {
	JobID       string      `json:"jobId,omitempty"`
	Algorithm   string      `json:"algorithm"`
	Reason      string      `json:"reason"`
	Steps       int         `json:"steps"`
	InitialLoss float64     `json:"initialLoss"`
	BestLoss    float64     `json:"bestLoss"`
	BestWeights []float64   `json:"bestWeights"`
	Points      []fit.Point `json:"points"`
	Elapsed     float64     `json:"elapsed"`
}

func runOptimization(cmd *cobra.Command, args []string) error {
	cfg, err := runOpts.resolve(cmd)
	if err != nil {
		return err
	}
	if runInterval > 0 {
		cfg.CheckpointInterval = runInterval
	}

	optimizer, err := opt.New(cfg.Algorithm, cfg.Seed)
	if err != nil {
		return err
	}

	s := &session{jobID: uuid.New().String(), cfg: cfg}

	tracePath := runTrace
	if runSave {
		checkpointStore, closeStore, err := runStore.open()
		if err != nil {
			return err
		}
		defer closeStore()
		s.store = checkpointStore

		if tracePath == "" {
			tracePath = store.TracePath(runStore.traceDir(), s.jobID)
		}
	}

	if tracePath != "" {
		trace, err := store.OpenTraceWriter(tracePath, false)
		if err != nil {
			return err
		}
		defer trace.Close()
		s.trace = trace
	}

	result, err := s.run(commandContext(cmd), optimizer, cfg.Options(cfg.Dataset()))
	if err != nil {
		return err
	}

	out := runOutput{
		Algorithm:   result.Algorithm,
		Reason:      string(result.Reason),
		Steps:       result.Steps,
		InitialLoss: result.InitialLoss,
		BestLoss:    result.BestLoss,
		BestWeights: result.BestWeights,
		Points:      result.Points,
		Elapsed:     result.Duration.Seconds(),
	}
	if runSave {
		out.JobID = s.jobID
	}
	return printRunOutput(cmd.OutOrStdout(), out, runJSON)
}

func printRunOutput(w io.Writer, out runOutput, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	elapsed := time.Duration(out.Elapsed * float64(time.Second)).Round(time.Millisecond)
	fmt.Fprintf(w, "Algorithm: %s\n", out.Algorithm)
	fmt.Fprintf(w, "Stopped:   %s after %d steps (%s)\n", out.Reason, out.Steps, elapsed)
	fmt.Fprintf(w, "Loss:      %.6g -> %.6g\n", out.InitialLoss, out.BestLoss)
	fmt.Fprintf(w, "Curve:     %s\n", fit.FormatPolynomial(out.BestWeights))
	if out.JobID != "" {
		fmt.Fprintf(w, "Job ID:    %s\n", out.JobID)
	}
	return nil
}

// stopLabel is the short form of a stop reason for tables
func stopLabel(reason driver.StopReason) string {
	switch reason {
	case driver.StopConverged:
		return "converged"
	case driver.StopCanceled:
		return "canceled"
	case driver.StopDiverged:
		return "diverged"
	default:
		return "max steps"
	}
}
