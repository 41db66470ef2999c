package main

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/cwbudde/curvefit/internal/driver"
	"github.com/cwbudde/curvefit/internal/opt"
	"github.com/cwbudde/curvefit/internal/store"
)

func decodeRunOutput(t *testing.T, out string) runOutput {
	t.Helper()
	var result runOutput
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("Failed to decode output %q: %v", out, err)
	}
	return result
}

func readTrace(t *testing.T, dir, jobID string) []store.TraceEntry {
	t.Helper()
	reader, err := store.NewTraceReader(dir, jobID)
	if err != nil {
		t.Fatalf("Failed to open trace: %v", err)
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read trace: %v", err)
	}
	return entries
}

func TestRunFlags_Resolve(t *testing.T) {
	var f runFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)

	if err := cmd.ParseFlags([]string{"--algorithm", "adam", "--weights", "4", "--points=0:1,1:2", "--no-convergence"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}

	cfg, err := f.resolve(cmd)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if cfg.Algorithm != opt.NameAdam {
		t.Errorf("Expected adam, got %s", cfg.Algorithm)
	}
	if cfg.NumWeights != 4 {
		t.Errorf("Expected 4 weights, got %d", cfg.NumWeights)
	}
	if len(cfg.Points) != 2 || cfg.Points[1].Y != 2 {
		t.Errorf("Unexpected points %v", cfg.Points)
	}
	if cfg.Convergence.Enabled {
		t.Error("Convergence should be disabled")
	}
	if cfg.MaxSteps != 1000 {
		t.Errorf("Unset flags should keep defaults, got max steps %d", cfg.MaxSteps)
	}
}

func TestRunFlags_ConfigFileWithOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	yaml := `algorithm: momentum
num_weights: 2
max_steps: 50
points:
  - {x: 0, y: 1}
  - {x: 1, y: 3}
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	var f runFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	if err := cmd.ParseFlags([]string{"--config", path, "--max-steps", "7"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}

	cfg, err := f.resolve(cmd)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if cfg.Algorithm != opt.NameMomentum {
		t.Errorf("Expected algorithm from file, got %s", cfg.Algorithm)
	}
	if cfg.NumWeights != 2 {
		t.Errorf("Expected 2 weights from file, got %d", cfg.NumWeights)
	}
	if cfg.MaxSteps != 7 {
		t.Errorf("Flag should override file, got max steps %d", cfg.MaxSteps)
	}
	if len(cfg.Points) != 2 {
		t.Errorf("Expected 2 points from file, got %d", len(cfg.Points))
	}
}

func TestRunFlags_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown algorithm", []string{"--algorithm", "bogus"}},
		{"bad points", []string{"--points", "1:x"}},
		{"negative penalty", []string{"--penalty", "-1"}},
		{"missing config", []string{"--config", "/nonexistent/run.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f runFlags
			cmd := &cobra.Command{Use: "test"}
			f.register(cmd)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags failed: %v", err)
			}
			if _, err := f.resolve(cmd); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestRunCommand(t *testing.T) {
	out, err := execute(t, "run",
		"--algorithm", "polynomial-solver",
		"--weights", "2",
		"--points="+linePoints,
		"--max-steps", "5",
		"--no-convergence",
	)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !strings.Contains(out, "Algorithm: polynomial-solver") {
		t.Errorf("Expected algorithm in output:\n%s", out)
	}
	if !strings.Contains(out, "max_steps after 5 steps") {
		t.Errorf("Expected stop reason in output:\n%s", out)
	}
	if !strings.Contains(out, "y = 0.5 + 1.5·x") {
		t.Errorf("Expected fitted line in output:\n%s", out)
	}
	if strings.Contains(out, "Job ID") {
		t.Error("Unsaved runs should not print a job ID")
	}
}

func TestRunCommand_UnknownAlgorithm(t *testing.T) {
	_, err := execute(t, "run", "--algorithm", "bogus")
	if !errors.Is(err, opt.ErrUnknownAlgorithm) {
		t.Errorf("Expected ErrUnknownAlgorithm, got %v", err)
	}
}

func TestRunCommand_TraceFile(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "trace.jsonl")

	_, err := execute(t, "run",
		"--algorithm", "gradient",
		"--num-points", "5",
		"--seed", "3",
		"--max-steps", "12",
		"--no-convergence",
		"--trace", tracePath,
	)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	reader, err := store.OpenTraceReader(tracePath)
	if err != nil {
		t.Fatalf("Failed to open trace: %v", err)
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read trace: %v", err)
	}
	if len(entries) != 12 {
		t.Errorf("Expected 12 trace entries, got %d", len(entries))
	}
}

func TestRunSaveAndResume(t *testing.T) {
	for _, kind := range []string{storeFS, storeSQLite} {
		t.Run(kind, func(t *testing.T) {
			dir := t.TempDir()

			out, err := execute(t, "run",
				"--algorithm", "gradient",
				"--weights", "2",
				"--points="+linePoints,
				"--seed", "5",
				"--max-steps", "5",
				"--no-convergence",
				"--save",
				"--store", kind,
				"--data-dir", dir,
				"--json",
			)
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}

			first := decodeRunOutput(t, out)
			if first.JobID == "" {
				t.Fatal("Saved run should report a job ID")
			}
			if first.Steps != 5 {
				t.Errorf("Expected 5 steps, got %d", first.Steps)
			}
			if got := len(readTrace(t, dir, first.JobID)); got != 5 {
				t.Errorf("Expected 5 trace entries, got %d", got)
			}

			out, err = execute(t, "resume", first.JobID,
				"--store", kind,
				"--data-dir", dir,
				"--algorithm", "polynomial-solver",
				"--max-steps", "3",
				"--json",
			)
			if err != nil {
				t.Fatalf("resume failed: %v", err)
			}

			second := decodeRunOutput(t, out)
			if second.Steps != 8 {
				t.Errorf("Expected 8 total steps, got %d", second.Steps)
			}
			if second.InitialLoss != first.InitialLoss {
				t.Errorf("Initial loss should carry over: %f != %f", second.InitialLoss, first.InitialLoss)
			}
			if second.BestLoss > first.BestLoss {
				t.Errorf("Resumed loss %f should not exceed %f", second.BestLoss, first.BestLoss)
			}
			if math.Abs(second.BestWeights[0]-0.5) > 1e-9 || math.Abs(second.BestWeights[1]-1.5) > 1e-9 {
				t.Errorf("Expected the solver to finish the fit, got %v", second.BestWeights)
			}

			entries := readTrace(t, dir, first.JobID)
			if len(entries) != 8 || entries[7].Iteration != 8 {
				t.Errorf("Expected trace to continue to iteration 8, got %d entries", len(entries))
			}

			checkpointFlags := storeFlags{dataDir: dir, kind: kind}
			checkpointStore, closeStore, err := checkpointFlags.open()
			if err != nil {
				t.Fatalf("Failed to open store: %v", err)
			}
			defer closeStore()

			checkpoint, err := checkpointStore.LoadCheckpoint(first.JobID)
			if err != nil {
				t.Fatalf("Failed to load checkpoint: %v", err)
			}
			if checkpoint.Iteration != 8 {
				t.Errorf("Expected checkpoint at iteration 8, got %d", checkpoint.Iteration)
			}
			if checkpoint.Config.Algorithm != opt.NamePolynomialSolver {
				t.Errorf("Checkpoint should record the switched algorithm, got %s", checkpoint.Config.Algorithm)
			}
		})
	}
}

func TestResumeCommand_NotFound(t *testing.T) {
	_, err := execute(t, "resume", "missing-job", "--data-dir", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "no checkpoint") {
		t.Errorf("Expected missing checkpoint error, got %v", err)
	}
}

func TestStoreFlags_Unknown(t *testing.T) {
	f := storeFlags{dataDir: t.TempDir(), kind: "redis"}
	if _, _, err := f.open(); err == nil {
		t.Error("Expected error for unknown store")
	}
}

func TestRaceCommand(t *testing.T) {
	out, err := execute(t, "race",
		"--algorithms", "random-search,polynomial-solver",
		"--weights", "2",
		"--points="+linePoints,
		"--seed", "1",
		"--max-steps", "20",
		"--no-convergence",
	)
	if err != nil {
		t.Fatalf("race failed: %v", err)
	}

	if !strings.Contains(out, "Raced 2 algorithm(s) on 4 point(s)") {
		t.Errorf("Unexpected header:\n%s", out)
	}

	solver := strings.Index(out, "polynomial-solver")
	random := strings.Index(out, "random-search")
	if solver < 0 || random < 0 || solver > random {
		t.Errorf("Expected the exact solver to rank first:\n%s", out)
	}
}

func TestRaceCommand_UnknownAlgorithm(t *testing.T) {
	_, err := execute(t, "race", "--algorithms", "bogus")
	if !errors.Is(err, opt.ErrUnknownAlgorithm) {
		t.Errorf("Expected ErrUnknownAlgorithm, got %v", err)
	}
}

func TestStopLabel(t *testing.T) {
	tests := map[driver.StopReason]string{
		driver.StopMaxSteps:  "max steps",
		driver.StopConverged: "converged",
		driver.StopCanceled:  "canceled",
		driver.StopDiverged:  "diverged",
	}
	for reason, want := range tests {
		if got := stopLabel(reason); got != want {
			t.Errorf("stopLabel(%s) = %s, expected %s", reason, got, want)
		}
	}
}
