package store

import (
	"fmt"
	"math"
	"time"

	"github.com/cwbudde/curvefit/internal/config"
	"github.com/cwbudde/curvefit/internal/fit"
)

// Checkpoint is the saved state of a run that can be resumed later.
//
// Only the best weights are saved, never the optimizer internals (population,
// moments, velocities, temperature). Resuming restores the best weights into a
// fresh optimizer through opt.Restorer, so the best loss never gets worse but the
// trajectory differs from an uninterrupted run.
type Checkpoint struct {
	// JobID is the unique identifier for this run
	JobID string `json:"jobId"`

	// BestWeights are the polynomial coefficients with the lowest loss so far
	BestWeights []float64 `json:"bestWeights"`

	// BestLoss is the loss achieved by BestWeights against Points
	BestLoss float64 `json:"bestLoss"`

	// InitialLoss is the loss of the first random curve
	InitialLoss float64 `json:"initialLoss"`

	// Iteration is the number of steps completed when this checkpoint was created
	Iteration int `json:"iteration"`

	// Timestamp records when this checkpoint was created
	Timestamp time.Time `json:"timestamp"`

	// Points is the dataset in effect when the checkpoint was taken
	Points []fit.Point `json:"points"`

	// Config holds the run configuration, needed for validation during resume
	Config config.RunConfig `json:"config"`
}

// CheckpointInfo contains metadata about a checkpoint without weights or dataset
type CheckpointInfo struct {
	JobID      string    `json:"jobId"`
	Algorithm  string    `json:"algorithm"`
	BestLoss   float64   `json:"bestLoss"`
	Iteration  int       `json:"iteration"`
	Timestamp  time.Time `json:"timestamp"`
	NumWeights int       `json:"numWeights"`
	NumPoints  int       `json:"numPoints"`
}

// NewCheckpoint creates a checkpoint from run state
func NewCheckpoint(jobID string, bestWeights []float64, bestLoss, initialLoss float64, iteration int, points []fit.Point, cfg config.RunConfig) *Checkpoint {
	return &Checkpoint{
		JobID:       jobID,
		BestWeights: bestWeights,
		BestLoss:    bestLoss,
		InitialLoss: initialLoss,
		Iteration:   iteration,
		Timestamp:   time.Now(),
		Points:      points,
		Config:      cfg,
	}
}

// ToInfo converts a full Checkpoint to CheckpointInfo (metadata only).
func (c *Checkpoint) ToInfo() CheckpointInfo {
	return CheckpointInfo{
		JobID:      c.JobID,
		Algorithm:  c.Config.Algorithm,
		BestLoss:   c.BestLoss,
		Iteration:  c.Iteration,
		Timestamp:  c.Timestamp,
		NumWeights: len(c.BestWeights),
		NumPoints:  len(c.Points),
	}
}

// Validate checks if the checkpoint has valid data.
// Returns an error if any required field is missing or invalid.
func (c *Checkpoint) Validate() error {
	if c.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if c.BestWeights == nil {
		return &ValidationError{Field: "BestWeights", Reason: "cannot be nil"}
	}
	if len(c.BestWeights) != c.Config.NumWeights {
		return &ValidationError{
			Field:  "BestWeights",
			Reason: fmt.Sprintf("length mismatch: expected %d weights, got %d", c.Config.NumWeights, len(c.BestWeights)),
		}
	}
	if c.BestLoss < 0 || math.IsNaN(c.BestLoss) {
		return &ValidationError{Field: "BestLoss", Reason: "must be a non-negative number"}
	}
	if c.InitialLoss < 0 || math.IsNaN(c.InitialLoss) {
		return &ValidationError{Field: "InitialLoss", Reason: "must be a non-negative number"}
	}
	if c.Iteration < 0 {
		return &ValidationError{Field: "Iteration", Reason: "cannot be negative"}
	}
	if c.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if len(c.Points) == 0 {
		return &ValidationError{Field: "Points", Reason: "cannot be empty"}
	}
	if c.Config.Algorithm == "" {
		return &ValidationError{Field: "Config.Algorithm", Reason: "cannot be empty"}
	}
	return nil
}

// ValidationError represents a checkpoint validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// IsCompatible checks if this checkpoint can be resumed with the given config.
// The algorithm may change between runs; the weight count may not.
func (c *Checkpoint) IsCompatible(cfg config.RunConfig) error {
	if c.Config.NumWeights != cfg.NumWeights {
		return &CompatibilityError{
			Field:    "NumWeights",
			Expected: fmt.Sprintf("%d", c.Config.NumWeights),
			Actual:   fmt.Sprintf("%d", cfg.NumWeights),
		}
	}
	return nil
}

// CompatibilityError represents a checkpoint compatibility error.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}
