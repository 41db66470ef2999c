package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/curvefit/internal/driver"
	"github.com/cwbudde/curvefit/internal/opt"
	"github.com/cwbudde/curvefit/internal/store"
)

// runJob executes an optimization job; the calling goroutine owns the optimizer.
// If checkpointStore is not nil and the job has CheckpointInterval > 0, a checkpoint is
// saved every CheckpointInterval steps and when the run stops. If traceDir is not empty,
// the best loss of every step is appended to the job's trace.
func runJob(ctx context.Context, jm *JobManager, checkpointStore store.Store, traceDir string, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates, err := jm.start(jobID, cancel)
	if err != nil {
		return err
	}

	cfg := job.Config
	slog.Info("Starting job", "job_id", jobID, "algorithm", cfg.Algorithm, "points", len(job.Points))

	optimizer, err := opt.New(cfg.Algorithm, cfg.Seed)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	var trace *store.TraceWriter
	if traceDir != "" {
		trace, err = store.NewTraceWriter(traceDir, jobID, false)
		if err != nil {
			slog.Warn("Failed to open trace, continuing without it", "job_id", jobID, "error", err)
		} else {
			defer func() {
				if err := trace.Close(); err != nil {
					slog.Warn("Failed to close trace", "job_id", jobID, "error", err)
				}
			}()
		}
	}

	checkpointing := checkpointStore != nil && cfg.CheckpointInterval > 0

	opts := cfg.Options(job.Points)
	opts.Updates = updates
	opts.OnStep = func(p driver.Progress) {
		jm.UpdateJob(jobID, func(j *Job) {
			j.Iterations = p.Step
			j.InitialLoss = p.InitialLoss
			j.Loss = p.Loss
			j.BestLoss = p.BestLoss
			j.BestWeights = p.BestWeights
			j.Curves = p.Curves
			j.Points = p.Points
		})

		if trace != nil {
			entry := store.TraceEntry{Iteration: p.Step, Loss: p.BestLoss, Timestamp: time.Now()}
			if err := trace.Write(entry); err != nil {
				slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
			}
		}

		if checkpointing && p.Step%cfg.CheckpointInterval == 0 {
			if err := saveCheckpoint(jm, checkpointStore, jobID); err != nil {
				slog.Error("Failed to save checkpoint", "job_id", jobID, "error", err)
			}
		}
	}

	// The monitor must exit before the final event so it cannot overwrite it
	progressDone := make(chan struct{})
	monitorExited := make(chan struct{})
	go func() {
		defer close(monitorExited)
		monitorProgress(ctx, jm, jobID, progressDone)
	}()

	result, err := driver.Run(ctx, optimizer, opts)
	close(progressDone)
	<-monitorExited
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	jm.UpdateJob(jobID, func(j *Job) {
		j.Iterations = result.Steps
		j.InitialLoss = result.InitialLoss
		j.BestLoss = result.BestLoss
		j.BestWeights = result.BestWeights
		j.Points = result.Points
		j.StopReason = string(result.Reason)
	})

	if checkpointing {
		if err := saveCheckpoint(jm, checkpointStore, jobID); err != nil {
			slog.Error("Failed to save final checkpoint", "job_id", jobID, "error", err)
		}
	}

	if result.Reason == driver.StopCanceled {
		markJobCancelled(jm, jobID)
		return context.Canceled
	}

	markJobCompleted(jm, jobID)
	slog.Info("Job completed",
		"job_id", jobID,
		"reason", result.Reason,
		"steps", result.Steps,
		"elapsed", result.Duration,
		"initial_loss", result.InitialLoss,
		"best_loss", result.BestLoss,
	)
	return nil
}

// monitorProgress periodically broadcasts progress events during optimization
func monitorProgress(ctx context.Context, jm *JobManager, jobID string, done chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond) // Throttle to 2 updates per second
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, exists := jm.GetJob(jobID)
			if !exists {
				return
			}
			jm.broadcaster.Broadcast(jobEvent(job))
		}
	}
}

// finishJob moves a job into a terminal state and broadcasts the final event
func finishJob(jm *JobManager, jobID string, state JobState, errMsg string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = state
		j.Error = errMsg
		j.EndTime = &endTime
	})
	if job, exists := jm.GetJob(jobID); exists {
		jm.broadcaster.Broadcast(jobEvent(job))
	}
}

// markJobCompleted marks a job as completed
func markJobCompleted(jm *JobManager, jobID string) {
	finishJob(jm, jobID, StateCompleted, "")
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	finishJob(jm, jobID, StateFailed, err.Error())
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	finishJob(jm, jobID, StateCancelled, "")
	slog.Info("Job cancelled", "job_id", jobID)
}

// saveCheckpoint saves a checkpoint for the given job
func saveCheckpoint(jm *JobManager, checkpointStore store.Store, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	if len(job.BestWeights) == 0 {
		slog.Debug("Skipping checkpoint, no best weights yet", "job_id", jobID)
		return nil
	}

	checkpoint := store.NewCheckpoint(
		jobID,
		job.BestWeights,
		job.BestLoss,
		job.InitialLoss,
		job.Iterations,
		job.Points,
		job.Config,
	)

	if err := checkpointStore.SaveCheckpoint(jobID, checkpoint); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	slog.Info("Checkpoint saved",
		"job_id", jobID,
		"iteration", job.Iterations,
		"best_loss", job.BestLoss,
	)
	return nil
}
