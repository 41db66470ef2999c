package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/curvefit/internal/config"
	"github.com/cwbudde/curvefit/internal/driver"
	"github.com/cwbudde/curvefit/internal/fit"
	"github.com/cwbudde/curvefit/internal/opt"
	"github.com/cwbudde/curvefit/internal/store"
)

// session drives one optimization for the CLI and persists it as it goes
type session struct {
	jobID string
	cfg   *config.RunConfig

	// store receives a checkpoint every cfg.CheckpointInterval steps and at the end; nil disables
	store store.Store

	// trace receives the best loss of every step; nil disables
	trace *store.TraceWriter

	// iterationOffset and initialLoss carry over from a resumed checkpoint
	iterationOffset int
	initialLoss     *float64
}

// run executes the optimization. Iterations in traces and checkpoints include the offset.
func (s *session) run(ctx context.Context, o opt.Optimizer, opts driver.Options) (*driver.Result, error) {
	onStep := opts.OnStep
	opts.OnStep = func(p driver.Progress) {
		if onStep != nil {
			onStep(p)
		}

		iteration := s.iterationOffset + p.Step
		if s.trace != nil {
			if err := s.trace.Write(store.TraceEntry{Iteration: iteration, Loss: p.BestLoss, Timestamp: time.Now()}); err != nil {
				slog.Warn("Failed to write trace entry", "job_id", s.jobID, "error", err)
			}
		}

		if s.store != nil && s.cfg.CheckpointInterval > 0 && p.Step%s.cfg.CheckpointInterval == 0 {
			if err := s.save(p.BestWeights, p.BestLoss, p.InitialLoss, iteration, p.Points); err != nil {
				slog.Error("Failed to save checkpoint", "job_id", s.jobID, "error", err)
			}
		}
	}

	result, err := driver.Run(ctx, o, opts)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		if err := s.save(result.BestWeights, result.BestLoss, result.InitialLoss, s.iterationOffset+result.Steps, result.Points); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (s *session) save(weights []float64, bestLoss, initialLoss float64, iteration int, points []fit.Point) error {
	if s.initialLoss != nil {
		initialLoss = *s.initialLoss
	}
	checkpoint := store.NewCheckpoint(s.jobID, weights, bestLoss, initialLoss, iteration, points, *s.cfg)
	if err := s.store.SaveCheckpoint(s.jobID, checkpoint); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	slog.Debug("Checkpoint saved", "job_id", s.jobID, "iteration", iteration, "best_loss", bestLoss)
	return nil
}
