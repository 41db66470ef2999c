package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/curvefit/internal/fit"
	"github.com/cwbudde/curvefit/internal/opt"
)

// StopReason describes why Run returned. StopDiverged means the loss of every
// curve became NaN or infinite.
type StopReason string

const (
	StopMaxSteps  StopReason = "max_steps"
	StopConverged StopReason = "converged"
	StopCanceled  StopReason = "canceled"
	StopDiverged  StopReason = "diverged"
)

// ErrEmptyPopulation is returned when an optimizer owns no curves to report
var ErrEmptyPopulation = errors.New("optimizer has no curves")

// Options configures a single optimization run
type Options struct {
	NumWeights      int
	Points          []fit.Point
	WeightPenalty   float64
	Hyperparameters opt.Hyperparameters

	// StepsPerSecond throttles stepping; 0 steps as fast as possible
	StepsPerSecond float64

	// MaxSteps stops the run after this many steps; 0 means unlimited
	MaxSteps int

	Convergence ConvergenceConfig

	// InitialWeights continues from saved weights when the optimizer implements opt.Restorer
	InitialWeights []float64

	// Updates delivers replacement datasets; they are applied between steps
	Updates <-chan []fit.Point

	// OnStep is called from the run goroutine after every step
	OnStep func(Progress)

	// Seed is used by Race to seed each optimizer; 0 selects a time-based seed
	Seed int64
}

// Progress is a snapshot of a running optimization
type Progress struct {
	Algorithm   string
	Step        int
	InitialLoss float64
	Loss        float64 // best loss of the current generation
	BestLoss    float64 // best loss seen since the dataset last changed
	BestWeights []float64
	Best        *fit.Curve
	Curves      []*fit.Curve
	Points      []fit.Point
	Elapsed     time.Duration
}

// Result holds the output of an optimization run
type Result struct {
	Algorithm   string
	InitialLoss float64
	BestLoss    float64
	BestWeights []float64
	Steps       int
	Reason      StopReason
	Duration    time.Duration
	Points      []fit.Point
}

// Run initializes the optimizer and steps it until MaxSteps, convergence, or
// context cancellation. Cancellation is a normal stop and returns the result so far.
// The optimizer must not be used by any other goroutine while Run is active.
func Run(ctx context.Context, o opt.Optimizer, opts Options) (*Result, error) {
	if len(opts.Points) == 0 {
		return nil, fit.ErrEmptyDataset
	}

	points := fit.ClonePoints(opts.Points)
	if err := start(o, points, opts); err != nil {
		return nil, fmt.Errorf("failed to initialize %s: %w", o.Name(), err)
	}

	best, ok := o.Best()
	if !ok {
		return nil, fmt.Errorf("failed to initialize %s: %w", o.Name(), ErrEmptyPopulation)
	}

	slog.Info("Starting optimization",
		"algorithm", o.Name(),
		"weights", opts.NumWeights,
		"points", len(points),
		"initial_loss", best.Loss,
	)

	startTime := time.Now()
	result := &Result{
		Algorithm:   o.Name(),
		InitialLoss: best.Loss,
		BestLoss:    best.Loss,
		BestWeights: best.Weights,
	}
	tracker := NewConvergenceTracker(opts.Convergence)

	var tick <-chan time.Time
	if opts.StepsPerSecond > 0 {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / opts.StepsPerSecond))
		defer ticker.Stop()
		tick = ticker.C
	}

	applyUpdate := func(update []fit.Point) error {
		if err := o.RefreshLoss(update, opts.WeightPenalty); err != nil {
			return fmt.Errorf("failed to apply dataset update: %w", err)
		}
		points = fit.ClonePoints(update)
		tracker.Reset()
		if c, ok := o.Best(); ok {
			result.BestLoss = c.Loss
			result.BestWeights = c.Weights
		}
		slog.Debug("Dataset updated", "algorithm", o.Name(), "points", len(points))
		return nil
	}

	finish := func(reason StopReason) *Result {
		result.Reason = reason
		result.Duration = time.Since(startTime)
		result.Points = points
		slog.Info("Optimization complete",
			"algorithm", o.Name(),
			"reason", reason,
			"steps", result.Steps,
			"initial_loss", result.InitialLoss,
			"best_loss", result.BestLoss,
			"duration", result.Duration,
		)
		return result
	}

	if !fit.Finite(result.BestLoss) {
		return finish(StopDiverged), nil
	}

	for {
		if opts.MaxSteps > 0 && result.Steps >= opts.MaxSteps {
			return finish(StopMaxSteps), nil
		}

		// Drain pending dataset updates without blocking
	drain:
		for {
			select {
			case <-ctx.Done():
				return finish(StopCanceled), nil
			case update := <-opts.Updates:
				if err := applyUpdate(update); err != nil {
					return nil, err
				}
			default:
				break drain
			}
		}

		if err := o.Step(opts.Hyperparameters, points, opts.WeightPenalty); err != nil {
			return nil, fmt.Errorf("step %d failed: %w", result.Steps+1, err)
		}
		result.Steps++

		current, ok := o.Best()
		if !ok {
			return nil, fmt.Errorf("step %d of %s: %w", result.Steps, o.Name(), ErrEmptyPopulation)
		}
		if current.Loss < result.BestLoss {
			result.BestLoss = current.Loss
			result.BestWeights = current.Weights
		}

		if opts.OnStep != nil {
			opts.OnStep(Progress{
				Algorithm:   o.Name(),
				Step:        result.Steps,
				InitialLoss: result.InitialLoss,
				Loss:        current.Loss,
				BestLoss:    result.BestLoss,
				BestWeights: result.BestWeights,
				Best:        current,
				Curves:      o.Curves(),
				Points:      points,
				Elapsed:     time.Since(startTime),
			})
		}

		if !fit.Finite(current.Loss) {
			return finish(StopDiverged), nil
		}

		if tracker.Update(result.BestLoss) {
			return finish(StopConverged), nil
		}

		if tick == nil {
			continue
		}

		// Wait for the next tick, applying updates that arrive in between
	wait:
		for {
			select {
			case <-ctx.Done():
				return finish(StopCanceled), nil
			case update := <-opts.Updates:
				if err := applyUpdate(update); err != nil {
					return nil, err
				}
			case <-tick:
				break wait
			}
		}
	}
}

func start(o opt.Optimizer, points []fit.Point, opts Options) error {
	if len(opts.InitialWeights) > 0 {
		if r, ok := o.(opt.Restorer); ok {
			return r.Restore(opts.InitialWeights, points, opts.WeightPenalty, opts.Hyperparameters)
		}
		slog.Warn("Optimizer cannot restore weights, starting from random curves", "algorithm", o.Name())
	}
	return o.Initialize(opts.NumWeights, points, opts.WeightPenalty, opts.Hyperparameters)
}
