package config

import (
	"github.com/cwbudde/curvefit/internal/driver"
	"github.com/cwbudde/curvefit/internal/fit"
	"github.com/cwbudde/curvefit/internal/opt"
)

// RunConfig describes one optimization run
type RunConfig struct {
	Algorithm     string  `json:"algorithm" yaml:"algorithm"`
	NumWeights    int     `json:"numWeights" yaml:"num_weights"`
	WeightPenalty float64 `json:"weightPenalty" yaml:"weight_penalty"`

	// Points is the dataset; when empty, NumPoints random points are generated from Seed
	Points    []fit.Point `json:"points,omitempty" yaml:"points,omitempty"`
	NumPoints int         `json:"numPoints,omitempty" yaml:"num_points,omitempty"`
	Seed      int64       `json:"seed" yaml:"seed"`

	StepsPerSecond     float64 `json:"stepsPerSecond" yaml:"steps_per_second"`
	MaxSteps           int     `json:"maxSteps" yaml:"max_steps"`
	CheckpointInterval int     `json:"checkpointInterval" yaml:"checkpoint_interval"`

	Convergence     driver.ConvergenceConfig `json:"convergence" yaml:"convergence"`
	Hyperparameters opt.Hyperparameters      `json:"hyperparameters" yaml:"hyperparameters"`
}

// Default returns the configuration used when no file is given
func Default() RunConfig {
	return RunConfig{
		Algorithm:          opt.NameGradient,
		NumWeights:         3,
		NumPoints:          10,
		MaxSteps:           1000,
		CheckpointInterval: 100,
		Convergence:        driver.DefaultConvergenceConfig(),
		Hyperparameters:    opt.DefaultHyperparameters(),
	}
}

// Dataset returns the configured points, or NumPoints random points drawn from Seed
func (c *RunConfig) Dataset() []fit.Point {
	if len(c.Points) > 0 {
		return fit.ClonePoints(c.Points)
	}
	return fit.NewSampler(c.Seed).RandomPoints(c.NumPoints)
}

// Options converts the run configuration into driver options for the given dataset
func (c *RunConfig) Options(points []fit.Point) driver.Options {
	return driver.Options{
		NumWeights:      c.NumWeights,
		Points:          points,
		WeightPenalty:   c.WeightPenalty,
		Hyperparameters: c.Hyperparameters,
		StepsPerSecond:  c.StepsPerSecond,
		MaxSteps:        c.MaxSteps,
		Convergence:     c.Convergence,
		Seed:            c.Seed,
	}
}
