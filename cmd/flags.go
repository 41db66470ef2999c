package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwbudde/curvefit/internal/config"
	"github.com/cwbudde/curvefit/internal/opt"
)

// runFlags are the run settings shared by run and race.
// Explicitly set flags override values from --config.
type runFlags struct {
	configPath     string
	algorithm      string
	numWeights     int
	points         string
	numPoints      int
	weightPenalty  float64
	seed           int64
	maxSteps       int
	stepsPerSecond float64
	noConvergence  bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	d := config.Default()
	fs := cmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", "", "YAML run configuration file")
	fs.StringVar(&f.algorithm, "algorithm", d.Algorithm, "Algorithm: "+strings.Join(opt.Names(), ", "))
	fs.IntVar(&f.numWeights, "weights", d.NumWeights, "Number of polynomial weights (degree + 1)")
	fs.StringVar(&f.points, "points", "", `Dataset as x:y pairs, e.g. "0:1,0.5:1.5,1:3"`)
	fs.IntVar(&f.numPoints, "num-points", d.NumPoints, "Random points in [-1,1] to generate when no dataset is given")
	fs.Float64Var(&f.weightPenalty, "penalty", d.WeightPenalty, "Weight penalty added as penalty * sum(w^2)")
	fs.Int64Var(&f.seed, "seed", d.Seed, "Random seed (0 = time-based)")
	fs.IntVar(&f.maxSteps, "max-steps", d.MaxSteps, "Maximum optimizer steps (0 = until converged or interrupted)")
	fs.Float64Var(&f.stepsPerSecond, "steps-per-second", d.StepsPerSecond, "Throttle stepping (0 = unthrottled)")
	fs.BoolVar(&f.noConvergence, "no-convergence", false, "Disable convergence detection")
}

// resolve loads --config (or the defaults), applies explicitly set flags and validates
func (f *runFlags) resolve(cmd *cobra.Command) (*config.RunConfig, error) {
	cfg := config.Default()
	c := &cfg
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		c = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("algorithm") {
		c.Algorithm = f.algorithm
	}
	if flags.Changed("weights") {
		c.NumWeights = f.numWeights
	}
	if flags.Changed("points") {
		points, err := config.ParsePoints(f.points)
		if err != nil {
			return nil, err
		}
		c.Points = points
	}
	if flags.Changed("num-points") {
		c.NumPoints = f.numPoints
	}
	if flags.Changed("penalty") {
		c.WeightPenalty = f.weightPenalty
	}
	if flags.Changed("seed") {
		c.Seed = f.seed
	}
	if flags.Changed("max-steps") {
		c.MaxSteps = f.maxSteps
	}
	if flags.Changed("steps-per-second") {
		c.StepsPerSecond = f.stepsPerSecond
	}
	if f.noConvergence {
		c.Convergence.Enabled = false
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}
