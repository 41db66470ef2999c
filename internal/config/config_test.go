package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/curvefit/internal/fit"
	"github.com/cwbudde/curvefit/internal/opt"
)

const sampleYAML = `
algorithm: adam
num_weights: 4
weight_penalty: 0.01
seed: 42
max_steps: 500
points:
  - {x: 0, y: 1}
  - {x: 0.5, y: 1.5}
  - {x: 1, y: 3}
convergence:
  enabled: true
  patience: 10
  threshold: 0.0001
hyperparameters:
  adam:
    learning_rate: 0.05
  evolution:
    distribution: uniform
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, opt.NameAdam, cfg.Algorithm)
	assert.Equal(t, 4, cfg.NumWeights)
	assert.Equal(t, 0.01, cfg.WeightPenalty)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 500, cfg.MaxSteps)
	assert.Equal(t, []fit.Point{{X: 0, Y: 1}, {X: 0.5, Y: 1.5}, {X: 1, Y: 3}}, cfg.Points)
	assert.Equal(t, 10, cfg.Convergence.Patience)

	// overridden field
	assert.Equal(t, 0.05, cfg.Hyperparameters.Adam.LearningRate)
	assert.Equal(t, opt.DistributionUniform, cfg.Hyperparameters.Evolution.Distribution)

	// untouched fields keep defaults
	defaults := opt.DefaultHyperparameters()
	assert.Equal(t, defaults.Adam.Beta1, cfg.Hyperparameters.Adam.Beta1)
	assert.Equal(t, defaults.Swarm, cfg.Hyperparameters.Swarm)
	assert.Equal(t, Default().CheckpointInterval, cfg.CheckpointInterval)
}

func TestParseEmptyUsesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("algorithm: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *RunConfig)
		errMsg string
	}{
		{"unknown algorithm", func(c *RunConfig) { c.Algorithm = "hill" }, "unknown algorithm"},
		{"negative weights", func(c *RunConfig) { c.NumWeights = -1 }, "num_weights"},
		{"negative penalty", func(c *RunConfig) { c.WeightPenalty = -0.1 }, "weight_penalty"},
		{"no dataset", func(c *RunConfig) { c.NumPoints = 0 }, "at least one point"},
		{"negative rate", func(c *RunConfig) { c.StepsPerSecond = -1 }, "steps_per_second"},
		{"negative max steps", func(c *RunConfig) { c.MaxSteps = -1 }, "max_steps"},
		{"negative interval", func(c *RunConfig) { c.CheckpointInterval = -5 }, "checkpoint_interval"},
		{"zero patience", func(c *RunConfig) { c.Convergence.Patience = 0 }, "patience"},
		{"bad distribution", func(c *RunConfig) { c.Hyperparameters.Evolution.Distribution = "cauchy" }, "distribution"},
		{"empty population", func(c *RunConfig) { c.Hyperparameters.Evolution.PopulationSize = 0 }, "population_size"},
		{"no particles", func(c *RunConfig) { c.Hyperparameters.Swarm.Particles = 0 }, "particles"},
		{"no random curves", func(c *RunConfig) { c.Hyperparameters.RandomSearch.Curves = 0 }, "curves"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateAcceptsDegenerateRates(t *testing.T) {
	cfg := Default()
	cfg.Hyperparameters.Gradient.LearningRate = 0
	cfg.Hyperparameters.Adam.LearningRate = -1
	cfg.Hyperparameters.Evolution.MutationVariance = -2
	cfg.Convergence.Enabled = false
	cfg.Convergence.Patience = 0

	assert.NoError(t, cfg.Validate())
}

func TestValidateUnknownAlgorithmIs(t *testing.T) {
	cfg := Default()
	cfg.Algorithm = "nope"
	assert.ErrorIs(t, cfg.Validate(), opt.ErrUnknownAlgorithm)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, opt.NameAdam, cfg.Algorithm)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	data, err := cfg.Marshal()
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestDataset(t *testing.T) {
	cfg := Default()
	cfg.Seed = 7
	cfg.NumPoints = 12

	first := cfg.Dataset()
	assert.Len(t, first, 12)
	assert.Equal(t, first, cfg.Dataset(), "same seed gives the same dataset")

	cfg.Points = []fit.Point{{X: 1, Y: 2}}
	points := cfg.Dataset()
	assert.Equal(t, cfg.Points, points)
	points[0].Y = 5
	assert.Equal(t, 2.0, cfg.Points[0].Y)
}

func TestOptions(t *testing.T) {
	cfg := Default()
	cfg.WeightPenalty = 0.5
	points := []fit.Point{{X: 0, Y: 0}}

	opts := cfg.Options(points)
	assert.Equal(t, cfg.NumWeights, opts.NumWeights)
	assert.Equal(t, 0.5, opts.WeightPenalty)
	assert.Equal(t, points, opts.Points)
	assert.Equal(t, cfg.MaxSteps, opts.MaxSteps)
	assert.Equal(t, cfg.Hyperparameters, opts.Hyperparameters)
}
