package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/curvefit/internal/opt"
)

// Load reads, parses and validates a run configuration file
func Load(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default and validates the result.
// Fields absent from the document keep their default values.
func Parse(data []byte) (*RunConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Marshal encodes the configuration as YAML
func (c *RunConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks the structural settings. Numerically degenerate
// hyperparameters (zero or negative rates) are accepted.
func (c *RunConfig) Validate() error {
	if _, ok := opt.Lookup(c.Algorithm); !ok {
		return fmt.Errorf("%w: %s", opt.ErrUnknownAlgorithm, c.Algorithm)
	}
	if c.NumWeights < 0 {
		return fmt.Errorf("num_weights cannot be negative")
	}
	if c.WeightPenalty < 0 {
		return fmt.Errorf("weight_penalty cannot be negative")
	}
	if len(c.Points) == 0 && c.NumPoints <= 0 {
		return fmt.Errorf("dataset must have at least one point (set points or num_points)")
	}
	if c.StepsPerSecond < 0 {
		return fmt.Errorf("steps_per_second cannot be negative")
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("max_steps cannot be negative")
	}
	if c.CheckpointInterval < 0 {
		return fmt.Errorf("checkpoint_interval cannot be negative")
	}
	if c.Convergence.Enabled && c.Convergence.Patience <= 0 {
		return fmt.Errorf("convergence patience must be positive when enabled")
	}

	if err := validateHyperparameters(&c.Hyperparameters); err != nil {
		return fmt.Errorf("hyperparameters validation failed: %w", err)
	}

	return nil
}

// validateHyperparameters rejects settings that would leave an optimizer without curves
func validateHyperparameters(hp *opt.Hyperparameters) error {
	switch hp.Evolution.Distribution {
	case opt.DistributionNormal, opt.DistributionUniform:
	default:
		return fmt.Errorf("invalid evolution distribution: %s (must be normal or uniform)", hp.Evolution.Distribution)
	}
	if hp.Evolution.PopulationSize < 1 {
		return fmt.Errorf("evolution population_size must be at least 1")
	}
	if hp.Swarm.Particles < 1 {
		return fmt.Errorf("swarm particles must be at least 1")
	}
	if hp.RandomSearch.Curves < 1 {
		return fmt.Errorf("random_search curves must be at least 1")
	}
	if hp.Annealing.Iterations < 0 {
		return fmt.Errorf("annealing iterations cannot be negative")
	}
	return nil
}
