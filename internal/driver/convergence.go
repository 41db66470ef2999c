package driver

import (
	"log/slog"
	"math"
)

// ConvergenceConfig defines parameters for detecting optimization convergence
type ConvergenceConfig struct {
	// Enabled controls whether convergence detection is active
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Patience is the number of steps with no significant improvement before stopping
	Patience int `json:"patience" yaml:"patience"`

	// Threshold is the minimum relative improvement required to count as progress
	// Example: 0.001 = 0.1% improvement required
	// Relative improvement = (oldLoss - newLoss) / oldLoss
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// DefaultConvergenceConfig returns sensible defaults for convergence detection
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Enabled:   true,
		Patience:  200,
		Threshold: 1e-6,
	}
}

// DisabledConvergenceConfig returns a config with convergence detection disabled
func DisabledConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Enabled: false,
	}
}

// ConvergenceTracker tracks loss history and detects when optimization has converged
type ConvergenceTracker struct {
	config          ConvergenceConfig
	history         []float64
	bestLoss        float64 // Best loss ever seen
	lastSignificant float64 // Last loss that was a significant improvement
	staleCount      int     // Steps without significant improvement
}

// NewConvergenceTracker creates a new convergence tracker with the given config
func NewConvergenceTracker(config ConvergenceConfig) *ConvergenceTracker {
	return &ConvergenceTracker{
		config:          config,
		history:         []float64{},
		bestLoss:        math.Inf(1),
		lastSignificant: math.Inf(1),
	}
}

// Update records a new loss value and returns true if convergence is detected
func (c *ConvergenceTracker) Update(loss float64) bool {
	if !c.config.Enabled {
		return false
	}

	c.history = append(c.history, loss)

	if loss < c.bestLoss {
		c.bestLoss = loss
	}

	if len(c.history) == 1 {
		c.lastSignificant = loss
		return false
	}

	relativeImprovement := (c.lastSignificant - loss) / c.lastSignificant

	if relativeImprovement >= c.config.Threshold {
		c.lastSignificant = loss
		c.staleCount = 0
		return false
	}

	c.staleCount++
	if c.staleCount >= c.config.Patience {
		slog.Debug("Convergence detected",
			"stale_count", c.staleCount,
			"patience", c.config.Patience,
			"best_loss", c.bestLoss,
		)
		return true
	}

	return false
}

// BestLoss returns the best loss seen so far
func (c *ConvergenceTracker) BestLoss() float64 {
	return c.bestLoss
}

// History returns the full loss history
func (c *ConvergenceTracker) History() []float64 {
	return append([]float64{}, c.history...)
}

// StaleCount returns the current number of steps without improvement
func (c *ConvergenceTracker) StaleCount() int {
	return c.staleCount
}

// Reset clears the tracker's state
func (c *ConvergenceTracker) Reset() {
	c.history = []float64{}
	c.bestLoss = math.Inf(1)
	c.lastSignificant = math.Inf(1)
	c.staleCount = 0
}
