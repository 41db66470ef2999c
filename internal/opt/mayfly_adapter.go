package opt

import (
	"math"
	"math/rand"

	"github.com/cwbudde/mayfly"

	"github.com/cwbudde/curvefit/internal/fit"
)

// mayfly v0.1.0 rejects populations below this size
const minMayflyPopulation = 20

// MayflyAdapter wraps the external Mayfly library to step a single curve.
// Every Step runs a short mayfly optimization over [-Bound, Bound]^n and keeps the
// result only if it lowers the loss, so the curve never gets worse.
type MayflyAdapter struct {
	population
}

// NewMayfly creates an uninitialized mayfly optimizer adapter
func NewMayfly(seed int64) *MayflyAdapter {
	return &MayflyAdapter{population: newPopulation(seed)}
}

// Name returns the registry name
func (m *MayflyAdapter) Name() string { return NameMayfly }

// Initialize draws a random curve
func (m *MayflyAdapter) Initialize(numWeights int, points []fit.Point, weightPenalty float64, hp Hyperparameters) error {
	curves, err := m.randomCurves(1, numWeights, points, weightPenalty)
	if err != nil {
		return err
	}
	m.replace(curves)
	return nil
}

// Restore continues from the given weights
func (m *MayflyAdapter) Restore(weights []float64, points []fit.Point, weightPenalty float64, hp Hyperparameters) error {
	c, err := m.newCurve(append([]float64(nil), weights...), points, weightPenalty)
	if err != nil {
		return err
	}
	m.replace([]*fit.Curve{c})
	return nil
}

// Step executes the Mayfly optimization using the external library
func (m *MayflyAdapter) Step(hp Hyperparameters, points []fit.Point, weightPenalty float64) error {
	if ok, err := m.ready(points); !ok {
		return err
	}

	curve := m.curves[0]
	dim := len(curve.Weights)
	if dim == 0 {
		return curve.UpdateLoss(points, weightPenalty)
	}

	p := hp.Mayfly
	bound := p.Bound
	if bound <= 0 {
		bound = DefaultHyperparameters().Mayfly.Bound
	}

	// Create config for external Mayfly library
	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = func(x []float64) float64 {
		loss, err := fit.Loss(x, points, weightPenalty)
		if err != nil {
			return math.Inf(1)
		}
		return loss
	}
	config.ProblemSize = dim
	config.MaxIterations = max(p.Iterations, 1)
	config.NPop = max(p.Population, minMayflyPopulation)
	config.LowerBound = -bound
	config.UpperBound = bound
	config.Rand = rand.New(rand.NewSource(m.sampler.Int63()))

	result, err := mayfly.Optimize(config)
	if err == nil && lossLess(result.GlobalBest.Cost, curve.Loss) && len(result.GlobalBest.Position) == dim {
		copy(curve.Weights, result.GlobalBest.Position)
	}

	return curve.UpdateLoss(points, weightPenalty)
}
