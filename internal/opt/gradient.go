package opt

import (
	"math"

	"github.com/cwbudde/curvefit/internal/fit"
)

// GradientDescent performs (optionally noisy) gradient descent on a single curve
type GradientDescent struct {
	population
}

// NewGradientDescent creates an uninitialized gradient descent optimizer
func NewGradientDescent(seed int64) *GradientDescent {
	return &GradientDescent{population: newPopulation(seed)}
}

// Name returns the registry name
func (g *GradientDescent) Name() string { return NameGradient }

// Initialize draws a random curve and discards prior state
func (g *GradientDescent) Initialize(numWeights int, points []fit.Point, weightPenalty float64, hp Hyperparameters) error {
	curves, err := g.randomCurves(1, numWeights, points, weightPenalty)
	if err != nil {
		return err
	}
	g.replace(curves)
	return nil
}

// Restore continues from the given weights
func (g *GradientDescent) Restore(weights []float64, points []fit.Point, weightPenalty float64, hp Hyperparameters) error {
	c, err := g.newCurve(append([]float64(nil), weights...), points, weightPenalty)
	if err != nil {
		return err
	}
	g.replace([]*fit.Curve{c})
	return nil
}

// Step applies w -= lr * g, with per-component N(0, |g_i|*stochasticity) noise when enabled
func (g *GradientDescent) Step(hp Hyperparameters, points []fit.Point, weightPenalty float64) error {
	if ok, err := g.ready(points); !ok {
		return err
	}

	curve := g.curves[0]
	grad, err := fit.Gradient(curve.Weights, points, weightPenalty)
	if err != nil {
		return err
	}

	if s := hp.Gradient.Stochasticity; s > 0 {
		for i := range grad {
			grad[i] += g.sampler.Normal(0, math.Abs(grad[i])*s)
		}
	}

	for i := range curve.Weights {
		curve.Weights[i] -= hp.Gradient.LearningRate * grad[i]
	}

	return curve.UpdateLoss(points, weightPenalty)
}
