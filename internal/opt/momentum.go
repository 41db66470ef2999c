package opt

import (
	"github.com/cwbudde/curvefit/internal/fit"
)

// Momentum performs gradient descent with a heavy-ball velocity term:
//
//	vel[i] = beta*vel[i] + g[i]
//	w[i]   = w[i] - lr*vel[i]
type Momentum struct {
	population
	velocity []float64
}

// NewMomentum creates an uninitialized momentum optimizer
func NewMomentum(seed int64) *Momentum {
	return &Momentum{population: newPopulation(seed)}
}

// Name returns the registry name
func (m *Momentum) Name() string { return NameMomentum }

// Initialize draws a random curve and zeroes the velocity
func (m *Momentum) Initialize(numWeights int, points []fit.Point, weightPenalty float64, hp Hyperparameters) error {
	curves, err := m.randomCurves(1, numWeights, points, weightPenalty)
	if err != nil {
		return err
	}
	m.replace(curves)
	m.velocity = make([]float64, len(curves[0].Weights))
	return nil
}

// Restore continues from the given weights with zero velocity
func (m *Momentum) Restore(weights []float64, points []fit.Point, weightPenalty float64, hp Hyperparameters) error {
	c, err := m.newCurve(append([]float64(nil), weights...), points, weightPenalty)
	if err != nil {
		return err
	}
	m.replace([]*fit.Curve{c})
	m.velocity = make([]float64, len(weights))
	return nil
}

// Velocity returns a copy of the velocity vector
func (m *Momentum) Velocity() []float64 {
	return append([]float64(nil), m.velocity...)
}

// Step applies one momentum update
func (m *Momentum) Step(hp Hyperparameters, points []fit.Point, weightPenalty float64) error {
	if ok, err := m.ready(points); !ok {
		return err
	}

	curve := m.curves[0]
	grad, err := fit.Gradient(curve.Weights, points, weightPenalty)
	if err != nil {
		return err
	}

	for i := range curve.Weights {
		m.velocity[i] = hp.Momentum.Beta*m.velocity[i] + grad[i]
		curve.Weights[i] -= hp.Momentum.LearningRate * m.velocity[i]
	}

	return curve.UpdateLoss(points, weightPenalty)
}
