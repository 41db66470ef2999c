package opt

import (
	"math"

	"github.com/cwbudde/curvefit/internal/fit"
)

// Adam implements the Adam optimizer with bias correction.
//
// Update rule:
//
//	m[i] = β1·m[i] + (1-β1)·g[i]
//	v[i] = β2·v[i] + (1-β2)·g[i]²
//	m̂[i] = m[i] / (1 - β1^t)
//	v̂[i] = v[i] / (1 - β2^t)
//	w[i] = w[i] - lr · m̂[i] / (√v̂[i] + ε)
type Adam struct {
	population
	m, v []float64
	t    int
}

// NewAdam creates an uninitialized Adam optimizer
func NewAdam(seed int64) *Adam {
	return &Adam{population: newPopulation(seed)}
}

// Name returns the registry name
func (a *Adam) Name() string { return NameAdam }

// Initialize draws a random curve and resets the moment estimates
func (a *Adam) Initialize(numWeights int, points []fit.Point, weightPenalty float64, hp Hyperparameters) error {
	curves, err := a.randomCurves(1, numWeights, points, weightPenalty)
	if err != nil {
		return err
	}
	a.replace(curves)
	a.resetMoments(len(curves[0].Weights))
	return nil
}

// Restore continues from the given weights with fresh moment estimates
func (a *Adam) Restore(weights []float64, points []fit.Point, weightPenalty float64, hp Hyperparameters) error {
	c, err := a.newCurve(append([]float64(nil), weights...), points, weightPenalty)
	if err != nil {
		return err
	}
	a.replace([]*fit.Curve{c})
	a.resetMoments(len(weights))
	return nil
}

func (a *Adam) resetMoments(n int) {
	a.m = make([]float64, n)
	a.v = make([]float64, n)
	a.t = 0
}

// Moments returns copies of the first and second moment estimates and the step counter
func (a *Adam) Moments() (m, v []float64, t int) {
	return append([]float64(nil), a.m...), append([]float64(nil), a.v...), a.t
}

// Step applies one Adam update
func (a *Adam) Step(hp Hyperparameters, points []fit.Point, weightPenalty float64) error {
	if ok, err := a.ready(points); !ok {
		return err
	}

	curve := a.curves[0]
	grad, err := fit.Gradient(curve.Weights, points, weightPenalty)
	if err != nil {
		return err
	}

	p := hp.Adam
	a.t++
	correction1 := 1 - math.Pow(p.Beta1, float64(a.t))
	correction2 := 1 - math.Pow(p.Beta2, float64(a.t))

	for i, g := range grad {
		a.m[i] = p.Beta1*a.m[i] + (1-p.Beta1)*g
		a.v[i] = p.Beta2*a.v[i] + (1-p.Beta2)*g*g

		mHat := a.m[i] / correction1
		vHat := a.v[i] / correction2

		curve.Weights[i] -= p.LearningRate * mHat / (math.Sqrt(vHat) + p.Epsilon)
	}

	return curve.UpdateLoss(points, weightPenalty)
}
