package opt

import (
	"math"

	"github.com/cwbudde/curvefit/internal/fit"
)

// Evolutionary is a (1+λ) mutation hill-climber: each generation the best curve is
// copied PopulationSize times with Gaussian noise added to every coefficient, and the
// children replace the whole population. There is no crossover.
type Evolutionary struct {
	population
}

// NewEvolutionary creates an uninitialized evolutionary optimizer
func NewEvolutionary(seed int64) *Evolutionary {
	return &Evolutionary{population: newPopulation(seed)}
}

// Name returns the registry name
func (e *Evolutionary) Name() string { return NameGenetic }

// Initialize draws PopulationSize independent random curves
func (e *Evolutionary) Initialize(numWeights int, points []fit.Point, weightPenalty float64, hp Hyperparameters) error {
	curves, err := e.randomCurves(hp.Evolution.PopulationSize, numWeights, points, weightPenalty)
	if err != nil {
		return err
	}
	e.replace(curves)
	return nil
}

// Restore fills the population with copies of the given weights
func (e *Evolutionary) Restore(weights []float64, points []fit.Point, weightPenalty float64, hp Hyperparameters) error {
	n := hp.Evolution.PopulationSize
	if n < 1 {
		n = 1
	}
	curves := make([]*fit.Curve, 0, n)
	for i := 0; i < n; i++ {
		c, err := e.newCurve(append([]float64(nil), weights...), points, weightPenalty)
		if err != nil {
			return err
		}
		curves = append(curves, c)
	}
	e.replace(curves)
	return nil
}

// Parent returns a copy of the curve the next Step will mutate
func (e *Evolutionary) Parent() (*fit.Curve, bool) {
	return e.Best()
}

// Step breeds a new generation from the minimum-loss curve
func (e *Evolutionary) Step(hp Hyperparameters, points []fit.Point, weightPenalty float64) error {
	if ok, err := e.ready(points); !ok {
		return err
	}

	parent := e.curves[bestIndex(e.curves)]
	stdDevs := e.mutationStdDevs(parent, hp.Evolution)

	n := hp.Evolution.PopulationSize
	if n < 0 {
		n = 0
	}
	children := make([]*fit.Curve, 0, n)
	for i := 0; i < n; i++ {
		weights := make([]float64, len(parent.Weights))
		for j, w := range parent.Weights {
			weights[j] = w + e.mutation(stdDevs[j], hp.Evolution.Distribution)
		}
		child, err := e.newCurve(weights, points, weightPenalty)
		if err != nil {
			return err
		}
		children = append(children, child)
	}

	e.replace(children)
	return nil
}

// mutationStdDevs returns the per-coefficient noise standard deviation.
// Negative variances are treated as zero.
func (e *Evolutionary) mutationStdDevs(parent *fit.Curve, p EvolutionParams) []float64 {
	variance := math.Max(p.MutationVariance, 0)

	if p.Adaptive.Enabled && p.Adaptive.LossTarget > 0 {
		scale := parent.Loss / p.Adaptive.LossTarget
		variance *= math.Max(p.Adaptive.MinScale, math.Min(p.Adaptive.MaxScale, scale))
	}

	stdDevs := make([]float64, len(parent.Weights))
	for j, w := range parent.Weights {
		v := variance
		if p.WeightProportional.Enabled {
			v *= math.Max(math.Abs(w)*p.WeightProportional.Factor, p.WeightProportional.Min)
		}
		stdDevs[j] = math.Sqrt(math.Max(v, 0))
	}
	return stdDevs
}

// mutation draws zero-mean noise with the given standard deviation
func (e *Evolutionary) mutation(stdDev float64, dist MutationDistribution) float64 {
	if stdDev == 0 {
		return 0
	}
	if dist == DistributionUniform {
		// U(-a, a) has variance a²/3
		a := math.Sqrt(3) * stdDev
		return e.sampler.UniformRange(-a, a)
	}
	return e.sampler.Normal(0, stdDev)
}
