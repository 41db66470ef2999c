package opt

import (
	"math"

	"github.com/cwbudde/curvefit/internal/fit"
)

// minTemperature keeps the acceptance test finite once the schedule has cooled
const minTemperature = 1e-12

// SimulatedAnnealing perturbs a single curve and accepts worse proposals with
// probability exp(-delta/T). The temperature decays geometrically once per Step.
type SimulatedAnnealing struct {
	population
	temperature float64
}

// NewSimulatedAnnealing creates an uninitialized simulated annealing optimizer
func NewSimulatedAnnealing(seed int64) *SimulatedAnnealing {
	return &SimulatedAnnealing{population: newPopulation(seed)}
}

// Name returns the registry name
func (sa *SimulatedAnnealing) Name() string { return NameSimulatedAnnealing }

// Initialize draws a random curve and reheats to the initial temperature
func (sa *SimulatedAnnealing) Initialize(numWeights int, points []fit.Point, weightPenalty float64, hp Hyperparameters) error {
	curves, err := sa.randomCurves(1, numWeights, points, weightPenalty)
	if err != nil {
		return err
	}
	sa.replace(curves)
	sa.temperature = hp.Annealing.InitialTemperature
	return nil
}

// Restore continues from the given weights at the initial temperature
func (sa *SimulatedAnnealing) Restore(weights []float64, points []fit.Point, weightPenalty float64, hp Hyperparameters) error {
	c, err := sa.newCurve(append([]float64(nil), weights...), points, weightPenalty)
	if err != nil {
		return err
	}
	sa.replace([]*fit.Curve{c})
	sa.temperature = hp.Annealing.InitialTemperature
	return nil
}

// Temperature returns the current temperature
func (sa *SimulatedAnnealing) Temperature() float64 {
	return sa.temperature
}

// Step runs Iterations proposals at the current temperature, then cools
func (sa *SimulatedAnnealing) Step(hp Hyperparameters, points []fit.Point, weightPenalty float64) error {
	if ok, err := sa.ready(points); !ok {
		return err
	}

	p := hp.Annealing
	iterations := p.Iterations
	if iterations < 1 {
		iterations = 1
	}

	curve := sa.curves[0]
	stdDev := math.Abs(p.ProposalScale * sa.temperature)
	candidate := make([]float64, len(curve.Weights))

	for k := 0; k < iterations; k++ {
		for j, w := range curve.Weights {
			candidate[j] = w + sa.sampler.Normal(0, stdDev)
		}
		loss, err := fit.Loss(candidate, points, weightPenalty)
		if err != nil {
			return err
		}

		if sa.accept(loss-curve.Loss) {
			copy(curve.Weights, candidate)
			curve.Loss = loss
		}
	}

	sa.temperature = math.Max(sa.temperature*p.CoolingRate, minTemperature)
	return nil
}

func (sa *SimulatedAnnealing) accept(delta float64) bool {
	if delta < 0 {
		return true
	}
	if sa.temperature <= 0 {
		return false
	}
	return sa.sampler.Uniform() < math.Exp(-delta/sa.temperature)
}
