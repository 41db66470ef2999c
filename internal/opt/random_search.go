package opt

import (
	"github.com/cwbudde/curvefit/internal/fit"
)

// RandomSearch samples fresh random curves every step. Slot 0 always holds the best
// curve seen so far; the remaining slots show the latest draws.
type RandomSearch struct {
	population
}

// NewRandomSearch creates an uninitialized random search optimizer
func NewRandomSearch(seed int64) *RandomSearch {
	return &RandomSearch{population: newPopulation(seed)}
}

// Name returns the registry name
func (rs *RandomSearch) Name() string { return NameRandomSearch }

// Initialize draws Curves random curves
func (rs *RandomSearch) Initialize(numWeights int, points []fit.Point, weightPenalty float64, hp Hyperparameters) error {
	curves, err := rs.randomCurves(hp.RandomSearch.Curves, numWeights, points, weightPenalty)
	if err != nil {
		return err
	}
	moveBestToFront(curves)
	rs.replace(curves)
	return nil
}

// Restore installs the given weights as the incumbent
func (rs *RandomSearch) Restore(weights []float64, points []fit.Point, weightPenalty float64, hp Hyperparameters) error {
	c, err := rs.newCurve(append([]float64(nil), weights...), points, weightPenalty)
	if err != nil {
		return err
	}
	rs.replace([]*fit.Curve{c})
	return nil
}

// Step draws a fresh batch. If the incumbent beats every draw it replaces the worst draw.
func (rs *RandomSearch) Step(hp Hyperparameters, points []fit.Point, weightPenalty float64) error {
	if ok, err := rs.ready(points); !ok {
		return err
	}

	incumbent := rs.curves[0]
	n := hp.RandomSearch.Curves
	if n < 1 {
		n = 1
	}

	draws, err := rs.randomCurves(n, len(incumbent.Weights), points, weightPenalty)
	if err != nil {
		return err
	}

	if best := bestIndex(draws); !lossLess(draws[best].Loss, incumbent.Loss) {
		draws[worstIndex(draws)] = incumbent
	}
	moveBestToFront(draws)
	rs.replace(draws)
	return nil
}

// RefreshLoss rescores every curve and re-elects the incumbent
func (rs *RandomSearch) RefreshLoss(points []fit.Point, weightPenalty float64) error {
	if err := rs.population.RefreshLoss(points, weightPenalty); err != nil {
		return err
	}
	moveBestToFront(rs.curves)
	return nil
}

func moveBestToFront(curves []*fit.Curve) {
	if i := bestIndex(curves); i > 0 {
		curves[0], curves[i] = curves[i], curves[0]
	}
}

func worstIndex(curves []*fit.Curve) int {
	worst := -1
	for i, c := range curves {
		if worst < 0 || lossLess(curves[worst].Loss, c.Loss) {
			worst = i
		}
	}
	return worst
}
