package opt

import (
	"math"

	"github.com/cwbudde/curvefit/internal/fit"
)

// State is the lifecycle state of an optimizer
type State int

const (
	// Uninitialized optimizers own no curves; Step and RefreshLoss are no-ops.
	Uninitialized State = iota
	// Ready optimizers own at least one curve generation.
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Optimizer defines a stepping curve-fitting algorithm.
//
// Implementations are not safe for concurrent use: exactly one goroutine may call
// Initialize, Step and RefreshLoss. Curves and Best return deep copies that may be
// handed to other goroutines.
//
// Error conventions:
//   - Step and RefreshLoss return nil without touching state while Uninitialized
//   - An empty dataset returns fit.ErrEmptyDataset and leaves state unchanged
//   - Degenerate hyperparameters (zero or negative rates) are valid
type Optimizer interface {
	// Name returns the registry name of the algorithm
	Name() string

	// Initialize discards all owned state and draws fresh random curves
	Initialize(numWeights int, points []fit.Point, weightPenalty float64, hp Hyperparameters) error

	// Step advances the optimizer by one iteration
	Step(hp Hyperparameters, points []fit.Point, weightPenalty float64) error

	// RefreshLoss recomputes cached losses without changing any weights
	RefreshLoss(points []fit.Point, weightPenalty float64) error

	// Curves returns snapshots of every owned curve in population order
	Curves() []*fit.Curve

	// Best returns a snapshot of the first curve with minimum loss
	Best() (*fit.Curve, bool)

	// State returns the lifecycle state
	State() State
}

// Restorer is implemented by optimizers that can continue from saved weights
// instead of a random start.
type Restorer interface {
	Restore(weights []float64, points []fit.Point, weightPenalty float64, hp Hyperparameters) error
}

// population holds the curves, ID counter and sampler shared by every variant
type population struct {
	sampler *fit.Sampler
	nextID  int
	curves  []*fit.Curve
	state   State
}

func newPopulation(seed int64) population {
	return population{
		sampler: fit.NewSampler(seed),
	}
}

// newCurve assigns the next identifier and scores the weights
func (p *population) newCurve(weights []float64, points []fit.Point, weightPenalty float64) (*fit.Curve, error) {
	c := fit.NewCurve(p.nextID+1, weights)
	if err := c.UpdateLoss(points, weightPenalty); err != nil {
		return nil, err
	}
	p.nextID++
	return c, nil
}

// randomCurves draws n fresh random curves
func (p *population) randomCurves(n, numWeights int, points []fit.Point, weightPenalty float64) ([]*fit.Curve, error) {
	if len(points) == 0 {
		return nil, fit.ErrEmptyDataset
	}
	if n < 0 {
		n = 0
	}
	curves := make([]*fit.Curve, 0, n)
	for i := 0; i < n; i++ {
		c, err := p.newCurve(p.sampler.GenerateRandomWeights(numWeights), points, weightPenalty)
		if err != nil {
			return nil, err
		}
		curves = append(curves, c)
	}
	return curves, nil
}

// replace installs a new generation and marks the optimizer ready
func (p *population) replace(curves []*fit.Curve) {
	p.curves = curves
	p.state = Ready
}

// State returns the lifecycle state
func (p *population) State() State {
	return p.state
}

// Curves returns deep copies of all curves
func (p *population) Curves() []*fit.Curve {
	out := make([]*fit.Curve, len(p.curves))
	for i, c := range p.curves {
		out[i] = c.Clone()
	}
	return out
}

// Best returns a copy of the first minimum-loss curve
func (p *population) Best() (*fit.Curve, bool) {
	i := bestIndex(p.curves)
	if i < 0 {
		return nil, false
	}
	return p.curves[i].Clone(), true
}

// RefreshLoss recomputes the loss of every curve
func (p *population) RefreshLoss(points []fit.Point, weightPenalty float64) error {
	if p.state == Uninitialized {
		return nil
	}
	if len(points) == 0 {
		return fit.ErrEmptyDataset
	}
	for _, c := range p.curves {
		if err := c.UpdateLoss(points, weightPenalty); err != nil {
			return err
		}
	}
	return nil
}

// ready reports whether a step can run, validating the dataset first
func (p *population) ready(points []fit.Point) (bool, error) {
	if p.state == Uninitialized || len(p.curves) == 0 {
		return false, nil
	}
	if len(points) == 0 {
		return false, fit.ErrEmptyDataset
	}
	return true, nil
}

// bestIndex returns the index of the first curve with minimum loss, or -1.
// Ties keep the earliest curve. NaN losses rank last.
func bestIndex(curves []*fit.Curve) int {
	best := -1
	for i, c := range curves {
		if best < 0 || lossLess(c.Loss, curves[best].Loss) {
			best = i
		}
	}
	return best
}

// lossLess orders losses ascending with NaN after everything else
func lossLess(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	return math.IsNaN(b) || a < b
}
