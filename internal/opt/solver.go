package opt

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/curvefit/internal/fit"
)

// singularTolerance is the relative singular value cutoff used for the rank estimate
const singularTolerance = 1e-12

// PolynomialSolver fits the curve in closed form. Each Step solves
//
//	minimize (1/N)·|Vw - y|² + penalty·|w|²
//
// where V is the Vandermonde matrix of the dataset. Rank-deficient systems
// (more weights than distinct x values) get the minimum-norm solution.
type PolynomialSolver struct {
	population
}

// NewPolynomialSolver creates an uninitialized exact solver
func NewPolynomialSolver(seed int64) *PolynomialSolver {
	return &PolynomialSolver{population: newPopulation(seed)}
}

// Name returns the registry name
func (s *PolynomialSolver) Name() string { return NamePolynomialSolver }

// Initialize draws a random starting curve; the first Step jumps to the solution
func (s *PolynomialSolver) Initialize(numWeights int, points []fit.Point, weightPenalty float64, hp Hyperparameters) error {
	curves, err := s.randomCurves(1, numWeights, points, weightPenalty)
	if err != nil {
		return err
	}
	s.replace(curves)
	return nil
}

// Step replaces the weights with the least-squares solution for the current dataset
func (s *PolynomialSolver) Step(hp Hyperparameters, points []fit.Point, weightPenalty float64) error {
	if ok, err := s.ready(points); !ok {
		return err
	}

	curve := s.curves[0]
	weights, err := SolvePolynomial(len(curve.Weights), points, weightPenalty)
	if err != nil {
		return err
	}
	copy(curve.Weights, weights)
	return curve.UpdateLoss(points, weightPenalty)
}

// SolvePolynomial returns the numWeights coefficients minimizing fit.Loss.
// The L2 penalty is folded in by appending sqrt(N·penalty)·I rows to the system.
func SolvePolynomial(numWeights int, points []fit.Point, weightPenalty float64) ([]float64, error) {
	if len(points) == 0 {
		return nil, fit.ErrEmptyDataset
	}
	if numWeights <= 0 {
		return []float64{}, nil
	}

	n := len(points)
	rows := n
	if weightPenalty > 0 {
		rows += numWeights
	}

	a := mat.NewDense(rows, numWeights, nil)
	b := mat.NewVecDense(rows, nil)
	for i, p := range points {
		pow := 1.0
		for j := 0; j < numWeights; j++ {
			a.Set(i, j, pow)
			pow *= p.X
		}
		b.SetVec(i, p.Y)
	}
	if weightPenalty > 0 {
		ridge := math.Sqrt(float64(n) * weightPenalty)
		for j := 0; j < numWeights; j++ {
			a.Set(n+j, j, ridge)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, errors.New("polynomial solver: SVD factorization failed")
	}

	weights := make([]float64, numWeights)
	rank := svd.Rank(singularTolerance)
	if rank == 0 {
		return weights, nil
	}

	var x mat.VecDense
	svd.SolveVecTo(&x, b, rank)
	for j := range weights {
		weights[j] = x.AtVec(j)
	}
	return weights, nil
}
