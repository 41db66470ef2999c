package fit

// Evaluate computes sum(weights[i] * x^i) using Horner's scheme.
// No domain restriction applies to x; overflow to ±Inf is accepted.
func Evaluate(weights []float64, x float64) float64 {
	var y float64
	for i := len(weights) - 1; i >= 0; i-- {
		y = y*x + weights[i]
	}
	return y
}

// Loss computes the mean squared error of the polynomial over points, plus
// weightPenalty * sum(w^2) when weightPenalty > 0. The penalty is added, not averaged.
func Loss(weights []float64, points []Point, weightPenalty float64) (float64, error) {
	if len(points) == 0 {
		return 0, ErrEmptyDataset
	}

	var mse float64
	for _, p := range points {
		residual := Evaluate(weights, p.X) - p.Y
		mse += residual * residual
	}
	mse /= float64(len(points))

	if weightPenalty > 0 {
		mse += weightPenalty * SumSquares(weights)
	}

	return mse, nil
}

// Gradient returns the partial derivatives of Loss with respect to each weight.
//
//	g[i] = sum_p 2*err_p*x_p^i / N  (+ 2*weightPenalty*w[i] when weightPenalty > 0)
func Gradient(weights []float64, points []Point, weightPenalty float64) ([]float64, error) {
	if len(points) == 0 {
		return nil, ErrEmptyDataset
	}

	n := float64(len(points))
	grad := make([]float64, len(weights))

	for _, p := range points {
		residual := Evaluate(weights, p.X) - p.Y

		pow := 1.0
		for i := range grad {
			grad[i] += (2 * residual * pow) / n
			pow *= p.X
		}
	}

	if weightPenalty > 0 {
		for i, w := range weights {
			grad[i] += 2 * weightPenalty * w
		}
	}

	return grad, nil
}

// SumSquares returns sum(w^2)
func SumSquares(weights []float64) float64 {
	var sum float64
	for _, w := range weights {
		sum += w * w
	}
	return sum
}
