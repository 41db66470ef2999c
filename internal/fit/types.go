package fit

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrEmptyDataset is returned when a loss or gradient is requested for zero points.
// Use errors.Is(err, ErrEmptyDataset) to check for this error.
var ErrEmptyDataset = errors.New("fit: empty dataset")

// Point is a ground-truth sample the curve is fit against
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Curve is a polynomial fit candidate.
// Weights[i] is the coefficient of x^i. Loss is the cached loss of Weights against
// the dataset and penalty most recently passed to UpdateLoss.
type Curve struct {
	ID      int       `json:"id"`
	Weights []float64 `json:"weights"`
	Loss    float64   `json:"loss"`
}

// MarshalJSON encodes non-finite weights and loss as null
func (c Curve) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID      int         `json:"id"`
		Weights []JSONFloat `json:"weights"`
		Loss    JSONFloat   `json:"loss"`
	}{c.ID, JSONFloats(c.Weights), JSONFloat(c.Loss)})
}

// Finite reports whether v is neither NaN nor infinite
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// JSONFloat is a float64 that encodes NaN and ±Inf as null.
// Divergent runs produce such values and encoding/json rejects them.
type JSONFloat float64

// MarshalJSON implements json.Marshaler
func (f JSONFloat) MarshalJSON() ([]byte, error) {
	if !Finite(float64(f)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

// JSONFloats converts values for encoding; nil stays nil
func JSONFloats(values []float64) []JSONFloat {
	if values == nil {
		return nil
	}
	out := make([]JSONFloat, len(values))
	for i, v := range values {
		out[i] = JSONFloat(v)
	}
	return out
}

// NewCurve creates a curve that takes ownership of weights
func NewCurve(id int, weights []float64) *Curve {
	return &Curve{
		ID:      id,
		Weights: weights,
	}
}

// Evaluate returns the polynomial value at x (Horner's scheme)
func (c *Curve) Evaluate(x float64) float64 {
	return Evaluate(c.Weights, x)
}

// UpdateLoss recomputes the cached loss. On error the cached value is left unchanged.
func (c *Curve) UpdateLoss(points []Point, weightPenalty float64) error {
	loss, err := Loss(c.Weights, points, weightPenalty)
	if err != nil {
		return err
	}
	c.Loss = loss
	return nil
}

// Clone returns a deep copy of the curve
func (c *Curve) Clone() *Curve {
	if c == nil {
		return nil
	}
	return &Curve{
		ID:      c.ID,
		Weights: append([]float64(nil), c.Weights...),
		Loss:    c.Loss,
	}
}

// Degree returns the polynomial degree implied by the weight count
func (c *Curve) Degree() int {
	return len(c.Weights) - 1
}

// ClonePoints copies a dataset so the caller's slice can be reused
func ClonePoints(points []Point) []Point {
	if points == nil {
		return nil
	}
	return append([]Point(nil), points...)
}

// FormatPolynomial renders weights as "y = w0 + w1·x + w2·x^2 ..."
func FormatPolynomial(weights []float64) string {
	if len(weights) == 0 {
		return "y = 0"
	}
	terms := make([]string, len(weights))
	for i, w := range weights {
		coef := strconv.FormatFloat(w, 'g', 4, 64)
		switch i {
		case 0:
			terms[i] = coef
		case 1:
			terms[i] = coef + "·x"
		default:
			terms[i] = fmt.Sprintf("%s·x^%d", coef, i)
		}
	}
	return "y = " + strings.Join(terms, " + ")
}
