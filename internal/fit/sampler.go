package fit

import (
	"math"
	"math/rand"
	"time"
)

// Coordinate range used for generated datasets
const (
	CoordMin = -1.0
	CoordMax = 1.0
)

// Sampler draws the random numbers used by every optimizer.
// It is not safe for concurrent use; each optimizer owns its own Sampler.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler creates a sampler with the given seed.
// A seed of 0 selects a time-based seed.
func NewSampler(seed int64) *Sampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sampler{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Uniform returns a draw from (0, 1). Exact zeros are rejected so ln(u) stays finite.
func (s *Sampler) Uniform() float64 {
	for {
		u := s.rng.Float64()
		if u != 0 {
			return u
		}
	}
}

// UniformRange returns a draw from [lo, hi)
func (s *Sampler) UniformRange(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// StandardNormal returns a N(0,1) draw via the Box-Muller transform
func (s *Sampler) StandardNormal() float64 {
	u1 := s.Uniform()
	u2 := s.rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// Normal returns a draw with the given mean and standard deviation
func (s *Sampler) Normal(mean, stdDev float64) float64 {
	return s.StandardNormal()*stdDev + mean
}

// Intn returns a uniform int in [0, n)
func (s *Sampler) Intn(n int) int {
	return s.rng.Intn(n)
}

// Int63 returns a non-negative pseudo-random int64, used to seed derived generators
func (s *Sampler) Int63() int64 {
	return s.rng.Int63()
}

// GenerateRandomWeights returns n independent standard-normal weights
func (s *Sampler) GenerateRandomWeights(n int) []float64 {
	if n < 0 {
		n = 0
	}
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = s.StandardNormal()
	}
	return weights
}

// RandomPoints returns n points with both coordinates uniform in [CoordMin, CoordMax)
func (s *Sampler) RandomPoints(n int) []Point {
	if n < 0 {
		n = 0
	}
	points := make([]Point, n)
	for i := range points {
		points[i] = Point{
			X: s.UniformRange(CoordMin, CoordMax),
			Y: s.UniformRange(CoordMin, CoordMax),
		}
	}
	return points
}
