package opt

import (
	"errors"
	"fmt"
)

// ErrUnknownAlgorithm is returned by New for names missing from the registry
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// Registry names
const (
	NameGradient           = "gradient"
	NameMomentum           = "momentum"
	NameAdam               = "adam"
	NameGenetic            = "genetic"
	NameParticleSwarm      = "particle-swarm"
	NameSimulatedAnnealing = "simulated-annealing"
	NameRandomSearch       = "random-search"
	NamePolynomialSolver   = "polynomial-solver"
	NameMayfly             = "mayfly"
)

// Algorithm describes a registered optimizer
type Algorithm struct {
	Name     string `json:"name"`
	Short    string `json:"short"`
	FullName string `json:"fullName"`
	Category string `json:"category"`
	Color    string `json:"color"`
}

var algorithms = []Algorithm{
	{NameGradient, "Stochastic", "Stochastic Gradient Descent", "Gradient Descent", "#0891b2"},
	{NameMomentum, "Momentum", "Momentum-Based Gradient Descent", "Gradient Descent", "#6366f1"},
	{NameAdam, "Adam", "Adam Optimizer", "Gradient Descent", "#a855f7"},
	{NameGenetic, "Genetic", "Genetic Algorithm", "Evolutionary", "#65a30d"},
	{NameParticleSwarm, "Particle", "Particle Swarm Optimization", "Swarm Intelligence", "#059669"},
	{NameSimulatedAnnealing, "Annealing", "Simulated Annealing", "Metaheuristic", "#ca8a04"},
	{NameRandomSearch, "Random", "Random Search", "Baseline", "#d946ef"},
	{NamePolynomialSolver, "Solve", "Exact Polynomial Solver", "Baseline", "#ec4899"},
	{NameMayfly, "Mayfly", "Mayfly Algorithm", "Swarm Intelligence", "#3b82f6"},
}

var constructors = map[string]func(seed int64) Optimizer{
	NameGradient:           func(seed int64) Optimizer { return NewGradientDescent(seed) },
	NameMomentum:           func(seed int64) Optimizer { return NewMomentum(seed) },
	NameAdam:               func(seed int64) Optimizer { return NewAdam(seed) },
	NameGenetic:            func(seed int64) Optimizer { return NewEvolutionary(seed) },
	NameParticleSwarm:      func(seed int64) Optimizer { return NewParticleSwarm(seed) },
	NameSimulatedAnnealing: func(seed int64) Optimizer { return NewSimulatedAnnealing(seed) },
	NameRandomSearch:       func(seed int64) Optimizer { return NewRandomSearch(seed) },
	NamePolynomialSolver:   func(seed int64) Optimizer { return NewPolynomialSolver(seed) },
	NameMayfly:             func(seed int64) Optimizer { return NewMayfly(seed) },
}

// New creates an uninitialized optimizer by registry name.
// A seed of 0 selects a time-based seed.
func New(name string, seed int64) (Optimizer, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, name)
	}
	return ctor(seed), nil
}

// Algorithms returns the registered algorithms in display order
func Algorithms() []Algorithm {
	return append([]Algorithm(nil), algorithms...)
}

// Names returns the registered names in display order
func Names() []string {
	names := make([]string, len(algorithms))
	for i, a := range algorithms {
		names[i] = a.Name
	}
	return names
}

// Lookup returns the description of a registered algorithm
func Lookup(name string) (Algorithm, bool) {
	for _, a := range algorithms {
		if a.Name == name {
			return a, true
		}
	}
	return Algorithm{}, false
}
