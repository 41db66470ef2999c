package opt

import (
	"math"

	"github.com/cwbudde/curvefit/internal/fit"
)

type particle struct {
	velocity    []float64
	bestWeights []float64
	bestLoss    float64
}

// ParticleSwarm moves a swarm of curves through coefficient space.
// Each particle is pulled towards its own best position and the swarm's best position:
//
//	vel = inertia*vel + cognitive*r1*(pbest-x) + social*r2*(gbest-x)
//	x   = x + vel
//
// The swarm size is fixed by Initialize.
type ParticleSwarm struct {
	population
	particles      []particle
	globalBest     []float64
	globalBestLoss float64
}

// NewParticleSwarm creates an uninitialized particle swarm optimizer
func NewParticleSwarm(seed int64) *ParticleSwarm {
	return &ParticleSwarm{population: newPopulation(seed)}
}

// Name returns the registry name
func (ps *ParticleSwarm) Name() string { return NameParticleSwarm }

// Initialize scatters Particles random curves with zero velocity
func (ps *ParticleSwarm) Initialize(numWeights int, points []fit.Point, weightPenalty float64, hp Hyperparameters) error {
	curves, err := ps.randomCurves(hp.Swarm.Particles, numWeights, points, weightPenalty)
	if err != nil {
		return err
	}
	ps.replace(curves)

	ps.particles = make([]particle, len(curves))
	for i, c := range curves {
		ps.particles[i] = particle{
			velocity:    make([]float64, len(c.Weights)),
			bestWeights: append([]float64(nil), c.Weights...),
			bestLoss:    c.Loss,
		}
	}
	ps.updateGlobalBest()
	return nil
}

// GlobalBest returns a copy of the best position found so far and its loss
func (ps *ParticleSwarm) GlobalBest() ([]float64, float64) {
	return append([]float64(nil), ps.globalBest...), ps.globalBestLoss
}

// Step moves every particle once. Velocities are computed against the bests
// from before the step.
func (ps *ParticleSwarm) Step(hp Hyperparameters, points []fit.Point, weightPenalty float64) error {
	if ok, err := ps.ready(points); !ok {
		return err
	}

	p := hp.Swarm
	for i, c := range ps.curves {
		pt := &ps.particles[i]
		for j := range c.Weights {
			r1 := ps.sampler.UniformRange(0, 1)
			r2 := ps.sampler.UniformRange(0, 1)
			pt.velocity[j] = p.Inertia*pt.velocity[j] +
				p.Cognitive*r1*(pt.bestWeights[j]-c.Weights[j]) +
				p.Social*r2*(ps.globalBest[j]-c.Weights[j])
			c.Weights[j] += pt.velocity[j]
		}
	}

	for i, c := range ps.curves {
		if err := c.UpdateLoss(points, weightPenalty); err != nil {
			return err
		}
		pt := &ps.particles[i]
		if lossLess(c.Loss, pt.bestLoss) {
			pt.bestLoss = c.Loss
			copy(pt.bestWeights, c.Weights)
		}
	}
	ps.updateGlobalBest()
	return nil
}

// RefreshLoss rescores current positions and personal bests against the new dataset
func (ps *ParticleSwarm) RefreshLoss(points []fit.Point, weightPenalty float64) error {
	if err := ps.population.RefreshLoss(points, weightPenalty); err != nil {
		return err
	}
	if ps.state == Uninitialized {
		return nil
	}
	for i := range ps.particles {
		pt := &ps.particles[i]
		loss, err := fit.Loss(pt.bestWeights, points, weightPenalty)
		if err != nil {
			return err
		}
		pt.bestLoss = loss
	}
	ps.updateGlobalBest()
	return nil
}

func (ps *ParticleSwarm) updateGlobalBest() {
	ps.globalBestLoss = math.Inf(1)
	ps.globalBest = nil
	for i := range ps.particles {
		pt := &ps.particles[i]
		if ps.globalBest == nil || lossLess(pt.bestLoss, ps.globalBestLoss) {
			ps.globalBestLoss = pt.bestLoss
			ps.globalBest = append(ps.globalBest[:0], pt.bestWeights...)
		}
	}
}
