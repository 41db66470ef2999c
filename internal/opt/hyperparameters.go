package opt

// MutationDistribution selects the noise shape used by the evolutionary optimizer
type MutationDistribution string

const (
	DistributionNormal  MutationDistribution = "normal"
	DistributionUniform MutationDistribution = "uniform"
)

// Hyperparameters groups the per-algorithm settings supplied on every call.
// Each optimizer reads only its own group.
type Hyperparameters struct {
	Gradient     GradientParams     `json:"gradient" yaml:"gradient"`
	Momentum     MomentumParams     `json:"momentum" yaml:"momentum"`
	Adam         AdamParams         `json:"adam" yaml:"adam"`
	Evolution    EvolutionParams    `json:"evolution" yaml:"evolution"`
	Swarm        SwarmParams        `json:"swarm" yaml:"swarm"`
	Annealing    AnnealingParams    `json:"annealing" yaml:"annealing"`
	RandomSearch RandomSearchParams `json:"randomSearch" yaml:"random_search"`
	Mayfly       MayflyParams       `json:"mayfly" yaml:"mayfly"`
}

// GradientParams configures stochastic gradient descent
type GradientParams struct {
	LearningRate float64 `json:"learningRate" yaml:"learning_rate"`
	// Stochasticity scales zero-mean gradient noise: stddev = |g_i| * Stochasticity
	Stochasticity float64 `json:"stochasticity" yaml:"stochasticity"`
}

// MomentumParams configures momentum gradient descent
type MomentumParams struct {
	LearningRate float64 `json:"learningRate" yaml:"learning_rate"`
	Beta         float64 `json:"beta" yaml:"beta"`
}

// AdamParams configures the Adam optimizer
type AdamParams struct {
	LearningRate float64 `json:"learningRate" yaml:"learning_rate"`
	Beta1        float64 `json:"beta1" yaml:"beta1"`
	Beta2        float64 `json:"beta2" yaml:"beta2"`
	Epsilon      float64 `json:"epsilon" yaml:"epsilon"`
}

// EvolutionParams configures the mutation hill-climbing optimizer
type EvolutionParams struct {
	PopulationSize   int                  `json:"populationSize" yaml:"population_size"`
	MutationVariance float64              `json:"mutationVariance" yaml:"mutation_variance"`
	Distribution     MutationDistribution `json:"distribution,omitempty" yaml:"distribution,omitempty"`

	// Adaptive shrinks the mutation variance as the parent loss approaches LossTarget
	Adaptive AdaptiveVariance `json:"adaptive" yaml:"adaptive"`

	// WeightProportional scales each coefficient's variance with its magnitude
	WeightProportional WeightProportionalVariance `json:"weightProportional" yaml:"weight_proportional"`
}

// AdaptiveVariance scales variance by clamp(parentLoss/LossTarget, MinScale, MaxScale)
type AdaptiveVariance struct {
	Enabled    bool    `json:"enabled" yaml:"enabled"`
	MinScale   float64 `json:"minScale" yaml:"min_scale"`
	MaxScale   float64 `json:"maxScale" yaml:"max_scale"`
	LossTarget float64 `json:"lossTarget" yaml:"loss_target"`
}

// WeightProportionalVariance scales variance by max(|w|*Factor, Min)
type WeightProportionalVariance struct {
	Enabled bool    `json:"enabled" yaml:"enabled"`
	Factor  float64 `json:"factor" yaml:"factor"`
	Min     float64 `json:"min" yaml:"min"`
}

// SwarmParams configures particle swarm optimization
type SwarmParams struct {
	Particles int     `json:"particles" yaml:"particles"`
	Inertia   float64 `json:"inertia" yaml:"inertia"`
	Cognitive float64 `json:"cognitive" yaml:"cognitive"`
	Social    float64 `json:"social" yaml:"social"`
}

// AnnealingParams configures simulated annealing
type AnnealingParams struct {
	InitialTemperature float64 `json:"initialTemperature" yaml:"initial_temperature"`
	CoolingRate        float64 `json:"coolingRate" yaml:"cooling_rate"`
	Iterations         int     `json:"iterations" yaml:"iterations"`
	// ProposalScale multiplies the temperature to give the proposal stddev
	ProposalScale float64 `json:"proposalScale" yaml:"proposal_scale"`
}

// RandomSearchParams configures random search
type RandomSearchParams struct {
	Curves int `json:"curves" yaml:"curves"`
}

// MayflyParams configures the mayfly library run performed on each step
type MayflyParams struct {
	Population int     `json:"population" yaml:"population"`
	Iterations int     `json:"iterations" yaml:"iterations"`
	Bound      float64 `json:"bound" yaml:"bound"`
}

// DefaultHyperparameters returns the stock settings for every algorithm
func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{
		Gradient: GradientParams{
			LearningRate:  0.1,
			Stochasticity: 0,
		},
		Momentum: MomentumParams{
			LearningRate: 0.1,
			Beta:         0.9,
		},
		Adam: AdamParams{
			LearningRate: 0.1,
			Beta1:        0.97,
			Beta2:        0.999,
			Epsilon:      1e-8,
		},
		Evolution: EvolutionParams{
			PopulationSize:   5,
			MutationVariance: 1,
			Distribution:     DistributionNormal,
			Adaptive: AdaptiveVariance{
				Enabled:    false,
				MinScale:   0.01,
				MaxScale:   1.0,
				LossTarget: 0.1,
			},
			WeightProportional: WeightProportionalVariance{
				Enabled: false,
				Factor:  0.5,
				Min:     0.1,
			},
		},
		Swarm: SwarmParams{
			Particles: 20,
			Inertia:   0.7,
			Cognitive: 1.5,
			Social:    1.5,
		},
		Annealing: AnnealingParams{
			InitialTemperature: 1,
			CoolingRate:        0.995,
			Iterations:         10,
			ProposalScale:      0.1,
		},
		RandomSearch: RandomSearchParams{
			Curves: 10,
		},
		Mayfly: MayflyParams{
			Population: 20,
			Iterations: 5,
			Bound:      10,
		},
	}
}
