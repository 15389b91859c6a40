// Package hillclimb implements HillClimbing, a simple per-dimension
// local search: each call to Next perturbs a random subset of
// dimensions across the population, keeping any perturbation that
// strictly improves its Solution, until a run of consecutive sweeps
// finds no improvement at all.
package hillclimb

import (
	"github.com/th-cooperative/treasurehunt/pkg/fitness"
	"github.com/th-cooperative/treasurehunt/pkg/thmath"
	"github.com/th-cooperative/treasurehunt/pkg/thrand"
)

// defaultMaxNoImprove matches the worked examples shipped with the
// original framework's drivers.
const defaultMaxNoImprove = 5

// HillClimbing is a Search implementation.
type HillClimbing struct {
	percMove                float64
	step                    float64
	preferredPopulationSize int
	maxNoImprove            int

	population    []*thmath.Solution
	fitnessPolicy fitness.Policy
	searchSpace   *thmath.SearchSpace
	rng           *thrand.Source

	nEvals int
	gb     int
	stuck  bool
}

// Option configures a HillClimbing instance at construction.
type Option func(*HillClimbing)

// WithMaxNoImprove overrides the number of consecutive no-improvement
// sweeps tolerated before the algorithm reports itself stuck. The
// original framework hardcoded this as a global constant; here it is a
// property of this Search alone.
func WithMaxNoImprove(n int) Option {
	return func(h *HillClimbing) { h.maxNoImprove = n }
}

// New builds a HillClimbing Search that perturbs each dimension with
// probability percMove, by a Gaussian-free step of the given scale,
// preferring the given population size.
func New(percMove, step float64, preferredPopulationSize int, opts ...Option) *HillClimbing {
	h := &HillClimbing{
		percMove:                percMove,
		step:                    step,
		preferredPopulationSize: preferredPopulationSize,
		maxNoImprove:            defaultMaxNoImprove,
		rng:                     thrand.NewSource(0),
		gb:                      -1,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetPopulation implements search.Search.
func (h *HillClimbing) SetPopulation(population []*thmath.Solution) { h.population = population }

// SetFitnessPolicy implements search.Search.
func (h *HillClimbing) SetFitnessPolicy(policy fitness.Policy) { h.fitnessPolicy = policy }

// SetSearchSpace implements search.Search.
func (h *HillClimbing) SetSearchSpace(space *thmath.SearchSpace) { h.searchSpace = space }

// PreferredPopulationSize implements search.Search.
func (h *HillClimbing) PreferredPopulationSize() int { return h.preferredPopulationSize }

// Startup implements search.Search.
func (h *HillClimbing) Startup() {
	if len(h.population) == 0 {
		panic("hillclimb: population size must be greater than zero")
	}
	h.nEvals = 0
	h.stuck = false
	h.gb = 0
	for i := 1; i < len(h.population); i++ {
		if h.fitnessPolicy.FirstIsBetter(h.population[i], h.population[h.gb]) {
			h.gb = i
		}
	}
}

// Finalize implements search.Search.
func (h *HillClimbing) Finalize() {}

// Next implements search.Search: sweeps the population, perturbing each
// dimension with probability percMove and keeping the change if it
// strictly improves the individual's fitness, stopping as soon as any
// sweep improves the population's best or the evaluation budget m runs
// out.
func (h *HillClimbing) Next(m int) {
	n := h.searchSpace.NDimensions()
	noImprove := 0
	found := false

	for !found && noImprove < h.maxNoImprove && h.nEvals < m {
		for i := 0; i < len(h.population) && h.nEvals < m; i++ {
			for d := 0; d < n && h.nEvals < m; d++ {
				if h.rng.UniformFloat64(0, 1) > h.percMove {
					continue
				}

				dim := h.searchSpace.OriginalDimension(d)
				candidate := h.population[i].Clone()
				pos := candidate.Position(d)
				pos.Add(h.step * h.rng.UniformFloat64(dim.StartPoint, dim.EndPoint))
				pos.AdjustUpperBound(dim.EndPoint)
				pos.AdjustLowerBound(dim.StartPoint)

				h.fitnessPolicy.Apply(candidate)
				h.nEvals++

				if h.fitnessPolicy.FirstIsBetter(candidate, h.population[i]) {
					h.population[i].Set(candidate)
					if i == h.gb || h.fitnessPolicy.FirstIsBetter(h.population[i], h.population[h.gb]) {
						found = true
						h.gb = i
					}
				}
			}
		}
		if !found {
			noImprove++
		}
	}

	if noImprove == h.maxNoImprove {
		h.stuck = true
	}
}

// IsStuck implements search.Search.
func (h *HillClimbing) IsStuck() bool { return h.stuck }

// BestIndividual implements search.Search.
func (h *HillClimbing) BestIndividual() *thmath.Solution { return h.population[h.gb] }

// CurrentNEvals implements search.Search.
func (h *HillClimbing) CurrentNEvals() int { return h.nEvals }

// BestFitness implements search.Search.
func (h *HillClimbing) BestFitness() *thmath.Fitness { return h.BestIndividual().Fitness() }

// Name implements search.Search.
func (h *HillClimbing) Name() string { return "HillClimbing" }
