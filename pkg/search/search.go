// Package search defines the external Search contract, the pluggable
// population-based optimization method TH drives for one bounded
// iteration at a time, plus the SearchAlgorithmSelectionPolicy variants
// that choose among several registered algorithms.
package search

import (
	"github.com/th-cooperative/treasurehunt/pkg/fitness"
	"github.com/th-cooperative/treasurehunt/pkg/thmath"
)

// Search is any population-based optimization method TH can drive.
// CSMOn calls Startup once, then Next repeatedly (each call expected to
// return as soon as it finds one strict improvement, or exhausts an
// internal no-improvement streak), then Finalize once.
type Search interface {
	// SetPopulation installs the population to optimize. The size may
	// differ from PreferredPopulationSize: the actual population size
	// is the max preferred size across every algorithm registered with
	// the SearchGroup.
	SetPopulation(population []*thmath.Solution)

	// SetFitnessPolicy installs the objective function.
	SetFitnessPolicy(policy fitness.Policy)

	// SetSearchSpace installs the full search space (the anchor
	// sub-region is not needed here; the population arrives already
	// initialized through SetPopulation).
	SetSearchSpace(space *thmath.SearchSpace)

	// PreferredPopulationSize returns this algorithm's preferred
	// population size.
	PreferredPopulationSize() int

	// Startup prepares the algorithm for a new optimization: reset
	// counters, pre-evaluate the starting population's fitness, etc.
	Startup()

	// Next runs the optimization, making at most M calls to
	// FitnessPolicy.Apply, returning as soon as it finds one strict
	// improvement over the pre-existing best (or gives up on an
	// internal no-improvement streak).
	Next(m int)

	// Finalize performs any post-optimization bookkeeping.
	Finalize()

	// IsStuck reports whether the algorithm detected strong stagnation
	// and does not expect further improvement soon.
	IsStuck() bool

	// BestIndividual returns the best Solution found since Startup.
	BestIndividual() *thmath.Solution

	// CurrentNEvals returns the number of FitnessPolicy.Apply calls made
	// since Startup.
	CurrentNEvals() int

	// BestFitness returns the Fitness of BestIndividual.
	BestFitness() *thmath.Fitness

	// Name identifies the algorithm for logging/tracking purposes.
	Name() string
}
