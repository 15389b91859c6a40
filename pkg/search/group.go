package search

import (
	"errors"

	"github.com/th-cooperative/treasurehunt/pkg/bestlist"
	"github.com/th-cooperative/treasurehunt/pkg/fitness"
	"github.com/th-cooperative/treasurehunt/pkg/thmath"
	"github.com/th-cooperative/treasurehunt/pkg/thrand"
	"github.com/th-cooperative/treasurehunt/pkg/thtree"
)

// ErrInvalidPopulationSize is returned when a Group is constructed with
// a non-positive population size.
var ErrInvalidPopulationSize = errors.New("search: population size must be greater than zero")

// GroupConfig supplies everything a Group needs at construction. The
// caller (the TH engine) owns GeneralBest and BestList and keeps
// references to them elsewhere; Group only ever mutates through the
// pointers it is given.
type GroupConfig struct {
	ID   int
	Tree *thtree.Tree

	SearchSpace *thmath.SearchSpace
	Region      *thmath.Region

	FitnessPolicy      fitness.Policy
	Algorithms         []*Score
	SelectionPolicy    SelectionPolicy
	ConvergencePolicy  ConvergenceControlPolicy
	BestListPolicy     bestlist.UpdatePolicy
	BestList           *bestlist.BestList
	GeneralBest        *thmath.Solution
	PopulationSize     int

	// Bias, if non-nil, is only honored when ID names the root node.
	Bias *thmath.Solution
	// StartupSolutions, if non-empty, are only honored at the root node.
	StartupSolutions []*thmath.Solution
}

// Group is a per-node SearchGroup: it owns a population of candidate
// solutions local to one anchor region, selects and runs one registered
// Search algorithm per iteration under a ConvergenceControlPolicy, and
// folds the result into the node's best-list and general-best Solution.
type Group struct {
	id   int
	tree *thtree.Tree

	fitnessPolicy fitness.Policy
	algorithms    []*Score
	selection     SelectionPolicy
	convergence   ConvergenceControlPolicy
	bestListPolicy bestlist.UpdatePolicy
	bestList      *bestlist.BestList
	generalBest   *thmath.Solution

	population    []*thmath.Solution
	iterationBest *thmath.Solution
	bias          *thmath.Solution
	startupSolutions []*thmath.Solution

	rng *thrand.Source

	lastExecuted        Search
	improvedGeneralBest bool
}

// NewGroup builds a Group from cfg, wiring the fitness policy and
// search space into every registered algorithm and, at the root node
// only, pre-evaluating the supplied bias.
func NewGroup(cfg GroupConfig) (*Group, error) {
	if len(cfg.Algorithms) == 0 {
		return nil, ErrNoAlgorithms
	}
	if cfg.PopulationSize <= 0 {
		return nil, ErrInvalidPopulationSize
	}

	node, err := cfg.Tree.Node(cfg.ID)
	if err != nil {
		return nil, err
	}

	for _, score := range cfg.Algorithms {
		if score.Algorithm == nil {
			continue
		}
		score.Algorithm.SetFitnessPolicy(cfg.FitnessPolicy)
		score.Algorithm.SetSearchSpace(cfg.SearchSpace)
	}

	n := cfg.SearchSpace.NDimensions()
	population := make([]*thmath.Solution, cfg.PopulationSize)
	for i := range population {
		population[i] = thmath.NewSolution(n, 1, 1, 1)
	}

	g := &Group{
		id:               cfg.ID,
		tree:             cfg.Tree,
		fitnessPolicy:    cfg.FitnessPolicy,
		algorithms:       cfg.Algorithms,
		selection:        cfg.SelectionPolicy,
		convergence:      cfg.ConvergencePolicy,
		bestListPolicy:   cfg.BestListPolicy,
		bestList:         cfg.BestList,
		generalBest:      cfg.GeneralBest,
		population:       population,
		iterationBest:    thmath.NewSolution(n, 1, 1, 1),
		startupSolutions: cfg.StartupSolutions,
		rng:              thrand.NewSource(0),
	}

	if node.IsRoot() && cfg.Bias != nil {
		g.bias = cfg.Bias
		g.fitnessPolicy.Apply(g.bias)
		g.bestListPolicy.Apply(g.bestList, g.bias, g.fitnessPolicy)
	}

	return g, nil
}

// Run performs one complete TH iteration: select a registered
// algorithm, drive it to convergence under the ConvergenceControlPolicy,
// fold its best individual into the best-list and general-best, then
// rank the algorithm's performance for the next selection round.
func (g *Group) Run() error {
	g.improvedGeneralBest = false

	selected, err := g.selection.Apply(g.id, g.tree, g.algorithms)
	if err != nil {
		return err
	}
	selected.SetPopulation(g.population)
	g.convergence.Run(selected)

	g.iterationBest.Set(selected.BestIndividual())
	g.bestListPolicy.Apply(g.bestList, g.iterationBest, g.fitnessPolicy)

	if g.fitnessPolicy.FirstIsBetter(g.iterationBest, g.generalBest) {
		g.generalBest.Set(g.iterationBest)
		g.improvedGeneralBest = true
	}

	if err := g.selection.Rank(g.id, g.tree, g.algorithms, selected, g.iterationBest.Fitness(), selected.CurrentNEvals(), 0); err != nil {
		return err
	}

	g.lastExecuted = selected
	return nil
}

// EvalsConsumed returns the number of fitness evaluations the algorithm
// executed in the most recent Run call.
func (g *Group) EvalsConsumed() int {
	if g.lastExecuted == nil {
		return 0
	}
	return g.lastExecuted.CurrentNEvals()
}

// ResetPopulation repositions every population member within region
// and recomputes its fitness, following this priority order:
//
//   - at the root node, if startup Solutions were supplied, individuals
//     are assigned to them first;
//   - if a bias was supplied, the root node assigns exactly one
//     individual to the bias location, and every remaining individual is
//     either reset near the bias (50% chance) or reset freely within
//     region;
//   - otherwise every individual is reset freely within region.
func (g *Group) ResetPopulation(region *thmath.Region) {
	hasUsedBias := false
	node, _ := g.tree.Node(g.id)
	isRoot := node.IsRoot()

	for i, sol := range g.population {
		switch {
		case isRoot && i < len(g.startupSolutions):
			sol.Set(g.startupSolutions[i])
		case g.bias != nil:
			if isRoot && !hasUsedBias {
				hasUsedBias = true
				sol.Set(g.bias)
			} else if g.rng.Float64() < 0.5 {
				sol.Reset(region, g.bias)
			} else {
				sol.Reset(region, nil)
			}
		default:
			sol.Reset(region, nil)
		}

		g.fitnessPolicy.Apply(sol)
		if i == 0 || g.fitnessPolicy.FirstIsBetter(sol, g.iterationBest) {
			g.iterationBest.Set(sol)
		}
	}

	if g.fitnessPolicy.FirstIsBetter(g.iterationBest, g.generalBest) {
		g.generalBest.Set(g.iterationBest)
	}
	g.bestListPolicy.Apply(g.bestList, g.generalBest, g.fitnessPolicy)
}

// BestList exposes the group's best-list, owned by the engine that
// constructed this Group.
func (g *Group) BestList() *bestlist.BestList { return g.bestList }

// UpdateBestList folds an externally-obtained Solution (e.g. a
// refined child candidate) into the group's best-list, using the same
// update policy Run uses for its own iteration-best.
func (g *Group) UpdateBestList(sol *thmath.Solution) {
	g.bestListPolicy.Apply(g.bestList, sol, g.fitnessPolicy)
}

// Population exposes the live population slice owned by the group.
func (g *Group) Population() []*thmath.Solution { return g.population }

// PopulationSize returns the configured population size.
func (g *Group) PopulationSize() int { return len(g.population) }

// LastExecuted returns the Search instance run by the most recent Run
// call, or nil if Run has never been called.
func (g *Group) LastExecuted() Search { return g.lastExecuted }

// IterationBest returns the best Solution found during the most recent
// Run or ResetPopulation call.
func (g *Group) IterationBest() *thmath.Solution { return g.iterationBest }

// ImprovedGeneralBest reports whether the most recent Run call improved
// the general-best Solution.
func (g *Group) ImprovedGeneralBest() bool { return g.improvedGeneralBest }
