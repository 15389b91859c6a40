package search

import (
	"errors"
	"testing"

	"github.com/th-cooperative/treasurehunt/pkg/bestlist"
	"github.com/th-cooperative/treasurehunt/pkg/fitness"
	"github.com/th-cooperative/treasurehunt/pkg/thmath"
	"github.com/th-cooperative/treasurehunt/pkg/thtree"
)

// fakeSearch is a minimal Search stand-in whose Next call deterministically
// drives its population's first member to a fixed fitness, for exercising
// Group/SelectionPolicy plumbing without a real optimization algorithm.
type fakeSearch struct {
	name       string
	population []*thmath.Solution
	policy     fitness.Policy
	nEvals     int
	targetFit  float64
}

func (f *fakeSearch) SetPopulation(population []*thmath.Solution) { f.population = population }
func (f *fakeSearch) SetFitnessPolicy(policy fitness.Policy)      { f.policy = policy }
func (f *fakeSearch) SetSearchSpace(*thmath.SearchSpace)          {}
func (f *fakeSearch) PreferredPopulationSize() int                { return 1 }
func (f *fakeSearch) Startup()                                    { f.nEvals = 0 }
func (f *fakeSearch) Finalize()                                   {}
func (f *fakeSearch) IsStuck() bool                                { return false }
func (f *fakeSearch) CurrentNEvals() int                           { return f.nEvals }
func (f *fakeSearch) BestFitness() *thmath.Fitness                 { return f.BestIndividual().Fitness() }
func (f *fakeSearch) Name() string                                 { return f.name }

func (f *fakeSearch) Next(m int) {
	f.population[0].SetFitness([]float64{f.targetFit})
	f.nEvals++
}

func (f *fakeSearch) BestIndividual() *thmath.Solution { return f.population[0] }

// oneShotConvergence drives a Search through exactly one Next call,
// standing in for a ConvergenceControlPolicy in tests that don't need
// CSMOn's curve-fitting.
type oneShotConvergence struct{ budget int }

func (o oneShotConvergence) Run(s Search) {
	s.Startup()
	s.Next(o.budget)
	s.Finalize()
}
func (o oneShotConvergence) BudgetSize() int { return o.budget }

type minimizingPolicy struct{}

func (minimizingPolicy) Apply(*thmath.Solution) {}
func (minimizingPolicy) FirstIsBetter(first, second *thmath.Solution) bool {
	return first.Fitness().FirstValue() < second.Fitness().FirstValue()
}
func (minimizingPolicy) FirstFitnessIsBetter(first, second *thmath.Fitness) bool {
	return first.FirstValue() < second.FirstValue()
}
func (minimizingPolicy) SetWorstFitness(s *thmath.Solution) { s.SetFitness([]float64{1e18}) }
func (minimizingPolicy) SetBestFitness(s *thmath.Solution)  { s.SetFitness([]float64{0}) }
func (minimizingPolicy) MinEstimatedFitnessValue() float64  { return 0 }

func oneNodeTree(t *testing.T) *thtree.Tree {
	t.Helper()
	tree := thtree.New(1)
	if _, err := tree.AddRootNode(0); err != nil {
		t.Fatalf("AddRootNode: %v", err)
	}
	tree.Lock()
	return tree
}

func baseGroupConfig(t *testing.T, algo Search) GroupConfig {
	t.Helper()
	space := thmath.NewSearchSpace([]*thmath.Dimension{thmath.NewDimension(0, -5, 5)})
	generalBest := thmath.NewSolution(1, 1, 1, 1)
	generalBest.SetFitness([]float64{1e18})
	return GroupConfig{
		ID:                0,
		Tree:              oneNodeTree(t),
		SearchSpace:       space,
		Region:            space.Region,
		FitnessPolicy:     minimizingPolicy{},
		Algorithms:        []*Score{NewScore(algo, 1)},
		SelectionPolicy:   SingleSelectionPolicy{},
		ConvergencePolicy: oneShotConvergence{budget: 10},
		BestListPolicy:    bestlist.ConvergentUpdatePolicy{},
		BestList:          bestlist.New(2),
		GeneralBest:       generalBest,
		PopulationSize:    1,
	}
}

func TestGroupRunFoldsImprovementIntoGeneralBest(t *testing.T) {
	algo := &fakeSearch{name: "fake", targetFit: 3}
	group, err := NewGroup(baseGroupConfig(t, algo))
	if err != nil {
		t.Fatalf("NewGroup: %v", err)
	}

	if err := group.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !group.ImprovedGeneralBest() {
		t.Error("ImprovedGeneralBest() = false after a strictly better iteration best")
	}
	if group.IterationBest().Fitness().FirstValue() != 3 {
		t.Errorf("IterationBest fitness = %v, want 3", group.IterationBest().Fitness().FirstValue())
	}
}

func TestGroupRunDoesNotImproveOnWorseResult(t *testing.T) {
	algo := &fakeSearch{name: "fake", targetFit: 50}
	cfg := baseGroupConfig(t, algo)
	cfg.GeneralBest.SetFitness([]float64{1})
	group, err := NewGroup(cfg)
	if err != nil {
		t.Fatalf("NewGroup: %v", err)
	}

	if err := group.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if group.ImprovedGeneralBest() {
		t.Error("ImprovedGeneralBest() = true despite a worse iteration result")
	}
}

func TestNewGroupRejectsEmptyAlgorithms(t *testing.T) {
	cfg := baseGroupConfig(t, &fakeSearch{})
	cfg.Algorithms = nil
	if _, err := NewGroup(cfg); !errors.Is(err, ErrNoAlgorithms) {
		t.Errorf("NewGroup with no algorithms: err = %v, want ErrNoAlgorithms", err)
	}
}

func TestNewGroupRejectsNonPositivePopulation(t *testing.T) {
	cfg := baseGroupConfig(t, &fakeSearch{})
	cfg.PopulationSize = 0
	if _, err := NewGroup(cfg); !errors.Is(err, ErrInvalidPopulationSize) {
		t.Errorf("NewGroup with zero population: err = %v, want ErrInvalidPopulationSize", err)
	}
}

func TestResetPopulationUsesBiasAtRoot(t *testing.T) {
	cfg := baseGroupConfig(t, &fakeSearch{})
	bias := thmath.NewSolution(1, 1, 1, 1)
	bias.Position(0).Fill(2)
	cfg.Bias = bias

	group, err := NewGroup(cfg)
	if err != nil {
		t.Fatalf("NewGroup: %v", err)
	}
	group.ResetPopulation(cfg.Region)

	found := false
	for _, sol := range group.Population() {
		if sol.Position(0).FirstValue() == 2 {
			found = true
		}
	}
	if !found {
		t.Error("ResetPopulation should assign exactly one individual to the bias location at the root")
	}
}

func TestEvalsConsumedBeforeRunIsZero(t *testing.T) {
	group, err := NewGroup(baseGroupConfig(t, &fakeSearch{}))
	if err != nil {
		t.Fatalf("NewGroup: %v", err)
	}
	if group.EvalsConsumed() != 0 {
		t.Errorf("EvalsConsumed() before any Run = %d, want 0", group.EvalsConsumed())
	}
}
