package csmon

import (
	"testing"

	"github.com/th-cooperative/treasurehunt/pkg/fitness"
	"github.com/th-cooperative/treasurehunt/pkg/thmath"
)

// decayingSearch is a deterministic search.Search stand-in whose best
// fitness decays by a fixed ratio on every Next call, never getting
// stuck and consuming exactly one evaluation per call, matching R3's
// "monotonically decaying deterministic Search".
type decayingSearch struct {
	fit    float64
	floor  float64
	ratio  float64
	nEvals int
	best   *thmath.Solution
}

func newDecayingSearch(start, floor, ratio float64) *decayingSearch {
	sol := thmath.NewSolution(1, 1, 1, 1)
	sol.SetFitness([]float64{start})
	return &decayingSearch{fit: start, floor: floor, ratio: ratio, best: sol}
}

func (d *decayingSearch) SetPopulation([]*thmath.Solution)   {}
func (d *decayingSearch) SetFitnessPolicy(fitness.Policy)    {}
func (d *decayingSearch) SetSearchSpace(*thmath.SearchSpace) {}
func (d *decayingSearch) PreferredPopulationSize() int       { return 1 }
func (d *decayingSearch) Startup()                           { d.nEvals = 0 }
func (d *decayingSearch) Finalize()                           {}
func (d *decayingSearch) IsStuck() bool                       { return false }
func (d *decayingSearch) BestIndividual() *thmath.Solution    { return d.best }
func (d *decayingSearch) CurrentNEvals() int                  { return d.nEvals }
func (d *decayingSearch) BestFitness() *thmath.Fitness        { return d.best.Fitness() }
func (d *decayingSearch) Name() string                        { return "decaying" }

func (d *decayingSearch) Next(m int) {
	if d.nEvals >= m {
		return
	}
	d.nEvals++
	d.fit = d.floor + (d.fit-d.floor)*d.ratio
	d.best.SetFitness([]float64{d.fit})
}

// TestRunStopsNoLaterThanBudget encodes R3: CSMOn returns after exactly
// the budget, or earlier only once its decay-detection machinery has
// found a peak. Either way it must never overrun the configured budget.
func TestRunStopsNoLaterThanBudget(t *testing.T) {
	budget := 200
	c := New(budget, 0.05, 0)
	s := newDecayingSearch(1000, 0, 0.9)

	c.Run(s)

	if s.CurrentNEvals() > budget {
		t.Errorf("CurrentNEvals() = %d, exceeded budget %d", s.CurrentNEvals(), budget)
	}
	if s.CurrentNEvals() == 0 {
		t.Error("Run should have driven the search at least once")
	}
}

func TestRunHonorsStuckSearch(t *testing.T) {
	c := New(1000, 0.05, 0)
	s := &stuckSearch{decayingSearch: newDecayingSearch(100, 0, 0.9)}

	c.Run(s)

	if s.CurrentNEvals() > 1 {
		t.Errorf("CurrentNEvals() = %d, a search that reports stuck after the first call should stop immediately", s.CurrentNEvals())
	}
}

// stuckSearch reports itself stuck as soon as it has made one
// evaluation, exercising CSMOn's early-stop-on-stagnation path.
type stuckSearch struct {
	*decayingSearch
}

func (s *stuckSearch) IsStuck() bool { return s.nEvals > 0 }

func TestBudgetSizeReturnsConfiguredBudget(t *testing.T) {
	c := New(42, 0.1, 0)
	if got := c.BudgetSize(); got != 42 {
		t.Errorf("BudgetSize() = %d, want 42", got)
	}
}
