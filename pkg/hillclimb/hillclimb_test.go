package hillclimb

import (
	"testing"

	"github.com/th-cooperative/treasurehunt/pkg/rosenbrock"
	"github.com/th-cooperative/treasurehunt/pkg/thmath"
)

func space() *thmath.SearchSpace {
	return thmath.NewSearchSpace([]*thmath.Dimension{
		thmath.NewDimension(0, -5, 5),
		thmath.NewDimension(1, -5, 5),
	})
}

func population(n int) []*thmath.Solution {
	pop := make([]*thmath.Solution, n)
	for i := range pop {
		pop[i] = thmath.NewSolution(2, 1, 1, 1)
		pop[i].Position(0).Fill(float64(i) - 2)
		pop[i].Position(1).Fill(float64(i) - 2)
	}
	return pop
}

func TestStartupPreEvaluatesAndPicksBest(t *testing.T) {
	h := New(0.5, 0.1, 4)
	h.SetFitnessPolicy(rosenbrock.New())
	h.SetSearchSpace(space())

	pop := population(4)
	for _, sol := range pop {
		rosenbrock.New().Apply(sol)
	}
	h.SetPopulation(pop)
	h.Startup()

	if h.CurrentNEvals() != 0 {
		t.Errorf("CurrentNEvals() after Startup = %d, want 0", h.CurrentNEvals())
	}
	best := h.BestIndividual()
	for _, sol := range pop {
		if sol.Fitness().FirstValue() < best.Fitness().FirstValue() {
			t.Errorf("Startup chose %v as best, but %v is better", best.Fitness().FirstValue(), sol.Fitness().FirstValue())
		}
	}
}

func TestStartupPanicsOnEmptyPopulation(t *testing.T) {
	h := New(0.5, 0.1, 1)
	h.SetFitnessPolicy(rosenbrock.New())
	h.SetSearchSpace(space())
	h.SetPopulation(nil)

	defer func() {
		if recover() == nil {
			t.Error("Startup with an empty population should panic")
		}
	}()
	h.Startup()
}

func TestNextNeverExceedsEvaluationBudget(t *testing.T) {
	h := New(1.0, 0.5, 4)
	h.SetFitnessPolicy(rosenbrock.New())
	h.SetSearchSpace(space())

	pop := population(4)
	for _, sol := range pop {
		rosenbrock.New().Apply(sol)
	}
	h.SetPopulation(pop)
	h.Startup()
	h.Next(10)

	if h.CurrentNEvals() > 10 {
		t.Errorf("CurrentNEvals() = %d, exceeded budget 10", h.CurrentNEvals())
	}
}

func TestNextStopsAfterMaxNoImproveSweeps(t *testing.T) {
	h := New(0, 0.1, 1, WithMaxNoImprove(2))
	h.SetFitnessPolicy(rosenbrock.New())
	h.SetSearchSpace(space())

	pop := population(1)
	rosenbrock.New().Apply(pop[0])
	h.SetPopulation(pop)
	h.Startup()

	// percMove=0 guarantees every dimension is skipped every sweep, so
	// the algorithm must report stuck well before the evaluation budget.
	h.Next(1000)

	if !h.IsStuck() {
		t.Error("IsStuck() = false after percMove=0 guaranteed no improvement")
	}
	if h.CurrentNEvals() != 0 {
		t.Errorf("CurrentNEvals() = %d, want 0 since no dimension was ever perturbed", h.CurrentNEvals())
	}
}

func TestClampsWithinSearchSpace(t *testing.T) {
	h := New(1.0, 100, 1)
	h.SetFitnessPolicy(rosenbrock.New())
	h.SetSearchSpace(space())

	pop := population(1)
	pop[0].Position(0).Fill(4.9)
	pop[0].Position(1).Fill(4.9)
	rosenbrock.New().Apply(pop[0])
	h.SetPopulation(pop)
	h.Startup()
	h.Next(50)

	best := h.BestIndividual()
	for d := 0; d < 2; d++ {
		v := best.Position(d).FirstValue()
		if v < -5 || v > 5 {
			t.Errorf("Position(%d) = %v, outside search space [-5, 5]", d, v)
		}
	}
}
