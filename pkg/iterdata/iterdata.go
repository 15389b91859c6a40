// Package iterdata holds IterationData, a per-node snapshot of the
// running optimization's progress. It is threaded into the pluggable
// RegionSelectionPolicy.Recalculate and RelocationStrategyPolicy hooks
// so they can react to how close the run is to its budget.
package iterdata

import "github.com/th-cooperative/treasurehunt/pkg/thmath"

// IterationData stores the state a policy needs to reason about run
// progress: the current population snapshot, the best solutions known
// so far, and how much of the configured budget has been spent.
type IterationData struct {
	population    []*thmath.Solution
	generalBest   *thmath.Solution
	parentBest    *thmath.Solution
	iterationBest *thmath.Solution

	n int

	currTime             int
	currIteration        int
	currNumberEvaluation int

	maxTimeSeconds        int64
	maxNumberEvaluations  int64
	maxIterations         int64
}

// New builds an IterationData tracking a population of the given size
// and dimensionality, against the given budget limits (0 means
// unlimited for that dimension).
func New(population []*thmath.Solution, maxTimeSeconds, maxNumberEvaluations, maxIterations int64) *IterationData {
	if len(population) == 0 {
		panic("iterdata: population must not be empty")
	}
	n := population[0].NDimensions()
	clone := make([]*thmath.Solution, len(population))
	for i, sol := range population {
		clone[i] = sol.Clone()
	}
	return &IterationData{
		population:           clone,
		generalBest:          thmath.NewSolution(n, 1, 1, 1),
		parentBest:           thmath.NewSolution(n, 1, 1, 1),
		iterationBest:        thmath.NewSolution(n, 1, 1, 1),
		n:                    n,
		maxTimeSeconds:       maxTimeSeconds,
		maxNumberEvaluations: maxNumberEvaluations,
		maxIterations:        maxIterations,
	}
}

// NDimensions returns the optimization problem's dimensionality.
func (d *IterationData) NDimensions() int { return d.n }

// Population returns the tracked population snapshot.
func (d *IterationData) Population() []*thmath.Solution { return d.population }

// SetPopulation overwrites the tracked population snapshot in place.
func (d *IterationData) SetPopulation(population []*thmath.Solution) {
	if len(population) > len(d.population) {
		panic("iterdata: population is larger than the tracked snapshot")
	}
	for i, sol := range population {
		d.population[i].Set(sol)
	}
}

// GeneralBest returns the tracked general-best clone.
func (d *IterationData) GeneralBest() *thmath.Solution { return d.generalBest }

// SetGeneralBest copies generalBest into the tracked clone.
func (d *IterationData) SetGeneralBest(generalBest *thmath.Solution) {
	if generalBest != nil {
		d.generalBest.Set(generalBest)
	}
}

// ParentBest returns the tracked parent-best clone.
func (d *IterationData) ParentBest() *thmath.Solution { return d.parentBest }

// SetParentBest copies parentBest into the tracked clone.
func (d *IterationData) SetParentBest(parentBest *thmath.Solution) {
	if parentBest != nil {
		d.parentBest.Set(parentBest)
	}
}

// IterationBest returns the tracked iteration-best clone.
func (d *IterationData) IterationBest() *thmath.Solution { return d.iterationBest }

// SetIterationBest copies iterationBest into the tracked clone.
func (d *IterationData) SetIterationBest(iterationBest *thmath.Solution) {
	if iterationBest != nil {
		d.iterationBest.Set(iterationBest)
	}
}

// CurrTime returns the node's current running time in seconds.
func (d *IterationData) CurrTime() int { return d.currTime }

// SetCurrTime records the node's current running time in seconds.
func (d *IterationData) SetCurrTime(t int) { d.currTime = t }

// CurrIteration returns the node's current iteration count.
func (d *IterationData) CurrIteration() int { return d.currIteration }

// SetCurrIteration records the node's current iteration count.
func (d *IterationData) SetCurrIteration(i int) { d.currIteration = i }

// CurrNumberEvaluation returns the node's current evaluation count.
func (d *IterationData) CurrNumberEvaluation() int { return d.currNumberEvaluation }

// SetCurrNumberEvaluation records the node's current evaluation count.
func (d *IterationData) SetCurrNumberEvaluation(n int) { d.currNumberEvaluation = n }

// MaxTimeSeconds returns the configured time budget, or 0 if unlimited.
func (d *IterationData) MaxTimeSeconds() int64 { return d.maxTimeSeconds }

// MaxNumberEvaluations returns the configured evaluation budget, or 0
// if unlimited.
func (d *IterationData) MaxNumberEvaluations() int64 { return d.maxNumberEvaluations }

// MaxIterations returns the configured iteration budget, or 0 if
// unlimited.
func (d *IterationData) MaxIterations() int64 { return d.maxIterations }

// PercentageRuntime returns the fraction, in [0, 1], of whichever
// configured budget (evaluations, iterations, or time) has been spent
// the most.
func (d *IterationData) PercentageRuntime() float64 {
	var perc float64
	if d.maxNumberEvaluations > 0 {
		perc = float64(d.currNumberEvaluation) / float64(d.maxNumberEvaluations)
	}
	if d.maxIterations > 0 {
		if p := float64(d.currIteration) / float64(d.maxIterations); p > perc {
			perc = p
		}
	}
	if d.maxTimeSeconds > 0 {
		if p := float64(d.currTime) / float64(d.maxTimeSeconds); p > perc {
			perc = p
		}
	}
	return perc
}
