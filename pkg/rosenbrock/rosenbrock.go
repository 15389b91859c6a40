// Package rosenbrock implements the Rosenbrock function as a worked
// FitnessPolicy example: a smooth, non-convex minimization benchmark
// with a narrow curved valley leading to its global minimum at
// (1, 1, ..., 1), fitness 0.
package rosenbrock

import (
	"math"

	"github.com/th-cooperative/treasurehunt/pkg/thmath"
)

// Policy evaluates the Rosenbrock function: the sum, across every pair
// of consecutive dimensions, of (1-x1)^2 + 100*(x2-x1^2)^2.
type Policy struct{}

// New builds a Rosenbrock Policy.
func New() *Policy { return &Policy{} }

// Apply implements fitness.Policy.
func (Policy) Apply(solution *thmath.Solution) {
	var fit float64
	n := solution.NDimensions()
	for i := 0; i < n-1; i++ {
		x1 := solution.Position(i).FirstValue()
		x2 := solution.Position(i + 1).FirstValue()
		fit += (1-x1)*(1-x1) + 100*(x2-x1*x1)*(x2-x1*x1)
	}
	solution.SetFitness([]float64{fit})
}

// FirstIsBetter implements fitness.Policy: lower fitness wins.
func (Policy) FirstIsBetter(first, second *thmath.Solution) bool {
	return first.Fitness().FirstValue() < second.Fitness().FirstValue()
}

// FirstFitnessIsBetter implements fitness.Policy.
func (Policy) FirstFitnessIsBetter(first, second *thmath.Fitness) bool {
	return first.FirstValue() < second.FirstValue()
}

// SetWorstFitness implements fitness.Policy.
func (Policy) SetWorstFitness(solution *thmath.Solution) {
	solution.SetFitness([]float64{math.MaxFloat64})
}

// SetBestFitness implements fitness.Policy.
func (Policy) SetBestFitness(solution *thmath.Solution) {
	solution.SetFitness([]float64{0})
}

// MinEstimatedFitnessValue implements fitness.Policy.
func (Policy) MinEstimatedFitnessValue() float64 { return 0 }
