// Package fitness defines the external FitnessPolicy contract. Concrete
// objective functions (the actual optimization problem) are supplied by
// the caller; the optimizer core only ever talks to this interface.
package fitness

import "github.com/th-cooperative/treasurehunt/pkg/thmath"

// Policy evaluates and compares candidate solutions for one optimization
// problem. Every problem under optimization supplies exactly one Policy;
// the engine trusts it for every detail about the problem.
type Policy interface {
	// Apply calculates and stores the fitness (and violation, if any) for
	// the given solution. All work needed to score a solution happens
	// here.
	Apply(solution *thmath.Solution)

	// FirstIsBetter reports whether the first solution is preferable to
	// the second. Implementations need not handle nil arguments; use
	// Better for nil-safe comparisons at call sites that may see an
	// unset slot.
	FirstIsBetter(first, second *thmath.Solution) bool

	// FirstFitnessIsBetter is FirstIsBetter's Fitness-only counterpart,
	// used when only the scores (not full solutions) are available.
	FirstFitnessIsBetter(first, second *thmath.Fitness) bool

	// SetWorstFitness sets the solution's fitness to this problem's
	// worst estimated value, used to seed a general-best placeholder
	// before any real evaluation has happened.
	SetWorstFitness(solution *thmath.Solution)

	// SetBestFitness sets the solution's fitness to this problem's best
	// estimated value.
	SetBestFitness(solution *thmath.Solution)

	// MinEstimatedFitnessValue returns the minimum plausible single
	// fitness value for this problem, combined into one number if the
	// fitness itself has more than one component. Used by CSMOn as its
	// decay anchor.
	MinEstimatedFitnessValue() float64
}

// Better is a nil-safe wrapper around Policy.FirstIsBetter: a non-nil
// solution is always better than a nil one, and two nils are equal
// (neither is better).
func Better(policy Policy, first, second *thmath.Solution) bool {
	if first == nil {
		return false
	}
	if second == nil {
		return true
	}
	return policy.FirstIsBetter(first, second)
}

// BetterFitness is FirstFitnessIsBetter's nil-safe counterpart.
func BetterFitness(policy Policy, first, second *thmath.Fitness) bool {
	if first == nil {
		return false
	}
	if second == nil {
		return true
	}
	return policy.FirstFitnessIsBetter(first, second)
}
