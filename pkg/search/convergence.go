package search

// ConvergenceControlPolicy drives a Search through repeated Next calls
// for one bounded optimization pass, deciding when the algorithm has
// converged, stagnated, or exhausted its evaluation budget.
type ConvergenceControlPolicy interface {
	// Run drives search for one full optimization pass, calling
	// search.Next repeatedly until this policy decides to stop.
	Run(s Search)

	// BudgetSize returns the maximum number of fitness evaluations this
	// policy allows per Run call.
	BudgetSize() int
}
