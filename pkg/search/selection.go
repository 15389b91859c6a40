package search

import (
	"errors"

	"github.com/th-cooperative/treasurehunt/pkg/thmath"
	"github.com/th-cooperative/treasurehunt/pkg/thtree"
)

// ErrNoAlgorithms is returned by a SelectionPolicy when the registered
// algorithm list is empty.
var ErrNoAlgorithms = errors.New("search: the list of algorithms is empty")

// SelectionPolicy chooses the next registered Search to execute and
// ranks its performance once it has run.
type SelectionPolicy interface {
	// Apply chooses the next Search instance to execute.
	Apply(id int, tree *thtree.Tree, algorithms []*Score) (Search, error)

	// Rank records the performance of the Search instance just executed.
	Rank(id int, tree *thtree.Tree, algorithms []*Score, current Search, currentFitness *thmath.Fitness, currentNEvals int, totalEvals int64) error
}

// RoundRobinSelectionPolicy cycles through the registered algorithms in
// order, wrapping back to the first after the last.
type RoundRobinSelectionPolicy struct {
	currPos int
}

// NewRoundRobinSelectionPolicy builds a fresh round-robin policy.
func NewRoundRobinSelectionPolicy() *RoundRobinSelectionPolicy {
	return &RoundRobinSelectionPolicy{currPos: -1}
}

// Apply implements SelectionPolicy.
func (r *RoundRobinSelectionPolicy) Apply(id int, tree *thtree.Tree, algorithms []*Score) (Search, error) {
	if len(algorithms) == 0 {
		return nil, ErrNoAlgorithms
	}
	r.currPos++
	if r.currPos == len(algorithms) {
		r.currPos = 0
	}
	return algorithms[r.currPos].Algorithm, nil
}

// Rank implements SelectionPolicy.
func (r *RoundRobinSelectionPolicy) Rank(id int, tree *thtree.Tree, algorithms []*Score, current Search, currentFitness *thmath.Fitness, currentNEvals int, totalEvals int64) error {
	if len(algorithms) == 0 {
		return ErrNoAlgorithms
	}
	algorithms[r.currPos].Value = 1
	return nil
}

// SingleSelectionPolicy always runs the first registered algorithm.
type SingleSelectionPolicy struct{}

// Apply implements SelectionPolicy.
func (SingleSelectionPolicy) Apply(id int, tree *thtree.Tree, algorithms []*Score) (Search, error) {
	if len(algorithms) == 0 {
		return nil, ErrNoAlgorithms
	}
	return algorithms[0].Algorithm, nil
}

// Rank implements SelectionPolicy.
func (SingleSelectionPolicy) Rank(id int, tree *thtree.Tree, algorithms []*Score, current Search, currentFitness *thmath.Fitness, currentNEvals int, totalEvals int64) error {
	if len(algorithms) == 0 {
		return ErrNoAlgorithms
	}
	algorithms[0].Value = 1
	return nil
}
