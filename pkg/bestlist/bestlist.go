// Package bestlist implements the BestList, a small bounded set of
// top-quality solutions maintained per node and gossiped to children, and
// its pluggable update and selection policies.
package bestlist

import (
	"errors"
	"math"

	"github.com/th-cooperative/treasurehunt/pkg/fitness"
	"github.com/th-cooperative/treasurehunt/pkg/thmath"
	"github.com/th-cooperative/treasurehunt/pkg/thrand"
)

// ErrEmptyList is returned by selection policies when the list has no
// occupied slots at all.
var ErrEmptyList = errors.New("bestlist: the best list is empty")

// BestList holds a fixed number of nullable Solution slots, each owned by
// the list.
type BestList struct {
	slots []*thmath.Solution
}

// New creates an empty best-list with the given capacity.
func New(capacity int) *BestList {
	if capacity <= 0 {
		panic("bestlist: capacity must be positive")
	}
	return &BestList{slots: make([]*thmath.Solution, capacity)}
}

// Clone returns an independent deep copy.
func (b *BestList) Clone() *BestList {
	clone := New(len(b.slots))
	for i, s := range b.slots {
		if s != nil {
			clone.slots[i] = s.Clone()
		}
	}
	return clone
}

// Size returns the list's fixed capacity.
func (b *BestList) Size() int { return len(b.slots) }

// At returns the slot at idx, or nil if it has not been filled.
func (b *BestList) At(idx int) *thmath.Solution {
	if idx < 0 || idx >= len(b.slots) {
		panic("bestlist: index out of range")
	}
	return b.slots[idx]
}

// Set overwrites the slot at idx with a copy of solution, replacing
// whatever (if anything) occupied it.
func (b *BestList) Set(idx int, solution *thmath.Solution) {
	if idx < 0 || idx >= len(b.slots) {
		panic("bestlist: index out of range")
	}
	if solution == nil {
		panic("bestlist: solution cannot be nil")
	}
	if b.slots[idx] == nil {
		b.slots[idx] = solution.Clone()
	} else {
		b.slots[idx].Set(solution)
	}
}

// euclideanDistance computes the squared Cartesian distance between two solutions'
// positions, summing each dimension's internal values before squaring,
// matching the original framework's composite-position distance metric.
func euclideanDistance(a, b *thmath.Solution) float64 {
	n := a.NDimensions()
	var dist float64
	for i := 0; i < n; i++ {
		diff := b.Position(i).SumInternalValues() - a.Position(i).SumInternalValues()
		dist += diff * diff
	}
	return dist
}

// UpdatePolicy specifies how a new solution is folded into a BestList.
type UpdatePolicy interface {
	Apply(list *BestList, solution *thmath.Solution, policy fitness.Policy)
}

// ConvergentUpdatePolicy replaces the slot the new solution improves upon
// that is farthest away in Euclidean distance, minimizing diversity to
// speed up convergence.
type ConvergentUpdatePolicy struct{}

// Apply implements UpdatePolicy.
func (ConvergentUpdatePolicy) Apply(list *BestList, solution *thmath.Solution, policy fitness.Policy) {
	applyReplace(list, solution, policy, true)
}

// DivergentUpdatePolicy replaces the slot the new solution improves upon
// that is nearest in Euclidean distance, maximizing diversity to promote
// exploration.
type DivergentUpdatePolicy struct{}

// Apply implements UpdatePolicy.
func (DivergentUpdatePolicy) Apply(list *BestList, solution *thmath.Solution, policy fitness.Policy) {
	applyReplace(list, solution, policy, false)
}

func applyReplace(list *BestList, solution *thmath.Solution, policy fitness.Policy, farthest bool) {
	worst := -1
	var bestDistance float64
	if farthest {
		bestDistance = -1
	} else {
		bestDistance = math.MaxFloat64
	}
	for i := 0; i < list.Size(); i++ {
		slot := list.At(i)
		if slot == nil {
			worst = i
			break
		}
		if policy.FirstIsBetter(solution, slot) {
			distance := euclideanDistance(solution, slot)
			if farthest {
				if distance > bestDistance {
					bestDistance = distance
					worst = i
				}
			} else if distance < bestDistance {
				bestDistance = distance
				worst = i
			}
		}
	}
	if worst > -1 {
		list.Set(worst, solution)
	}
}

// SelectionPolicy specifies how a solution is drawn from a BestList.
type SelectionPolicy interface {
	Apply(list *BestList, policy fitness.Policy) (*thmath.Solution, error)
}

// RandomSelectionPolicy draws a uniformly random occupied slot, falling
// forward to the first occupied slot if the random draw lands on an empty
// one.
type RandomSelectionPolicy struct {
	rng *thrand.Source
}

// NewRandomSelectionPolicy builds a RandomSelectionPolicy with its own
// random source.
func NewRandomSelectionPolicy() *RandomSelectionPolicy {
	return &RandomSelectionPolicy{rng: thrand.NewSource(0)}
}

// Apply implements SelectionPolicy.
func (r *RandomSelectionPolicy) Apply(list *BestList, policy fitness.Policy) (*thmath.Solution, error) {
	if list.Size() == 0 {
		return nil, ErrEmptyList
	}
	pos := r.rng.Intn(list.Size())
	if s := list.At(pos); s != nil {
		return s, nil
	}
	for i := 0; i < list.Size(); i++ {
		if s := list.At(i); s != nil {
			return s, nil
		}
	}
	return nil, ErrEmptyList
}
