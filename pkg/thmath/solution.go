package thmath

import (
	"fmt"

	"github.com/th-cooperative/treasurehunt/pkg/thrand"
)

// Solution is a population individual: an ordered list of n Positions
// plus one Fitness and one Violation. n is fixed at construction;
// assignment from another Solution requires matching n.
type Solution struct {
	positions []*Position
	fitness   *Fitness
	violation *Violation
	rng       *thrand.Source
}

// NewSolution allocates a Solution with n dimensions, each Position sized
// posSize, and the given Fitness/Violation widths. Positions start at zero
// and must be populated via Reset or direct assignment.
func NewSolution(n, posSize, fitSize, violSize int) *Solution {
	if n <= 0 {
		panic("thmath: solution dimension count must be positive")
	}
	positions := make([]*Position, n)
	for i := range positions {
		positions[i] = NewPosition(posSize)
	}
	return &Solution{
		positions: positions,
		fitness:   NewFitness(fitSize),
		violation: NewViolation(violSize),
		rng:       thrand.NewSource(0),
	}
}

// NDimensions returns n.
func (s *Solution) NDimensions() int { return len(s.positions) }

// Position returns the Position at dimension index i.
func (s *Solution) Position(i int) *Position { return s.positions[i] }

// Fitness returns the solution's Fitness.
func (s *Solution) Fitness() *Fitness { return s.fitness }

// Violation returns the solution's Violation.
func (s *Solution) Violation() *Violation { return s.violation }

// SetFitness overrides the fitness from a raw buffer.
func (s *Solution) SetFitness(buf []float64) { s.fitness.SetBuffer(buf) }

// SetViolation overrides the violation from a raw buffer.
func (s *Solution) SetViolation(buf []float64) { s.violation.SetBuffer(buf) }

func (s *Solution) checkCompatible(other *Solution) {
	if other == nil {
		panic("thmath: solution cannot be nil")
	}
	if s.NDimensions() != other.NDimensions() {
		panic(fmt.Sprintf("thmath: solution dimension counts are not compatible [%d != %d]", s.NDimensions(), other.NDimensions()))
	}
}

// Set overrides this solution's positions, fitness, and violation with
// another solution's.
func (s *Solution) Set(other *Solution) {
	s.checkCompatible(other)
	for i, pos := range s.positions {
		pos.Set(other.positions[i])
	}
	s.fitness.Set(other.fitness)
	s.violation.Set(other.violation)
}

// Clone returns an independent deep copy.
func (s *Solution) Clone() *Solution {
	clone := NewSolution(len(s.positions), s.positions[0].Size(), s.fitness.Size(), s.violation.Size())
	clone.Set(s)
	return clone
}

// randNormalBounded draws from a normal(0.5, 1) distribution clamped to
// [0, 1.1] and rescaled into [a, b], matching the original framework's
// "reset close to bias" draw.
func randNormalBounded(rng *thrand.Source, a, b float64) float64 {
	if a == b {
		return a
	}
	n := rng.NormFloat64(0.5, 1)
	if n < 0 {
		n = 0
	} else if n > 1.1 {
		n = 1.1
	}
	return a + n*(b-a)
}

// Reset draws a fresh position for every dimension inside the given
// anchor Region. With no bias, every dimension is drawn uniformly within
// its anchor partition. With a bias, each dimension independently draws
// (with probability 0.5) a Gaussian-centred value near the bias's
// lower/upper internal value, or else copies the bias's position
// verbatim. The result is always re-clamped to the anchor's bounds.
func (s *Solution) Reset(region *Region, bias *Solution) {
	if region == nil {
		panic("thmath: region cannot be nil")
	}
	if s.NDimensions() != region.NDimensions() {
		panic("thmath: solution and region dimension counts do not match")
	}
	for i, pos := range s.positions {
		partition := region.Partition(i)
		if bias != nil {
			biasPos := bias.Position(i)
			if s.rng.Float64() < 0.5 {
				pos.Fill(randNormalBounded(s.rng, biasPos.LowerValue()*0.99, biasPos.UpperValue()*1.01))
			} else {
				pos.Set(biasPos)
			}
		} else {
			pos.Fill(s.rng.UniformFloat64(partition.StartPoint, partition.EndPoint))
		}
		pos.AdjustUpperBound(partition.EndPoint)
		pos.AdjustLowerBound(partition.StartPoint)
	}
}
