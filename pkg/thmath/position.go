// Package thmath implements the runtime-sized numeric vector types shared
// across the optimizer: Position, Fitness, Violation, Solution, and the
// search-space shapes (Dimension, Partition, Region, SearchSpace).
//
// The original C++ framework exposed these as compile-time template
// parameters (P, pSize, F, fSize, V, vSize). Here the widths are fixed once
// per run and carried as a field, with shape validation on assignment and
// arithmetic.
package thmath

import "fmt"

// Position is a fixed-width numeric tuple representing one location within
// a single dimension of the search space.
type Position struct {
	values []float64
}

// NewPosition allocates a zeroed Position of the given width.
func NewPosition(size int) *Position {
	if size <= 0 {
		panic("thmath: position size must be positive")
	}
	return &Position{values: make([]float64, size)}
}

// NewPositionFrom copies the given buffer into a new Position.
func NewPositionFrom(buf []float64) *Position {
	p := NewPosition(len(buf))
	copy(p.values, buf)
	return p
}

// Size returns the number of elements in the position.
func (p *Position) Size() int { return len(p.values) }

func (p *Position) checkCompatible(other *Position) {
	if other == nil {
		panic("thmath: position cannot be nil")
	}
	if p.Size() != other.Size() {
		panic(fmt.Sprintf("thmath: position sizes are not compatible [%d != %d]", p.Size(), other.Size()))
	}
}

// Set overrides the contents of this position with another position's.
func (p *Position) Set(other *Position) {
	p.checkCompatible(other)
	copy(p.values, other.values)
}

// SetBuffer overrides the contents from a raw buffer of matching size.
func (p *Position) SetBuffer(buf []float64) {
	if len(buf) != p.Size() {
		panic(fmt.Sprintf("thmath: buffer size not compatible [%d != %d]", len(buf), p.Size()))
	}
	copy(p.values, buf)
}

// Fill assigns the same scalar value to every element.
func (p *Position) Fill(value float64) {
	for i := range p.values {
		p.values[i] = value
	}
}

// Equals reports whether two positions hold the same values.
func (p *Position) Equals(other *Position) bool {
	if other == nil {
		return false
	}
	p.checkCompatible(other)
	for i, v := range p.values {
		if v != other.values[i] {
			return false
		}
	}
	return true
}

// Add adds a scalar to every element.
func (p *Position) Add(value float64) {
	for i := range p.values {
		p.values[i] += value
	}
}

// AddPosition adds another position elementwise.
func (p *Position) AddPosition(other *Position) {
	p.checkCompatible(other)
	for i := range p.values {
		p.values[i] += other.values[i]
	}
}

// Sub subtracts a scalar from every element.
func (p *Position) Sub(value float64) {
	for i := range p.values {
		p.values[i] -= value
	}
}

// SubPosition subtracts another position elementwise.
func (p *Position) SubPosition(other *Position) {
	p.checkCompatible(other)
	for i := range p.values {
		p.values[i] -= other.values[i]
	}
}

// Mult multiplies every element by a scalar.
func (p *Position) Mult(value float64) {
	for i := range p.values {
		p.values[i] *= value
	}
}

// MultPosition multiplies another position elementwise.
func (p *Position) MultPosition(other *Position) {
	p.checkCompatible(other)
	for i := range p.values {
		p.values[i] *= other.values[i]
	}
}

// AdjustUpperBound clamps every element to at most maxPos.
func (p *Position) AdjustUpperBound(maxPos float64) {
	for i, v := range p.values {
		if v > maxPos {
			p.values[i] = maxPos
		}
	}
}

// AdjustLowerBound clamps every element to at least minPos.
func (p *Position) AdjustLowerBound(minPos float64) {
	for i, v := range p.values {
		if v < minPos {
			p.values[i] = minPos
		}
	}
}

// FirstValue returns element 0, used when the position is effectively scalar.
func (p *Position) FirstValue() float64 { return p.values[0] }

// LowerValue returns the smallest element, used when the dimension is
// represented by a composite value.
func (p *Position) LowerValue() float64 {
	lower := p.values[0]
	for _, v := range p.values[1:] {
		if v < lower {
			lower = v
		}
	}
	return lower
}

// UpperValue returns the largest element.
func (p *Position) UpperValue() float64 {
	upper := p.values[0]
	for _, v := range p.values[1:] {
		if v > upper {
			upper = v
		}
	}
	return upper
}

// SumInternalValues returns the sum of all elements.
func (p *Position) SumInternalValues() float64 {
	var sum float64
	for _, v := range p.values {
		sum += v
	}
	return sum
}

// Values returns the underlying slice. Callers must not retain it past
// the next mutation of the Position.
func (p *Position) Values() []float64 { return p.values }

// Clone returns an independent copy.
func (p *Position) Clone() *Position {
	return NewPositionFrom(p.values)
}
