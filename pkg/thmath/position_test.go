package thmath

import "testing"

func TestPositionAddAndMult(t *testing.T) {
	p := NewPositionFrom([]float64{1, 2, 3})
	p.Add(1)
	if got := p.Values(); got[0] != 2 || got[1] != 3 || got[2] != 4 {
		t.Errorf("Add(1) = %v, want [2 3 4]", got)
	}
	p.Mult(2)
	if got := p.Values(); got[0] != 4 || got[1] != 6 || got[2] != 8 {
		t.Errorf("Mult(2) = %v, want [4 6 8]", got)
	}
}

func TestPositionAddPositionRequiresMatchingSize(t *testing.T) {
	a := NewPosition(2)
	b := NewPosition(3)

	defer func() {
		if recover() == nil {
			t.Error("AddPosition across mismatched sizes should panic")
		}
	}()
	a.AddPosition(b)
}

func TestPositionAdjustBoundsClamps(t *testing.T) {
	p := NewPositionFrom([]float64{-5, 0, 5})
	p.AdjustLowerBound(-1)
	p.AdjustUpperBound(1)
	want := []float64{-1, 0, 1}
	for i, w := range want {
		if got := p.Values()[i]; got != w {
			t.Errorf("Values()[%d] = %v, want %v", i, got, w)
		}
	}
}

func TestPositionLowerUpperAndSum(t *testing.T) {
	p := NewPositionFrom([]float64{3, -2, 7})
	if got := p.LowerValue(); got != -2 {
		t.Errorf("LowerValue() = %v, want -2", got)
	}
	if got := p.UpperValue(); got != 7 {
		t.Errorf("UpperValue() = %v, want 7", got)
	}
	if got := p.SumInternalValues(); got != 8 {
		t.Errorf("SumInternalValues() = %v, want 8", got)
	}
}

func TestPositionEquals(t *testing.T) {
	a := NewPositionFrom([]float64{1, 2})
	b := NewPositionFrom([]float64{1, 2})
	c := NewPositionFrom([]float64{1, 3})
	if !a.Equals(b) {
		t.Error("Equals on identical positions should be true")
	}
	if a.Equals(c) {
		t.Error("Equals on differing positions should be false")
	}
}

func TestFitnessSetAndEquals(t *testing.T) {
	f := NewFitness(1)
	other := NewFitnessFrom([]float64{4.2})
	f.Set(other)
	if !f.Equals(other) {
		t.Error("Fitness after Set should equal its source")
	}
	if f.FirstValue() != 4.2 {
		t.Errorf("FirstValue() = %v, want 4.2", f.FirstValue())
	}
}
