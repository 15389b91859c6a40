package search

import "testing"

func TestNewScoreDefaultsWeightToOne(t *testing.T) {
	score := NewScore(nil, 0)
	if score.Weight != 1 {
		t.Errorf("Weight = %v, want 1 when constructed with weight 0", score.Weight)
	}
	if score.Value != 1 {
		t.Errorf("Value = %v, want 1", score.Value)
	}
}

func TestNewScoreKeepsConfiguredWeight(t *testing.T) {
	score := NewScore(nil, 2.5)
	if score.Weight != 2.5 {
		t.Errorf("Weight = %v, want 2.5", score.Weight)
	}
}
