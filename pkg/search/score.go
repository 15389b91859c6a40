package search

// Score pairs a registered Search algorithm with the bookkeeping a
// SearchAlgorithmSelectionPolicy uses to choose and rank it: a
// configured weight plus a running score.
type Score struct {
	Algorithm Search
	Weight    float64
	Value     float64
}

// NewScore wraps an algorithm with its weight, initializing the running
// score to 1 as the original framework does.
func NewScore(algorithm Search, weight float64) *Score {
	if weight == 0 {
		weight = 1
	}
	return &Score{Algorithm: algorithm, Weight: weight, Value: 1}
}
