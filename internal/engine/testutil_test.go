package engine

import (
	"testing"

	"github.com/th-cooperative/treasurehunt/internal/transport/chantransport"
	"github.com/th-cooperative/treasurehunt/pkg/hillclimb"
	"github.com/th-cooperative/treasurehunt/pkg/rosenbrock"
	"github.com/th-cooperative/treasurehunt/pkg/search"
	"github.com/th-cooperative/treasurehunt/pkg/thmath"
	"github.com/th-cooperative/treasurehunt/pkg/thtree"
)

// twoDimensionalSpace builds a small [-5, 5]^2 search space, enough to
// exercise every policy without a long-running convergence loop.
func twoDimensionalSpace() *thmath.SearchSpace {
	return thmath.NewSearchSpace([]*thmath.Dimension{
		thmath.NewDimension(0, -5, 5),
		thmath.NewDimension(1, -5, 5),
	})
}

// singleNodeTree builds a one-node (root-only) locked tree, the case
// where the startup barrier and finalize handshake are both skipped.
func singleNodeTree(t *testing.T) *thtree.Tree {
	t.Helper()
	tree := thtree.New(1)
	if _, err := tree.AddRootNode(0); err != nil {
		t.Fatalf("AddRootNode: %v", err)
	}
	tree.Lock()
	return tree
}

// starTree builds a root with n leaf children, all locked.
func starTree(t *testing.T, n int) *thtree.Tree {
	t.Helper()
	tree := thtree.New(n + 1)
	if _, err := tree.AddRootNode(0); err != nil {
		t.Fatalf("AddRootNode: %v", err)
	}
	for i := 1; i <= n; i++ {
		if _, err := tree.AddNode(i, 0); err != nil {
			t.Fatalf("AddNode(%d): %v", i, err)
		}
	}
	tree.Lock()
	return tree
}

// minimalConfig returns an engine Config with the fewest collaborators
// Build requires explicitly set: tree, search space, fitness policy,
// transport, one algorithm, and one positive budget. Every pluggable
// policy is left nil so Build exercises its spec-defaulted values.
func minimalConfig(t *testing.T, tree *thtree.Tree, net *chantransport.Network, id int, maxIterations int64) Config {
	t.Helper()
	node, err := net.Node(id)
	if err != nil {
		t.Fatalf("net.Node(%d): %v", id, err)
	}
	return Config{
		Tree:          tree,
		SearchSpace:   twoDimensionalSpace(),
		FitnessPolicy: rosenbrock.New(),
		Transport:     node,
		Algorithms:    []*search.Score{search.NewScore(hillclimb.New(0.1, 1e-2, 4), 1)},
		MaxIterations: maxIterations,
	}
}
