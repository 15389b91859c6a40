// Package region implements RegionSelectionPolicy, the pluggable
// partitioning rule that slices the full search space into one
// "anchor" sub-region per tree node, and its default implementation
// based on grouping dimensions and partitioning them K ways per tree
// level.
package region

import (
	"errors"

	"github.com/th-cooperative/treasurehunt/pkg/iterdata"
	"github.com/th-cooperative/treasurehunt/pkg/thmath"
	"github.com/th-cooperative/treasurehunt/pkg/thtree"
)

// ErrNodeNotFound is returned when a policy is asked to partition the
// search space for an ID absent from the tree.
var ErrNodeNotFound = errors.New("region: node not found in tree")

// SelectionPolicy partitions a SearchSpace to match a tree topology and
// chooses one "anchor" sub-region per node ID.
type SelectionPolicy interface {
	// Apply partitions the search space and returns the anchor
	// sub-region for the given node ID.
	Apply(space *thmath.SearchSpace, tree *thtree.Tree, id int) (*thmath.Region, error)

	// Recalculate is consulted once per TH iteration and may return a
	// new anchor sub-region in response to iterationData. The default
	// behavior (see Identity) returns subRegion unchanged.
	Recalculate(data *iterdata.IterationData, space *thmath.SearchSpace, subRegion *thmath.Region, tree *thtree.Tree, id int) *thmath.Region
}

// Identity is the default, no-op Recalculate behavior: the anchor
// sub-region never changes once assigned. Embed this in a concrete
// SelectionPolicy to opt out of dynamic recalculation.
type Identity struct{}

// Recalculate implements SelectionPolicy by returning subRegion
// unchanged.
func (Identity) Recalculate(data *iterdata.IterationData, space *thmath.SearchSpace, subRegion *thmath.Region, tree *thtree.Tree, id int) *thmath.Region {
	return subRegion
}
