package region

import (
	"github.com/th-cooperative/treasurehunt/pkg/thmath"
	"github.com/th-cooperative/treasurehunt/pkg/thtree"
)

// GroupSelectionPolicy partitions the search space by grouping
// dimensions: every dimension inside the same group is partitioned
// proportionally at the same positions, K ways per tree level, and the
// anchor sub-region is picked by following the node's path from the
// root down through its K-ary group coordinates.
type GroupSelectionPolicy struct {
	Identity
	nGroups int
	k       int
}

// NewGroupSelectionPolicy builds a policy that partitions dimensions
// into nGroups groups, each split K ways per tree level.
func NewGroupSelectionPolicy(nGroups, k int) *GroupSelectionPolicy {
	if nGroups <= 0 || k <= 0 {
		panic("region: nGroups and k must be positive")
	}
	return &GroupSelectionPolicy{nGroups: nGroups, k: k}
}

// Apply implements SelectionPolicy.
func (g *GroupSelectionPolicy) Apply(space *thmath.SearchSpace, tree *thtree.Tree, id int) (*thmath.Region, error) {
	node, err := tree.Node(id)
	if err != nil {
		return nil, ErrNodeNotFound
	}

	hierarchy := []int{node.ID()}
	root := tree.RootNode()
	for parent := node.Parent(); parent != nil && parent != root; parent = parent.Parent() {
		hierarchy = append(hierarchy, parent.ID())
	}

	result := g.internalLoop(space.Region, hierarchy, root, id)
	if result == nil {
		return nil, ErrNodeNotFound
	}
	return result, nil
}

// internalLoop descends from node toward the node identified by id,
// following hierarchy (the id's ancestor chain, nearest-to-root last),
// narrowing region's partitions by one K-ary group coordinate per
// level until the target node is reached.
func (g *GroupSelectionPolicy) internalLoop(region *thmath.Region, hierarchy []int, node *thtree.Node, id int) *thmath.Region {
	if node.ID() == id {
		return region.Clone()
	}

	top := len(hierarchy) - 1
	for childPos, child := range node.Children() {
		if child.ID() != hierarchy[top] {
			continue
		}

		coord := make([]int, g.nGroups)
		pos := childPos
		for gi := g.nGroups - 1; gi >= 0; gi-- {
			base := intPow(g.k, gi)
			if base <= pos {
				coord[gi] = pos / base
				pos %= base
			}
		}

		nDim := region.NDimensions()
		dimPerGroup := nDim / g.nGroups
		subRegion := region.Clone()
		gi := 0
		for d := 0; d < nDim; d++ {
			partition := region.Partition(d)
			delta := (partition.EndPoint - partition.StartPoint) / float64(g.k)
			minimum := partition.StartPoint + float64(coord[gi])*delta

			sub := subRegion.Partition(d)
			sub.StartPoint = minimum
			if coord[gi] < g.k-1 {
				sub.EndPoint = minimum + delta
			} else {
				sub.EndPoint = partition.EndPoint
			}

			if (d+1)%dimPerGroup == 0 {
				gi++
			}
		}

		return g.internalLoop(subRegion, hierarchy[:top], child, id)
	}

	return nil
}

func intPow(base, exp int) int {
	result := 1
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}
