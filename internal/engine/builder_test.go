package engine

import (
	"errors"
	"testing"

	"github.com/th-cooperative/treasurehunt/internal/transport/chantransport"
	"github.com/th-cooperative/treasurehunt/pkg/hillclimb"
	"github.com/th-cooperative/treasurehunt/pkg/search"
	"github.com/th-cooperative/treasurehunt/pkg/thtree"
)

func TestBuildRequiresCollaborators(t *testing.T) {
	tree := singleNodeTree(t)
	net, err := chantransport.Build(tree)
	if err != nil {
		t.Fatalf("chantransport.Build: %v", err)
	}
	cfg := minimalConfig(t, tree, net, 0, 10)

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"nil tree", func(c *Config) { c.Tree = nil }},
		{"nil search space", func(c *Config) { c.SearchSpace = nil }},
		{"nil fitness policy", func(c *Config) { c.FitnessPolicy = nil }},
		{"nil transport", func(c *Config) { c.Transport = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bad := cfg
			tc.mutate(&bad)
			if _, err := Build(bad); !errors.Is(err, ErrMissingCollaborator) {
				t.Errorf("Build: got %v, want ErrMissingCollaborator", err)
			}
		})
	}
}

func TestBuildRequiresLockedTree(t *testing.T) {
	tree := thtree.New(1)
	if _, err := tree.AddRootNode(0); err != nil {
		t.Fatalf("AddRootNode: %v", err)
	}
	// deliberately not locked
	net, err := chantransport.Build(singleNodeTree(t))
	if err != nil {
		t.Fatalf("chantransport.Build: %v", err)
	}
	cfg := minimalConfig(t, tree, net, 0, 10)
	if _, err := Build(cfg); !errors.Is(err, ErrTreeNotLocked) {
		t.Errorf("Build: got %v, want ErrTreeNotLocked", err)
	}
}

func TestBuildRequiresAtLeastOneAlgorithm(t *testing.T) {
	tree := singleNodeTree(t)
	net, err := chantransport.Build(tree)
	if err != nil {
		t.Fatalf("chantransport.Build: %v", err)
	}
	cfg := minimalConfig(t, tree, net, 0, 10)
	cfg.Algorithms = nil
	if _, err := Build(cfg); !errors.Is(err, search.ErrNoAlgorithms) {
		t.Errorf("Build: got %v, want ErrNoAlgorithms", err)
	}
}

func TestBuildRequiresAtLeastOneBudget(t *testing.T) {
	tree := singleNodeTree(t)
	net, err := chantransport.Build(tree)
	if err != nil {
		t.Fatalf("chantransport.Build: %v", err)
	}
	cfg := minimalConfig(t, tree, net, 0, 0)
	if _, err := Build(cfg); !errors.Is(err, ErrNoBudget) {
		t.Errorf("Build: got %v, want ErrNoBudget", err)
	}
}

func TestBuildAppliesDefaultsAndSeedsState(t *testing.T) {
	tree := singleNodeTree(t)
	net, err := chantransport.Build(tree)
	if err != nil {
		t.Fatalf("chantransport.Build: %v", err)
	}
	cfg := minimalConfig(t, tree, net, 0, 10)

	e, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if e.ID() != 0 {
		t.Errorf("ID() = %d, want 0", e.ID())
	}
	if e.group.PopulationSize() != 4 {
		t.Errorf("population size = %d, want 4 (hillclimb's preferred size)", e.group.PopulationSize())
	}
	if e.bestListSelect == nil {
		t.Error("BestListSelectionPolicy default was not applied")
	}
	if e.relocation == nil || e.relocationData == nil {
		t.Error("RelocationPolicy/RelocationData defaults were not applied")
	}
	if e.localSearch == nil {
		t.Error("LocalSearchAlgorithm default was not applied")
	}
	if e.BestList().Size() != 1 {
		t.Errorf("BestList().Size() = %d, want the default capacity of 1", e.BestList().Size())
	}
}

func TestBuildHonorsExplicitLocalSearchAlgorithm(t *testing.T) {
	tree := singleNodeTree(t)
	net, err := chantransport.Build(tree)
	if err != nil {
		t.Fatalf("chantransport.Build: %v", err)
	}
	cfg := minimalConfig(t, tree, net, 0, 10)
	custom := hillclimb.New(0.2, 1e-2, 1)
	cfg.LocalSearchAlgorithm = custom

	e, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if e.localSearch != custom {
		t.Error("Build overwrote an explicitly configured LocalSearchAlgorithm")
	}
}
