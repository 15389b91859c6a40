package config

import (
	"fmt"
	"os"
)

// LoadConfig loads and parses a node configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// validateConfig performs validation on the configuration.
func validateConfig(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if cfg.LogLevel != "" && !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	nodeIDs, err := validateTree(&cfg.Tree)
	if err != nil {
		return fmt.Errorf("tree validation failed: %w", err)
	}
	if !nodeIDs[cfg.NodeID] {
		return fmt.Errorf("node_id %d does not appear in tree.nodes", cfg.NodeID)
	}

	if err := validateSearchSpace(&cfg.SearchSpace); err != nil {
		return fmt.Errorf("search_space validation failed: %w", err)
	}

	if cfg.Fitness.Policy == "" {
		return fmt.Errorf("fitness.policy cannot be empty")
	}

	if err := validateBudgets(&cfg.Budgets); err != nil {
		return fmt.Errorf("budgets validation failed: %w", err)
	}

	if err := validateAlgorithms(cfg.Algorithms); err != nil {
		return fmt.Errorf("algorithms validation failed: %w", err)
	}

	if err := validatePolicies(&cfg.Policies); err != nil {
		return fmt.Errorf("policies validation failed: %w", err)
	}

	dims := len(cfg.SearchSpace.Dimensions)
	if cfg.Bias != nil && len(cfg.Bias.Position) != dims {
		return fmt.Errorf("bias position has %d dimensions, want %d", len(cfg.Bias.Position), dims)
	}
	for i, sol := range cfg.StartupSolutions {
		if len(sol.Position) != dims {
			return fmt.Errorf("startup_solutions[%d] has %d dimensions, want %d", i, len(sol.Position), dims)
		}
	}

	return nil
}

// validateTree validates the tree topology and returns the set of node IDs
// it defines.
func validateTree(tc *TreeConfig) (map[int]bool, error) {
	if len(tc.Nodes) == 0 {
		return nil, fmt.Errorf("at least one node must be defined")
	}

	nodeIDs := make(map[int]bool)
	rootCount := 0
	for _, n := range tc.Nodes {
		if nodeIDs[n.ID] {
			return nil, fmt.Errorf("duplicate node id: %d", n.ID)
		}
		nodeIDs[n.ID] = true
		if n.ParentID == -1 {
			rootCount++
		}
	}
	if rootCount != 1 {
		return nil, fmt.Errorf("exactly one node must have parent_id -1 (the root), found %d", rootCount)
	}
	for _, n := range tc.Nodes {
		if n.ParentID != -1 && !nodeIDs[n.ParentID] {
			return nil, fmt.Errorf("node %d references unknown parent_id %d", n.ID, n.ParentID)
		}
	}

	return nodeIDs, nil
}

// validateSearchSpace validates the bounded search space.
func validateSearchSpace(sc *SearchSpaceConfig) error {
	if len(sc.Dimensions) == 0 {
		return fmt.Errorf("at least one dimension must be defined")
	}
	dimIDs := make(map[int]bool)
	for _, d := range sc.Dimensions {
		if dimIDs[d.ID] {
			return fmt.Errorf("duplicate dimension id: %d", d.ID)
		}
		dimIDs[d.ID] = true
		if d.Min >= d.Max {
			return fmt.Errorf("dimension %d: min (%f) must be less than max (%f)", d.ID, d.Min, d.Max)
		}
	}
	return nil
}

// validateBudgets validates that at least one budget ceiling is configured
// and that none are negative.
func validateBudgets(bc *BudgetsConfig) error {
	if bc.MaxIterations < 0 || bc.MaxNumberEvaluations < 0 || bc.MaxTimeSeconds < 0 {
		return fmt.Errorf("budgets cannot be negative")
	}
	if bc.MaxIterations == 0 && bc.MaxNumberEvaluations == 0 && bc.MaxTimeSeconds == 0 {
		return fmt.Errorf("at least one of max_iterations, max_evaluations, or max_time_seconds must be positive")
	}
	return nil
}

// validateAlgorithms validates the registered search algorithms.
func validateAlgorithms(algos []AlgorithmConfig) error {
	if len(algos) == 0 {
		return fmt.Errorf("at least one algorithm must be defined")
	}
	validTypes := map[string]bool{
		"hillclimb": true,
	}
	for i, a := range algos {
		if !validTypes[a.Type] {
			return fmt.Errorf("algorithms[%d]: unknown type %s", i, a.Type)
		}
		if a.Population <= 0 {
			return fmt.Errorf("algorithms[%d]: population must be positive", i)
		}
	}
	return nil
}

// validatePolicies validates the optional pluggable-policy overrides.
func validatePolicies(p *PoliciesConfig) error {
	if p.RegionSelection != nil {
		rs := p.RegionSelection
		if rs.Type != "" && rs.Type != "group" {
			return fmt.Errorf("region_selection: unknown type %s", rs.Type)
		}
	}

	if p.Relocation != nil {
		r := p.Relocation
		validTypes := map[string]bool{"": true, "beta-linear": true, "beta-ip": true}
		if !validTypes[r.Type] {
			return fmt.Errorf("relocation: unknown type %s", r.Type)
		}
		if r.Type == "beta-ip" {
			validCurves := map[string]bool{"": true, "linear": true, "sigmoid": true, "exponential": true}
			if !validCurves[r.BoostCurve] {
				return fmt.Errorf("relocation: unknown boost_curve %s", r.BoostCurve)
			}
		}
	}

	if p.BestList != nil {
		bl := p.BestList
		if bl.Size < 0 {
			return fmt.Errorf("best_list: size cannot be negative")
		}
		validUpdate := map[string]bool{"": true, "convergent": true, "divergent": true}
		if !validUpdate[bl.Update] {
			return fmt.Errorf("best_list: unknown update policy %s", bl.Update)
		}
	}

	if p.Convergence != nil {
		c := p.Convergence
		if c.Type != "" && c.Type != "csmon" {
			return fmt.Errorf("convergence: unknown type %s", c.Type)
		}
	}

	if p.LocalSearch != nil && p.LocalSearch.Type != "" && p.LocalSearch.Type != "hillclimb" {
		return fmt.Errorf("local_search: unknown type %s", p.LocalSearch.Type)
	}

	if p.AlgorithmSelection != nil {
		validSel := map[string]bool{"": true, "round_robin": true, "single": true}
		if !validSel[p.AlgorithmSelection.Type] {
			return fmt.Errorf("algorithm_selection: unknown type %s", p.AlgorithmSelection.Type)
		}
	}

	return nil
}
