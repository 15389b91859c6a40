// Package config loads and validates a TH node's run configuration: its
// position in the tree topology, how to reach its neighbors, the bounded
// search space and objective it optimizes, its budgets, and the
// pluggable policies the engine builds against.
package config

// Config is one node's complete run configuration, typically loaded from
// a YAML file shared (with a different NodeID) across every process in
// the deployment.
type Config struct {
	LogLevel string `yaml:"log_level"`

	NodeID int `yaml:"node_id"`

	Tree      TreeConfig      `yaml:"tree"`
	Transport TransportConfig `yaml:"transport"`

	SearchSpace SearchSpaceConfig `yaml:"search_space"`
	Fitness     FitnessConfig     `yaml:"fitness"`
	Budgets     BudgetsConfig     `yaml:"budgets"`

	Policies   PoliciesConfig    `yaml:"policies,omitempty"`
	Algorithms []AlgorithmConfig `yaml:"algorithms"`

	Bias             *SolutionConfig  `yaml:"bias,omitempty"`
	StartupSolutions []SolutionConfig `yaml:"startup_solutions,omitempty"`
}

// TreeConfig describes the shared tree topology every node in the
// deployment must agree on byte for byte.
type TreeConfig struct {
	Nodes []TreeNodeConfig `yaml:"nodes"`
}

// TreeNodeConfig names one process's ID and its parent's ID. The root
// node's ParentID is -1.
type TreeNodeConfig struct {
	ID       int `yaml:"id"`
	ParentID int `yaml:"parent_id"`
}

// TransportConfig names how this node reaches its tree neighbors.
type TransportConfig struct {
	ListenAddr string     `yaml:"listen_addr"`
	ParentAddr string     `yaml:"parent_addr,omitempty"`
	Children   []PeerAddr `yaml:"children,omitempty"`
}

// PeerAddr names one child's process ID and dial address.
type PeerAddr struct {
	ID   int    `yaml:"id"`
	Addr string `yaml:"addr"`
}

// SearchSpaceConfig is the full bounded search space, shared by every
// node in the deployment.
type SearchSpaceConfig struct {
	Dimensions []DimensionConfig `yaml:"dimensions"`
}

// DimensionConfig is one dimension's inclusive bounds.
type DimensionConfig struct {
	ID  int     `yaml:"id"`
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// FitnessConfig names the objective function this run optimizes.
type FitnessConfig struct {
	// Policy is the registered FitnessPolicy name. Only "rosenbrock" is
	// built in; real deployments supply their own objective and extend
	// this set.
	Policy string `yaml:"policy"`
}

// BudgetsConfig bounds how long a node runs before entering residual
// drain. At least one of these must be positive; 0 means unlimited for
// that dimension.
type BudgetsConfig struct {
	MaxIterations        int64 `yaml:"max_iterations"`
	MaxNumberEvaluations int64 `yaml:"max_evaluations"`
	MaxTimeSeconds       int64 `yaml:"max_time_seconds"`
}

// PoliciesConfig selects and parameterizes the engine's pluggable
// collaborators. Every field is optional; Build falls back to the
// spec-defaulted policy when a section is omitted.
type PoliciesConfig struct {
	RegionSelection    *RegionSelectionConfig    `yaml:"region_selection,omitempty"`
	Relocation         *RelocationConfig         `yaml:"relocation,omitempty"`
	BestList           *BestListConfig           `yaml:"best_list,omitempty"`
	Convergence        *ConvergenceConfig        `yaml:"convergence,omitempty"`
	LocalSearch        *AlgorithmConfig          `yaml:"local_search,omitempty"`
	AlgorithmSelection *AlgorithmSelectionConfig `yaml:"algorithm_selection,omitempty"`
}

// RegionSelectionConfig configures the search-space partitioning
// policy. Only "group" is built in.
type RegionSelectionConfig struct {
	Type   string `yaml:"type"`
	Groups int    `yaml:"groups,omitempty"`
	K      int    `yaml:"k,omitempty"`
}

// RelocationConfig configures the population relocation policy. Type is
// "beta-linear" (default) or "beta-ip".
type RelocationConfig struct {
	Type                 string  `yaml:"type"`
	BetaStartingPerc     float64 `yaml:"beta_starting_perc,omitempty"`
	BetaMax              float64 `yaml:"beta_max,omitempty"`
	BetaAccelerationCoef float64 `yaml:"beta_acceleration_coef,omitempty"`

	// BoostCurve, BoostInc, and MaxTries only apply to "beta-ip".
	BoostCurve string  `yaml:"boost_curve,omitempty"` // linear, sigmoid, exponential
	BoostInc   float64 `yaml:"boost_inc,omitempty"`
	MaxTries   int     `yaml:"max_tries,omitempty"`
}

// BestListConfig configures the node's best-list capacity and its
// update/selection policies.
type BestListConfig struct {
	Size      int    `yaml:"size,omitempty"`
	Update    string `yaml:"update,omitempty"`    // convergent (default) or divergent
	Selection string `yaml:"selection,omitempty"` // random (default)
}

// ConvergenceConfig configures the per-iteration convergence controller.
// Only "csmon" is built in.
type ConvergenceConfig struct {
	Type string  `yaml:"type"`
	M    int     `yaml:"m,omitempty"`
	R    float64 `yaml:"r,omitempty"`
}

// AlgorithmSelectionConfig configures how the SearchGroup chooses among
// its registered Algorithms each iteration.
type AlgorithmSelectionConfig struct {
	Type string `yaml:"type"` // round_robin (default) or single
}

// AlgorithmConfig registers one Search algorithm, or (when used under
// PoliciesConfig.LocalSearch) configures the child-refinement algorithm.
// Only "hillclimb" is built in.
type AlgorithmConfig struct {
	Type         string  `yaml:"type"`
	Weight       float64 `yaml:"weight,omitempty"`
	MoveProb     float64 `yaml:"move_prob"`
	Step         float64 `yaml:"step"`
	Population   int     `yaml:"population"`
	MaxNoImprove int     `yaml:"max_no_improve,omitempty"`
}

// SolutionConfig is a fixed position in the search space, used for Bias
// and StartupSolutions (both honored only at the root node).
type SolutionConfig struct {
	Position []float64 `yaml:"position"`
}
