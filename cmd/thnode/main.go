package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/th-cooperative/treasurehunt/internal/engine"
	"github.com/th-cooperative/treasurehunt/internal/transport/grpctransport"
	"github.com/th-cooperative/treasurehunt/pkg/bestlist"
	"github.com/th-cooperative/treasurehunt/pkg/config"
	"github.com/th-cooperative/treasurehunt/pkg/csmon"
	"github.com/th-cooperative/treasurehunt/pkg/fitness"
	"github.com/th-cooperative/treasurehunt/pkg/hillclimb"
	"github.com/th-cooperative/treasurehunt/pkg/logger"
	"github.com/th-cooperative/treasurehunt/pkg/region"
	"github.com/th-cooperative/treasurehunt/pkg/relocation"
	"github.com/th-cooperative/treasurehunt/pkg/rosenbrock"
	"github.com/th-cooperative/treasurehunt/pkg/search"
	"github.com/th-cooperative/treasurehunt/pkg/thmath"
	"github.com/th-cooperative/treasurehunt/pkg/thtree"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to the node's YAML configuration")
	flag.Parse()

	if configPath == "" {
		fmt.Fprintln(os.Stderr, "thnode: -config is required")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "thnode: %v\n", err)
		os.Exit(1)
	}

	logger.SetDefault(logger.NewText(cfg.LogLevel, os.Stdout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engineCfg, err := buildEngineConfig(cfg)
	if err != nil {
		logger.Error("failed to build engine configuration", "error", err)
		os.Exit(1)
	}

	e, err := engine.Build(engineCfg)
	if err != nil {
		logger.Error("failed to build engine", "node_id", cfg.NodeID, "error", err)
		os.Exit(1)
	}

	logger.Info("thnode starting", "node_id", cfg.NodeID)
	if err := e.Run(ctx); err != nil {
		logger.Error("engine run failed", "node_id", cfg.NodeID, "error", err)
		os.Exit(1)
	}
	logger.Info("thnode finished", "node_id", cfg.NodeID)
}

// buildEngineConfig translates a loaded pkg/config.Config into an
// engine.Config, resolving every pluggable-policy name to a concrete
// collaborator and wiring up the node's gRPC transport links.
func buildEngineConfig(cfg *config.Config) (engine.Config, error) {
	tree, err := buildTree(&cfg.Tree)
	if err != nil {
		return engine.Config{}, fmt.Errorf("building tree: %w", err)
	}

	space, err := buildSearchSpace(&cfg.SearchSpace)
	if err != nil {
		return engine.Config{}, fmt.Errorf("building search space: %w", err)
	}

	fitnessPolicy, err := buildFitnessPolicy(cfg.Fitness.Policy)
	if err != nil {
		return engine.Config{}, fmt.Errorf("building fitness policy: %w", err)
	}

	node, err := buildTransport(tree, &cfg.Transport, cfg.NodeID)
	if err != nil {
		return engine.Config{}, fmt.Errorf("building transport: %w", err)
	}

	algorithms, err := buildAlgorithms(cfg.Algorithms)
	if err != nil {
		return engine.Config{}, fmt.Errorf("building algorithms: %w", err)
	}

	ec := engine.Config{
		Tree:          tree,
		SearchSpace:   space,
		FitnessPolicy: fitnessPolicy,
		Transport:     node,

		Algorithms: algorithms,

		MaxNumberEvaluations: cfg.Budgets.MaxNumberEvaluations,
		MaxTimeSeconds:       cfg.Budgets.MaxTimeSeconds,
		MaxIterations:        cfg.Budgets.MaxIterations,

		Logger: logger.Default,
	}

	if cfg.NodeID == tree.RootNode().ID() {
		if cfg.Bias != nil {
			ec.Bias = buildSolution(space, cfg.Bias)
		}
		for _, s := range cfg.StartupSolutions {
			ec.StartupSolutions = append(ec.StartupSolutions, buildSolution(space, &s))
		}
	}

	if err := applyPolicies(&ec, &cfg.Policies, fitnessPolicy); err != nil {
		return engine.Config{}, err
	}

	return ec, nil
}

// buildTree adds every configured node to a fresh thtree.Tree, adding
// the root first and then repeatedly sweeping the remaining nodes so
// that tree.nodes may list children before their parents.
func buildTree(tc *config.TreeConfig) (*thtree.Tree, error) {
	tree := thtree.New(len(tc.Nodes))

	var rootID int
	remaining := make([]config.TreeNodeConfig, 0, len(tc.Nodes))
	for _, n := range tc.Nodes {
		if n.ParentID == -1 {
			rootID = n.ID
			continue
		}
		remaining = append(remaining, n)
	}
	if _, err := tree.AddRootNode(rootID); err != nil {
		return nil, err
	}

	for len(remaining) > 0 {
		progressed := false
		next := remaining[:0]
		for _, n := range remaining {
			if _, err := tree.AddNode(n.ID, n.ParentID); err != nil {
				next = append(next, n)
				continue
			}
			progressed = true
		}
		if !progressed {
			return nil, fmt.Errorf("tree.nodes: %d node(s) could not be attached to the tree", len(next))
		}
		remaining = next
	}

	tree.Lock()
	return tree, nil
}

func buildSearchSpace(sc *config.SearchSpaceConfig) (*thmath.SearchSpace, error) {
	dims := make([]*thmath.Dimension, len(sc.Dimensions))
	for i, d := range sc.Dimensions {
		dims[i] = thmath.NewDimension(d.ID, d.Min, d.Max)
	}
	return thmath.NewSearchSpace(dims), nil
}

func buildFitnessPolicy(name string) (fitness.Policy, error) {
	switch name {
	case "rosenbrock":
		return rosenbrock.New(), nil
	default:
		return nil, fmt.Errorf("unregistered fitness policy %q", name)
	}
}

func buildTransport(tree *thtree.Tree, tc *config.TransportConfig, nodeID int) (*grpctransport.Node, error) {
	node, err := tree.Node(nodeID)
	if err != nil {
		return nil, err
	}

	peers := make([]grpctransport.PeerAddr, len(tc.Children))
	for i, c := range tc.Children {
		peers[i] = grpctransport.PeerAddr{ID: c.ID, Addr: c.Addr}
	}

	return grpctransport.NewNode(grpctransport.Config{
		ID:         nodeID,
		ListenAddr: tc.ListenAddr,
		HasParent:  node.HasParent(),
		ParentAddr: tc.ParentAddr,
		ParentID:   parentIDOf(node),
		Children:   peers,
	})
}

func parentIDOf(node *thtree.Node) int {
	if !node.HasParent() {
		return -1
	}
	return node.Parent().ID()
}

func buildAlgorithms(algos []config.AlgorithmConfig) ([]*search.Score, error) {
	scores := make([]*search.Score, 0, len(algos))
	for _, a := range algos {
		switch a.Type {
		case "hillclimb":
			hc := hillclimb.New(a.MoveProb, a.Step, a.Population, hillclimbOptions(a)...)
			scores = append(scores, search.NewScore(hc, a.Weight))
		default:
			return nil, fmt.Errorf("unregistered algorithm type %q", a.Type)
		}
	}
	return scores, nil
}

func hillclimbOptions(a config.AlgorithmConfig) []hillclimb.Option {
	if a.MaxNoImprove <= 0 {
		return nil
	}
	return []hillclimb.Option{hillclimb.WithMaxNoImprove(a.MaxNoImprove)}
}

func buildSolution(space *thmath.SearchSpace, sc *config.SolutionConfig) *thmath.Solution {
	sol := thmath.NewSolution(space.NDimensions(), 1, 1, 1)
	for i, v := range sc.Position {
		sol.Position(i).Fill(v)
	}
	return sol
}

// applyPolicies resolves the optional PoliciesConfig overrides into
// engine.Config's pluggable-policy fields. Unset sections are left nil
// so engine.Build applies its own defaults.
func applyPolicies(ec *engine.Config, pc *config.PoliciesConfig, fitnessPolicy fitness.Policy) error {
	if pc.RegionSelection != nil {
		rs := pc.RegionSelection
		groups, k := rs.Groups, rs.K
		if groups <= 0 {
			groups = 1
		}
		if k <= 0 {
			k = 1
		}
		ec.RegionSelectionPolicy = region.NewGroupSelectionPolicy(groups, k)
	}

	if pc.Relocation != nil {
		policy, data, err := buildRelocation(pc.Relocation)
		if err != nil {
			return err
		}
		ec.RelocationPolicy = policy
		ec.RelocationData = data
	}

	if pc.BestList != nil {
		bl := pc.BestList
		if bl.Size > 0 {
			ec.BestListSize = bl.Size
		}
		switch bl.Update {
		case "divergent":
			ec.BestListUpdatePolicy = bestlist.DivergentUpdatePolicy{}
		case "convergent", "":
			ec.BestListUpdatePolicy = bestlist.ConvergentUpdatePolicy{}
		default:
			return fmt.Errorf("unregistered best-list update policy %q", bl.Update)
		}
		ec.BestListSelectionPolicy = bestlist.NewRandomSelectionPolicy()
	}

	if pc.Convergence != nil {
		c := pc.Convergence
		m := c.M
		if m <= 0 {
			m = 3000
		}
		r := c.R
		if r <= 0 {
			r = 0.2
		}
		ec.ConvergencePolicy = csmon.New(m, r, fitnessPolicy.MinEstimatedFitnessValue())
	}

	if pc.LocalSearch != nil {
		ls := pc.LocalSearch
		switch ls.Type {
		case "hillclimb", "":
			ec.LocalSearchAlgorithm = hillclimb.New(ls.MoveProb, ls.Step, 1, hillclimbOptions(*ls)...)
		default:
			return fmt.Errorf("unregistered local-search algorithm %q", ls.Type)
		}
	}

	if pc.AlgorithmSelection != nil {
		switch pc.AlgorithmSelection.Type {
		case "single":
			ec.SelectionPolicy = search.SingleSelectionPolicy{}
		case "round_robin", "":
			ec.SelectionPolicy = search.NewRoundRobinSelectionPolicy()
		default:
			return fmt.Errorf("unregistered algorithm-selection policy %q", pc.AlgorithmSelection.Type)
		}
	}

	return nil
}

func buildRelocation(rc *config.RelocationConfig) (relocation.Policy, *relocation.Data, error) {
	startingPerc, max, accel := rc.BetaStartingPerc, rc.BetaMax, rc.BetaAccelerationCoef
	if startingPerc <= 0 {
		startingPerc = 0.99
	}
	if max <= 0 {
		max = 1
	}
	if accel <= 0 {
		accel = 1
	}
	data := relocation.NewData(startingPerc, max, accel)

	boostInc := rc.BoostInc
	if boostInc <= 0 {
		boostInc = 0.1
	}
	maxTries := rc.MaxTries
	if maxTries <= 0 {
		maxTries = 3
	}

	switch rc.Type {
	case "beta-ip":
		switch rc.BoostCurve {
		case "linear":
			return relocation.NewBetaPolicy(relocation.WithIPDisplacement(relocation.BoostLinear, boostInc, maxTries)), data, nil
		case "sigmoid":
			return relocation.NewBetaPolicy(relocation.WithIPDisplacement(relocation.BoostSigmoid, boostInc, maxTries)), data, nil
		case "exponential", "":
			return relocation.NewBetaPolicy(relocation.WithIPDisplacement(relocation.BoostExponential, boostInc, maxTries)), data, nil
		default:
			return nil, nil, fmt.Errorf("unregistered boost curve %q", rc.BoostCurve)
		}
	case "beta-linear", "":
		return relocation.NewBetaPolicy(relocation.WithLinearDisplacement()), data, nil
	default:
		return nil, nil, fmt.Errorf("unregistered relocation policy %q", rc.Type)
	}
}
