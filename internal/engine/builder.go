package engine

import (
	"errors"
	"log/slog"

	"github.com/th-cooperative/treasurehunt/internal/transport"
	"github.com/th-cooperative/treasurehunt/pkg/bestlist"
	"github.com/th-cooperative/treasurehunt/pkg/csmon"
	"github.com/th-cooperative/treasurehunt/pkg/fitness"
	"github.com/th-cooperative/treasurehunt/pkg/hillclimb"
	"github.com/th-cooperative/treasurehunt/pkg/iterdata"
	"github.com/th-cooperative/treasurehunt/pkg/logger"
	"github.com/th-cooperative/treasurehunt/pkg/region"
	"github.com/th-cooperative/treasurehunt/pkg/relocation"
	"github.com/th-cooperative/treasurehunt/pkg/search"
	"github.com/th-cooperative/treasurehunt/pkg/thmath"
	"github.com/th-cooperative/treasurehunt/pkg/thtree"
)

// ErrMissingCollaborator is returned by Build when a required
// configuration field is absent.
var ErrMissingCollaborator = errors.New("engine: missing required collaborator")

// ErrNoBudget is returned by Build when every budget ceiling is zero.
var ErrNoBudget = errors.New("engine: at least one of MaxNumberEvaluations, MaxTimeSeconds, MaxIterations must be positive")

// ErrTreeNotLocked is returned by Build when Config.Tree has not been
// locked.
var ErrTreeNotLocked = errors.New("engine: tree must be locked before building an engine")

// Config collects every collaborator and budget an Engine needs. Zero
// values for the pluggable policy fields fall back to the defaults
// named below, matching the original framework's builder defaults.
type Config struct {
	Tree          *thtree.Tree
	SearchSpace   *thmath.SearchSpace
	FitnessPolicy fitness.Policy
	Transport     transport.Node

	// RegionSelectionPolicy defaults to group=1, K=1 (the full space).
	RegionSelectionPolicy region.SelectionPolicy

	// RelocationPolicy defaults to Beta in Linear displacement mode.
	RelocationPolicy relocation.Policy
	// RelocationData defaults to betaStartingPerc=0.99, betaMax=1,
	// betaAccelerationCoef=1.
	RelocationData *relocation.Data

	// BestListUpdatePolicy defaults to convergent replacement.
	BestListUpdatePolicy bestlist.UpdatePolicy
	// BestListSelectionPolicy defaults to random draw.
	BestListSelectionPolicy bestlist.SelectionPolicy
	// BestListSize defaults to 1.
	BestListSize int

	// ConvergencePolicy defaults to CSMOn(M=3000, R=0.2,
	// fitnessPolicy.MinEstimatedFitnessValue()).
	ConvergencePolicy search.ConvergenceControlPolicy

	// LocalSearchAlgorithm refines inbound child candidates each
	// iteration. Defaults to Hill-Climbing(moveProb=0.05, step=1e-3,
	// pop=1).
	LocalSearchAlgorithm search.Search

	// Algorithms is the SearchGroup's registered algorithm set; at
	// least one entry is required.
	Algorithms []*search.Score
	// SelectionPolicy chooses among Algorithms. Defaults to
	// round-robin.
	SelectionPolicy search.SelectionPolicy

	MaxNumberEvaluations int64
	MaxTimeSeconds       int64
	MaxIterations        int64

	// Bias and StartupSolutions are honored only at the root node.
	Bias             *thmath.Solution
	StartupSolutions []*thmath.Solution

	Logger *slog.Logger
}

// Build validates cfg, applies defaults, constructs the per-node
// SearchGroup and population, and returns a ready-to-run Engine.
func Build(cfg Config) (*Engine, error) {
	if cfg.Tree == nil || cfg.SearchSpace == nil || cfg.FitnessPolicy == nil || cfg.Transport == nil {
		return nil, ErrMissingCollaborator
	}
	if !cfg.Tree.Locked() {
		return nil, ErrTreeNotLocked
	}
	if len(cfg.Algorithms) == 0 {
		return nil, search.ErrNoAlgorithms
	}
	if cfg.MaxNumberEvaluations <= 0 && cfg.MaxTimeSeconds <= 0 && cfg.MaxIterations <= 0 {
		return nil, ErrNoBudget
	}

	id := cfg.Transport.ID()
	node, err := cfg.Tree.Node(id)
	if err != nil {
		return nil, err
	}

	if cfg.RegionSelectionPolicy == nil {
		cfg.RegionSelectionPolicy = region.NewGroupSelectionPolicy(1, 1)
	}
	if cfg.BestListUpdatePolicy == nil {
		cfg.BestListUpdatePolicy = bestlist.ConvergentUpdatePolicy{}
	}
	if cfg.BestListSelectionPolicy == nil {
		cfg.BestListSelectionPolicy = bestlist.NewRandomSelectionPolicy()
	}
	if cfg.BestListSize <= 0 {
		cfg.BestListSize = 1
	}
	if cfg.ConvergencePolicy == nil {
		cfg.ConvergencePolicy = csmon.New(3000, 0.2, cfg.FitnessPolicy.MinEstimatedFitnessValue())
	}
	if cfg.LocalSearchAlgorithm == nil {
		cfg.LocalSearchAlgorithm = hillclimb.New(0.05, 1e-3, 1)
	}
	if cfg.SelectionPolicy == nil {
		cfg.SelectionPolicy = search.NewRoundRobinSelectionPolicy()
	}
	if cfg.RelocationPolicy == nil {
		cfg.RelocationPolicy = relocation.NewBetaPolicy()
	}
	if cfg.RelocationData == nil {
		cfg.RelocationData = relocation.NewData(0.99, 1, 1)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default
	}

	subRegion, err := cfg.RegionSelectionPolicy.Apply(cfg.SearchSpace, cfg.Tree, id)
	if err != nil {
		return nil, err
	}

	populationSize := 0
	for _, score := range cfg.Algorithms {
		if p := score.Algorithm.PreferredPopulationSize(); p > populationSize {
			populationSize = p
		}
	}
	if populationSize <= 0 {
		populationSize = 1
	}

	n := cfg.SearchSpace.NDimensions()
	bestList := bestlist.New(cfg.BestListSize)
	generalBest := thmath.NewSolution(n, 1, 1, 1)
	cfg.FitnessPolicy.SetWorstFitness(generalBest)
	parentBest := thmath.NewSolution(n, 1, 1, 1)

	group, err := search.NewGroup(search.GroupConfig{
		ID:               id,
		Tree:             cfg.Tree,
		SearchSpace:      cfg.SearchSpace,
		Region:           subRegion,
		FitnessPolicy:    cfg.FitnessPolicy,
		Algorithms:       cfg.Algorithms,
		SelectionPolicy:  cfg.SelectionPolicy,
		ConvergencePolicy: cfg.ConvergencePolicy,
		BestListPolicy:   cfg.BestListUpdatePolicy,
		BestList:         bestList,
		GeneralBest:      generalBest,
		PopulationSize:   populationSize,
		Bias:             cfg.Bias,
		StartupSolutions: cfg.StartupSolutions,
	})
	if err != nil {
		return nil, err
	}
	group.ResetPopulation(subRegion)

	cfg.LocalSearchAlgorithm.SetFitnessPolicy(cfg.FitnessPolicy)
	cfg.LocalSearchAlgorithm.SetSearchSpace(cfg.SearchSpace)

	data := iterdata.New(group.Population(), cfg.MaxTimeSeconds, cfg.MaxNumberEvaluations, cfg.MaxIterations)
	cfg.RelocationData.SetIterationData(data)

	childStatus := make(map[int]int, len(cfg.Transport.ChildIDs()))
	for _, childID := range cfg.Transport.ChildIDs() {
		childStatus[childID] = 0
	}

	return &Engine{
		id:            id,
		node:          node,
		tree:          cfg.Tree,
		transport:     cfg.Transport,
		searchSpace:   cfg.SearchSpace,
		region:        subRegion,
		fitnessPolicy: cfg.FitnessPolicy,

		regionPolicy:  cfg.RegionSelectionPolicy,
		relocation:    cfg.RelocationPolicy,
		relocationData: cfg.RelocationData,
		bestListSelect: cfg.BestListSelectionPolicy,
		localSearch:   cfg.LocalSearchAlgorithm,

		group:       group,
		generalBest: generalBest,
		parentBest:  parentBest,
		iterData:    data,
		childStatus: childStatus,

		logger: cfg.Logger,
	}, nil
}
