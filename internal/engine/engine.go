// Package engine implements the TH per-node coordination core: the
// startup barrier, the steady-state iteration body (publish, collect,
// refine, gift, latch, relocate, budget-check), the residual-drain
// phase, and the finalize handshake, all driven against a
// transport.Node so the same Engine runs unmodified over an in-process
// chantransport.Network or a distributed grpctransport deployment.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/th-cooperative/treasurehunt/internal/transport"
	"github.com/th-cooperative/treasurehunt/pkg/bestlist"
	"github.com/th-cooperative/treasurehunt/pkg/fitness"
	"github.com/th-cooperative/treasurehunt/pkg/iterdata"
	"github.com/th-cooperative/treasurehunt/pkg/region"
	"github.com/th-cooperative/treasurehunt/pkg/relocation"
	"github.com/th-cooperative/treasurehunt/pkg/search"
	"github.com/th-cooperative/treasurehunt/pkg/thmath"
	"github.com/th-cooperative/treasurehunt/pkg/thtree"
)

// residualSleep is how long the residual-drain loop sleeps between
// polling rounds, matching the original framework's 1-second cadence.
var residualSleep = time.Second

// Engine is one TH node's full coordination state: its SearchGroup,
// its view of the tree, its transport handle, and the pluggable
// region/relocation/best-list policies driving its iteration body.
type Engine struct {
	id   int
	node *thtree.Node
	tree *thtree.Tree

	transport     transport.Node
	searchSpace   *thmath.SearchSpace
	region        *thmath.Region
	fitnessPolicy fitness.Policy

	regionPolicy   region.SelectionPolicy
	relocation     relocation.Policy
	relocationData *relocation.Data
	bestListSelect bestlist.SelectionPolicy
	localSearch    search.Search

	group       *search.Group
	generalBest *thmath.Solution
	parentBest  *thmath.Solution
	iterData    *iterdata.IterationData

	childStatus map[int]int // childID -> 0 not started, 1 running, -1 residual, -2 terminated

	hasChildrenImproved bool
	totalEvals          int64
	startTime           time.Time

	logger *slog.Logger
}

// ID returns this engine's tree node identifier.
func (e *Engine) ID() int { return e.id }

// BestSolution returns a clone of the node's general-best Solution.
// The clone is never empty: before Run completes it holds the current
// general-best, which Build already seeds from the evaluated initial
// population.
func (e *Engine) BestSolution() *thmath.Solution { return e.generalBest.Clone() }

// BestList returns a clone of the node's best-list.
func (e *Engine) BestList() *bestlist.BestList { return e.group.BestList().Clone() }

// Run drives this node through the startup barrier, the steady-state
// iteration loop until its budgets are exhausted, the residual-drain
// phase, and the finalize handshake. It returns when the handshake
// completes or ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.startTime = time.Now()
	e.totalEvals = int64(e.group.PopulationSize())

	if err := e.startupBarrier(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		runNext, err := e.iterate(ctx)
		if err != nil {
			return err
		}
		if !runNext {
			break
		}
	}

	if err := e.residualDrain(ctx); err != nil {
		return err
	}
	return e.finalize(ctx)
}

// startupBarrier implements the one synchronous step in the protocol:
// leaves send STARTUP up to their parent; every internal node waits
// for all its children's STARTUP before forwarding its own upward.
// Skipped entirely for a single-node tree.
func (e *Engine) startupBarrier(ctx context.Context) error {
	if e.tree.CurrentSize() == 1 {
		return nil
	}

	if e.node.HasChildren() {
		for _, childID := range e.transport.ChildIDs() {
			link := e.transport.Child(childID)
			msg, err := link.Recv(ctx)
			if err != nil {
				return err
			}
			// The mailbox keeps only the newest message, so a fast child's
			// RESIDUAL or DONE may already have replaced its STARTUP.
			switch msg.Status {
			case transport.StatusResidual:
				e.childStatus[childID] = -1
			case transport.StatusDone:
				e.childStatus[childID] = -2
			}
		}
	}
	if e.node.HasParent() {
		msg := &transport.Message{Tag: transport.TagStartup, Status: transport.StatusOK}
		if err := e.transport.Parent().Send(ctx, msg); err != nil {
			return err
		}
	}

	e.logger.Info("startup barrier complete", "node_id", e.id)
	return nil
}

// iterate runs one full steady-state iteration: SearchGroup.run, then
// publish/collect/gift/latch/relocate/budget-check.
// It returns false once any configured budget has been exhausted.
func (e *Engine) iterate(ctx context.Context) (bool, error) {
	if err := e.group.Run(); err != nil {
		return false, err
	}
	e.totalEvals += int64(e.group.EvalsConsumed())

	improved := e.group.ImprovedGeneralBest() || e.hasChildrenImproved
	e.hasChildrenImproved = false

	// a. publish to parent
	if e.node.HasParent() && improved {
		msg := solutionToMessage(e.generalBest, transport.TagChildToParent, transport.StatusOK)
		if err := e.transport.Parent().Send(ctx, msg); err != nil {
			return false, err
		}
	}

	population := e.group.Population()
	population[0].Set(e.group.IterationBest())
	popSeq := 1

	// b. collect from children, c. gift to children
	if e.node.HasChildren() {
		popSeq = e.collectFromChildren(ctx, population, popSeq)
		if err := e.giftToChildren(ctx); err != nil {
			return false, err
		}
	}

	// d. latch parent-best
	if e.node.HasParent() {
		if msg, ok := drainLatest(e.transport.Parent()); ok {
			applyMessage(msg, e.parentBest)
		} else {
			e.parentBest.Set(e.generalBest)
		}
	} else {
		e.parentBest.Set(e.generalBest)
	}

	// Snapshot the latched state into iterData before relocation reads
	// it: fillPopulation's region and relocation policies both consult
	// iterData.ParentBest/GeneralBest/PercentageRuntime, so this must
	// run before step e, not after.
	e.iterData.SetCurrIteration(e.iterData.CurrIteration() + 1)
	e.iterData.SetCurrNumberEvaluation(int(e.totalEvals))
	e.iterData.SetCurrTime(int(time.Since(e.startTime).Seconds()))
	e.iterData.SetGeneralBest(e.generalBest)
	e.iterData.SetParentBest(e.parentBest)
	e.iterData.SetIterationBest(e.group.IterationBest())

	// e. fill the rest of the population
	popSeq = e.fillPopulation(population, popSeq)

	// f. budget check: fillPopulation's relocated-slot re-evaluations
	// moved totalEvals, and population now holds this iteration's final
	// contents, so both are snapshotted again post-relocation.
	e.iterData.SetCurrNumberEvaluation(int(e.totalEvals))
	e.iterData.SetPopulation(population)

	return !e.budgetExhausted(), nil
}

// collectFromChildren drains and coalesces each active child's inbound
// queue, local-search-refines any fresh candidate, folds it into the
// general-best/best-list, and installs it into the next open
// population slot. A child still at status 0 (never reported) is
// skipped this iteration.
func (e *Engine) collectFromChildren(ctx context.Context, population []*thmath.Solution, popSeq int) int {
	for _, childID := range e.transport.ChildIDs() {
		if e.childStatus[childID] == -2 {
			continue
		}

		link := e.transport.Child(childID)
		msg, ok := drainLatest(link)
		if !ok {
			continue
		}
		e.childStatus[childID] = 1
		if msg.Status == transport.StatusResidual {
			e.childStatus[childID] = -1
		} else if msg.Status == transport.StatusDone {
			e.childStatus[childID] = -2
		}

		refined := e.refineChildCandidate(msg)

		if e.fitnessPolicy.FirstIsBetter(refined, e.generalBest) {
			e.generalBest.Set(refined)
			e.hasChildrenImproved = true
		}

		e.group.UpdateBestList(refined)

		if popSeq < len(population) {
			population[popSeq].Set(refined)
			popSeq++
		}
	}
	return popSeq
}

// refineChildCandidate feeds msg's candidate as a 1-member population
// to the local search algorithm for a bounded budget of
// max(convergenceBudget/100, 1) evaluations.
func (e *Engine) refineChildCandidate(msg *transport.Message) *thmath.Solution {
	n := e.searchSpace.NDimensions()
	candidate := thmath.NewSolution(n, 1, 1, 1)
	applyMessage(msg, candidate)

	e.localSearch.SetPopulation([]*thmath.Solution{candidate})
	e.localSearch.Startup()
	budget := e.convergenceBudget() / 100
	if budget < 1 {
		budget = 1
	}
	e.localSearch.Next(budget)
	e.localSearch.Finalize()
	e.totalEvals += int64(e.localSearch.CurrentNEvals())

	return e.localSearch.BestIndividual()
}

// convergenceBudget exposes the configured CSMOn (or other
// ConvergenceControlPolicy) evaluation budget, used to scale the local
// refinement budget.
func (e *Engine) convergenceBudget() int {
	type budgeted interface{ BudgetSize() int }
	if b, ok := e.group.LastExecuted().(budgeted); ok {
		return b.BudgetSize()
	}
	return 100
}

// giftToChildren selects one Solution from the best-list and sends it
// to every still-active child.
func (e *Engine) giftToChildren(ctx context.Context) error {
	gift, err := e.bestListSelect.Apply(e.group.BestList(), e.fitnessPolicy)
	if err != nil {
		return nil // an empty best-list is not fatal: nothing to gift yet
	}
	msg := solutionToMessage(gift, transport.TagParentToChild, transport.StatusOK)
	for _, childID := range e.transport.ChildIDs() {
		if e.childStatus[childID] == -2 {
			continue
		}
		if err := e.transport.Child(childID).Send(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// fillPopulation resets any population slots not already claimed by
// the iteration-best carry-forward or a fresh child candidate: every
// remaining slot is relocated; no slot is reset near the bias here.
func (e *Engine) fillPopulation(population []*thmath.Solution, popSeq int) int {
	if popSeq >= len(population) {
		return popSeq
	}

	// Bias-anchored reseeding happens once, at construction, inside
	// SearchGroup.ResetPopulation; per-iteration refill only relocates
	// the remaining slots toward parentBest.
	e.region = e.regionPolicy.Recalculate(e.iterData, e.searchSpace, e.region, e.tree, e.id)
	remaining := population[popSeq:]
	if len(remaining) > 0 {
		e.relocation.Apply(e.relocationData, e.region, remaining)
		for _, sol := range remaining {
			e.fitnessPolicy.Apply(sol)
		}
		e.totalEvals += int64(len(remaining))
	}
	return len(population)
}

// budgetExhausted reports whether any configured budget ceiling (a
// ceiling of 0 means unlimited for that dimension) has been reached.
func (e *Engine) budgetExhausted() bool {
	d := e.iterData
	if d.MaxIterations() > 0 && int64(d.CurrIteration()) >= d.MaxIterations() {
		return true
	}
	if d.MaxNumberEvaluations() > 0 && int64(d.CurrNumberEvaluation()) >= d.MaxNumberEvaluations() {
		return true
	}
	if d.MaxTimeSeconds() > 0 && int64(d.CurrTime()) >= d.MaxTimeSeconds() {
		return true
	}
	return false
}
