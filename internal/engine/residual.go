package engine

import (
	"context"
	"time"

	"github.com/th-cooperative/treasurehunt/internal/transport"
)

// residualDrain runs once a node's own budgets are exhausted: it tells
// its parent it has entered residual phase, broadcasts general-best
// down to its children once, and polls every active child until
// all of them report status=-2, forwarding any refined improvement
// both upward and sideways to the node's other active children (the
// one place the forwarding rule differs from steady state, which only
// forwards via the next gift-to-children cycle).
func (e *Engine) residualDrain(ctx context.Context) error {
	if e.node.HasParent() {
		msg := solutionToMessage(e.generalBest, transport.TagChildToParent, transport.StatusResidual)
		if err := e.transport.Parent().Send(ctx, msg); err != nil {
			return err
		}
		// discard any straggler parent payloads
		drainLatest(e.transport.Parent())
	}

	if !e.node.HasChildren() {
		return e.sendDoneToParent(ctx)
	}

	broadcast := solutionToMessage(e.generalBest, transport.TagParentToChild, transport.StatusOK)
	for _, childID := range e.transport.ChildIDs() {
		if e.childStatus[childID] == -2 {
			continue
		}
		if err := e.transport.Child(childID).Send(ctx, broadcast); err != nil {
			return err
		}
	}

	for e.activeChildren() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(residualSleep):
		}

		for _, childID := range e.transport.ChildIDs() {
			if e.childStatus[childID] == -2 {
				continue
			}
			link := e.transport.Child(childID)
			msg, ok := drainLatest(link)
			if !ok {
				continue
			}
			if msg.Status == transport.StatusDone {
				e.childStatus[childID] = -2
				continue
			}
			e.childStatus[childID] = -1

			refined := e.refineChildCandidate(msg)
			if e.fitnessPolicy.FirstIsBetter(refined, e.generalBest) {
				e.generalBest.Set(refined)
				e.group.UpdateBestList(refined)

				if e.node.HasParent() {
					up := solutionToMessage(e.generalBest, transport.TagChildToParent, transport.StatusResidual)
					if err := e.transport.Parent().Send(ctx, up); err != nil {
						return err
					}
				}
				for _, otherID := range e.transport.ChildIDs() {
					if otherID == childID || e.childStatus[otherID] == -2 {
						continue
					}
					sideways := solutionToMessage(e.generalBest, transport.TagParentToChild, transport.StatusOK)
					if err := e.transport.Child(otherID).Send(ctx, sideways); err != nil {
						return err
					}
				}
			}
		}
	}

	return e.sendDoneToParent(ctx)
}

// activeChildren counts children not yet at status -2.
func (e *Engine) activeChildren() int {
	n := 0
	for _, status := range e.childStatus {
		if status != -2 {
			n++
		}
	}
	return n
}

// sendDoneToParent sends the final status=-2 message upward, marking
// this node's own departure from the protocol.
func (e *Engine) sendDoneToParent(ctx context.Context) error {
	if !e.node.HasParent() {
		return nil
	}
	msg := solutionToMessage(e.generalBest, transport.TagChildToParent, transport.StatusDone)
	return e.transport.Parent().Send(ctx, msg)
}

// finalize implements the tree-ordered shutdown handshake: the root
// does not wait, every other node blocks (discarding stale parent
// payloads) until a FINALIZE arrives from its parent, forwards it to
// its own children, then waits for each child's FINALIZE reply before
// replying upward itself. Skipped entirely for a single-node tree.
func (e *Engine) finalize(ctx context.Context) error {
	if e.tree.CurrentSize() == 1 {
		return nil
	}

	if e.node.HasParent() {
		if err := e.awaitFinalize(ctx); err != nil {
			return err
		}
	}

	if e.node.HasChildren() {
		msg := &transport.Message{Tag: transport.TagFinalize, Status: transport.StatusOK}
		for _, childID := range e.transport.ChildIDs() {
			if err := e.transport.Child(childID).Send(ctx, msg); err != nil {
				return err
			}
		}
		for _, childID := range e.transport.ChildIDs() {
			if _, err := e.transport.Child(childID).Recv(ctx); err != nil {
				return err
			}
		}
	}

	if e.node.HasParent() {
		reply := &transport.Message{Tag: transport.TagFinalize, Status: transport.StatusOK}
		if err := e.transport.Parent().Send(ctx, reply); err != nil {
			return err
		}
	}

	e.logger.Info("finalize handshake complete", "node_id", e.id)
	return nil
}

// awaitFinalize blocks on the parent link until a FINALIZE tag
// arrives, discarding any stale non-FINALIZE payload along the way.
func (e *Engine) awaitFinalize(ctx context.Context) error {
	for {
		msg, err := e.transport.Parent().Recv(ctx)
		if err != nil {
			return err
		}
		if msg.Tag == transport.TagFinalize {
			return nil
		}
	}
}
