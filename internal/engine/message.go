package engine

import (
	"github.com/th-cooperative/treasurehunt/internal/transport"
	"github.com/th-cooperative/treasurehunt/pkg/thmath"
)

// solutionToMessage flattens a Solution's positions and fitness into a
// wire Message under the given tag and status.
func solutionToMessage(sol *thmath.Solution, tag transport.Tag, status int) *transport.Message {
	n := sol.NDimensions()
	positions := make([][]float64, n)
	for i := 0; i < n; i++ {
		values := sol.Position(i).Values()
		positions[i] = append([]float64(nil), values...)
	}
	return &transport.Message{
		Tag:      tag,
		Position: positions,
		Fitness:  append([]float64(nil), sol.Fitness().Values()...),
		Status:   status,
	}
}

// applyMessage overwrites sol's positions and fitness from msg.
func applyMessage(msg *transport.Message, sol *thmath.Solution) {
	for i, values := range msg.Position {
		sol.Position(i).SetBuffer(values)
	}
	sol.SetFitness(msg.Fitness)
}

// drainLatest repeatedly calls TryRecv, keeping only the most recently
// arrived Message: the coalescing behavior used by both the parent's
// child-collection loop and a child's parent-collection loop, where a
// burst of stale intermediate payloads is discarded rather than
// processed one by one.
func drainLatest(link transport.Link) (*transport.Message, bool) {
	var latest *transport.Message
	for {
		msg, ok := link.TryRecv()
		if !ok {
			return latest, latest != nil
		}
		latest = msg
	}
}
