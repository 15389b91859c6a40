// Package chantransport implements the transport.Node/Link contract over
// in-process Go channels, wiring every node of a thtree.Tree into a
// single shared Network. It is meant for running an entire TH tree
// inside one process (tests, local simulation, and single-machine
// development), standing in for the distributed grpctransport.
package chantransport

import (
	"context"
	"fmt"

	"github.com/th-cooperative/treasurehunt/internal/transport"
	"github.com/th-cooperative/treasurehunt/pkg/thtree"
)

// mailbox holds at most one undelivered Message, overwriting whatever
// was there before: exactly the "latest wins, never block the sender"
// semantics TH expects from a non-blocking MPI send.
type mailbox struct {
	ch chan *transport.Message
}

func newMailbox() *mailbox {
	return &mailbox{ch: make(chan *transport.Message, 1)}
}

func (m *mailbox) send(msg *transport.Message) {
	for {
		select {
		case m.ch <- msg:
			return
		default:
			select {
			case <-m.ch:
			default:
			}
		}
	}
}

func (m *mailbox) tryRecv() (*transport.Message, bool) {
	select {
	case msg := <-m.ch:
		return msg, true
	default:
		return nil, false
	}
}

func (m *mailbox) recv(ctx context.Context) (*transport.Message, error) {
	select {
	case msg := <-m.ch:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// edge is the pair of mailboxes connecting a parent and one of its
// children: one for downward (parent to child) traffic, one for upward.
type edge struct {
	downward *mailbox // parent -> child
	upward   *mailbox // child -> parent
}

func newEdge() *edge {
	return &edge{downward: newMailbox(), upward: newMailbox()}
}

// parentLink is a child node's view of the edge to its parent.
type parentLink struct{ e *edge }

func (l *parentLink) Send(_ context.Context, msg *transport.Message) error {
	l.e.upward.send(msg)
	return nil
}
func (l *parentLink) TryRecv() (*transport.Message, bool) { return l.e.downward.tryRecv() }
func (l *parentLink) Recv(ctx context.Context) (*transport.Message, error) {
	return l.e.downward.recv(ctx)
}
func (l *parentLink) Close() error { return nil }

// childLink is a parent node's view of the edge to one of its children.
type childLink struct{ e *edge }

func (l *childLink) Send(_ context.Context, msg *transport.Message) error {
	l.e.downward.send(msg)
	return nil
}
func (l *childLink) TryRecv() (*transport.Message, bool) { return l.e.upward.tryRecv() }
func (l *childLink) Recv(ctx context.Context) (*transport.Message, error) {
	return l.e.upward.recv(ctx)
}
func (l *childLink) Close() error { return nil }

// node is one process's view of the Network.
type node struct {
	id       int
	parent   transport.Link
	children map[int]transport.Link
	childIDs []int
}

func (n *node) ID() int                        { return n.id }
func (n *node) Parent() transport.Link         { return n.parent }
func (n *node) Child(id int) transport.Link    { return n.children[id] }
func (n *node) ChildIDs() []int                { return n.childIDs }
func (n *node) Close() error                   { return nil }

// Network wires one transport.Node per tree node, connected by shared
// in-process edges so that a parent's Child(id) link and that child's
// Parent() link are two ends of the same mailbox pair.
type Network struct {
	nodes map[int]*node
}

// Build constructs a Network matching tree's topology. tree must already
// be locked.
func Build(tree *thtree.Tree) (*Network, error) {
	if !tree.Locked() {
		return nil, fmt.Errorf("chantransport: tree must be locked before building a network")
	}

	net := &Network{nodes: make(map[int]*node)}
	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("chantransport: tree has no root")
	}

	var walk func(n *thtree.Node)
	walk = func(n *thtree.Node) {
		net.nodes[n.ID()] = &node{id: n.ID(), children: make(map[int]transport.Link)}
		for _, child := range n.Children() {
			walk(child)
		}
	}
	walk(root)

	var wire func(n *thtree.Node)
	wire = func(n *thtree.Node) {
		for _, child := range n.Children() {
			e := newEdge()
			net.nodes[n.ID()].children[child.ID()] = &childLink{e: e}
			net.nodes[n.ID()].childIDs = append(net.nodes[n.ID()].childIDs, child.ID())
			net.nodes[child.ID()].parent = &parentLink{e: e}
			wire(child)
		}
	}
	wire(root)

	return net, nil
}

// Node returns the transport.Node for the given process ID.
func (n *Network) Node(id int) (transport.Node, error) {
	node, ok := n.nodes[id]
	if !ok {
		return nil, fmt.Errorf("chantransport: unknown node %d", id)
	}
	return node, nil
}
