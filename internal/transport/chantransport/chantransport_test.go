package chantransport

import (
	"context"
	"testing"
	"time"

	"github.com/th-cooperative/treasurehunt/internal/transport"
	"github.com/th-cooperative/treasurehunt/pkg/thtree"
)

func buildTree(t *testing.T) *thtree.Tree {
	t.Helper()
	tree := thtree.New(3)
	if _, err := tree.AddRootNode(0); err != nil {
		t.Fatalf("AddRootNode: %v", err)
	}
	if _, err := tree.AddNode(1, 0); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if _, err := tree.AddNode(2, 0); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	tree.Lock()
	return tree
}

func TestBuildRejectsUnlockedTree(t *testing.T) {
	tree := thtree.New(1)
	if _, err := tree.AddRootNode(0); err != nil {
		t.Fatalf("AddRootNode: %v", err)
	}
	if _, err := Build(tree); err == nil {
		t.Fatal("Build: expected error for unlocked tree, got nil")
	}
}

func TestNetworkWiring(t *testing.T) {
	tree := buildTree(t)
	net, err := Build(tree)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	root, err := net.Node(0)
	if err != nil {
		t.Fatalf("Node(0): %v", err)
	}
	if root.Parent() != nil {
		t.Error("root should have no parent link")
	}
	childIDs := root.ChildIDs()
	if len(childIDs) != 2 {
		t.Fatalf("root ChildIDs: got %d, want 2", len(childIDs))
	}

	leaf, err := net.Node(1)
	if err != nil {
		t.Fatalf("Node(1): %v", err)
	}
	if leaf.Parent() == nil {
		t.Fatal("leaf should have a parent link")
	}
}

func TestSendRecvRoundTrip(t *testing.T) {
	tree := buildTree(t)
	net, err := Build(tree)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	root, _ := net.Node(0)
	leaf, _ := net.Node(1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	msg := &transport.Message{Tag: transport.TagChildToParent, Fitness: []float64{42}}
	if err := leaf.Parent().Send(ctx, msg); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got, err := root.Child(1).Recv(ctx)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if got.Fitness[0] != 42 {
		t.Errorf("Fitness = %v, want [42]", got.Fitness)
	}
}

func TestTryRecvCoalescesToLatest(t *testing.T) {
	tree := buildTree(t)
	net, _ := Build(tree)
	root, _ := net.Node(0)
	leaf, _ := net.Node(1)
	ctx := context.Background()

	for _, val := range []float64{1, 2, 3} {
		if err := leaf.Parent().Send(ctx, &transport.Message{Fitness: []float64{val}}); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	msg, ok := root.Child(1).TryRecv()
	if !ok {
		t.Fatal("TryRecv: expected a message")
	}
	if msg.Fitness[0] != 3 {
		t.Errorf("TryRecv coalesced to %v, want [3] (the last send)", msg.Fitness)
	}

	if _, ok := root.Child(1).TryRecv(); ok {
		t.Error("TryRecv: expected no further message after draining")
	}
}

func TestRecvRespectsContextCancellation(t *testing.T) {
	tree := buildTree(t)
	net, _ := Build(tree)
	root, _ := net.Node(0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := root.Child(1).Recv(ctx); err == nil {
		t.Fatal("Recv: expected context deadline error, got nil")
	}
}
