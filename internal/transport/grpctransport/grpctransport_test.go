package grpctransport

import (
	"bytes"
	"context"
	"encoding/gob"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/th-cooperative/treasurehunt/internal/transport"
)

// listenAddr picks an OS-assigned loopback port by letting NewNode's own
// net.Listen resolve port 0, then reports back the address it bound.
func newLoopbackNode(t *testing.T, id int, cfg Config) *Node {
	t.Helper()
	cfg.ID = id
	node, err := NewNode(cfg)
	if err != nil {
		t.Fatalf("NewNode(%d): %v", id, err)
	}
	t.Cleanup(func() { node.Close() })
	return node
}

func TestSendRecvOverLoopback(t *testing.T) {
	parent := newLoopbackNode(t, 0, Config{ListenAddr: "127.0.0.1:0"})
	parentAddr := parent.listener.Addr().String()

	child := newLoopbackNode(t, 1, Config{
		ListenAddr: "127.0.0.1:0",
		HasParent:  true,
		ParentAddr: parentAddr,
		ParentID:   0,
	})

	// The parent dialed the child's listener lazily (grpc.NewClient is
	// non-blocking), so it must be told the child's real address after
	// the fact; rebuild the parent's child link now that the address is
	// known.
	childAddr := child.listener.Addr().String()
	l, err := parent.dial(1, childAddr)
	if err != nil {
		t.Fatalf("dial child: %v", err)
	}
	parent.children[1] = l
	parent.childIDs = append(parent.childIDs, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg := &transport.Message{Tag: transport.TagChildToParent, Fitness: []float64{7}}
	if err := child.Parent().Send(ctx, msg); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got, err := parent.Child(1).Recv(ctx)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if len(got.Fitness) != 1 || got.Fitness[0] != 7 {
		t.Errorf("Fitness = %v, want [7]", got.Fitness)
	}
}

func TestTryRecvOnEmptyMailbox(t *testing.T) {
	node := newLoopbackNode(t, 0, Config{ListenAddr: "127.0.0.1:0"})
	mb := node.mailboxFor(99)
	if _, ok := mb.tryRecv(); ok {
		t.Error("tryRecv on an empty mailbox should report false")
	}
}

func TestSendRejectsUnconfiguredSender(t *testing.T) {
	node := newLoopbackNode(t, 0, Config{ListenAddr: "127.0.0.1:0"})

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&envelope{FromID: 99, Message: transport.Message{}}); err != nil {
		t.Fatalf("encode envelope: %v", err)
	}

	_, err := node.Send(context.Background(), wrapperspb.Bytes(buf.Bytes()))
	if err == nil {
		t.Fatal("expected an error for a sender that is not a configured neighbor")
	}
	if status.Code(err) != codes.PermissionDenied {
		t.Errorf("status code = %v, want PermissionDenied", status.Code(err))
	}
}

func TestChildAndParentAbsentLinks(t *testing.T) {
	node := newLoopbackNode(t, 0, Config{ListenAddr: "127.0.0.1:0"})
	if node.Parent() != nil {
		t.Error("a root node should have no parent link")
	}
	if node.Child(42) != nil {
		t.Error("Child of an unconfigured ID should be nil")
	}
}
