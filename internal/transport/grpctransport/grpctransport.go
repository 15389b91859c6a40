// Package grpctransport implements the transport.Node/Link contract
// over gRPC, one NodeLink service per process: sends become unary RPCs
// to the target neighbor's address, and receives are served out of a
// latest-wins mailbox filled by this process's own NodeLink server as
// calls arrive from each neighbor. The opaque byte payload is a gob
// encoding of transport.Message, carried inside a
// wrapperspb.BytesValue so the RPC itself stays a genuine protobuf
// message without requiring a generated .proto package.
package grpctransport

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/th-cooperative/treasurehunt/internal/transport"
	"github.com/th-cooperative/treasurehunt/pkg/logger"
)

// envelope is what actually travels inside a BytesValue: the sender's
// ID (so the receiving server can route it to the right mailbox) plus
// the TH message itself.
type envelope struct {
	FromID  int
	Message transport.Message
}

// mailbox holds the single most recently delivered, not-yet-consumed
// Message for one neighbor, exactly like chantransport's.
type mailbox struct {
	mu  sync.Mutex
	msg *transport.Message
	arr chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{arr: make(chan struct{}, 1)}
}

func (m *mailbox) deposit(msg *transport.Message) {
	m.mu.Lock()
	m.msg = msg
	m.mu.Unlock()
	select {
	case m.arr <- struct{}{}:
	default:
	}
}

func (m *mailbox) tryRecv() (*transport.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.msg == nil {
		return nil, false
	}
	msg := m.msg
	m.msg = nil
	return msg, true
}

func (m *mailbox) recv(ctx context.Context) (*transport.Message, error) {
	for {
		if msg, ok := m.tryRecv(); ok {
			return msg, nil
		}
		select {
		case <-m.arr:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// link is one outbound edge to a neighbor: sending dials out over a
// persistent client connection, receiving reads from the local mailbox
// that this process's own server fills as calls arrive from that peer.
type link struct {
	client   NodeLinkClient
	conn     *grpc.ClientConn
	inbox    *mailbox
	fromID   int
}

func (l *link) Send(ctx context.Context, msg *transport.Message) error {
	var buf bytes.Buffer
	env := envelope{FromID: l.fromID, Message: *msg}
	if err := gob.NewEncoder(&buf).Encode(&env); err != nil {
		return fmt.Errorf("grpctransport: encode message: %w", err)
	}
	_, err := l.client.Send(ctx, wrapperspb.Bytes(buf.Bytes()))
	return err
}

func (l *link) TryRecv() (*transport.Message, bool)       { return l.inbox.tryRecv() }
func (l *link) Recv(ctx context.Context) (*transport.Message, error) { return l.inbox.recv(ctx) }
func (l *link) Close() error {
	if l.conn != nil {
		return l.conn.Close()
	}
	return nil
}

// PeerAddr names one neighbor's process ID and dial address.
type PeerAddr struct {
	ID   int
	Addr string
}

// Config describes one process's position in the tree and how to reach
// its neighbors.
type Config struct {
	ID         int
	ListenAddr string

	HasParent  bool
	ParentAddr string
	ParentID   int

	Children []PeerAddr
}

// Node is a gRPC-backed transport.Node: it runs a NodeLink server
// accepting inbound traffic from every neighbor, and holds one client
// connection per neighbor for outbound traffic.
type Node struct {
	id int

	server   *grpc.Server
	listener net.Listener

	parent   *link
	parentID int

	children map[int]*link
	childIDs []int

	mu       sync.Mutex
	mailboxes map[int]*mailbox // keyed by neighbor ID
}

// NewNode starts a NodeLink server on cfg.ListenAddr and dials every
// neighbor named in cfg, returning a ready transport.Node. The caller
// is responsible for ensuring every peer's server is reachable; dialing
// here is non-blocking (grpc.NewClient does not connect eagerly).
func NewNode(cfg Config) (*Node, error) {
	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("grpctransport: listen on %s: %w", cfg.ListenAddr, err)
	}

	n := &Node{
		id:        cfg.ID,
		listener:  lis,
		server:    grpc.NewServer(),
		children:  make(map[int]*link),
		mailboxes: make(map[int]*mailbox),
		parentID:  -1,
	}
	RegisterNodeLinkServer(n.server, n)

	if cfg.HasParent {
		n.parentID = cfg.ParentID
		l, err := n.dial(cfg.ParentID, cfg.ParentAddr)
		if err != nil {
			return nil, err
		}
		n.parent = l
	}

	for _, peer := range cfg.Children {
		l, err := n.dial(peer.ID, peer.Addr)
		if err != nil {
			return nil, err
		}
		n.children[peer.ID] = l
		n.childIDs = append(n.childIDs, peer.ID)
	}

	go func() {
		if err := n.server.Serve(lis); err != nil {
			logger.Default.Error("grpctransport: server stopped", "node_id", n.id, "error", err)
		}
	}()

	return n, nil
}

func (n *Node) dial(peerID int, addr string) (*link, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpctransport: dial %s (peer %d): %w", addr, peerID, err)
	}
	return &link{
		client: NewNodeLinkClient(conn),
		conn:   conn,
		inbox:  n.mailboxFor(peerID),
		fromID: n.id,
	}, nil
}

func (n *Node) mailboxFor(peerID int) *mailbox {
	n.mu.Lock()
	defer n.mu.Unlock()
	mb, ok := n.mailboxes[peerID]
	if !ok {
		mb = newMailbox()
		n.mailboxes[peerID] = mb
	}
	return mb
}

// Send implements NodeLinkServer: every inbound RPC, from whichever
// neighbor, is decoded and dropped into that neighbor's mailbox.
func (n *Node) Send(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(in.GetValue())).Decode(&env); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "grpctransport: decode message: %v", err)
	}
	if !n.isKnownPeer(env.FromID) {
		return nil, status.Errorf(codes.PermissionDenied, "grpctransport: sender %d is not a configured neighbor of node %d", env.FromID, n.id)
	}
	n.mailboxFor(env.FromID).deposit(&env.Message)
	return &emptypb.Empty{}, nil
}

// isKnownPeer reports whether peerID is this node's parent or one of
// its children.
func (n *Node) isKnownPeer(peerID int) bool {
	if peerID == n.parentID {
		return true
	}
	for _, id := range n.childIDs {
		if id == peerID {
			return true
		}
	}
	return false
}

// ID implements transport.Node.
func (n *Node) ID() int { return n.id }

// Parent implements transport.Node.
func (n *Node) Parent() transport.Link {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// Child implements transport.Node.
func (n *Node) Child(id int) transport.Link {
	l, ok := n.children[id]
	if !ok {
		return nil
	}
	return l
}

// ChildIDs implements transport.Node.
func (n *Node) ChildIDs() []int { return n.childIDs }

// Close implements transport.Node: stops the server and every client
// connection.
func (n *Node) Close() error {
	n.server.GracefulStop()
	if n.parent != nil {
		n.parent.Close()
	}
	for _, l := range n.children {
		l.Close()
	}
	return n.listener.Close()
}
