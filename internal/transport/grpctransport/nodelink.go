package grpctransport

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// NodeLinkServer is implemented by a TH process to accept Send calls
// from any tree neighbor (its parent or one of its children). The
// payload is an opaque gob-encoded envelope; NodeLink only carries
// bytes, matching the original framework's agnosticism about what a
// message tag's buffer actually holds.
type NodeLinkServer interface {
	Send(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
}

// NodeLinkClient is the client-side stub dialed against one neighbor.
type NodeLinkClient interface {
	Send(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
}

type nodeLinkClient struct {
	cc grpc.ClientConnInterface
}

// NewNodeLinkClient builds a client stub over an established connection.
func NewNodeLinkClient(cc grpc.ClientConnInterface) NodeLinkClient {
	return &nodeLinkClient{cc: cc}
}

func (c *nodeLinkClient) Send(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, "/treasurehunt.NodeLink/Send", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterNodeLinkServer registers srv's Send method with s.
func RegisterNodeLinkServer(s grpc.ServiceRegistrar, srv NodeLinkServer) {
	s.RegisterService(&nodeLinkServiceDesc, srv)
}

func nodeLinkSendHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NodeLinkServer).Send(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/treasurehunt.NodeLink/Send"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NodeLinkServer).Send(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

var nodeLinkServiceDesc = grpc.ServiceDesc{
	ServiceName: "treasurehunt.NodeLink",
	HandlerType: (*NodeLinkServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Send",
			Handler:    nodeLinkSendHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nodelink",
}
