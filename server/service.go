package server

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"studygames/tetris/tetris"
)

const (
	ServiceName = "tetris.v1.TetrisService"

	// SessionHeader is the metadata key that carries the session id on every
	// call but NewSession.
	SessionHeader = "x-session-id"
)

// TetrisServiceServer hosts game sessions for a remote presentation layer.
// Messages are protobuf well-known types so the service needs no generated code.
type TetrisServiceServer interface {
	// NewSession starts a game and returns its session id.
	NewSession(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	// Command sends an action by name, see tetris.Actions.
	Command(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	SetLevel(context.Context, *wrapperspb.Int32Value) (*emptypb.Empty, error)
	// Watch streams the current snapshot and then one per processed event.
	Watch(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
	EndSession(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

func RegisterTetrisServiceServer(s grpc.ServiceRegistrar, srv TetrisServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TetrisServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("NewSession", TetrisServiceServer.NewSession),
		unary("Command", TetrisServiceServer.Command),
		unary("SetLevel", TetrisServiceServer.SetLevel),
		unary("EndSession", TetrisServiceServer.EndSession),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
}

func unary[Req, Res any](name string, call func(TetrisServiceServer, context.Context, *Req) (*Res, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TetrisServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(TetrisServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(TetrisServiceServer).Watch(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

// ServiceClient is the client side of TetrisServiceServer.
type ServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewServiceClient(cc grpc.ClientConnInterface) *ServiceClient {
	return &ServiceClient{cc: cc}
}

func withSession(ctx context.Context, id string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, SessionHeader, id)
}

func (c *ServiceClient) NewSession(ctx context.Context, opts ...grpc.CallOption) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, fullMethod("NewSession"), &emptypb.Empty{}, out, opts...); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

func (c *ServiceClient) Command(ctx context.Context, id string, a tetris.Action, opts ...grpc.CallOption) error {
	return c.cc.Invoke(withSession(ctx, id), fullMethod("Command"), wrapperspb.String(string(a)), new(emptypb.Empty), opts...)
}

func (c *ServiceClient) SetLevel(ctx context.Context, id string, level int, opts ...grpc.CallOption) error {
	return c.cc.Invoke(withSession(ctx, id), fullMethod("SetLevel"), wrapperspb.Int32(int32(level)), new(emptypb.Empty), opts...) //nolint:gosec
}

func (c *ServiceClient) EndSession(ctx context.Context, id string, opts ...grpc.CallOption) error {
	return c.cc.Invoke(withSession(ctx, id), fullMethod("EndSession"), &emptypb.Empty{}, new(emptypb.Empty), opts...)
}

func (c *ServiceClient) Watch(ctx context.Context, id string, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(withSession(ctx, id), &serviceDesc.Streams[0], fullMethod("Watch"), opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	// io.EOF means the server already ended the stream. Recv reports why.
	if err := x.ClientStream.SendMsg(&emptypb.Empty{}); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
