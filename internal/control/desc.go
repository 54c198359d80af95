// Package control serves the daemon's operator API over gRPC on the
// instance's unix socket. Messages are protobuf well-known types, so no
// generated code is needed.
package control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const serviceName = "chatline.control.v1.Control"

const (
	methodGetStatus     = "/" + serviceName + "/GetStatus"
	methodListOnline    = "/" + serviceName + "/ListOnline"
	methodDisconnect    = "/" + serviceName + "/Disconnect"
	methodWatchPresence = "/" + serviceName + "/WatchPresence"
)

// ControlServer is the server API of chatline.control.v1.Control.
type ControlServer interface {
	GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ListOnline(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	Disconnect(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	WatchPresence(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
}

// Register attaches srv to a gRPC server.
func Register(s grpc.ServiceRegistrar, srv ControlServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetStatus", Handler: getStatusHandler},
		{MethodName: "ListOnline", Handler: listOnlineHandler},
		{MethodName: "Disconnect", Handler: disconnectHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchPresence", Handler: watchPresenceHandler, ServerStreams: true},
	},
	Metadata: "chatline/control/v1/control.proto",
}

func getStatusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).GetStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetStatus}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).GetStatus(ctx, req.(*emptypb.Empty))
	})
}

func listOnlineHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).ListOnline(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListOnline}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).ListOnline(ctx, req.(*emptypb.Empty))
	})
}

func disconnectHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).Disconnect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodDisconnect}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).Disconnect(ctx, req.(*wrapperspb.StringValue))
	})
}

func watchPresenceHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ControlServer).WatchPresence(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}
