package apiv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "buildrunner.v1.BuildRunner"

const (
	startMethod     = "/" + ServiceName + "/Start"
	stopMethod      = "/" + ServiceName + "/Stop"
	statusMethod    = "/" + ServiceName + "/Status"
	listTasksMethod = "/" + ServiceName + "/ListTasks"
	watchMethod     = "/" + ServiceName + "/Watch"
)

// BuildRunnerServer is the server API for the BuildRunner service.
type BuildRunnerServer interface {
	Start(context.Context, *StartRequest) (*StartResponse, error)
	Stop(context.Context, *StopRequest) (*StopResponse, error)
	Status(context.Context, *StatusRequest) (*StatusResponse, error)
	ListTasks(context.Context, *ListTasksRequest) (*ListTasksResponse, error)
	// Watch streams the transcript of a run from the beginning, then one EXIT event.
	Watch(*WatchRequest, grpc.ServerStreamingServer[Event]) error
}

// UnimplementedBuildRunnerServer can be embedded to satisfy BuildRunnerServer.
type UnimplementedBuildRunnerServer struct{}

func (UnimplementedBuildRunnerServer) Start(context.Context, *StartRequest) (*StartResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Start not implemented")
}

func (UnimplementedBuildRunnerServer) Stop(context.Context, *StopRequest) (*StopResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Stop not implemented")
}

func (UnimplementedBuildRunnerServer) Status(context.Context, *StatusRequest) (*StatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Status not implemented")
}

func (UnimplementedBuildRunnerServer) ListTasks(context.Context, *ListTasksRequest) (*ListTasksResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListTasks not implemented")
}

func (UnimplementedBuildRunnerServer) Watch(*WatchRequest, grpc.ServerStreamingServer[Event]) error {
	return status.Error(codes.Unimplemented, "method Watch not implemented")
}

// RegisterBuildRunnerServer registers srv on s.
func RegisterBuildRunnerServer(s grpc.ServiceRegistrar, srv BuildRunnerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes the BuildRunner service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BuildRunnerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Start", Handler: startHandler},
		{MethodName: "Stop", Handler: stopHandler},
		{MethodName: "Status", Handler: statusHandler},
		{MethodName: "ListTasks", Handler: listTasksHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Watch", Handler: watchHandler, ServerStreams: true},
	},
	Metadata: "buildrunner/v1/buildrunner.json",
}

// unary adapts a typed method to a grpc.MethodDesc handler.
func unary[Req any, Resp any](method string, call func(BuildRunnerServer, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BuildRunnerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BuildRunnerServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var (
	startHandler = unary(startMethod, func(s BuildRunnerServer, ctx context.Context, in *StartRequest) (*StartResponse, error) {
		return s.Start(ctx, in)
	})
	stopHandler = unary(stopMethod, func(s BuildRunnerServer, ctx context.Context, in *StopRequest) (*StopResponse, error) {
		return s.Stop(ctx, in)
	})
	statusHandler = unary(statusMethod, func(s BuildRunnerServer, ctx context.Context, in *StatusRequest) (*StatusResponse, error) {
		return s.Status(ctx, in)
	})
	listTasksHandler = unary(listTasksMethod, func(s BuildRunnerServer, ctx context.Context, in *ListTasksRequest) (*ListTasksResponse, error) {
		return s.ListTasks(ctx, in)
	})
)

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(WatchRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(BuildRunnerServer).Watch(in, &grpc.GenericServerStream[WatchRequest, Event]{ServerStream: stream})
}
