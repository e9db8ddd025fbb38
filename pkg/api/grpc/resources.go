package grpc

import (
	"context"

	"github.com/aescanero/coyote/internal/application/resources"
	"github.com/aescanero/coyote/pkg/domain"
	"github.com/aescanero/coyote/pkg/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ResourceKeyHeader is the metadata key naming the resource of a Put call
const ResourceKeyHeader = "x-resource-key"

// ResourcesServer is the server API for the coyote.v1.Resources service
type ResourcesServer interface {
	Get(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	Put(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
	Delete(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
}

// RegisterResourcesServer registers srv on s
func RegisterResourcesServer(s grpc.ServiceRegistrar, srv ResourcesServer) {
	s.RegisterService(&resourcesServiceDesc, srv)
}

var resourcesServiceDesc = grpc.ServiceDesc{
	ServiceName: "coyote.v1.Resources",
	HandlerType: (*ResourcesServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Get", Handler: resourcesGetHandler},
		{MethodName: "Put", Handler: resourcesPutHandler},
		{MethodName: "Delete", Handler: resourcesDeleteHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "coyote/v1/resources.proto",
}

func resourcesGetHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ResourcesServer).Get(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/coyote.v1.Resources/Get"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ResourcesServer).Get(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func resourcesPutHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ResourcesServer).Put(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/coyote.v1.Resources/Put"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ResourcesServer).Put(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func resourcesDeleteHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ResourcesServer).Delete(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/coyote.v1.Resources/Delete"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ResourcesServer).Delete(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// resourcesService serves the resource endpoints over gRPC
type resourcesService struct {
	resources *resources.Service
	metrics   *metrics.ServerMetrics
}

func (s *resourcesService) Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	value, err := s.resources.Get(ctx, in.GetValue())
	if err != nil {
		return nil, err
	}
	return wrapperspb.Bytes(value), nil
}

// Put stores the message value under the key carried in ResourceKeyHeader
func (s *resourcesService) Put(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	keys := md.Get(ResourceKeyHeader)
	if len(keys) == 0 {
		err := domain.NewIncompleteHeaders(ResourceKeyHeader)
		s.metrics.PutRequest.MarkError(1)
		s.metrics.MarkException(err)
		return nil, err
	}

	if err := s.resources.Put(ctx, keys[0], in.GetValue()); err != nil {
		return nil, err
	}
	return &emptypb.Empty{}, nil
}

func (s *resourcesService) Delete(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.resources.Delete(ctx, in.GetValue()); err != nil {
		return nil, err
	}
	return &emptypb.Empty{}, nil
}
