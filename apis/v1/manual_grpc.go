package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ManualService_ListManualTree_FullMethodName       = "/manual.v1.ManualService/ListManualTree"
	ManualService_ImportManualArchive_FullMethodName  = "/manual.v1.ManualService/ImportManualArchive"
	ManualService_SaveManuals_FullMethodName          = "/manual.v1.ManualService/SaveManuals"
	ManualService_ReplaceManualContent_FullMethodName = "/manual.v1.ManualService/ReplaceManualContent"
)

type ManualServiceClient interface {
	ListManualTree(ctx context.Context, in *ListManualTreeRequest, opts ...grpc.CallOption) (*ListManualTreeResponse, error)
	ImportManualArchive(ctx context.Context, in *ImportManualArchiveRequest, opts ...grpc.CallOption) (*ImportManualArchiveResponse, error)
	SaveManuals(ctx context.Context, in *SaveManualsRequest, opts ...grpc.CallOption) (*SaveManualsResponse, error)
	ReplaceManualContent(ctx context.Context, in *ReplaceManualContentRequest, opts ...grpc.CallOption) (*ReplaceManualContentResponse, error)
}

type manualServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewManualServiceClient(cc grpc.ClientConnInterface) ManualServiceClient {
	return &manualServiceClient{cc}
}

func (c *manualServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *manualServiceClient) ListManualTree(ctx context.Context, in *ListManualTreeRequest, opts ...grpc.CallOption) (*ListManualTreeResponse, error) {
	out := new(ListManualTreeResponse)
	if err := c.invoke(ctx, ManualService_ListManualTree_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *manualServiceClient) ImportManualArchive(ctx context.Context, in *ImportManualArchiveRequest, opts ...grpc.CallOption) (*ImportManualArchiveResponse, error) {
	out := new(ImportManualArchiveResponse)
	if err := c.invoke(ctx, ManualService_ImportManualArchive_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *manualServiceClient) SaveManuals(ctx context.Context, in *SaveManualsRequest, opts ...grpc.CallOption) (*SaveManualsResponse, error) {
	out := new(SaveManualsResponse)
	if err := c.invoke(ctx, ManualService_SaveManuals_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *manualServiceClient) ReplaceManualContent(ctx context.Context, in *ReplaceManualContentRequest, opts ...grpc.CallOption) (*ReplaceManualContentResponse, error) {
	out := new(ReplaceManualContentResponse)
	if err := c.invoke(ctx, ManualService_ReplaceManualContent_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

type ManualServiceServer interface {
	ListManualTree(context.Context, *ListManualTreeRequest) (*ListManualTreeResponse, error)
	ImportManualArchive(context.Context, *ImportManualArchiveRequest) (*ImportManualArchiveResponse, error)
	SaveManuals(context.Context, *SaveManualsRequest) (*SaveManualsResponse, error)
	ReplaceManualContent(context.Context, *ReplaceManualContentRequest) (*ReplaceManualContentResponse, error)
}

// UnimplementedManualServiceServer can be embedded to have forward compatible implementations.
type UnimplementedManualServiceServer struct{}

func (UnimplementedManualServiceServer) ListManualTree(context.Context, *ListManualTreeRequest) (*ListManualTreeResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListManualTree not implemented")
}

func (UnimplementedManualServiceServer) ImportManualArchive(context.Context, *ImportManualArchiveRequest) (*ImportManualArchiveResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ImportManualArchive not implemented")
}

func (UnimplementedManualServiceServer) SaveManuals(context.Context, *SaveManualsRequest) (*SaveManualsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SaveManuals not implemented")
}

func (UnimplementedManualServiceServer) ReplaceManualContent(context.Context, *ReplaceManualContentRequest) (*ReplaceManualContentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ReplaceManualContent not implemented")
}

func RegisterManualServiceServer(s grpc.ServiceRegistrar, srv ManualServiceServer) {
	s.RegisterService(&ManualService_ServiceDesc, srv)
}

// unaryHandler adapts a typed method into a grpc.MethodDesc handler.
func unaryHandler[Req any, Res any](fullMethod string, call func(ManualServiceServer, context.Context, *Req) (*Res, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ManualServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ManualServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ManualService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "manual.v1.ManualService",
	HandlerType: (*ManualServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListManualTree",
			Handler:    unaryHandler(ManualService_ListManualTree_FullMethodName, ManualServiceServer.ListManualTree),
		},
		{
			MethodName: "ImportManualArchive",
			Handler:    unaryHandler(ManualService_ImportManualArchive_FullMethodName, ManualServiceServer.ImportManualArchive),
		},
		{
			MethodName: "SaveManuals",
			Handler:    unaryHandler(ManualService_SaveManuals_FullMethodName, ManualServiceServer.SaveManuals),
		},
		{
			MethodName: "ReplaceManualContent",
			Handler:    unaryHandler(ManualService_ReplaceManualContent_FullMethodName, ManualServiceServer.ReplaceManualContent),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "apis/v1/manual_grpc.go",
}
