package server

import (
	"bytes"
	"context"
	"errors"

	v1 "github.com/emrgen/manual/apis/v1"
	"github.com/emrgen/manual/internal/archive"
	"github.com/emrgen/manual/internal/service"
	"github.com/emrgen/manual/internal/store"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ v1.ManualServiceServer = (*ManualServer)(nil)

// ManualServer exposes the manual service over grpc.
type ManualServer struct {
	manuals *service.ManualService
	v1.UnimplementedManualServiceServer
}

func NewManualServer(manuals *service.ManualService) *ManualServer {
	return &ManualServer{manuals: manuals}
}

func (m *ManualServer) ListManualTree(ctx context.Context, request *v1.ListManualTreeRequest) (*v1.ListManualTreeResponse, error) {
	forest, err := m.manuals.BuildTree(ctx, request.GroupCode, request.GetExpand())
	if err != nil {
		return nil, grpcError(err)
	}

	return &v1.ListManualTreeResponse{Manuals: forest}, nil
}

func (m *ManualServer) ImportManualArchive(ctx context.Context, request *v1.ImportManualArchiveRequest) (*v1.ImportManualArchiveResponse, error) {
	r := bytes.NewReader(request.Archive)
	if err := m.manuals.ImportArchive(ctx, r, r.Size(), request.GroupCode); err != nil {
		return nil, grpcError(err)
	}

	return &v1.ImportManualArchiveResponse{}, nil
}

func (m *ManualServer) SaveManuals(ctx context.Context, request *v1.SaveManualsRequest) (*v1.SaveManualsResponse, error) {
	if err := m.manuals.SaveOrDelete(ctx, request.List, request.DeletedList); err != nil {
		return nil, grpcError(err)
	}

	return &v1.SaveManualsResponse{}, nil
}

func (m *ManualServer) ReplaceManualContent(ctx context.Context, request *v1.ReplaceManualContentRequest) (*v1.ReplaceManualContentResponse, error) {
	manual, err := m.manuals.ReplaceContent(ctx, request.ManualId, service.BytesUpload(request.Content))
	if err != nil {
		return nil, grpcError(err)
	}

	return &v1.ReplaceManualContentResponse{Manual: manual}, nil
}

func grpcError(err error) error {
	switch {
	case errors.Is(err, store.ErrManualNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrInvalidManual),
		errors.Is(err, archive.ErrIllegalPath),
		errors.Is(err, archive.ErrInvalidArchive):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
