package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/romaneio-sheets/internal/common"
	"github.com/joseph-ayodele/romaneio-sheets/internal/export"
	"github.com/joseph-ayodele/romaneio-sheets/internal/services/documents"
	"github.com/joseph-ayodele/romaneio-sheets/internal/services/history"
	"github.com/joseph-ayodele/romaneio-sheets/internal/utils"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "romaneio.v1.RomaneioService"

// RomaneioServer is the API contract served over gRPC. Requests and
// responses are well-known protobuf types so no generated code is needed.
type RomaneioServer interface {
	Parse(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportXLSX(context.Context, *structpb.Struct) (*wrapperspb.BytesValue, error)
	ListRuns(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RomaneioService implements RomaneioServer on top of the documents service.
type RomaneioService struct {
	docs   *documents.Service
	export *export.Service
	logger *slog.Logger
}

func NewRomaneioService(docs *documents.Service, exp *export.Service, logger *slog.Logger) *RomaneioService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RomaneioService{docs: docs, export: exp, logger: logger}
}

func (s *RomaneioService) parse(ctx context.Context, in *structpb.Struct) (*documents.Outcome, error) {
	var req utils.ParseRequest
	if err := utils.FromStruct(in, &req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Inline() {
		return s.docs.ParseTexts(ctx, history.OriginGRPC, req.Texts())
	}
	return s.docs.ParseUploads(ctx, history.OriginGRPC, req.Uploads())
}

func (s *RomaneioService) Parse(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	out, err := s.parse(ctx, in)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	resp, err := utils.ToStruct(utils.NewBatchView(out.RunID, out.Batch))
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return resp, nil
}

func (s *RomaneioService) ExportXLSX(ctx context.Context, in *structpb.Struct) (*wrapperspb.BytesValue, error) {
	out, err := s.parse(ctx, in)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	data, err := s.export.WriteXLSX(out.Batch.Records())
	if err != nil {
		s.logger.Error("grpc.export.failed", "error", err)
		return nil, common.InternalErrorf("export: %v", err)
	}
	return wrapperspb.Bytes(data), nil
}

func (s *RomaneioService) ListRuns(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req utils.ListRunsRequest
	if err := utils.FromStruct(in, &req); err != nil {
		return nil, common.ToStatus(err)
	}
	limit, err := req.Normalize()
	if err != nil {
		return nil, common.ToStatus(err)
	}
	runs, err := s.docs.History().ListRuns(ctx, limit)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return structOrInternal(utils.NewRunsView(runs))
}

func (s *RomaneioService) GetRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req utils.RunRequest
	if err := utils.FromStruct(in, &req); err != nil {
		return nil, common.ToStatus(err)
	}
	id, err := req.RunID()
	if err != nil {
		return nil, common.ToStatus(err)
	}
	view, err := runDetail(ctx, s.docs.History(), id, req.IncludeRecords)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return structOrInternal(view)
}

func runDetail(ctx context.Context, hist *history.Service, id uuid.UUID, withRecords bool) (utils.RunDetailView, error) {
	detail, err := hist.GetRun(ctx, id)
	if err != nil {
		return utils.RunDetailView{}, err
	}
	view := utils.RunDetailView{Run: detail.Run, Documents: detail.Documents}
	if withRecords {
		if view.Records, err = hist.RunRecords(ctx, id); err != nil {
			return utils.RunDetailView{}, err
		}
	}
	return view, nil
}

func structOrInternal(v any) (*structpb.Struct, error) {
	out, err := utils.ToStruct(v)
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return out, nil
}

func unaryHandler[Resp any](call func(RomaneioServer, context.Context, *structpb.Struct) (Resp, error), method string) grpc.MethodHandler {
	full := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RomaneioServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RomaneioServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes RomaneioService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RomaneioServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Parse", Handler: unaryHandler(RomaneioServer.Parse, "Parse")},
		{MethodName: "ExportXLSX", Handler: unaryHandler(RomaneioServer.ExportXLSX, "ExportXLSX")},
		{MethodName: "ListRuns", Handler: unaryHandler(RomaneioServer.ListRuns, "ListRuns")},
		{MethodName: "GetRun", Handler: unaryHandler(RomaneioServer.GetRun, "GetRun")},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "romaneio/v1/romaneio.proto",
}

// RegisterRomaneioServer registers srv on s.
func RegisterRomaneioServer(s grpc.ServiceRegistrar, srv RomaneioServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// NewGRPCServer builds a server with the romaneio, health and reflection
// services registered and request logging installed. maxMsg bounds request
// size in bytes; zero keeps the grpc default.
func NewGRPCServer(srv RomaneioServer, maxMsg int, logger *slog.Logger) *grpc.Server {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []grpc.ServerOption{grpc.ChainUnaryInterceptor(loggingInterceptor(logger))}
	if maxMsg > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(maxMsg))
	}
	gs := grpc.NewServer(opts...)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(gs)

	RegisterRomaneioServer(gs, srv)
	return gs
}

func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		reqID := uuid.NewString()
		ctx = common.WithRequestID(ctx, reqID)
		start := time.Now()
		resp, err := handler(ctx, req)
		attrs := []any{"method", info.FullMethod, "request_id", reqID, "duration", time.Since(start)}
		if err != nil {
			logger.Warn("grpc.request.failed", append(attrs, "error", err)...)
			return resp, common.ToStatus(err)
		}
		logger.Info("grpc.request.ok", attrs...)
		return resp, nil
	}
}
