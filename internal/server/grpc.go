package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skirmishgg/skirmish-server-go/internal/auth"
	"github.com/skirmishgg/skirmish-server-go/internal/catalog"
	"github.com/skirmishgg/skirmish-server-go/internal/config"
	"github.com/skirmishgg/skirmish-server-go/internal/game"
	"github.com/skirmishgg/skirmish-server-go/internal/match"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name. Every method takes
// and returns a google.protobuf.Struct carrying the JSON form of the
// matching MatchService request and response.
const ServiceName = "skirmish.v1.MatchService"

// matchServer adapts MatchService to the gRPC service description.
type matchServer struct {
	svc    *MatchService
	logger *zap.Logger
}

type unaryCall func(s *matchServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

var matchServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("CreateMatch", (*matchServer).createMatch),
		unaryMethod("GetState", (*matchServer).getState),
		unaryMethod("LegalActions", (*matchServer).legalActions),
		unaryMethod("SubmitAction", (*matchServer).submitAction),
		unaryMethod("SubmitInput", (*matchServer).submitInput),
		unaryMethod("ListRecords", (*matchServer).listRecords),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "skirmish/v1/match.proto",
}

func unaryMethod(name string, call unaryCall) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(*matchServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// NewGRPCServer builds a gRPC server exposing svc with recovery, logging
// and OpenTelemetry instrumentation.
func NewGRPCServer(cfg config.GRPCConfig, svc *MatchService, logger *zap.Logger) *grpc.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(ChainUnaryInterceptors(
			RecoveryInterceptor(logger),
			LoggingInterceptor(logger),
		)),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 10 * time.Second,
		}),
	}
	if cfg.MaxConcurrentStreams > 0 {
		opts = append(opts, grpc.MaxConcurrentStreams(uint32(cfg.MaxConcurrentStreams)))
	}
	s := grpc.NewServer(opts...)
	s.RegisterService(&matchServiceDesc, &matchServer{svc: svc, logger: logger})
	return s
}

func (s *matchServer) createMatch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req CreateMatchRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	resp, err := s.svc.CreateMatch(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(resp)
}

func (s *matchServer) getState(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req MatchRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	resp, err := s.svc.GetState(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(resp)
}

func (s *matchServer) legalActions(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req LegalActionsRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	resp, err := s.svc.LegalActions(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(resp)
}

func (s *matchServer) submitAction(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req SubmitActionRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	resp, err := s.svc.SubmitAction(ctx, seatToken(ctx), req)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(resp)
}

func (s *matchServer) submitInput(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req SubmitInputRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	resp, err := s.svc.SubmitInput(ctx, seatToken(ctx), req)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(resp)
}

func (s *matchServer) listRecords(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req ListRecordsRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	resp, err := s.svc.ListRecords(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(resp)
}

// seatToken reads the bearer token from the authorization metadata.
func seatToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

// toStatus maps domain errors to gRPC status codes.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	var illegal *game.IllegalActionError
	switch {
	case errors.Is(err, match.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.As(err, &illegal):
		return status.Error(codes.FailedPrecondition, illegal.Reason)
	case errors.Is(err, game.ErrNoPendingInput), errors.Is(err, game.ErrNotStarted):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, game.ErrInvalidInput), errors.Is(err, ErrBadRequest),
		errors.Is(err, catalog.ErrUnknownDeck), errors.Is(err, catalog.ErrUnknownCard),
		errors.Is(err, catalog.ErrUnknownLeader):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, game.ErrMatchAborted), errors.Is(err, match.ErrClosed):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, ErrSeatMismatch):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(payload)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func fromStruct(in *structpb.Struct, out any) error {
	if in == nil {
		return nil
	}
	data, err := json.Marshal(in.AsMap())
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return status.Error(codes.InvalidArgument, fmt.Sprintf("decode request: %v", err))
	}
	return nil
}
