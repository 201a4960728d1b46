package rpc

import (
	"context"
	"time"

	"clipshare/internal/common"
	"clipshare/internal/metrics"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const ServiceName = "clipshare.v1.PlatformService"

// PlatformServer is the server API for clipshare.v1.PlatformService.
type PlatformServer interface {
	CurrentSession(context.Context, *Empty) (*SessionReply, error)
	ListItems(context.Context, *ListItemsRequest) (*ListItemsReply, error)
	ListMembership(context.Context, *MembershipRequest) (*ListMembershipReply, error)
	InsertMembership(context.Context, *MembershipRequest) (*Empty, error)
	DeleteMembership(context.Context, *MembershipRequest) (*Empty, error)
	AdjustCounter(context.Context, *AdjustCounterRequest) (*Empty, error)
	CreateNotification(context.Context, *NotificationRequest) (*Empty, error)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// unaryMethod builds the descriptor entry protoc-gen-go-grpc would generate for one method.
func unaryMethod[Req, Resp any](name string, call func(PlatformServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PlatformServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(PlatformServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var PlatformServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PlatformServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("CurrentSession", PlatformServer.CurrentSession),
		unaryMethod("ListItems", PlatformServer.ListItems),
		unaryMethod("ListMembership", PlatformServer.ListMembership),
		unaryMethod("InsertMembership", PlatformServer.InsertMembership),
		unaryMethod("DeleteMembership", PlatformServer.DeleteMembership),
		unaryMethod("AdjustCounter", PlatformServer.AdjustCounter),
		unaryMethod("CreateNotification", PlatformServer.CreateNotification),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "clipshare/v1/platform.proto",
}

func RegisterPlatformServer(s grpc.ServiceRegistrar, srv PlatformServer) {
	s.RegisterService(&PlatformServiceDesc, srv)
}

// OptionalAuth lists the methods anonymous callers may use.
var OptionalAuth = map[string]bool{
	fullMethod("CurrentSession"): true,
	fullMethod("ListItems"):      true,
}

// NewServer returns a gRPC server with the platform service registered behind
// logging, metrics and bearer-token auth.
func NewServer(srv PlatformServer, tokens *common.TokenManager, log *zap.Logger) *grpc.Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := grpc.NewServer(
		grpc.ForceServerCodec(jsonCodec{}),
		grpc.ChainUnaryInterceptor(
			LoggingUnaryInterceptor(log),
			MetricsUnaryInterceptor(metrics.Get()),
			common.AuthInterceptor(tokens, OptionalAuth),
		),
	)
	RegisterPlatformServer(s, srv)
	return s
}

func LoggingUnaryInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(start)),
		}
		if err != nil {
			log.Warn("rpc failed", append(fields, zap.String("code", status.Code(err).String()), zap.Error(err))...)
		} else {
			log.Debug("rpc completed", fields...)
		}
		return resp, err
	}
}

func MetricsUnaryInterceptor(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		m.RPCRequestsTotal.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		return resp, err
	}
}
