package common

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// AuthInterceptor checks the bearer token on every call and stores the caller's
// session in the context. Methods listed in optional also accept anonymous callers.
func AuthInterceptor(tokens *TokenManager, optional map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get("authorization"); len(vals) > 0 {
				header = vals[0]
			}
		}

		if header == "" {
			if optional[info.FullMethod] {
				return handler(ctx, req)
			}
			return nil, status.Error(codes.Unauthenticated, "authorization required")
		}

		tokenString, ok := BearerToken(header)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "invalid auth header")
		}

		claims, err := tokens.ValidToken(tokenString)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}

		return handler(WithSession(ctx, claims.Session()), req)
	}
}
