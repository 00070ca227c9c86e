package interceptors

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/seu-repo/sigec-booking/internal/domain"
)

// TokenVerifier resolves a bearer token to the calling actor.
type TokenVerifier interface {
	Verify(token string) (domain.Actor, error)
}

type contextKey string

const actorKey contextKey = "actor"

// ActorFromContext returns the actor set by UnaryAuthInterceptor.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(domain.Actor)
	return actor, ok
}

// UnaryAuthInterceptor creates a gRPC unary interceptor for JWT authentication
func UnaryAuthInterceptor(verifier TokenVerifier) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		// Skip auth for health check methods
		if strings.HasPrefix(info.FullMethod, "/grpc.health.v1.Health/") {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		authHeader := md.Get("authorization")
		if len(authHeader) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing authorization header")
		}

		tokenString, found := strings.CutPrefix(authHeader[0], "Bearer ")
		if !found || tokenString == "" {
			return nil, status.Error(codes.Unauthenticated, "invalid authorization header format")
		}

		actor, err := verifier.Verify(tokenString)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		return handler(context.WithValue(ctx, actorKey, actor), req)
	}
}
