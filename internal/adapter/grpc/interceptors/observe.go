package interceptors

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/seu-repo/sigec-booking/internal/observability/telemetry"
)

// UnaryObserveInterceptor counts and times every call and logs it. Health
// probes arrive every few seconds, so successful calls log at debug.
func UnaryObserveInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		elapsed := time.Since(start)

		code := status.Code(err).String()
		telemetry.GRPCRequestsTotal.WithLabelValues(info.FullMethod, code).Inc()
		telemetry.GRPCRequestDuration.WithLabelValues(info.FullMethod).Observe(elapsed.Seconds())

		if err != nil {
			log.Warn("gRPC call failed",
				zap.String("method", info.FullMethod),
				zap.String("code", code),
				zap.Duration("duration", elapsed),
				zap.Error(err),
			)
		} else {
			log.Debug("gRPC call",
				zap.String("method", info.FullMethod),
				zap.Duration("duration", elapsed),
			)
		}
		return resp, err
	}
}
