package server

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/seu-repo/sigec-booking/internal/adapter/grpc/interceptors"
)

// ServiceName is the name reported to gRPC health clients.
const ServiceName = "sigec.booking.v1.Booking"

// ReadinessFunc reports whether the service can take traffic.
type ReadinessFunc func(ctx context.Context) bool

// GRPCServer exposes the standard health protocol for load balancers and
// service meshes. Serving status follows the readiness checks.
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	ready  ReadinessFunc
	log    *zap.Logger
}

func NewGRPCServer(ready ReadinessFunc, verifier interceptors.TokenVerifier, log *zap.Logger) *GRPCServer {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptors.UnaryObserveInterceptor(log),
			interceptors.UnaryAuthInterceptor(verifier),
		),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)

	// Enable reflection for debugging (e.g. grpcurl)
	reflection.Register(s)

	return &GRPCServer{
		server: s,
		health: hs,
		ready:  ready,
		log:    log,
	}
}

func (s *GRPCServer) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

// WatchReadiness refreshes the health status every interval until ctx ends.
func (s *GRPCServer) WatchReadiness(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	s.refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *GRPCServer) refresh(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if s.ready != nil && !s.ready(ctx) {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

func (s *GRPCServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
