package server

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/seu-repo/sigec-booking/internal/domain"
)

type noVerifier struct{}

func (noVerifier) Verify(string) (domain.Actor, error) { return domain.Actor{}, nil }

func TestHealthFollowsReadiness(t *testing.T) {
	var ready atomic.Bool
	ready.Store(true)
	srv := NewGRPCServer(func(ctx context.Context) bool { return ready.Load() }, noVerifier{}, zap.NewNop())

	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	client := healthpb.NewHealthClient(conn)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.WatchReadiness(ctx, 10*time.Millisecond)

	check := func() healthpb.HealthCheckResponse_ServingStatus {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
		if err != nil {
			return healthpb.HealthCheckResponse_UNKNOWN
		}
		return resp.Status
	}

	assert.Eventually(t, func() bool { return check() == healthpb.HealthCheckResponse_SERVING }, time.Second, 10*time.Millisecond)

	ready.Store(false)
	assert.Eventually(t, func() bool { return check() == healthpb.HealthCheckResponse_NOT_SERVING }, time.Second, 10*time.Millisecond)
}
