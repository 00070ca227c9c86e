package interceptors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/seu-repo/sigec-booking/internal/domain"
)

type staticVerifier map[string]domain.Actor

func (v staticVerifier) Verify(token string) (domain.Actor, error) {
	actor, ok := v[token]
	if !ok {
		return domain.Actor{}, errors.New("unknown token")
	}
	return actor, nil
}

var verifier = staticVerifier{"staff": {ID: "op-1", Role: domain.UserRoleOperator}}

func withAuth(value string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", value))
}

func TestUnaryAuthInterceptor(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/sigec.booking.v1.Booking/Get"}
	tests := []struct {
		name string
		ctx  context.Context
		code codes.Code
	}{
		{name: "valid token", ctx: withAuth("Bearer staff"), code: codes.OK},
		{name: "no metadata", ctx: context.Background(), code: codes.Unauthenticated},
		{name: "no header", ctx: metadata.NewIncomingContext(context.Background(), metadata.MD{}), code: codes.Unauthenticated},
		{name: "not bearer", ctx: withAuth("Basic staff"), code: codes.Unauthenticated},
		{name: "unknown token", ctx: withAuth("Bearer forged"), code: codes.Unauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen domain.Actor
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				seen, _ = ActorFromContext(ctx)
				return "ok", nil
			}

			_, err := UnaryAuthInterceptor(verifier)(tt.ctx, nil, info, handler)
			assert.Equal(t, tt.code, status.Code(err))
			if tt.code == codes.OK {
				assert.Equal(t, "op-1", seen.ID)
			}
		})
	}
}

func TestUnaryAuthInterceptor_SkipsHealth(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	resp, err := UnaryAuthInterceptor(verifier)(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "serving", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "serving", resp)
}

func TestUnaryObserveInterceptor(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	core, logs := observer.New(zapcore.DebugLevel)
	intercept := UnaryObserveInterceptor(zap.New(core))

	_, err := intercept(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.Unavailable, "down")
	})
	assert.Equal(t, codes.Unavailable, status.Code(err))

	resp, err := intercept(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "serving", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "serving", resp)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "Unavailable", entries[0].ContextMap()["code"])
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
}
