package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/aescanero/coyote/internal/application/guard"
	"github.com/aescanero/coyote/pkg/domain"
	"github.com/aescanero/coyote/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func newServerMetrics(t *testing.T) *metrics.ServerMetrics {
	t.Helper()
	reg, err := metrics.NewRegistry(metrics.Config{})
	require.NoError(t, err)
	return metrics.NewServerMetrics(reg)
}

func TestHealthServingStatus(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := newServer(lis, &Config{
		Guard:   guard.New(),
		Metrics: newServerMetrics(t),
		Logger:  zap.NewNop(),
	})
	go func() { _ = srv.Start() }()
	defer func() { _ = srv.Shutdown(context.Background()) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client := healthpb.NewHealthClient(conn)

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	srv.SetNotServing()

	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

func TestUnaryInterceptorRejectsAfterShutdown(t *testing.T) {
	g := guard.New()
	m := newServerMetrics(t)
	interceptor := guardUnaryInterceptor(g, m, zap.NewNop())
	info := &grpc.UnaryServerInfo{FullMethod: "/coyote.v1.Resources/Get"}

	var inFlight int64
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		inFlight = g.InFlight()
		return "ok", nil
	}

	resp, err := interceptor(context.Background(), nil, info, handler)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.EqualValues(t, 1, inFlight)
	assert.EqualValues(t, 0, g.InFlight())

	g.BeginShutdown()

	called := false
	_, err = interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		called = true
		return nil, nil
	})
	assert.False(t, called)
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.EqualValues(t, 1, m.Registry().Meter("exceptions").Count())
}

func TestUnaryInterceptorSkipsHealth(t *testing.T) {
	g := guard.New()
	g.BeginShutdown()
	interceptor := guardUnaryInterceptor(g, newServerMetrics(t), zap.NewNop())

	resp, err := interceptor(context.Background(), nil,
		&grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"},
		func(ctx context.Context, req interface{}) (interface{}, error) { return "healthy", nil })

	require.NoError(t, err)
	assert.Equal(t, "healthy", resp)
}

func TestUnaryInterceptorConvertsErrors(t *testing.T) {
	interceptor := guardUnaryInterceptor(guard.New(), newServerMetrics(t), zap.NewNop())
	info := &grpc.UnaryServerInfo{FullMethod: "/coyote.v1.Resources/Get"}

	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, domain.NewResourceDoesNotExist("bucket")
	})

	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Equal(t, "resource does not exist: bucket", status.Convert(err).Message())
}

func TestStreamInterceptorRejectsAfterShutdown(t *testing.T) {
	g := guard.New()
	g.BeginShutdown()
	interceptor := guardStreamInterceptor(g, newServerMetrics(t), zap.NewNop())

	called := false
	err := interceptor(nil, nil, &grpc.StreamServerInfo{FullMethod: "/coyote.v1.Resources/Watch"},
		func(srv interface{}, ss grpc.ServerStream) error {
			called = true
			return nil
		})

	assert.False(t, called)
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestCodeForEveryKind(t *testing.T) {
	for _, kind := range domain.Kinds() {
		_, ok := codeFor(kind)
		assert.True(t, ok, "kind %s has no gRPC mapping", kind)
	}

	code, _ := codeFor(domain.KindServiceStopped)
	assert.Equal(t, codes.Unavailable, code)
}

func TestToStatus(t *testing.T) {
	assert.NoError(t, toStatus(nil))

	err := toStatus(errors.New("boom"))
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.Equal(t, "Internal Error!", status.Convert(err).Message())

	existing := status.Error(codes.DeadlineExceeded, "late")
	assert.Equal(t, existing, toStatus(existing))
}
