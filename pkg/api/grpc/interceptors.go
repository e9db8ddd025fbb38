package grpc

import (
	"context"
	"strings"
	"time"

	"github.com/aescanero/coyote/internal/application/guard"
	"github.com/aescanero/coyote/pkg/metrics"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// unguardedPrefixes lists services that keep answering during shutdown
var unguardedPrefixes = []string{
	"/grpc.health.v1.Health/",
	"/grpc.reflection.",
}

func isUnguarded(method string) bool {
	for _, prefix := range unguardedPrefixes {
		if strings.HasPrefix(method, prefix) {
			return true
		}
	}
	return false
}

// guardUnaryInterceptor runs unary RPCs through the execution guard and
// records their outcome in the request metrics
func guardUnaryInterceptor(g *guard.Guard, m *metrics.ServerMetrics, logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if isUnguarded(info.FullMethod) {
			return handler(ctx, req)
		}

		start := time.Now()
		token, err := g.Enter()
		if err != nil {
			m.MarkException(err)
			m.ObserveRequest(start, true)
			logger.Debug("rejected RPC during shutdown", zap.String("method", info.FullMethod))
			return nil, toStatus(err)
		}

		var resp interface{}
		err = g.Execute(token, func() error {
			var herr error
			resp, herr = handler(ctx, req)
			return herr
		})
		m.ObserveRequest(start, err != nil)
		return resp, toStatus(err)
	}
}

// guardStreamInterceptor runs streaming RPCs through the execution guard
func guardStreamInterceptor(g *guard.Guard, m *metrics.ServerMetrics, logger *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if isUnguarded(info.FullMethod) {
			return handler(srv, ss)
		}

		start := time.Now()
		token, err := g.Enter()
		if err != nil {
			m.MarkException(err)
			m.ObserveRequest(start, true)
			logger.Debug("rejected stream during shutdown", zap.String("method", info.FullMethod))
			return toStatus(err)
		}

		err = g.Execute(token, func() error {
			return handler(srv, ss)
		})
		m.ObserveRequest(start, err != nil)
		return toStatus(err)
	}
}
