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

	"github.com/seu-repo/sigec-route/internal/adapter/grpc/interceptors"
	"github.com/seu-repo/sigec-route/internal/ports"
)

// ServiceName is the name the readiness status is published under
const ServiceName = "sigec.route.v1"

// ReadinessFunc reports whether the service can take traffic
type ReadinessFunc func(ctx context.Context) bool

// GRPCServer exposes the standard health protocol and reflection. Its
// serving status follows the HTTP readiness checks.
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	log    *zap.Logger
}

func NewGRPCServer(auth ports.AuthService, maxStreams uint32, log *zap.Logger) *GRPCServer {
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			interceptors.UnaryLoggingInterceptor(log),
			interceptors.UnaryMetricsInterceptor(),
			interceptors.UnaryErrorInterceptor(),
			interceptors.UnaryAuthInterceptor(auth),
		),
	}
	if maxStreams > 0 {
		opts = append(opts, grpc.MaxConcurrentStreams(maxStreams))
	}
	s := grpc.NewServer(opts...)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, hs)

	// Enable reflection for debugging (e.g. grpcurl)
	reflection.Register(s)

	return &GRPCServer{
		server: s,
		health: hs,
		log:    log,
	}
}

func (s *GRPCServer) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

// WatchReadiness polls ready every interval and publishes the result as the
// serving status until ctx is done.
func (s *GRPCServer) WatchReadiness(ctx context.Context, ready ReadinessFunc, interval time.Duration) {
	update := func() {
		st := healthpb.HealthCheckResponse_NOT_SERVING
		if ready(ctx) {
			st = healthpb.HealthCheckResponse_SERVING
		}
		s.health.SetServingStatus(ServiceName, st)
		s.health.SetServingStatus("", st)
	}

	update()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update()
		}
	}
}

func (s *GRPCServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
