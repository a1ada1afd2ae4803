package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/seu-repo/sigec-route/internal/observability/telemetry"
)

// UnaryMetricsInterceptor counts requests by method and code and records
// their latency.
func UnaryMetricsInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		st, _ := status.FromError(err)
		telemetry.GRPCRequests.WithLabelValues(info.FullMethod, st.Code().String()).Inc()
		telemetry.GRPCLatency.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())

		return resp, err
	}
}
