package interceptors

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/seu-repo/sigec-route/internal/domain"
)

const callLogKey contextKey = "call_log"

// callLog is filled in by inner interceptors so the outer logging
// interceptor can report who made the call
type callLog struct {
	userID string
	role   domain.UserRole
}

// noteCaller records the authenticated caller for the request log
func noteCaller(ctx context.Context, p *domain.Principal) {
	if cl, ok := ctx.Value(callLogKey).(*callLog); ok && p != nil {
		cl.userID = p.UserID
		cl.role = p.Role
	}
}

// UnaryLoggingInterceptor logs method, caller, duration and status code for
// each request. Rejected client input is logged at info so that warnings
// and errors stay meaningful for on-call.
func UnaryLoggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		cl := &callLog{}

		resp, err := handler(context.WithValue(ctx, callLogKey, cl), req)

		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(start)),
			zap.String("status_code", code.String()),
		}
		if cl.userID != "" {
			fields = append(fields, zap.String("user_id", cl.userID), zap.String("role", string(cl.role)))
		}
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			fields = append(fields, zap.String("peer", p.Addr.String()))
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}

		level, msg := logLevel(code)
		if ce := log.Check(level, msg); ce != nil {
			ce.Write(fields...)
		}
		return resp, err
	}
}

func logLevel(code codes.Code) (zapcore.Level, string) {
	switch code {
	case codes.OK:
		return zapcore.DebugLevel, "gRPC request completed"
	case codes.InvalidArgument, codes.NotFound, codes.AlreadyExists, codes.Unauthenticated,
		codes.PermissionDenied, codes.FailedPrecondition, codes.OutOfRange, codes.Canceled:
		return zapcore.InfoLevel, "gRPC request rejected"
	case codes.DeadlineExceeded, codes.Unavailable, codes.ResourceExhausted:
		return zapcore.WarnLevel, "gRPC request failed"
	default:
		return zapcore.ErrorLevel, "gRPC request failed"
	}
}
