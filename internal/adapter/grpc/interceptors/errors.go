package interceptors

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/seu-repo/sigec-route/internal/domain"
)

// UnaryErrorInterceptor turns domain errors into gRPC status errors. Errors
// that already carry a status pass through.
func UnaryErrorInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		return resp, ToStatus(err)
	}
}

func ToStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case domain.IsValidation(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case domain.IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
