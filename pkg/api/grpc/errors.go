package grpc

import (
	"errors"

	"github.com/aescanero/coyote/pkg/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// codeFor maps an error kind to its gRPC code. ok is false for kinds
// without a mapping.
func codeFor(kind domain.Kind) (code codes.Code, ok bool) {
	switch kind {
	case domain.KindInvalidArgument,
		domain.KindIncompleteHeaders,
		domain.KindInvalidContentSize,
		domain.KindBadChunkID:
		return codes.InvalidArgument, true
	case domain.KindServiceStopped, domain.KindResourceNotAvailable:
		return codes.Unavailable, true
	case domain.KindResourceDoesNotExist:
		return codes.NotFound, true
	case domain.KindResourceAlreadyExists:
		return codes.AlreadyExists, true
	case domain.KindOperationFailed, domain.KindInternal:
		return codes.Internal, true
	}
	return codes.Internal, false
}

// toStatus converts service errors to gRPC status errors. Errors that
// already carry a status are returned unchanged.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var e *domain.Error
	if !errors.As(err, &e) {
		return status.Error(codes.Internal, "Internal Error!")
	}

	code, _ := codeFor(e.Kind)
	return status.Error(code, e.Message)
}
