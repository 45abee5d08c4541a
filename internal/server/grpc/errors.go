package grpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/server/services"
)

// toStatus maps a flow error to a gRPC status. Internal causes never reach
// the caller.
func toStatus(err error) error {
	msg := ""
	var fe *services.Error
	if errors.As(err, &fe) {
		msg = fe.Msg
	}
	with := func(c codes.Code, fallback string) error {
		if msg == "" {
			msg = fallback
		}
		return status.Error(c, msg)
	}

	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return with(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrorAlreadyExists):
		return with(codes.AlreadyExists, "already exists")
	case errors.Is(err, common.ErrorInvalidArgument):
		return with(codes.InvalidArgument, "invalid argument")
	case errors.Is(err, common.ErrorNotFound):
		return with(codes.NotFound, "not found")
	case errors.Is(err, common.ErrorTimeout):
		return with(codes.DeadlineExceeded, "timeout")
	case errors.Is(err, common.ErrorConflict):
		return with(codes.Aborted, "conflict, please retry")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
