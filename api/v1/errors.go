package apiv1

import (
	"context"
	"errors"
	"strings"

	"github.com/SanjoDeundiak/build-runner/pkg/lib"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ToStatusError maps runner errors to gRPC status errors.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	case errors.Is(err, lib.ErrAlreadyRunning), errors.Is(err, lib.ErrNotRunning), errors.Is(err, lib.ErrNoRun):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, lib.ErrLaunchFailure):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, lib.ErrUnknownTask), errors.Is(err, lib.ErrUnknownRun):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, lib.ErrCommandRequired):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, lib.ErrRunnerClosed):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// FromStatusError maps a gRPC status error back to the runner error it was
// produced from, so callers can use errors.Is. The result keeps the status
// message and code. Other errors are returned as is.
func FromStatusError(err error) error {
	st, ok := status.FromError(err)
	if !ok || err == nil {
		return err
	}
	var sentinel error
	switch st.Code() {
	case codes.FailedPrecondition:
		sentinel = matchMessage(st.Message(), lib.ErrAlreadyRunning, lib.ErrNotRunning, lib.ErrNoRun)
	case codes.Aborted:
		sentinel = lib.ErrLaunchFailure
	case codes.NotFound:
		sentinel = matchMessage(st.Message(), lib.ErrUnknownTask, lib.ErrUnknownRun)
	case codes.InvalidArgument:
		sentinel = matchMessage(st.Message(), lib.ErrCommandRequired)
	case codes.Unavailable:
		sentinel = matchMessage(st.Message(), lib.ErrRunnerClosed)
	}
	if sentinel == nil {
		return err
	}
	return &remoteError{status: st, sentinel: sentinel}
}

func matchMessage(msg string, candidates ...error) error {
	for _, c := range candidates {
		if strings.Contains(msg, c.Error()) {
			return c
		}
	}
	return nil
}

// remoteError is a runner error received from a daemon.
type remoteError struct {
	status   *status.Status
	sentinel error
}

func (e *remoteError) Error() string {
	return e.status.Message()
}

func (e *remoteError) Unwrap() error {
	return e.sentinel
}

// GRPCStatus keeps status.Code working on mapped errors.
func (e *remoteError) GRPCStatus() *status.Status {
	return e.status
}
