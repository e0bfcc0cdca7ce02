package main

import (
	"context"

	apiv1 "github.com/SanjoDeundiak/build-runner/api/v1"
	"github.com/SanjoDeundiak/build-runner/pkg/lib"
)

func (s *BuildRunnerServer) Stop(ctx context.Context, request *apiv1.StopRequest) (*apiv1.StopResponse, error) {
	current := s.runner.Status()
	if current.State == lib.RunStateRunning {
		if err := s.checkOwnership(ctx, current.RunID); err != nil {
			return nil, err
		}
	}

	if err := s.runner.StopRun(request.RunID); err != nil {
		s.log(ctx).Debug("server stop failed", "run_id", request.RunID, "err", err)
		return nil, apiv1.ToStatusError(err)
	}
	s.log(ctx).Info("server stop", "run_id", current.RunID)

	return &apiv1.StopResponse{Status: apiv1.FromLibStatus(s.runner.Status())}, nil
}
