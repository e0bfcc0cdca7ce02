package main

import (
	"context"

	apiv1 "github.com/SanjoDeundiak/build-runner/api/v1"
)

func (s *BuildRunnerServer) Start(ctx context.Context, request *apiv1.StartRequest) (*apiv1.StartResponse, error) {
	log := s.log(ctx)

	spec, err := resolveCommand(s.tasks, request)
	if err != nil {
		log.Warn("server start rejected", "task", request.Task, "err", err)
		return nil, apiv1.ToStatusError(err)
	}

	startResult, err := s.runner.StartCommand(spec)
	if err != nil {
		log.Warn("server start failed", "command", spec.String(), "err", err)
		return nil, apiv1.ToStatusError(err)
	}
	log.Info("server start", "run_id", startResult.ID, "command", spec.String(), "task", spec.Task)

	s.mu.Lock()
	s.owner = callerFromContext(ctx)
	s.ownerRun = startResult.ID
	s.mu.Unlock()

	return &apiv1.StartResponse{
		RunID:  startResult.ID,
		Status: apiv1.FromLibStatus(*startResult.Status),
	}, nil
}
