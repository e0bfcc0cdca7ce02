package main

import (
	"context"

	apiv1 "github.com/SanjoDeundiak/build-runner/api/v1"
)

func (s *BuildRunnerServer) Status(ctx context.Context, _ *apiv1.StatusRequest) (*apiv1.StatusResponse, error) {
	return &apiv1.StatusResponse{Status: apiv1.FromLibStatus(s.runner.Status())}, nil
}

func (s *BuildRunnerServer) ListTasks(ctx context.Context, _ *apiv1.ListTasksRequest) (*apiv1.ListTasksResponse, error) {
	tasks := s.tasks.List()
	resp := &apiv1.ListTasksResponse{Tasks: make([]*apiv1.Task, 0, len(tasks))}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, toAPITask(t))
	}
	return resp, nil
}
