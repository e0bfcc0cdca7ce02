package main

import (
	apiv1 "github.com/SanjoDeundiak/build-runner/api/v1"
	"github.com/SanjoDeundiak/build-runner/pkg/lib"
	"github.com/SanjoDeundiak/build-runner/pkg/lib/task"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// resolveCommand turns a start request into a runner command. A task supplies
// the base command; request args and env are appended and a request dir
// replaces the task's.
func resolveCommand(tasks *task.Catalogue, request *apiv1.StartRequest) (lib.Command, error) {
	if request.Task != "" && request.Command != "" {
		return lib.Command{}, status.Error(codes.InvalidArgument, "task and command are mutually exclusive")
	}
	if request.Task == "" {
		return lib.Command{
			Command: request.Command,
			Args:    append([]string(nil), request.Args...),
			Dir:     request.Dir,
			Env:     append([]string(nil), request.Env...),
		}, nil
	}

	cmd, err := tasks.Resolve(request.Task, request.Args...)
	if err != nil {
		return lib.Command{}, err
	}
	cmd.Env = append(cmd.Env, request.Env...)
	if request.Dir != "" {
		cmd.Dir = request.Dir
	}
	return cmd, nil
}

func toAPITask(t task.Task) *apiv1.Task {
	return &apiv1.Task{
		Name:        t.Name,
		Description: t.Description,
		Command:     t.Command,
		Args:        append([]string(nil), t.Args...),
		Dir:         t.Dir,
	}
}
