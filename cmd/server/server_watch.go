package main

import (
	apiv1 "github.com/SanjoDeundiak/build-runner/api/v1"
	"github.com/SanjoDeundiak/build-runner/pkg/lib/logx"
	"google.golang.org/grpc"
)

func (s *BuildRunnerServer) Watch(request *apiv1.WatchRequest, streaming grpc.ServerStreamingServer[apiv1.Event]) error {
	ctx := streaming.Context()
	sub, err := s.runner.Subscribe(ctx, request.RunID)
	if err != nil {
		return apiv1.ToStatusError(err)
	}
	log := logx.WithRun(s.log(ctx), sub.RunID)
	log.Debug("server watch start")

	for chunk := range sub.Output {
		if err := streaming.Send(&apiv1.Event{Type: apiv1.EventTypeOutput, RunID: sub.RunID, Data: chunk}); err != nil {
			log.Debug("server watch send failed", "err", err)
			return err
		}
	}

	exit, err := sub.Wait(ctx)
	if err != nil {
		return apiv1.ToStatusError(err)
	}
	log.Debug("server watch done", "exit_code", exit.Code)
	return streaming.Send(&apiv1.Event{Type: apiv1.EventTypeExit, RunID: sub.RunID, Exit: apiv1.FromLibExit(&exit)})
}
