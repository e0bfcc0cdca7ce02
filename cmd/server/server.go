package main

import (
	"context"
	"sync"

	apiv1 "github.com/SanjoDeundiak/build-runner/api/v1"
	"github.com/SanjoDeundiak/build-runner/pkg/lib"
	"github.com/SanjoDeundiak/build-runner/pkg/lib/config"
	"github.com/SanjoDeundiak/build-runner/pkg/lib/runner"
	"github.com/SanjoDeundiak/build-runner/pkg/lib/task"
	"pkt.systems/pslog"
)

// BuildRunnerServer serves the control API on top of a single runner.
type BuildRunnerServer struct {
	apiv1.UnimplementedBuildRunnerServer
	runner *runner.Runner
	tasks  *task.Catalogue
	logger pslog.Logger

	mu sync.Mutex
	// owner is the caller identity that started ownerRun, empty for local callers.
	owner    string
	ownerRun string
}

// NewBuildRunnerServer creates the runner described by cfg.
func NewBuildRunnerServer(ctx context.Context, cfg config.Config) (*BuildRunnerServer, error) {
	logger := pslog.Ctx(ctx)
	tasks, err := cfg.Catalogue()
	if err != nil {
		return nil, err
	}

	opts := cfg.Runner.RunnerOptions()
	opts.Listener = newLogListener(logger)
	opts.Logger = logger
	r, err := runner.NewRunner(opts)
	if err != nil {
		return nil, err
	}

	return &BuildRunnerServer{
		runner: r,
		tasks:  tasks,
		logger: logger,
	}, nil
}

// Close stops a running build and releases the runner.
func (s *BuildRunnerServer) Close(ctx context.Context) error {
	return s.runner.Close(ctx)
}

func (s *BuildRunnerServer) log(ctx context.Context) pslog.Logger {
	if logger, ok := loggerFromContext(ctx); ok {
		return logger
	}
	return s.logger
}

// logListener reports run events in the daemon log.
type logListener struct {
	logger pslog.Logger
}

func newLogListener(logger pslog.Logger) *logListener {
	return &logListener{logger: logger}
}

func (l *logListener) OnStart(runID string, command lib.Command) {
	l.logger.Info("server run started", "run_id", runID, "command", command.String(), "task", command.Task)
}

func (l *logListener) OnOutput(runID string, chunk []byte) {
	l.logger.Trace("server run output", "run_id", runID, "bytes", len(chunk))
}

func (l *logListener) OnExit(runID string, status lib.ExitStatus) {
	if status.Success() {
		l.logger.Info("server run finished", "run_id", runID, "exit_code", status.Code)
		return
	}
	l.logger.Warn("server run failed", "run_id", runID, "exit_code", status.Code, "signal", status.Signal, "stopped", status.Stopped, "err", status.Err)
}
